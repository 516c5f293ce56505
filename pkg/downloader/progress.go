package downloader

import (
	"context"
	"fmt"
	"hash"
	"strconv"
)

// StatusFunc receives download progress: file name, bytes written and total
// (human readable, total empty when unknown) and the completed percentage.
type StatusFunc func(fileName, current, total string, percentage float64)

type progressWriter struct {
	fileName       string
	total          int64
	written        int64
	downloadStatus StatusFunc
	hash           hash.Hash
	ctx            context.Context
}

func (pw *progressWriter) Write(p []byte) (n int, err error) {
	// Check for cancellation before writing
	if pw.ctx != nil {
		select {
		case <-pw.ctx.Done():
			return 0, pw.ctx.Err()
		default:
		}
	}

	n, err = pw.hash.Write(p)
	if err != nil {
		return n, err
	}
	pw.written += int64(n)

	if pw.downloadStatus == nil {
		return
	}
	if pw.total > 0 {
		percentage := float64(pw.written) / float64(pw.total) * 100
		pw.downloadStatus(pw.fileName, formatBytes(pw.written), formatBytes(pw.total), percentage)
	} else {
		pw.downloadStatus(pw.fileName, formatBytes(pw.written), "", 0)
	}

	return
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatInt(bytes, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
