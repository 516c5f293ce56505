package downloader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mudler/xlog"
)

// StatusError is returned when the server answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download url %q, invalid status code %d", e.URL, e.StatusCode)
}

// WriteError wraps failures of the local filesystem, as opposed to the
// transfer itself.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write file %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Artifact describes a completed download.
type Artifact struct {
	Path   string
	Size   int64
	SHA256 string
}

type Downloader struct {
	Client *http.Client
}

func New(client *http.Client) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{Client: client}
}

// Download fetches url into filePath. The body is streamed into
// filePath+".partial" and renamed once complete, so filePath only ever
// holds a whole file. Nothing is created on disk unless the server answers
// 200.
func (d *Downloader) Download(ctx context.Context, url, filePath string, status StatusFunc) (*Artifact, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	xlog.Info("Downloading", "url", url)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file %q: %w", filePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, &WriteError{Path: filePath, Err: err}
		}
	}

	// save partial download to dedicated file
	tmpFilePath := filePath + ".partial"
	if err := removePartialFile(tmpFilePath); err != nil {
		return nil, &WriteError{Path: tmpFilePath, Err: err}
	}

	outFile, err := os.Create(tmpFilePath)
	if err != nil {
		return nil, &WriteError{Path: tmpFilePath, Err: err}
	}

	progress := &progressWriter{
		fileName:       filePath,
		total:          resp.ContentLength,
		hash:           sha256.New(),
		downloadStatus: status,
		ctx:            ctx,
	}
	_, err = io.Copy(io.MultiWriter(&fileWriter{f: outFile}, progress), resp.Body)
	closeErr := outFile.Close()
	if err == nil && closeErr != nil {
		err = &WriteError{Path: tmpFilePath, Err: closeErr}
	}
	if err != nil {
		removePartialFile(tmpFilePath)
		var we *WriteError
		if errors.As(err, &we) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to download file %q: %w", filePath, err)
	}

	if err := os.Rename(tmpFilePath, filePath); err != nil {
		removePartialFile(tmpFilePath)
		return nil, &WriteError{Path: filePath, Err: fmt.Errorf("renaming temporary file: %w", err)}
	}

	a := &Artifact{
		Path:   filePath,
		Size:   progress.written,
		SHA256: fmt.Sprintf("%x", progress.hash.Sum(nil)),
	}
	xlog.Info("File downloaded", "file", filePath, "size", formatBytes(a.Size), "sha256", a.SHA256)
	return a, nil
}

// Download uses a default Downloader.
func Download(ctx context.Context, url, filePath string, status StatusFunc) (*Artifact, error) {
	return New(nil).Download(ctx, url, filePath, status)
}

type fileWriter struct {
	f *os.File
}

func (w *fileWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &WriteError{Path: w.f.Name(), Err: err}
	}
	return n, nil
}

func removePartialFile(tmpFilePath string) error {
	_, err := os.Stat(tmpFilePath)
	if err == nil {
		xlog.Debug("Removing temporary file", "file", tmpFilePath)
		err = os.Remove(tmpFilePath)
		if err != nil {
			err1 := fmt.Errorf("failed to remove temporary download file %s: %v", tmpFilePath, err)
			xlog.Warn(err1.Error())
			return err1
		}
	}
	return nil
}
