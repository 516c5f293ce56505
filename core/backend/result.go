package backend

import (
	"errors"
	"fmt"
	"time"

	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

// FailureKind classifies why a generation did not produce an artifact.
type FailureKind int

const (
	// SetupFailure: the model, pipeline or client could not be brought up,
	// or the request itself was unusable.
	SetupFailure FailureKind = iota + 1
	// InferenceFailure: the model ran but produced nothing usable.
	InferenceFailure
	// DownloadFailure: the artifact could not be fetched.
	DownloadFailure
	// IOFailure: the artifact could not be written locally.
	IOFailure
)

func (k FailureKind) String() string {
	switch k {
	case SetupFailure:
		return "setup failure"
	case InferenceFailure:
		return "inference failure"
	case DownloadFailure:
		return "download failure"
	case IOFailure:
		return "io failure"
	default:
		return fmt.Sprintf("failure(%d)", int(k))
	}
}

// Failure is the only error type returned by the generators.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(kind FailureKind, op string, err error) *Failure {
	return &Failure{Kind: kind, Op: op, Err: err}
}

// KindOf reports the FailureKind carried by err, if any.
func KindOf(err error) (FailureKind, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind, true
	}
	return 0, false
}

// Result describes a written video.
type Result struct {
	Path     string
	Backend  string
	Frames   int
	FPS      int
	Device   xsysinfo.Device
	Duration time.Duration

	// remote runs only
	SourceURL string
	Size      int64
	SHA256    string
}

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)
