// Package hosted invokes third-party inference services that turn a prompt
// into a downloadable artifact.
package hosted

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ModelRef pins a hosted model to one version.
type ModelRef struct {
	Owner   string
	Name    string
	Version string
}

func (m ModelRef) String() string {
	s := m.Owner + "/" + m.Name
	if m.Version != "" {
		s += ":" + m.Version
	}
	return s
}

// ParseModelRef accepts "owner/name:version".
func ParseModelRef(s string) (ModelRef, error) {
	ref, version, _ := strings.Cut(s, ":")
	owner, name, ok := strings.Cut(ref, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return ModelRef{}, fmt.Errorf("invalid model reference %q, expected owner/name[:version]", s)
	}
	return ModelRef{Owner: owner, Name: name, Version: version}, nil
}

// Input is the prediction payload, passed to the model as-is.
type Input map[string]any

// Predictor submits one prediction and blocks until it reaches a terminal
// state, returning the raw model output.
type Predictor interface {
	Predict(ctx context.Context, model ModelRef, input Input) (any, error)
}

// SetupError marks failures that happen before a prediction is submitted:
// missing credentials, unknown models or versions.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return e.Err.Error() }
func (e *SetupError) Unwrap() error { return e.Err }

func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// ErrNoOutput is returned by OutputURL for anything but a single URL.
var ErrNoOutput = errors.New("no output URL received from the model")

// OutputURL extracts the artifact URL from a prediction output. The output
// must be one non-empty string.
func OutputURL(out any) (string, error) {
	switch v := out.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", ErrNoOutput
		}
		return v, nil
	case nil:
		return "", ErrNoOutput
	default:
		return "", fmt.Errorf("%w: unexpected output type %T", ErrNoOutput, out)
	}
}
