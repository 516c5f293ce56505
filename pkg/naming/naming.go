// Package naming picks output file names inside a destination directory.
//
// Every scheme reserves the name by creating an empty placeholder with
// O_EXCL, so two callers can never be handed the same path. Callers that
// fail to produce the artifact must remove the placeholder.
package naming

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const DefaultPrefix = "generated_video_"

// Scheme reserves a fresh path in dir ending with ext.
type Scheme interface {
	Reserve(dir, ext string) (string, error)
}

const (
	SchemeSequential = "sequential"
	SchemeUUID       = "uuid"
	SchemeTimestamp  = "timestamp"
)

func New(name, prefix string) (Scheme, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	switch name {
	case "", SchemeSequential:
		return &Sequential{Prefix: prefix}, nil
	case SchemeUUID:
		return &UUID{Prefix: prefix}, nil
	case SchemeTimestamp:
		return &Timestamp{Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown naming scheme %q", name)
	}
}

func create(path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// Sequential names files <prefix><n><ext> where n is the number of files
// with the same extension already present. Counting and reserving happen
// under a lock file in dir so concurrent processes see each other's
// placeholders.
type Sequential struct {
	Prefix string
}

const lockName = ".vidgen.lock"

// Count returns the number of regular files in dir ending with ext.
func Count(dir, ext string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.Type().IsRegular() && filepath.Ext(e.Name()) == ext {
			n++
		}
	}
	return n, nil
}

func (s *Sequential) Reserve(dir, ext string) (string, error) {
	lock := flock.New(filepath.Join(dir, lockName))
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("locking %s: %w", dir, err)
	}
	defer lock.Unlock()

	n, err := Count(dir, ext)
	if err != nil {
		return "", err
	}

	// n is already taken when an earlier file was deleted from the middle
	// of the sequence; move forward to the first free index.
	for ; ; n++ {
		path := filepath.Join(dir, fmt.Sprintf("%s%d%s", s.Prefix, n, ext))
		ok, err := create(path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
}

type UUID struct {
	Prefix string
}

func (u *UUID) Reserve(dir, ext string) (string, error) {
	for {
		path := filepath.Join(dir, u.Prefix+uuid.NewString()+ext)
		ok, err := create(path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
}

type Timestamp struct {
	Prefix string
	Now    func() time.Time
}

func (t *Timestamp) Reserve(dir, ext string) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	stamp := now().UTC().Format("20060102T150405.000000000Z")
	for i := 0; ; i++ {
		name := t.Prefix + stamp
		if i > 0 {
			name = fmt.Sprintf("%s-%d", name, i)
		}
		path := filepath.Join(dir, name+ext)
		ok, err := create(path)
		if err != nil {
			return "", err
		}
		if ok {
			return path, nil
		}
	}
}
