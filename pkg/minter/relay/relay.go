// Package relay persists uploaded files to a working directory and hands the
// bytes straight back to the caller.
package relay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const DefaultDir = "uploads"

var ErrNoFile = errors.New("relay: no file uploaded")

type Relay struct {
	dir string
}

func NewRelay(dir string) *Relay {
	if dir == "" {
		dir = DefaultDir
	}
	return &Relay{dir: dir}
}

func (r *Relay) Dir() string {
	return r.dir
}

// Upload writes the content to <dir>/<base(filename)> and returns it unchanged.
// Same-named uploads overwrite each other; there is no locking.
func (r *Relay) Upload(filename string, content io.Reader) ([]byte, error) {
	if content == nil {
		return nil, ErrNoFile
	}
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return nil, ErrNoFile
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(r.dir, name), data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return data, nil
}
