// Package tokencache provides persistent auth.Cache implementations so that
// access tokens survive process restarts.
package tokencache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hedeqiang/poapmint/auth"
)

// ErrCorrupt is returned by File.Load when the cache file cannot be decoded.
// Save and Delete replace a corrupt file instead of failing.
var ErrCorrupt = errors.New("tokencache: corrupt cache file")

// File is a file-based auth.Cache that persists tokens as a JSON object
// keyed by audience.
type File struct {
	mu   sync.Mutex
	path string
}

// NewFile creates a file-backed cache. The directory containing path
// will be created on the first save.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the token saved for audience.
func (f *File) Load(_ context.Context, audience string) (auth.Token, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readAll()
	if err != nil {
		return auth.Token{}, false, err
	}
	t, ok := data[audience]
	return t, ok, nil
}

// Save writes the token for audience to the file.
func (f *File) Save(_ context.Context, audience string, token auth.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readAll()
	if errors.Is(err, ErrCorrupt) {
		data = make(map[string]auth.Token)
	} else if err != nil {
		return err
	}
	data[audience] = token
	return f.writeAll(data)
}

// Delete removes the token for audience.
func (f *File) Delete(_ context.Context, audience string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.readAll()
	if errors.Is(err, ErrCorrupt) {
		data = make(map[string]auth.Token)
	} else if err != nil {
		return err
	}
	if _, ok := data[audience]; !ok {
		return nil
	}
	delete(data, audience)
	return f.writeAll(data)
}

func (f *File) readAll() (map[string]auth.Token, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]auth.Token), nil // nothing saved yet
	}
	if err != nil {
		return nil, err
	}
	data := make(map[string]auth.Token)
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, f.path, err)
	}
	return data, nil
}

func (f *File) writeAll(data map[string]auth.Token) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Write next to the target and rename so readers never see a partial file.
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	// Tokens are credentials.
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
