package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local writes artifacts under a directory on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates a sink rooted at the given directory. The directory is
// created on first use.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Root returns the directory the sink writes under.
func (s *Local) Root() string { return s.root }

// Create opens a temp file next to the target and renames it into place on
// Close, so readers never observe partial artifacts.
func (s *Local) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact directory: %w", err)
	}

	tmp := target + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("creating artifact %s: %w", name, err)
	}
	return &localFile{f: f, tmp: tmp, target: target}, nil
}

type localFile struct {
	f      *os.File
	tmp    string
	target string
	err    error // first write error
}

func (w *localFile) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil && w.err == nil {
		w.err = err
	}
	return n, err
}

func (w *localFile) Close() error {
	if w.err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmp)
		return w.err
	}
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		_ = os.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		_ = os.Remove(w.tmp)
		return err
	}
	// Atomically replace target.
	if err := os.Rename(w.tmp, w.target); err != nil {
		_ = os.Remove(w.tmp)
		return err
	}
	return nil
}
