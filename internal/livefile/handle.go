package livefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

// Handle is a capability granting read/write access to exactly one external
// resource. How the handle was obtained (file prompt, drag-drop) is the
// caller's business; the gateway only needs these three operations.
type Handle interface {
	// Name is a short human-readable label for status messages.
	Name() string
	// RequestAccess verifies the handle still grants read/write permission.
	// It is called lazily on every validity check, never cached: permission
	// can be revoked out of band.
	RequestAccess(ctx context.Context) error
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}

// OSHandle is a Handle over a path on the local filesystem.
type OSHandle struct {
	path string
}

// NewOSHandle returns a handle for path. The path is resolved to an absolute
// path so later permission checks are not affected by working-directory changes.
func NewOSHandle(path string) (*OSHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return &OSHandle{path: abs}, nil
}

func (h *OSHandle) Name() string { return filepath.Base(h.path) }

// Path returns the absolute path behind the handle.
func (h *OSHandle) Path() string { return h.path }

func (h *OSHandle) RequestAccess(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(h.path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("access %s: %w", h.Name(), err)
	}
	return f.Close()
}

func (h *OSHandle) ReadText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(h.path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", h.Name(), err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("read %s: not valid UTF-8 text", h.Name())
	}
	return string(data), nil
}

func (h *OSHandle) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(h.path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", h.Name(), err)
	}
	return nil
}
