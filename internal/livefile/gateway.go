// Package livefile pairs an in-memory document with a file on disk and keeps
// the two reconciled: it tracks the file's last-read content per session,
// narrates divergence as insertion/deletion counts, and exposes the reload /
// load / save / close operations the UI binds to.
package livefile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// FileID identifies one paired file session. It has no meaning outside the
// gateway that issued it.
type FileID string

// Session is a read-only snapshot of one live file session.
// Content is the last successfully read file text; Err is the last
// operation's failure, if any. The two can coexist: a failed read keeps the
// previous content around while recording the error.
type Session struct {
	Content *string
	Err     string
	Loading bool
	Saving  bool
}

// session is the mutable record behind a FileID. Field updates are
// individually atomic under mu so a snapshot never observes a half-updated
// record; there is deliberately no broader lock across read/write I/O.
type session struct {
	mu      sync.Mutex
	handle  Handle
	content *string
	err     string
	loading bool
	saving  bool
}

func (s *session) snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{Content: s.content, Err: s.err, Loading: s.loading, Saving: s.saving}
}

func (s *session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *session) setSaving(v bool) {
	s.mu.Lock()
	s.saving = v
	s.mu.Unlock()
}

func (s *session) setContent(text string) {
	s.mu.Lock()
	s.content = &text
	s.err = ""
	s.mu.Unlock()
}

func (s *session) setErr(msg string) {
	s.mu.Lock()
	s.err = msg
	s.mu.Unlock()
}

// Gateway registers capability handles and owns the per-ID session store.
// Sessions are mutated only here; the controller reads snapshots.
type Gateway struct {
	mu       sync.Mutex
	sessions map[FileID]*session
}

func NewGateway() *Gateway {
	return &Gateway{sessions: make(map[FileID]*session)}
}

// Pair validates the handle and registers it as a new session with no content
// loaded yet. The returned FileID keys every later operation.
func (g *Gateway) Pair(ctx context.Context, h Handle) (FileID, error) {
	if h == nil {
		return "", errors.New("pair: nil handle")
	}
	if err := h.RequestAccess(ctx); err != nil {
		return "", fmt.Errorf("pair %s: %w", h.Name(), err)
	}
	id := FileID(uuid.NewString())
	g.mu.Lock()
	g.sessions[id] = &session{handle: h}
	g.mu.Unlock()
	return id, nil
}

func (g *Gateway) lookup(id FileID) *session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions[id]
}

// IsValid reports whether id maps to a session whose handle still grants
// access. Permission is re-checked on every call; platforms revoke it out of
// band.
func (g *Gateway) IsValid(ctx context.Context, id FileID) bool {
	s := g.lookup(id)
	if s == nil {
		return false
	}
	return s.handle.RequestAccess(ctx) == nil
}

// Read fetches the file text. On success the session content is replaced and
// any previous error cleared; on failure the error is recorded and the stale
// content is kept, so a fetch failure never clobbers good content.
func (g *Gateway) Read(ctx context.Context, id FileID) (string, error) {
	s := g.lookup(id)
	if s == nil {
		return "", fmt.Errorf("read: no session for %s", id)
	}
	s.setLoading(true)
	defer s.setLoading(false)

	text, err := s.handle.ReadText(ctx)
	if err != nil {
		s.setErr(err.Error())
		return "", err
	}
	s.setContent(text)
	return text, nil
}

// Write saves text to the file. isSaving is held for the duration and
// released on every exit path. A successful write clears the session error
// but does NOT update the cached content: the file text is re-derived on the
// next read, so a diff computed right after save still shows the pre-save
// divergence. That staleness is intentional.
func (g *Gateway) Write(ctx context.Context, id FileID, text string) error {
	s := g.lookup(id)
	if s == nil {
		return fmt.Errorf("write: no session for %s", id)
	}
	s.setSaving(true)
	defer s.setSaving(false)

	if err := s.handle.WriteText(ctx, text); err != nil {
		s.setErr(err.Error())
		return err
	}
	s.setErr("")
	return nil
}

// Close unmaps the identifier and discards its session. Closing an unknown or
// already-closed id is a no-op.
func (g *Gateway) Close(id FileID) {
	g.mu.Lock()
	delete(g.sessions, id)
	g.mu.Unlock()
}

// Session returns a snapshot of the session, or ok=false after close.
func (g *Gateway) Session(id FileID) (Session, bool) {
	s := g.lookup(id)
	if s == nil {
		return Session{}, false
	}
	return s.snapshot(), true
}

// Handle returns the capability behind id, or nil after close. The watcher
// uses this to find the on-disk path of an OS-backed pairing.
func (g *Gateway) Handle(id FileID) Handle {
	s := g.lookup(id)
	if s == nil {
		return nil
	}
	return s.handle
}
