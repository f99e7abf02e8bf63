package livefile

import (
	"context"
	"fmt"
	"sync"

	"github.com/jask/tether/internal/textdiff"
)

// StatusKind classifies the single visible status line.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusChanges StatusKind = "changes"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the latest user-facing narration. Each new event replaces it;
// there is no history.
type Status struct {
	Message string
	Kind    StatusKind
}

// Summarizer reduces two texts to divergence counts.
// *textdiff.Summarizer satisfies it.
type Summarizer interface {
	Summarize(from, to string) textdiff.Summary
}

// Controller orchestrates one pairing at a time: it derives the diff summary
// and status from the buffer text and the session's last-read content, and
// exposes the pair/reload/load/save/close operations the UI binds to.
type Controller struct {
	gw        *Gateway
	diff      Summarizer
	setBuffer func(text string) // invoked by LoadFromDisk; may be nil

	mu      sync.Mutex
	id      FileID
	buffer  string
	summary *textdiff.Summary
	status  *Status
}

// NewController wires the controller. setBuffer is called when LoadFromDisk
// overwrites the document; pass nil if the caller consumes the return value
// instead.
func NewController(gw *Gateway, diff Summarizer, setBuffer func(string)) *Controller {
	return &Controller{gw: gw, diff: diff, setBuffer: setBuffer}
}

// SetBufferText is pushed by the buffer owner on every change. It re-derives
// the summary and status.
func (c *Controller) SetBufferText(text string) {
	c.mu.Lock()
	c.buffer = text
	c.refreshLocked()
	c.mu.Unlock()
}

// refreshLocked re-derives summary and status from (buffer, session). It is
// a pure derivation over current inputs, run after every mutation instead of
// hand-ordered incremental updates. A nonempty session error overrides
// whatever the diff narration would have been.
func (c *Controller) refreshLocked() {
	var content *string
	var errText string
	if c.id != "" {
		if snap, ok := c.gw.Session(c.id); ok {
			content = snap.Content
			errText = snap.Err
		}
	}

	if content == nil {
		// Nothing to compare without both sides.
		c.summary = nil
		c.status = nil
	} else if *content == c.buffer {
		// Equality short-circuit: the summarizer is not invoked.
		c.summary = &textdiff.Summary{}
		c.status = &Status{Message: "The file is identical to this document.", Kind: StatusInfo}
	} else {
		sum := c.diff.Summarize(*content, c.buffer)
		c.summary = &sum
		switch {
		case sum.Insertions > 0 && sum.Deletions > 0:
			c.status = &Status{Message: fmt.Sprintf("Document has %d insertions and %d deletions.", sum.Insertions, sum.Deletions), Kind: StatusChanges}
		case sum.Insertions > 0:
			c.status = &Status{Message: fmt.Sprintf("Document has %d insertions.", sum.Insertions), Kind: StatusChanges}
		case sum.Deletions > 0:
			c.status = &Status{Message: fmt.Sprintf("Document has %d deletions.", sum.Deletions), Kind: StatusChanges}
		default:
			// Unequal strings with a zero-length edit script: should not
			// happen with a correct diff, but narrate something sane.
			c.status = &Status{Message: "No changes.", Kind: StatusInfo}
		}
	}

	if errText != "" {
		c.status = &Status{Message: errText, Kind: StatusError}
	}
}

// Pair registers the handle, replaces any existing pairing and immediately
// reloads so the first comparison has file content to work with.
func (c *Controller) Pair(ctx context.Context, h Handle) error {
	id, err := c.gw.Pair(ctx, h)
	c.mu.Lock()
	if err != nil {
		c.status = &Status{Message: fmt.Sprintf("Pairing failed: %v", err), Kind: StatusError}
		c.mu.Unlock()
		return err
	}
	if c.id != "" {
		c.gw.Close(c.id)
	}
	c.id = id
	c.summary = nil
	c.status = nil
	c.mu.Unlock()

	c.Reload(ctx)
	return nil
}

// Reload reads the file into the session. A reload while a read is already in
// flight is suppressed with an informational status rather than issuing
// duplicate I/O; callers may invoke it as often as they like. Read failures
// surface through the session error override, never as a returned failure.
func (c *Controller) Reload(ctx context.Context) {
	c.mu.Lock()
	id := c.id
	if id == "" {
		c.mu.Unlock()
		return
	}
	snap, ok := c.gw.Session(id)
	if !ok {
		c.mu.Unlock()
		return
	}
	if snap.Loading {
		c.status = &Status{Message: "Already reading the file.", Kind: StatusInfo}
		c.mu.Unlock()
		return
	}
	if snap.Content == nil {
		c.status = &Status{Message: "Reading the file...", Kind: StatusInfo}
	}
	c.mu.Unlock()

	// The read itself runs without the controller lock so concurrent callers
	// can observe the loading flag instead of queueing behind the I/O.
	_, _ = c.gw.Read(ctx, id)

	c.mu.Lock()
	if c.id == id { // pairing may have been closed mid-read
		c.refreshLocked()
	}
	c.mu.Unlock()
}

// LoadFromDisk overwrites the document with the last-read file content. It
// returns the content and true when a load happened. Destructive for the
// buffer; undo is the buffer owner's concern.
func (c *Controller) LoadFromDisk() (string, bool) {
	c.mu.Lock()
	var content *string
	if c.id != "" {
		if snap, ok := c.gw.Session(c.id); ok {
			content = snap.Content
		}
	}
	if content == nil {
		c.status = &Status{Message: "No file content loaded yet. Reload the file first.", Kind: StatusInfo}
		c.mu.Unlock()
		return "", false
	}
	text := *content
	c.buffer = text
	c.refreshLocked()
	sink := c.setBuffer
	c.mu.Unlock()

	if sink != nil {
		sink(text)
	}
	return text, true
}

// SaveToDisk writes the buffer to the paired file. Without a valid pairing it
// narrates and does no I/O. A save does not refresh the cached file content,
// so the divergence shown afterwards is the pre-save one until the next
// reload.
func (c *Controller) SaveToDisk(ctx context.Context, text string) bool {
	c.mu.Lock()
	id := c.id
	c.mu.Unlock()

	if id == "" || !c.gw.IsValid(ctx, id) {
		c.mu.Lock()
		c.status = &Status{Message: "No file paired with this document.", Kind: StatusInfo}
		c.mu.Unlock()
		return false
	}

	c.mu.Lock()
	c.status = &Status{Message: "Saving to file...", Kind: StatusInfo}
	c.mu.Unlock()

	if err := c.gw.Write(ctx, id, text); err != nil {
		c.mu.Lock()
		c.status = &Status{Message: err.Error(), Kind: StatusError}
		c.mu.Unlock()
		return false
	}

	c.mu.Lock()
	c.status = &Status{Message: "Saved to file. Reload to refresh the comparison.", Kind: StatusSuccess}
	c.mu.Unlock()
	return true
}

// Close discards the pairing and resets the summary and status. The buffer is
// left untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.id != "" {
		c.gw.Close(c.id)
		c.id = ""
	}
	c.summary = nil
	c.status = nil
	c.mu.Unlock()
}

// Summary returns the current divergence counts, or nil when there is nothing
// to compare.
func (c *Controller) Summary() *textdiff.Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary == nil {
		return nil
	}
	s := *c.summary
	return &s
}

// Status returns the current narration, or nil when unset.
func (c *Controller) Status() *Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == nil {
		return nil
	}
	s := *c.status
	return &s
}

// BufferText returns the last text pushed by the buffer owner.
func (c *Controller) BufferText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffer
}

// FileID returns the active pairing id, or "" when unpaired.
func (c *Controller) FileID() FileID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// IsPaired reports whether a pairing exists, regardless of validity.
func (c *Controller) IsPaired() bool { return c.FileID() != "" }

// IsValid re-checks that the pairing's handle still grants access.
func (c *Controller) IsValid(ctx context.Context) bool {
	id := c.FileID()
	return id != "" && c.gw.IsValid(ctx, id)
}

// FileContent returns the last-read file text, or ok=false when no read has
// succeeded yet.
func (c *Controller) FileContent() (string, bool) {
	id := c.FileID()
	if id == "" {
		return "", false
	}
	snap, ok := c.gw.Session(id)
	if !ok || snap.Content == nil {
		return "", false
	}
	return *snap.Content, true
}

// HasContent reports whether a file read has ever succeeded for the pairing.
func (c *Controller) HasContent() bool {
	id := c.FileID()
	if id == "" {
		return false
	}
	snap, ok := c.gw.Session(id)
	return ok && snap.Content != nil
}

// IsLoading reports an in-flight read.
func (c *Controller) IsLoading() bool {
	id := c.FileID()
	if id == "" {
		return false
	}
	snap, ok := c.gw.Session(id)
	return ok && snap.Loading
}

// IsSaving reports an in-flight write.
func (c *Controller) IsSaving() bool {
	id := c.FileID()
	if id == "" {
		return false
	}
	snap, ok := c.gw.Session(id)
	return ok && snap.Saving
}
