package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jask/tether/internal/config"
	"github.com/jask/tether/internal/livefile"
	"github.com/jask/tether/internal/textdiff"
)

func newTestApp(t *testing.T) (*App, *livefile.Controller, *livefile.FocusBus) {
	t.Helper()
	ctrl := livefile.NewController(livefile.NewGateway(), textdiff.NewSummarizer(0), nil)
	bus := livefile.NewFocusBus()
	app := New(context.Background(), config.Config{}, ctrl, bus, nil, make(chan EngineEvent, 8))
	return app, ctrl, bus
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingPushesBufferToController(t *testing.T) {
	app, ctrl, _ := newTestApp(t)

	app.Update(keyRunes("hi"))
	require.Equal(t, "hi", string(app.buffer))
	require.Equal(t, "hi", ctrl.BufferText())
	require.Equal(t, 2, app.cursor)

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app.Update(keyRunes("there"))
	require.Equal(t, "hi\nthere", ctrl.BufferText())
}

func TestBackspace(t *testing.T) {
	app, ctrl, _ := newTestApp(t)
	app.Update(keyRunes("abc"))
	app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "ab", ctrl.BufferText())
	require.Equal(t, 2, app.cursor)

	// backspace at the start of an empty buffer is a no-op
	app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	app.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	require.Equal(t, "", ctrl.BufferText())
}

func TestCursorLineMovement(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.setBuffer("short\nlonger line\nx")

	app.cursor = len([]rune("short\nlonger li")) // column 9 on line 2
	app.cursorUp()
	require.Equal(t, 5, app.cursor, "clamped to the end of the shorter line above")

	app.cursorDown()
	app.cursorDown()
	require.Equal(t, len([]rune("short\nlonger line\nx")), app.cursor)
}

func TestFocusMessagesFeedTheBus(t *testing.T) {
	app, _, bus := newTestApp(t)
	ch, cancel := bus.Subscribe()
	defer cancel()

	app.Update(tea.FocusMsg{})
	require.True(t, (<-ch).Focused)
	app.Update(tea.BlurMsg{})
	require.False(t, (<-ch).Focused)
}

func TestOpenPromptFlow(t *testing.T) {
	app, _, _ := newTestApp(t)

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	app = model.(*App)
	require.Equal(t, viewOpen, app.state)

	app.Update(keyRunes("/tmp/doc.txt"))
	require.Equal(t, "/tmp/doc.txt", app.inputBuffer)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, viewEditor, app.state)
}

func TestViewUnpaired(t *testing.T) {
	app, _, _ := newTestApp(t)
	out := app.View()
	require.Contains(t, out, "no file paired")
	require.Contains(t, out, "no comparison")
}

func TestTextSinkBlocksUntilDrained(t *testing.T) {
	events := make(chan EngineEvent, 1)
	events <- EngineEvent{} // stale repaint fills the buffer

	delivered := make(chan struct{})
	go func() {
		TextSink(events)("file text")
		close(delivered)
	}()

	select {
	case <-delivered:
		t.Fatal("text event delivered past a full channel")
	case <-time.After(20 * time.Millisecond):
	}

	<-events // update loop drains the repaint
	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("text event never delivered")
	}
	ev := <-events
	require.NotNil(t, ev.Text)
	require.Equal(t, "file text", *ev.Text)
}

func TestSignalSinkDropsWhenFull(t *testing.T) {
	events := make(chan EngineEvent, 1)
	SignalSink(events)()
	SignalSink(events)() // second signal must not block
	require.Len(t, events, 1)
	require.Nil(t, (<-events).Text)
}
