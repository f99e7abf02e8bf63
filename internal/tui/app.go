package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/tether/internal/config"
	"github.com/jask/tether/internal/database/repository"
	"github.com/jask/tether/internal/livefile"
	"github.com/jask/tether/internal/textdiff"
)

// EngineEvent is pushed from outside the update loop: the focus scheduler and
// the disk watcher signal that session state moved, and LoadFromDisk delivers
// replacement buffer text through the same channel.
type EngineEvent struct {
	Text *string
}

// TextSink wraps events for the controller's buffer-replacement callback.
// Text events block until the update loop drains the channel; a dropped one
// would leave the on-screen buffer behind the controller's view of it.
func TextSink(events chan EngineEvent) func(string) {
	return func(text string) {
		events <- EngineEvent{Text: &text}
	}
}

// SignalSink wraps events for bare repaint notifications. These carry no
// state, so when the buffer is full the pending event already covers them.
func SignalSink(events chan EngineEvent) func() {
	return func() {
		select {
		case events <- EngineEvent{}:
		default:
		}
	}
}

// App ties the scratch buffer to the live-file engine.
type App struct {
	ctx     context.Context
	cfg     config.Config
	ctrl    *livefile.Controller
	bus     *livefile.FocusBus
	recents *repository.RecentFileRepo
	events  chan EngineEvent

	state    appState
	buffer   []rune
	cursor   int
	filePath string
	watcher  *livefile.Watcher

	inputBuffer string
	recentPaths []string
	recentIdx   int

	width  int
	height int
}

type appState string

const (
	viewEditor appState = "editor"
	viewOpen   appState = "open"
)

func New(ctx context.Context, cfg config.Config, ctrl *livefile.Controller, bus *livefile.FocusBus, recents *repository.RecentFileRepo, events chan EngineEvent) *App {
	return &App{
		ctx:     ctx,
		cfg:     cfg,
		ctrl:    ctrl,
		bus:     bus,
		recents: recents,
		events:  events,
		state:   viewEditor,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadRecents(), a.waitForEngine())
}

// Teardown releases the per-pairing watcher. Called by main after the
// program exits.
func (a *App) Teardown() {
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
}

func (a *App) loadRecents() tea.Cmd {
	return func() tea.Msg {
		list, err := a.recents.List(a.ctx, 10)
		if err != nil {
			return errMsg{err}
		}
		return recentsMsg(list)
	}
}

func (a *App) waitForEngine() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-a.events
		if !ok {
			return nil
		}
		return engineMsg(ev)
	}
}

func (a *App) pairCmd(path string) tea.Cmd {
	return func() tea.Msg {
		h, err := livefile.NewOSHandle(path)
		if err != nil {
			return pairedMsg{path: path, err: err}
		}
		if err := a.ctrl.Pair(a.ctx, h); err != nil {
			return pairedMsg{path: h.Path(), err: err}
		}
		_ = a.recents.Touch(a.ctx, h.Path())
		return pairedMsg{path: h.Path()}
	}
}

func (a *App) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		a.ctrl.Reload(a.ctx)
		return opDoneMsg{}
	}
}

func (a *App) loadCmd() tea.Cmd {
	return func() tea.Msg {
		// Replacement text arrives through the engine event channel.
		a.ctrl.LoadFromDisk()
		return opDoneMsg{}
	}
}

func (a *App) saveCmd(text string) tea.Cmd {
	return func() tea.Msg {
		a.ctrl.SaveToDisk(a.ctx, text)
		return opDoneMsg{}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case tea.FocusMsg:
		a.bus.Publish(true)
	case tea.BlurMsg:
		a.bus.Publish(false)
	case engineMsg:
		if m.Text != nil {
			a.setBuffer(*m.Text)
		}
		return a, a.waitForEngine()
	case recentsMsg:
		a.recentPaths = a.recentPaths[:0]
		for _, rf := range m {
			a.recentPaths = append(a.recentPaths, rf.Path)
		}
		a.recentIdx = -1
	case pairedMsg:
		if m.err != nil {
			// Controller already narrates the failure via status.
			return a, nil
		}
		a.filePath = m.path
		a.restartWatcher()
		return a, a.loadRecents()
	case opDoneMsg:
		// Status and summary are pulled from the controller on render.
	case errMsg:
		// Repository errors are non-fatal; the prompt just has no history.
	case tea.KeyMsg:
		switch a.state {
		case viewOpen:
			return a.handleOpenKey(m)
		default:
			return a.handleEditorKey(m)
		}
	}
	return a, nil
}

func (a *App) handleEditorKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "ctrl+c":
		a.Teardown()
		return a, tea.Quit
	case "ctrl+o":
		a.state = viewOpen
		a.inputBuffer = ""
		a.recentIdx = -1
		return a, a.loadRecents()
	case "ctrl+r":
		return a, a.reloadCmd()
	case "ctrl+l":
		return a, a.loadCmd()
	case "ctrl+s":
		return a, a.saveCmd(string(a.buffer))
	case "ctrl+w":
		a.ctrl.Close()
		a.filePath = ""
		if a.watcher != nil {
			a.watcher.Close()
			a.watcher = nil
		}
		return a, nil
	case "left":
		if a.cursor > 0 {
			a.cursor--
		}
	case "right":
		if a.cursor < len(a.buffer) {
			a.cursor++
		}
	case "up":
		a.cursorUp()
	case "down":
		a.cursorDown()
	case "home":
		a.cursor = a.lineStart(a.cursor)
	case "end":
		a.cursor = a.lineEnd(a.cursor)
	case "enter":
		a.insert("\n")
	case "tab":
		a.insert(strings.Repeat(" ", a.tabWidth()))
	case "backspace":
		if a.cursor > 0 {
			a.buffer = append(a.buffer[:a.cursor-1], a.buffer[a.cursor:]...)
			a.cursor--
			a.pushBuffer()
		}
	default:
		switch m.Type {
		case tea.KeyRunes:
			a.insert(string(m.Runes))
		case tea.KeySpace:
			a.insert(" ")
		}
	}
	return a, nil
}

func (a *App) handleOpenKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Type {
	case tea.KeyEsc:
		a.state = viewEditor
		return a, nil
	case tea.KeyEnter:
		path := strings.TrimSpace(a.inputBuffer)
		if path == "" {
			return a, nil
		}
		a.state = viewEditor
		a.inputBuffer = ""
		return a, a.pairCmd(path)
	case tea.KeyUp:
		if len(a.recentPaths) > 0 {
			if a.recentIdx+1 < len(a.recentPaths) {
				a.recentIdx++
			}
			a.inputBuffer = a.recentPaths[a.recentIdx]
		}
	case tea.KeyDown:
		if a.recentIdx > 0 {
			a.recentIdx--
			a.inputBuffer = a.recentPaths[a.recentIdx]
		} else {
			a.recentIdx = -1
			a.inputBuffer = ""
		}
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.inputBuffer) > 0 {
			a.inputBuffer = a.inputBuffer[:len(a.inputBuffer)-1]
		}
	case tea.KeySpace:
		a.inputBuffer += " "
	case tea.KeyRunes:
		a.inputBuffer += string(m.Runes)
	}
	return a, nil
}

// restartWatcher swaps the disk watcher over to the newly paired path.
func (a *App) restartWatcher() {
	if a.watcher != nil {
		a.watcher.Close()
		a.watcher = nil
	}
	if !a.cfg.Watch.Enabled || a.filePath == "" {
		return
	}
	w, err := livefile.NewWatcher(a.ctrl, a.filePath,
		time.Duration(a.cfg.Watch.DebounceMs)*time.Millisecond,
		SignalSink(a.events))
	if err == nil {
		a.watcher = w
	}
}

func (a *App) insert(s string) {
	r := []rune(s)
	a.buffer = append(a.buffer[:a.cursor], append(r, a.buffer[a.cursor:]...)...)
	a.cursor += len(r)
	a.pushBuffer()
}

func (a *App) setBuffer(text string) {
	a.buffer = []rune(text)
	if a.cursor > len(a.buffer) {
		a.cursor = len(a.buffer)
	}
}

func (a *App) pushBuffer() {
	a.ctrl.SetBufferText(string(a.buffer))
}

func (a *App) tabWidth() int {
	if a.cfg.UI.TabWidth > 0 {
		return a.cfg.UI.TabWidth
	}
	return 4
}

func (a *App) lineStart(pos int) int {
	for pos > 0 && a.buffer[pos-1] != '\n' {
		pos--
	}
	return pos
}

func (a *App) lineEnd(pos int) int {
	for pos < len(a.buffer) && a.buffer[pos] != '\n' {
		pos++
	}
	return pos
}

func (a *App) cursorUp() {
	start := a.lineStart(a.cursor)
	if start == 0 {
		return
	}
	col := a.cursor - start
	prevStart := a.lineStart(start - 1)
	prevLen := (start - 1) - prevStart
	if col > prevLen {
		col = prevLen
	}
	a.cursor = prevStart + col
}

func (a *App) cursorDown() {
	end := a.lineEnd(a.cursor)
	if end >= len(a.buffer) {
		return
	}
	col := a.cursor - a.lineStart(a.cursor)
	nextStart := end + 1
	nextLen := a.lineEnd(nextStart) - nextStart
	if col > nextLen {
		col = nextLen
	}
	a.cursor = nextStart + col
}

// messages
type engineMsg EngineEvent

type recentsMsg []repository.RecentFile

type pairedMsg struct {
	path string
	err  error
}

type opDoneMsg struct{}

type errMsg struct{ error }

// styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	changesStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (a *App) View() string {
	if a.state == viewOpen {
		return a.renderOpen()
	}
	return a.renderEditor()
}

func (a *App) renderOpen() string {
	title := titleStyle.Render("Pair with a file")
	body := fmt.Sprintf("Path: %s▌\nType a path and press Enter. [up/down] recent files  [esc] Back", a.inputBuffer)
	if len(a.recentPaths) > 0 {
		body += "\n\nRecent:"
		for i, p := range a.recentPaths {
			marker := " "
			if i == a.recentIdx {
				marker = "▶"
			}
			body += fmt.Sprintf("\n%s %s", marker, p)
		}
	}
	return fmt.Sprintf("%s\n%s", title, body)
}

func (a *App) renderEditor() string {
	title := titleStyle.Render("Tether: " + a.pairingLabel())
	footer := "[ctrl+o] Pair  [ctrl+r] Reload  [ctrl+l] File → buffer  [ctrl+s] Save  [ctrl+w] Unpair  [ctrl+c] Quit"
	out := fmt.Sprintf("%s\n%s\n%s\n%s", title, a.renderBuffer(), a.renderDiffLine(), footer)
	if line := a.renderStatusLine(); line != "" {
		out += "\n" + line
	}
	return out
}

func (a *App) pairingLabel() string {
	if a.filePath == "" {
		return "no file paired"
	}
	label := a.filePath
	if !a.ctrl.IsValid(a.ctx) {
		label += " (pairing invalid)"
	}
	return label
}

func (a *App) renderBuffer() string {
	var b strings.Builder
	for i, r := range a.buffer {
		if i == a.cursor {
			b.WriteString(cursorStyle.Render(cursorGlyph(r)))
			if r == '\n' {
				b.WriteRune('\n')
			}
			continue
		}
		b.WriteRune(r)
	}
	if a.cursor == len(a.buffer) {
		b.WriteString(cursorStyle.Render(" "))
	}
	return b.String()
}

func cursorGlyph(r rune) string {
	if r == '\n' {
		return " "
	}
	return string(r)
}

func (a *App) renderDiffLine() string {
	sum := a.ctrl.Summary()
	if sum == nil {
		return infoStyle.Render("no comparison")
	}
	line := fmt.Sprintf("+%d −%d", sum.Insertions, sum.Deletions)
	if a.cfg.UI.ShowSimilarity {
		if content, ok := a.ctrl.FileContent(); ok {
			line += fmt.Sprintf("  similarity %.0f%%", 100*textdiff.Similarity(content, string(a.buffer)))
		}
	}
	if sum.IsZero() {
		return infoStyle.Render(line)
	}
	return changesStyle.Render(line)
}

func (a *App) renderStatusLine() string {
	st := a.ctrl.Status()
	if st == nil {
		return ""
	}
	switch st.Kind {
	case livefile.StatusChanges:
		return changesStyle.Render(st.Message)
	case livefile.StatusSuccess:
		return successStyle.Render(st.Message)
	case livefile.StatusError:
		return errorStyle.Render(st.Message)
	default:
		return infoStyle.Render(st.Message)
	}
}
