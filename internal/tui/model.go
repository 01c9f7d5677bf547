// Package tui is the interactive editor shell. A single bubbletea event
// loop owns the session; previews are rendered off the loop from a snapshot.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/render"
	"github.com/jackzampolin/destinator/internal/session"
)

type mode int

const (
	modeNormal mode = iota
	modeCommand
	modeConfirmCancel
)

// OptionsMsg replaces the editor options of a running session. It is sent
// when the configuration file changes.
type OptionsMsg struct {
	Options session.Options
}

type previewMsg struct {
	path string
	err  error
}

// Options configures a Model.
type Options struct {
	Session   *session.Session
	Previewer Previewer
	Logger    *slog.Logger
	// AutoPreview renders the current page again after every change.
	AutoPreview bool
}

// Model is the bubbletea model of an editing session.
type Model struct {
	ctx         context.Context
	sess        *session.Session
	previewer   Previewer
	logger      *slog.Logger
	autoPreview bool

	input  textinput.Model
	mode   mode
	width  int
	height int

	status    string
	statusErr bool
	hovered   int
	preview   string
	showHelp  bool

	report    *session.Report
	cancelled bool
	quitting  bool
}

// New creates a Model. ctx bounds rendering and saving.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	in := textinput.New()
	in.Prompt = ":"
	in.Placeholder = "add <title|url>, click x y, drag x0 y0 x1 y1, save, quit"
	in.CharLimit = 512

	m := &Model{
		ctx:         ctx,
		sess:        opts.Session,
		previewer:   opts.Previewer,
		logger:      logger,
		autoPreview: opts.AutoPreview,
		input:       in,
		hovered:     -1,
	}
	if n := len(m.sess.Diagnostics()); n > 0 {
		m.setStatus(fmt.Sprintf("%d load diagnostics, see the log", n))
	}
	return m
}

// Report returns the result of a successful save, or nil.
func (m *Model) Report() *session.Report { return m.report }

// Cancelled reports whether the session ended without saving.
func (m *Model) Cancelled() bool { return m.cancelled }

// PreviewPath returns the last preview written.
func (m *Model) PreviewPath() string { return m.preview }

// Status returns the status line text.
func (m *Model) Status() string { return m.status }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if m.autoPreview {
		return m.previewCmd()
	}
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		return m, nil

	case OptionsMsg:
		m.sess.SetOptions(msg.Options)
		m.setStatus("configuration reloaded")
		m.logger.Info("editor options reloaded", "drag_threshold", msg.Options.DragThreshold)
		return m, nil

	case previewMsg:
		if msg.err != nil {
			m.fail(msg.err)
			return m, nil
		}
		m.preview = msg.path
		m.setStatus("preview " + msg.path)
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeCommand:
			return m.updateCommand(msg)
		case modeConfirmCancel:
			return m.updateConfirm(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		if !m.sess.PrevPage() {
			m.setStatus("first page")
			return m, nil
		}
		return m, m.changed()
	case "right", "l":
		if !m.sess.NextPage() {
			m.setStatus("last page")
			return m, nil
		}
		return m, m.changed()
	case "up", "k":
		if err := m.sess.PrevDestination(); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.changed()
	case "down", "j":
		if err := m.sess.NextDestination(); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.changed()
	case "+", "=":
		m.setStatus(fmt.Sprintf("zoom %.2fx", m.sess.ZoomIn()))
		return m, m.changed()
	case "-", "_":
		m.setStatus(fmt.Sprintf("zoom %.2fx", m.sess.ZoomOut()))
		return m, m.changed()
	case "p":
		return m, m.previewCmd()
	case "ctrl+s":
		return m.save()
	case "esc", "ctrl+c", "q":
		return m.requestCancel()
	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	case ":":
		m.mode = modeCommand
		m.input.Reset()
		m.input.Focus()
		return m, nil
	}
	return m, nil
}

func (m *Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		line := m.input.Value()
		m.leaveCommand()
		return m.run(line)
	case tea.KeyEsc, tea.KeyCtrlC:
		m.leaveCommand()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) leaveCommand() {
	m.input.Reset()
	m.input.Blur()
	m.mode = modeNormal
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		return m.cancel()
	default:
		m.mode = modeNormal
		m.setStatus("still editing")
		return m, nil
	}
}

// run executes one command line.
func (m *Model) run(line string) (tea.Model, tea.Cmd) {
	c, err := ParseCommand(line)
	if err != nil {
		m.fail(err)
		return m, nil
	}

	switch c.Name {
	case "add":
		i, err := m.sess.AddDestination(c.Text)
		if errors.Is(err, annot.ErrDuplicate) {
			m.setStatus(fmt.Sprintf("already listed as #%d, selected", i+1))
			return m, nil
		}
		if err != nil {
			m.fail(err)
			return m, nil
		}
		d, _ := m.sess.SelectedDestination()
		m.setStatus("added " + d.ID)
		return m, nil

	case "rm":
		d, n, err := m.sess.RemoveSelected()
		if err != nil {
			m.fail(err)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("removed %s and %d links", d.ID, n))
		return m, m.changed()

	case "unpos":
		had, err := m.sess.RemoveSelectedPosition()
		if err != nil {
			m.fail(err)
			return m, nil
		}
		if had {
			m.setStatus("position cleared")
		} else {
			m.setStatus("not positioned")
		}
		return m, m.changed()

	case "click":
		out, err := m.sess.Click(c.Points[0])
		return m.gesture(out, err)

	case "drag":
		out, err := m.sess.Drag(c.Points[0], c.Points[1])
		return m.gesture(out, err)

	case "hover":
		i, ok := m.sess.Hover(c.Points[0])
		if !ok {
			m.hovered = -1
			m.setStatus("no link here")
			return m, nil
		}
		m.hovered = i
		l := m.sess.Store().Links()[i]
		m.setStatus(fmt.Sprintf("link to %s (%s)", l.TargetID, l.Kind))
		if m.autoPreview {
			return m, m.previewCmd()
		}
		return m, nil

	case "page":
		if err := m.sess.GotoPage(int(c.N) - 1); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.changed()

	case "select":
		if err := m.sess.Select(int(c.N) - 1); err != nil {
			m.fail(err)
			return m, nil
		}
		return m, m.changed()

	case "zoom":
		m.setStatus(fmt.Sprintf("zoom %.2fx", m.sess.SetZoom(c.N)))
		return m, m.changed()

	case "render":
		return m, m.previewCmd()

	case "save":
		return m.save()

	case "quit":
		return m.requestCancel()

	case "help":
		m.showHelp = !m.showHelp
		return m, nil
	}
	return m, nil
}

func (m *Model) gesture(out session.Outcome, err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.fail(err)
		return m, nil
	}
	switch out.Action {
	case session.ActionPositioned:
		m.setStatus(fmt.Sprintf("%s at page %d (%.1f, %.1f)", out.ID, out.Position.Page+1, out.Position.X, out.Position.Y))
	case session.ActionLinked:
		m.setStatus("linked region to " + out.ID)
	case session.ActionLinkRemoved:
		m.setStatus("removed link to " + out.ID)
	default:
		return m, nil
	}
	return m, m.changed()
}

func (m *Model) save() (tea.Model, tea.Cmd) {
	report, err := m.sess.Save(m.ctx)
	if err != nil {
		m.fail(err)
		return m, nil
	}
	m.report = report
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) requestCancel() (tea.Model, tea.Cmd) {
	if !m.sess.Plan().Changed() {
		return m.cancel()
	}
	m.mode = modeConfirmCancel
	m.setStatus("discard unsaved changes? (y/n)")
	return m, nil
}

func (m *Model) cancel() (tea.Model, tea.Cmd) {
	if err := m.sess.Cancel(); err != nil && !errors.Is(err, session.ErrClosed) {
		m.logger.Error("cancel failed", "error", err)
	}
	m.cancelled = true
	m.quitting = true
	return m, tea.Quit
}

// changed runs after anything that alters what the preview shows.
func (m *Model) changed() tea.Cmd {
	m.hovered = -1
	if m.autoPreview {
		return m.previewCmd()
	}
	return nil
}

func (m *Model) previewCmd() tea.Cmd {
	if m.previewer == nil {
		return nil
	}
	selected := ""
	if d, ok := m.sess.SelectedDestination(); ok {
		selected = d.ID
	}
	req := PreviewRequest{
		SessionID: m.sess.ID(),
		Path:      m.sess.Path(),
		Page:      m.sess.Page(),
		DPI:       m.sess.DPI(),
		Overlay:   render.OverlayFor(m.sess.Store(), m.sess.Page(), m.sess.Scale(), selected, m.hovered),
	}
	ctx, p := m.ctx, m.previewer
	return func() tea.Msg {
		path, err := p.Preview(ctx, req)
		return previewMsg{path: path, err: err}
	}
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) fail(err error) {
	m.status = err.Error()
	m.statusErr = true
	m.logger.Warn("command failed", "error", err)
}
