package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/librescoot/stepseq"
	"github.com/librescoot/stepseq/concepts"
)

// Session is one playing concept
type Session interface {
	Start()
	Pause()
	Resume()
	Reset()
	Snapshot() stepseq.Snapshot
	Close() error
}

// Opener starts a session for a concept. observe receives every snapshot the
// session publishes.
type Opener func(c *concepts.Concept, observe func(stepseq.Snapshot)) (Session, error)

type view int

const (
	viewList view = iota
	viewLesson
)

// SnapshotMsg reports progress of the session with the given serial
type SnapshotMsg struct {
	Serial   int
	Snapshot stepseq.Snapshot
}

// CaptionMsg shows narration text while it is being spoken
type CaptionMsg string

type openedMsg struct {
	serial  int
	session Session
	err     error
}

type closedMsg struct{}

type Model struct {
	concepts []*concepts.Concept
	open     Opener
	send     func(tea.Msg)
	autoplay bool

	width  int
	height int

	view    view
	cursor  int
	current *concepts.Concept
	session Session
	serial  int
	snap    stepseq.Snapshot
	caption string
	err     error
}

type Option func(*Model)

// WithAutoplay starts a lesson as soon as it is opened
func WithAutoplay(on bool) Option {
	return func(m *Model) {
		m.autoplay = on
	}
}

// WithInitial opens the concept with the given id on start
func WithInitial(id string) Option {
	return func(m *Model) {
		for i, c := range m.concepts {
			if c.ID == id {
				m.cursor = i
				m.view = viewLesson
				m.current = c
			}
		}
	}
}

func New(catalog *concepts.Catalog, open Opener, opts ...Option) Model {
	m := Model{
		concepts: catalog.List(),
		open:     open,
		send:     func(tea.Msg) {},
		snap:     stepseq.Snapshot{Index: -1},
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.view == viewLesson && m.current != nil {
		return m.openCmd(m.current, m.serial)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case openedMsg:
		if msg.serial != m.serial {
			// The lesson was left before its session was ready
			if msg.session != nil {
				return m, closeCmd(msg.session)
			}
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.snap = msg.session.Snapshot()
		if m.autoplay {
			return m, command(m.session.Start)
		}
		return m, nil

	case SnapshotMsg:
		if msg.Serial == m.serial {
			m.snap = msg.Snapshot
			if msg.Snapshot.Status != stepseq.StatusRunning {
				m.caption = ""
			}
		}
		return m, nil

	case CaptionMsg:
		m.caption = string(msg)
		return m, nil

	case closedMsg:
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if m.view == viewList {
			return m.updateList(msg)
		}
		return m.updateLesson(msg)
	}

	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.concepts)-1 {
			m.cursor++
		}
	case "enter", "right", "l":
		if len(m.concepts) == 0 {
			return m, nil
		}
		m.view = viewLesson
		m.current = m.concepts[m.cursor]
		m.serial++
		return m, m.openCmd(m.current, m.serial)
	}
	return m, nil
}

func (m Model) updateLesson(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "left", "h":
		session := m.session
		m.view = viewList
		m.current = nil
		m.session = nil
		m.serial++
		m.snap = stepseq.Snapshot{Index: -1}
		m.caption = ""
		m.err = nil
		if session != nil {
			return m, closeCmd(session)
		}
		return m, nil
	}

	if m.session == nil {
		return m, nil
	}

	switch msg.String() {
	case " ", "space", "s", "p":
		switch m.snap.Status {
		case stepseq.StatusRunning:
			return m, command(m.session.Pause)
		case stepseq.StatusPaused:
			return m, command(m.session.Resume)
		default:
			return m, command(m.session.Start)
		}
	case "r":
		m.caption = ""
		return m, command(m.session.Reset)
	}
	return m, nil
}

// openCmd starts a session tagged with serial, so snapshots of a session that
// has since been left are ignored
func (m Model) openCmd(c *concepts.Concept, serial int) tea.Cmd {
	send := m.send
	open := m.open

	return func() tea.Msg {
		session, err := open(c, func(snap stepseq.Snapshot) {
			send(SnapshotMsg{Serial: serial, Snapshot: snap})
		})
		if err != nil {
			return openedMsg{serial: serial, err: fmt.Errorf("open %s: %w", c.ID, err)}
		}
		return openedMsg{serial: serial, session: session}
	}
}

// Sequencer commands wait for the sequencer loop, which may itself be waiting
// to deliver a snapshot to this program, so they never run inside Update.
func command(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func closeCmd(s Session) tea.Cmd {
	return func() tea.Msg {
		_ = s.Close()
		return closedMsg{}
	}
}

// Close ends the current session, if any
func (m Model) Close() error {
	if m.session == nil {
		return nil
	}
	return m.session.Close()
}

// Bridge delivers messages from other goroutines to a running program
type Bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

func (b *Bridge) Send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

// Caption shows text as the current narration
func (b *Bridge) Caption(text string) {
	b.Send(CaptionMsg(text))
}

// Run shows the program until the user quits or ctx is cancelled
func Run(ctx context.Context, m Model, bridge *Bridge, opts ...tea.ProgramOption) error {
	if bridge == nil {
		bridge = new(Bridge)
	}
	m.send = bridge.Send

	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)...)
	bridge.mu.Lock()
	bridge.p = p
	bridge.mu.Unlock()

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		if cerr := fm.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) lessonLines() []string {
	if m.current == nil {
		return nil
	}
	return m.current.Render(m.snap.Index)
}

func (m Model) progress() string {
	if m.current == nil {
		return ""
	}
	total := m.current.Len()
	done := m.snap.Index + 1
	return fmt.Sprintf("%s %d/%d", m.snap.Status, done, total)
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:max(0, width-1)]) + "…"
}

func clipLines(lines []string, width int) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, clip(strings.TrimRight(line, " "), width))
	}
	return out
}
