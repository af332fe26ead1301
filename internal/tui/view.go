package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/librescoot/stepseq"
)

const maxContentW = 96

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	subtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	captionStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("180"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

var statusColors = map[stepseq.Status]lipgloss.Color{
	stepseq.StatusIdle:      lipgloss.Color("243"),
	stepseq.StatusRunning:   lipgloss.Color("78"),
	stepseq.StatusPaused:    lipgloss.Color("214"),
	stepseq.StatusComplete:  lipgloss.Color("39"),
	stepseq.StatusCancelled: lipgloss.Color("203"),
}

func (m Model) contentWidth() int {
	w := m.width
	if w <= 0 || w > maxContentW {
		w = maxContentW
	}
	return w
}

func (m Model) View() string {
	if m.view == viewLesson {
		return m.viewLesson()
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("AI concepts"))
	b.WriteString("\n\n")

	category := ""
	for i, c := range m.concepts {
		if c.Category != category {
			category = c.Category
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(categoryStyle.Render(category))
			b.WriteString("\n")
		}

		prefix := "  "
		name := c.Title
		if i == m.cursor {
			prefix = cursorStyle.Render("▸ ")
			name = cursorStyle.Render(name)
		}
		fmt.Fprintf(&b, "%s%s  %s\n", prefix, name, subtitleStyle.Render(c.Subtitle))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓ choose • enter open • q quit"))
	return b.String()
}

func (m Model) viewLesson() string {
	if m.current == nil {
		return ""
	}
	w := m.contentWidth()

	header := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.current.Title),
		subtitleStyle.Render(m.current.Subtitle),
	)

	var body string
	switch {
	case m.err != nil:
		body = errorStyle.Render(m.err.Error())
	case m.session == nil:
		body = subtitleStyle.Render("loading…")
	default:
		lines := clipLines(m.lessonLines(), w-4)
		if len(lines) == 0 {
			lines = []string{subtitleStyle.Render("press space to start")}
		}
		body = strings.Join(lines, "\n")
	}

	parts := []string{header, boxStyle.Width(w - 2).Render(body)}
	if m.caption != "" {
		parts = append(parts, captionStyle.Render(clip("♪ "+m.caption, w)))
	}

	status := lipgloss.NewStyle().Foreground(statusColors[m.snap.Status]).Render(m.progress())
	parts = append(parts, status, helpStyle.Render(m.footerText()))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) footerText() string {
	action := "start"
	switch m.snap.Status {
	case stepseq.StatusRunning:
		action = "pause"
	case stepseq.StatusPaused:
		action = "resume"
	case stepseq.StatusComplete, stepseq.StatusCancelled:
		action = "replay"
	}
	return fmt.Sprintf("space %s • r reset • esc back • q quit", action)
}
