// Package picker is an interactive terminal multi-select for chapter names.
package picker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vjovkovs/narrate/internal/chapters"
)

// ErrAborted is returned when the user quits without confirming.
var ErrAborted = errors.New("chapter selection aborted")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00AAFF"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
	None:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "none")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type model struct {
	title    string
	names    []string
	selected []bool
	cursor   int
	offset   int
	height   int
	warning  string
	done     bool
	aborted  bool
}

func newModel(title string, names []string) model {
	m := model{title: title, names: names, selected: make([]bool, len(names)), height: 20}
	// likely chapters start ticked
	for i, n := range names {
		m.selected[i] = chapters.IsChapter(n)
	}
	return m
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.warning = ""
		switch {
		case key.Matches(msg, keys.Quit):
			m.aborted = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Toggle):
			if len(m.names) > 0 {
				m.selected[m.cursor] = !m.selected[m.cursor]
			}
		case key.Matches(msg, keys.All):
			m.setAll(true)
		case key.Matches(msg, keys.None):
			m.setAll(false)
		case key.Matches(msg, keys.Confirm):
			if m.count() == 0 {
				m.warning = "select at least one chapter"
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
		m.scroll()

	case tea.WindowSizeMsg:
		// title, blank, help and warning lines
		m.height = max(1, msg.Height-4)
		m.scroll()
	}
	return m, nil
}

func (m *model) setAll(v bool) {
	for i := range m.selected {
		m.selected[i] = v
	}
}

func (m *model) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m model) count() int {
	n := 0
	for _, s := range m.selected {
		if s {
			n++
		}
	}
	return n
}

func (m model) chosen() []string {
	var out []string
	for i, s := range m.selected {
		if s {
			out = append(out, m.names[i])
		}
	}
	return out
}

func (m model) View() string {
	if m.done || m.aborted {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s: select chapters (%d/%d)", m.title, m.count(), len(m.names))))
	b.WriteString("\n\n")

	end := min(len(m.names), m.offset+m.height)
	for i := m.offset; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box, style := "[ ]", itemStyle
		if m.selected[i] {
			box, style = "[x]", selectedStyle
		}
		b.WriteString(cursor + style.Render(box+" "+m.names[i]) + "\n")
	}

	if m.warning != "" {
		b.WriteString(warnStyle.Render(m.warning) + "\n")
	}
	help := []string{}
	for _, k := range []key.Binding{keys.Up, keys.Down, keys.Toggle, keys.All, keys.None, keys.Confirm, keys.Quit} {
		h := k.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	b.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return b.String()
}

// Terminal is a chapters.Picker backed by a full-screen terminal UI.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// Pick shows the names and returns the confirmed selection in list order.
func (t Terminal) Pick(ctx context.Context, title string, names []string) ([]string, error) {
	in, out := t.In, t.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	p := tea.NewProgram(newModel(title, names),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
		tea.WithAltScreen(),
	)
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("chapter picker: %w", err)
	}
	m := final.(model)
	if m.aborted || !m.done {
		return nil, ErrAborted
	}
	return m.chosen(), nil
}

var _ chapters.Picker = Terminal{}
