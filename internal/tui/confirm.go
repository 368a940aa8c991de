// Package tui holds the interactive terminal components of cratedocs.
package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)                        //nolint:gochecknoglobals // Shared render styles.
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)        //nolint:gochecknoglobals // Shared render styles.
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))   //nolint:gochecknoglobals // Shared render styles.
)

// IsTTY reports whether both stdin and stdout are attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RenderTitle renders s in the shared bold title style.
func RenderTitle(s string) string {
	return titleStyle.Render(s)
}

// ConfirmModel is a yes/no prompt defaulting to No.
type ConfirmModel struct {
	title   string
	warning string
	value   bool
	done    bool
	aborted bool
}

// NewConfirmModel builds a confirmation prompt with the given question.
// warning, when non-empty, is rendered above the question.
func NewConfirmModel(title, warning string) ConfirmModel {
	return ConfirmModel{title: title, warning: warning}
}

// Accepted reports whether the user chose Yes.
func (m ConfirmModel) Accepted() bool {
	return m.value && m.done
}

// Aborted reports whether the user cancelled the prompt.
func (m ConfirmModel) Aborted() bool {
	return m.aborted
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "y", "Y":
		m.value = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.value = false
		m.done = true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.value = !m.value
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	yes := " Yes "
	no := " No "
	if m.value {
		yes = selectedStyle.Render(yes)
	} else {
		no = selectedStyle.Render(no)
	}
	out := ""
	if m.warning != "" {
		out = warnStyle.Render(m.warning) + "\n"
	}
	return fmt.Sprintf("%s%s %s / %s\n", out, titleStyle.Render(m.title), yes, no)
}

// Confirm runs the prompt and returns the user's choice. It returns an
// error when the prompt is cancelled or the terminal cannot be driven.
func Confirm(title, warning string) (bool, error) {
	result, err := tea.NewProgram(NewConfirmModel(title, warning)).Run()
	if err != nil {
		return false, err
	}
	m, ok := result.(ConfirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected confirm model type %T", result)
	}
	if m.Aborted() {
		return false, fmt.Errorf("cancelled")
	}
	return m.Accepted(), nil
}
