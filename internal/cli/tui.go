package cli

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// confirmModel is a yes/no prompt. Enter accepts the highlighted choice.
type confirmModel struct {
	prompt    string
	yes       bool
	confirmed bool
	done      bool
}

func newConfirmModel(prompt string) confirmModel {
	return confirmModel{prompt: prompt}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.yes, m.confirmed, m.done = true, true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.yes, m.confirmed, m.done = false, false, true
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.yes = !m.yes
	case "enter":
		m.confirmed, m.done = m.yes, true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleWarning.Render(iconWarning) + " " + m.prompt + "\n\n  ")
	no, yes := StyleDim.Render(" No "), StyleDim.Render(" Yes ")
	if m.yes {
		yes = StyleTitle.Render("[Yes]")
	} else {
		no = StyleTitle.Render("[No]")
	}
	b.WriteString(no + "  " + yes + "\n\n")
	b.WriteString(StyleDim.Render("←/→ choose  y/n answer  ⏎ confirm"))
	b.WriteString("\n")
	return b.String()
}

// confirm runs the prompt on in/out and reports whether the user agreed.
func confirm(prompt string, in io.Reader, out io.Writer) (bool, error) {
	p := tea.NewProgram(newConfirmModel(prompt), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(confirmModel).confirmed, nil
}
