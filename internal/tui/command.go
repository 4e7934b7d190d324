package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/label-designer/internal/command"
)

// CommandModel handles command input
type CommandModel struct {
	executor   *command.Executor
	input      textinput.Model
	visible    bool
	lastResult *command.Result
	width      int
	height     int
	scrollPos  int // For scrolling long results

	// set when the last result carried document JSON that ctrl+y copies
	copyText string
}

// commandResultMsg reports an executed command to the app
type commandResultMsg struct {
	input  string
	result *command.Result
}

// NewCommandModel creates a new command model
func NewCommandModel(executor *command.Executor) CommandModel {
	input := textinput.New()
	input.Placeholder = "Enter command (e.g., 'save', 'set text Hello', 'help')"
	input.CharLimit = 500
	input.Prompt = ": "
	input.PromptStyle = lipgloss.NewStyle().Foreground(Secondary)

	return CommandModel{
		executor: executor,
		input:    input,
		visible:  false,
		width:    80,
	}
}

// SetSize sets the component size
func (m *CommandModel) SetSize(width int) {
	if width < 40 {
		width = 40
	}
	m.width = width
	// Input width should account for prompt and padding
	m.input.Width = width - 6
}

// SetHeight sets the maximum height for the command view
func (m *CommandModel) SetHeight(height int) {
	m.height = height
}

// Show shows the command input
func (m *CommandModel) Show() {
	m.visible = true
	m.input.Focus()
	m.lastResult = nil
	m.scrollPos = 0
	m.copyText = ""
}

// Hide hides the command input
func (m *CommandModel) Hide() {
	m.visible = false
	m.input.Blur()
	m.input.SetValue("")
	m.copyText = ""
}

// IsVisible returns whether the command input is visible
func (m *CommandModel) IsVisible() bool {
	return m.visible
}

// Execute runs a command line. q and quit end the program; wq saves first
// and only quits when the save succeeds.
func (m *CommandModel) Execute(cmdStr string) tea.Cmd {
	switch strings.TrimSpace(cmdStr) {
	case "q", "quit":
		return tea.Quit
	case "wq":
		m.lastResult = m.executor.Execute("save")
		if m.lastResult.Success {
			return tea.Quit
		}
	default:
		m.lastResult = m.executor.Execute(cmdStr)
	}

	m.copyText = ""
	if m.lastResult.Success && m.lastResult.Data != nil {
		if s, ok := m.lastResult.Data["json"].(string); ok {
			m.copyText = s
		}
	}
	res := m.lastResult
	return func() tea.Msg { return commandResultMsg{input: cmdStr, result: res} }
}

// Update handles messages
func (m CommandModel) Update(msg tea.Msg) (CommandModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			// Execute command
			cmdStr := strings.TrimSpace(m.input.Value())
			if cmdStr != "" {
				cmd = m.Execute(cmdStr)
				m.input.SetValue("")
				m.scrollPos = 0 // Reset scroll on new command
				// Keep command bar open for quick commands
			}
			return m, cmd

		case "esc":
			// Hide command bar
			m.Hide()
			return m, nil

		case "up":
			// Scroll up in results
			if m.scrollPos > 0 {
				m.scrollPos--
			}
			return m, nil

		case "down":
			// Scroll down in results (will be limited by available content)
			m.scrollPos++
			return m, nil

		case "pageup":
			if m.scrollPos > 5 {
				m.scrollPos -= 5
			} else {
				m.scrollPos = 0
			}
			return m, nil

		case "pagedown":
			m.scrollPos += 5
			return m, nil

		case "ctrl+y":
			if m.copyText != "" && m.lastResult != nil {
				if err := copyToClipboard(m.copyText); err != nil {
					m.lastResult.Message = fmt.Sprintf("%s (copy failed: %v)", m.lastResult.Message, err)
				} else {
					m.lastResult.Message = fmt.Sprintf("%s (copied JSON)", m.lastResult.Message)
				}
			}
			return m, nil

		default:
			// Process input normally
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}

	return m, cmd
}

// resultLines formats the last result for display
func (m CommandModel) resultLines() []string {
	if m.lastResult == nil {
		return nil
	}
	width := m.width - 4

	var lines []string
	if !m.lastResult.Success {
		for _, line := range wrapText("✗ "+m.lastResult.Error, width) {
			lines = append(lines, ErrorStyle.Render(line))
		}
		return lines
	}

	msgLines := strings.Split(m.lastResult.Message, "\n")
	if len(msgLines) == 1 {
		for _, line := range wrapText("✓ "+msgLines[0], width) {
			lines = append(lines, SuccessStyle.Render(line))
		}
	} else {
		// Listings and help text
		for _, line := range msgLines {
			lines = append(lines, TextNormal.Render(Truncate(line, width)))
		}
	}

	if m.copyText != "" {
		lines = append(lines, InfoStyle.Render(fmt.Sprintf("document JSON ready (%d bytes)", len(m.copyText))))
	}
	return lines
}

// View renders the command input
func (m CommandModel) View() string {
	if !m.visible {
		return ""
	}

	// input box (3) + help (1)
	availableHeight := m.height - 4
	if m.height == 0 {
		availableHeight = 15
	}
	if availableHeight < 1 {
		availableHeight = 1
	}

	var b strings.Builder

	boxStyle := InputFocusedStyle.
		Width(m.width-4).
		BorderForeground(Secondary)
	b.WriteString(boxStyle.Render(m.input.View()))
	b.WriteString("\n")

	resultLines := m.resultLines()

	// Apply scrolling (calculate limits, but don't modify m.scrollPos in View)
	totalLines := len(resultLines)
	maxScroll := totalLines - availableHeight
	if maxScroll < 0 {
		maxScroll = 0
	}
	scrollPos := m.scrollPos
	if scrollPos > maxScroll {
		scrollPos = maxScroll
	}

	end := scrollPos + availableHeight
	if end > totalLines {
		end = totalLines
	}
	for i := scrollPos; i < end; i++ {
		b.WriteString(resultLines[i])
		b.WriteString("\n")
	}

	helpText := "Enter execute, Esc close, :q quit"
	if totalLines > availableHeight {
		helpText += fmt.Sprintf(", ↑/↓ scroll (%d/%d)", scrollPos+1, totalLines)
	}
	if m.copyText != "" {
		helpText += ", Ctrl+Y copy JSON"
	}
	b.WriteString(TextMuted.Render(helpText))

	return b.String()
}

func copyToClipboard(text string) error {
	// Prefer system clipboard (works in most setups including alt-screen).
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}

	// Fallback to OSC52 for terminals that support it (incl. tmux/screen).
	seq := osc52.New(text).Tmux().Screen()
	_, _ = fmt.Fprint(os.Stderr, seq)
	return fmt.Errorf("system clipboard unavailable; sent OSC52 copy sequence (may not be supported by your terminal)")
}

// wrapText wraps text to fit within a given width
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if len([]rune(currentLine))+1+len([]rune(word)) <= width {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	lines = append(lines, currentLine)

	return lines
}
