package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#06B6D4")
	Success   = lipgloss.Color("#10B981")
	Warning   = lipgloss.Color("#F59E0B")
	Error     = lipgloss.Color("#EF4444")
	Muted     = lipgloss.Color("#6B7280")

	BgCard    = lipgloss.Color("#1E293B")
	BgHover   = lipgloss.Color("#334155")
	BgSidebar = lipgloss.Color("#18181B")
	BgConsole = lipgloss.Color("#09090B")
	// BgLabel is the paper colour of the canvas
	BgLabel = lipgloss.Color("#F8FAFC")

	colorTextBright = lipgloss.Color("#F8FAFC")
	colorTextNormal = lipgloss.Color("#CBD5E1")
	colorTextMuted  = lipgloss.Color("#64748B")
	colorInk        = lipgloss.Color("#0F172A")
)

var (
	TextBright = lipgloss.NewStyle().Foreground(colorTextBright)
	TextNormal = lipgloss.NewStyle().Foreground(colorTextNormal)
	TextMuted  = lipgloss.NewStyle().Foreground(colorTextMuted)
)

// Window chrome
var (
	SidebarStyle = lipgloss.NewStyle().
			Background(BgSidebar).
			Foreground(colorTextNormal).
			Padding(1, 0).
			BorderRight(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(BgHover)

	SidebarItemStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted)

	SidebarActiveStyle = lipgloss.NewStyle().
				Foreground(colorTextBright).
				Background(Primary).
				Bold(true)

	SectionHeaderStyle = lipgloss.NewStyle().
				Foreground(colorTextMuted).
				Bold(true)

	ContentStyle = lipgloss.NewStyle().
			Padding(1, 2)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextBright).
			Background(Primary).
			Padding(0, 2).
			MarginBottom(1)

	LogoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorTextBright)

	InputFocusedStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Primary).
				Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)
)

// Canvas cells. Everything sits on the label paper colour.
var (
	CanvasFrameStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(Muted)

	CanvasStyle = lipgloss.NewStyle().
			Foreground(colorTextMuted).
			Background(BgLabel)

	CanvasElementStyle = lipgloss.NewStyle().
				Foreground(colorInk).
				Background(BgLabel)

	CanvasSelectedStyle = lipgloss.NewStyle().
				Foreground(Primary).
				Background(BgLabel).
				Bold(true)

	CanvasLockedStyle = lipgloss.NewStyle().
				Foreground(Muted).
				Background(BgLabel)

	CanvasHandleStyle = lipgloss.NewStyle().
				Foreground(Secondary).
				Background(BgLabel).
				Bold(true)
)

// Command results
var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(Error)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	InfoStyle    = lipgloss.NewStyle().Foreground(Secondary)
)

// RenderHelp renders a key hint such as "ctrl+z undo"
func RenderHelp(key, desc string) string {
	return HelpKeyStyle.Render(key) + HelpStyle.Render(" "+desc)
}

// Truncate shortens s to max runes, ending in "..." when cut
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
