// Package tui is the terminal label editor: a character-cell canvas driven
// by mouse gestures and keyboard shortcuts, with a ':' command line.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/thereceipt/label-designer/internal/command"
	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/internal/geometry"
	"github.com/thereceipt/label-designer/internal/input"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

const sidebarWidth = 26

// Screen offset of the first canvas cell: sidebar plus its border,
// content padding, header line and margin, canvas frame.
const (
	canvasOriginX = sidebarWidth + 1 + 2 + 1
	canvasOriginY = 1 + 2 + 1
)

// fallbackSize is shown while the document's stock is unknown
var fallbackSize = geometry.Size{Width: 4, Height: 2}

// Messages
type stocksMsg struct {
	stocks []labelformat.Stock
	err    error
}

// App is the main Bubble Tea model
type App struct {
	// Dependencies
	editor *editor.Editor
	keys   *input.Controller
	stocks command.StockSource
	logs   *LogBuffer

	// UI State
	width    int
	height   int
	ready    bool
	quitting bool

	// Stock sizes by id, loaded through the stock source
	sizes     map[string]geometry.Size
	names     map[string]string
	loadedFor string

	// Components
	command CommandModel

	// Timing
	startTime time.Time
}

// NewApp creates the editor TUI. stocks may be nil; the canvas then uses a
// fallback size. logs receives editor log lines and command outcomes.
func NewApp(e *editor.Editor, executor *command.Executor, stocks command.StockSource, logs *LogBuffer) *App {
	if logs == nil {
		logs = NewLogBuffer(100)
	}
	return &App{
		editor:    e,
		keys:      input.New(e),
		stocks:    stocks,
		logs:      logs,
		sizes:     make(map[string]geometry.Size),
		names:     make(map[string]string),
		command:   NewCommandModel(executor),
		startTime: time.Now(),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	a.loadedFor = a.editor.Document().StockID
	return a.loadStocksCmd()
}

// loadStocksCmd fetches stocks asynchronously
func (a *App) loadStocksCmd() tea.Cmd {
	if a.stocks == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stocks, err := a.stocks.ListStocks(ctx)
		return stocksMsg{stocks: stocks, err: err}
	}
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle command area first if visible - it has priority
		if a.command.IsVisible() {
			newCmd, cmd := a.command.Update(msg)
			a.command = newCmd
			a.keys.SetTextFocus(a.command.IsVisible())
			return a, cmd
		}

		switch msg.String() {
		case ":":
			// Show command line (vim-style)
			a.command.Show()
			a.command.SetSize(maxInt(20, a.width))
			a.command.SetHeight(a.bottomAreaHeight())
			a.keys.SetTextFocus(true)
			return a, nil
		case "ctrl+q":
			a.quitting = true
			return a, tea.Quit
		case "ctrl+e":
			a.copyExport()
			return a, nil
		}

		if outcome, ok := a.keys.HandleKey(msg); ok && outcome.Message != "" {
			a.logs.Add(outcome.Message, "info")
		}

	case commandResultMsg:
		if msg.result.Success {
			first, _, _ := strings.Cut(msg.result.Message, "\n")
			a.logs.Add(first, "success")
		} else {
			a.logs.Add(msg.result.Error, "error")
		}

	case stocksMsg:
		if msg.err != nil {
			a.logs.Add(fmt.Sprintf("failed to load stocks: %v", msg.err), "error")
			break
		}
		for _, s := range msg.stocks {
			a.names[s.ID] = s.Name
			if size, err := geometry.LabelSize(s); err == nil {
				a.sizes[s.ID] = size
			} else {
				a.logs.Add(fmt.Sprintf("stock %s: %v", s.ID, err), "warning")
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.command.SetSize(a.width)
		a.command.SetHeight(a.bottomAreaHeight())

	case tea.MouseMsg:
		a.handleMouse(msg)
	}

	// Reload stocks when the document moves to a stock we have not seen
	if id := a.editor.Document().StockID; id != "" && id != a.loadedFor {
		if _, ok := a.sizes[id]; !ok {
			a.loadedFor = id
			cmds = append(cmds, a.loadStocksCmd())
		}
	}

	return a, tea.Batch(cmds...)
}

// Canvas returns the canvas for the document's current stock
func (a *App) Canvas() Canvas {
	if size, ok := a.sizes[a.editor.Document().StockID]; ok {
		return Canvas{Size: size}
	}
	return Canvas{Size: fallbackSize}
}

// handleMouse maps terminal mouse events onto editor pointer gestures
func (a *App) handleMouse(msg tea.MouseMsg) {
	if a.command.IsVisible() {
		return
	}

	cols, rows := a.Canvas().Dims()
	col := msg.X - canvasOriginX
	row := msg.Y - canvasOriginY
	inside := col >= 0 && row >= 0 && col < cols && row < rows
	col = clampInt(col, 0, cols-1)
	row = clampInt(row, 0, rows-1)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		a.editor.PointerDown(a.pressPointer(col, row, msg.Shift))
	case tea.MouseActionMotion:
		a.editor.PointerMove(a.dragPointer(col, row, msg.Shift))
	case tea.MouseActionRelease:
		a.editor.PointerUp(a.dragPointer(col, row, msg.Shift))
	}
}

// pressPointer returns the exact corner when the cell holds a resize
// handle of the single selected element, so handles stay grabbable at
// cell resolution
func (a *App) pressPointer(col, row int, shift bool) editor.Pointer {
	sel := a.editor.State().Selection
	if len(sel) == 1 {
		if el, ok := a.editor.Document().Find(sel[0]); ok && !el.Locked && !el.Hidden {
			c0, r0, c1, r1 := span(el)
			x := geometry.ScaledPixels(el.X, 1)
			y := geometry.ScaledPixels(el.Y, 1)
			right := geometry.ScaledPixels(el.Right(), 1)
			bottom := geometry.ScaledPixels(el.Bottom(), 1)
			switch {
			case col == c0 && row == r0:
				return editor.Pointer{X: x, Y: y, Shift: shift}
			case col == c1 && row == r0:
				return editor.Pointer{X: right, Y: y, Shift: shift}
			case col == c0 && row == r1:
				return editor.Pointer{X: x, Y: bottom, Shift: shift}
			case col == c1 && row == r1:
				return editor.Pointer{X: right, Y: bottom, Shift: shift}
			}
		}
	}
	return PointerAt(col, row, shift)
}

// dragPointer follows the corner of the cell that matches the handle being
// dragged, so a south-east resize covers the cell under the mouse
func (a *App) dragPointer(col, row int, shift bool) editor.Pointer {
	g := a.editor.State().Gesture
	if g.Mode != editor.ModeResizing {
		return PointerAt(col, row, shift)
	}
	switch g.Handle {
	case editor.HandleNE:
		return PointerAt(col+1, row, shift)
	case editor.HandleSW:
		return PointerAt(col, row+1, shift)
	case editor.HandleSE:
		return PointerAt(col+1, row+1, shift)
	}
	return PointerAt(col, row, shift)
}

// copyExport copies the document JSON to the clipboard
func (a *App) copyExport() {
	data, err := a.editor.Export()
	if err != nil {
		a.logs.Add(fmt.Sprintf("export failed: %v", err), "error")
		return
	}
	if err := copyToClipboard(string(data)); err != nil {
		a.logs.Add(err.Error(), "warning")
		return
	}
	a.logs.Add("copied document JSON", "success")
}

// View renders the UI
func (a *App) View() string {
	if a.quitting {
		return "\n  Goodbye!\n\n"
	}

	if !a.ready {
		return "\n  Loading...\n"
	}

	contentHeight := a.height - a.bottomAreaHeight()
	if contentHeight < 1 {
		contentHeight = 1
	}
	contentWidth := a.width - sidebarWidth - 1
	if contentWidth < 20 {
		contentWidth = 20
	}
	sidebar := a.renderSidebar(sidebarWidth, contentHeight)
	content := a.renderContent(contentWidth, contentHeight)
	top := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, content)

	var bottom string
	if a.command.IsVisible() {
		a.command.SetSize(a.width)
		a.command.SetHeight(a.bottomAreaHeight())
		bottom = a.renderCommandArea()
	} else {
		bottom = a.renderStatusBar()
	}

	fullView := lipgloss.JoinVertical(lipgloss.Left, top, bottom)

	// Ensure the view exactly fills the screen height to clear any leftover content
	lines := strings.Split(fullView, "\n")
	if len(lines) < a.height {
		for len(lines) < a.height {
			lines = append(lines, strings.Repeat(" ", a.width))
		}
	} else if len(lines) > a.height {
		lines = lines[:a.height]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderSidebar(width, height int) string {
	doc := a.editor.Document()
	state := a.editor.State()
	var lines []string

	// Logo
	lines = append(lines, LogoStyle.Render("Label Designer"))
	name := doc.Name
	if name == "" {
		name = "(untitled)"
	}
	if a.editor.Dirty() {
		name += " *"
	}
	lines = append(lines, TextNormal.Render(Truncate(name, width-2)))
	lines = append(lines, TextMuted.Render(Truncate(a.stockLabel(doc.StockID), width-2)))
	lines = append(lines, "")

	lines = append(lines, SectionHeaderStyle.Render(" TOOLS"))
	km := a.keys.KeyMap()
	for _, t := range editor.Tools {
		b, ok := km.Tools[t]
		if !ok {
			continue
		}
		h := b.Help()
		itemText := fmt.Sprintf(" %s %s", h.Key, h.Desc)
		if padding := width - lipgloss.Width(itemText) - 2; padding > 0 {
			itemText += strings.Repeat(" ", padding)
		}
		if t == state.Tool {
			lines = append(lines, SidebarActiveStyle.Render(itemText))
		} else {
			lines = append(lines, SidebarItemStyle.Render(itemText))
		}
	}
	lines = append(lines, "")

	lines = append(lines, SectionHeaderStyle.Render(" SELECTION"))
	lines = append(lines, a.selectionLines(width-2)...)
	lines = append(lines, "")

	lines = append(lines, SectionHeaderStyle.Render(" KEYS"))
	for _, b := range km.ShortHelp() {
		h := b.Help()
		lines = append(lines, " "+RenderHelp(h.Key, h.Desc))
	}
	lines = append(lines, " "+RenderHelp(":", "command"))

	content := strings.Join(lines, "\n")
	for lipgloss.Height(content) < height-2 {
		content += "\n"
	}

	return SidebarStyle.
		Width(width).
		Height(height).
		Render(content)
}

func (a *App) stockLabel(id string) string {
	if id == "" {
		return "no stock (:stock <id>)"
	}
	size, ok := a.sizes[id]
	if !ok {
		return id + " (unknown)"
	}
	label := id
	if n := a.names[id]; n != "" {
		label = n
	}
	return fmt.Sprintf("%s %.3gx%.3gin", label, size.Width, size.Height)
}

func (a *App) selectionLines(width int) []string {
	selected := a.editor.Selected()
	switch len(selected) {
	case 0:
		return []string{TextMuted.Render(" none")}
	case 1:
	default:
		return []string{TextNormal.Render(fmt.Sprintf(" %d elements", len(selected)))}
	}

	el := selected[0]
	lines := []string{
		TextBright.Render(" " + string(el.Type)),
		TextNormal.Render(fmt.Sprintf(" x %.3f  y %.3f", el.X, el.Y)),
		TextNormal.Render(fmt.Sprintf(" w %.3f  h %.3f", el.Width, el.Height)),
	}
	switch el.Type {
	case labelformat.TypeText, labelformat.TypeBarcode, labelformat.TypeQRCode:
		if el.TextContent != "" {
			lines = append(lines, TextNormal.Render(" "+Truncate(el.TextContent, width-1)))
		}
	}
	var flags []string
	if el.Locked {
		flags = append(flags, "locked")
	}
	if el.Hidden {
		flags = append(flags, "hidden")
	}
	if len(flags) > 0 {
		lines = append(lines, WarningStyle.Render(" "+strings.Join(flags, " ")))
	}
	return lines
}

func (a *App) renderContent(width, height int) string {
	state := a.editor.State()
	canvas := a.Canvas()

	header := HeaderStyle.Render("Canvas")
	frame := CanvasFrameStyle.Render(canvas.View(a.editor.LiveDocument(), state.Selection))
	content := lipgloss.JoinVertical(lipgloss.Left, header, frame)

	// Truncate content to fit height if needed
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
		content = strings.Join(lines, "\n")
	}

	return ContentStyle.
		Width(width).
		Height(height).
		Render(content)
}

func (a *App) renderStatusBar() string {
	base := lipgloss.NewStyle().Background(BgCard).Foreground(colorTextNormal)
	state := a.editor.State()

	seg := func(text string, fg, bg lipgloss.Color, bold bool) string {
		s := lipgloss.NewStyle().Foreground(fg).Background(bg).Padding(0, 1)
		if bold {
			s = s.Bold(true)
		}
		return s.Render(text)
	}
	pipe := base.Render(" | ")

	modeText := "NAV"
	modeBg := BgHover
	if state.Gesture.Mode != editor.ModeIdle {
		modeText = strings.ToUpper(state.Gesture.Mode.String())
		modeBg = Secondary
	}
	mode := seg(modeText, colorTextBright, modeBg, true)
	tool := seg("tool "+string(state.Tool), colorTextBright, Primary, false)
	sel := seg("sel "+itoa(len(state.Selection)), colorTextBright, BgHover, false)

	snaps := []string{}
	if state.GridSnap {
		snaps = append(snaps, "grid")
	}
	if state.ObjectSnap {
		snaps = append(snaps, "snap")
	}
	if len(snaps) == 0 {
		snaps = append(snaps, "free")
	}
	snap := seg(strings.Join(snaps, "+"), colorTextBright, BgHover, false)

	// Last message (colored by severity).
	msgText := "ready"
	msgBg := BgCard
	msgFg := colorTextNormal
	if last, ok := a.logs.last(); ok {
		msgText = last.message
		switch last.level {
		case "error":
			msgBg = Error
			msgFg = colorTextBright
		case "warning":
			msgBg = Warning
			msgFg = colorTextBright
		case "success":
			msgBg = Success
			msgFg = colorTextBright
		default:
			msgBg = BgConsole
			msgFg = colorTextBright
		}
	}

	uptime := time.Since(a.startTime)
	up := seg("up "+pad2(int(uptime.Hours()))+":"+pad2(int(uptime.Minutes())%60), colorTextBright, Primary, true)

	leftFixed := mode + pipe + tool + pipe + sel + pipe + snap + pipe
	remaining := a.width - lipgloss.Width(leftFixed) - lipgloss.Width(pipe) - lipgloss.Width(up)
	if remaining < 10 {
		remaining = 10
	}
	msg := seg(Truncate(msgText, remaining), msgFg, msgBg, false)

	left := leftFixed + msg
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(pipe) - lipgloss.Width(up)
	if gap < 1 {
		gap = 1
	}

	line := left + strings.Repeat(" ", gap) + pipe + up
	return base.Width(a.width).Render(line)
}

func (a *App) renderCommandArea() string {
	base := lipgloss.NewStyle().Background(BgCard).Foreground(colorTextNormal)
	view := a.command.View()

	// Ensure fixed height.
	lines := strings.Split(view, "\n")
	h := a.bottomAreaHeight()
	if len(lines) < h {
		for len(lines) < h {
			lines = append(lines, "")
		}
	} else if len(lines) > h {
		lines = lines[len(lines)-h:]
	}
	return base.Width(a.width).Height(h).Render(strings.Join(lines, "\n"))
}

func (a *App) bottomAreaHeight() int {
	if a.command.IsVisible() {
		h := a.height / 3
		if h < 6 {
			h = 6
		}
		if h > 14 {
			h = 14
		}
		return h
	}
	return 1
}

// Run starts the TUI
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func pad2(v int) string {
	if v < 10 {
		return "0" + itoa(v)
	}
	return itoa(v)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
