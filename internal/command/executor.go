// Package command provides the editor's command line
package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/thereceipt/label-designer/internal/editor"
	"github.com/thereceipt/label-designer/pkg/labelformat"
)

// StockSource lists the stocks a document can be designed for
type StockSource interface {
	ListStocks(ctx context.Context) ([]labelformat.Stock, error)
}

// Executor executes commands against an editor
type Executor struct {
	editor  *editor.Editor
	stocks  StockSource
	timeout time.Duration
}

// NewExecutor creates a new command executor. stocks may be nil, in which
// case stock ids are accepted without checking.
func NewExecutor(e *editor.Editor, stocks StockSource) *Executor {
	return &Executor{
		editor:  e,
		stocks:  stocks,
		timeout: 10 * time.Second,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func fail(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

func ok(format string, args ...interface{}) *Result {
	return &Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return &Result{
			Success: false,
			Error:   "empty command",
		}
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "save", "w":
		return e.handleSave(args)
	case "load", "open":
		return e.handleLoad(args)
	case "new":
		return e.handleNew(args)
	case "name":
		return e.handleName(args)
	case "category":
		return e.handleCategory(args)
	case "stock":
		return e.handleStock(args)
	case "export":
		return e.handleExport(args)
	case "import":
		return e.handleImport(args)
	case "align":
		return e.handleAlign(args)
	case "grid":
		return e.handleToggle(args, "grid snap", e.editor.State().GridSnap, e.editor.SetGridSnap)
	case "snap":
		return e.handleToggle(args, "object snap", e.editor.State().ObjectSnap, e.editor.SetObjectSnap)
	case "tool":
		return e.handleTool(args)
	case "set":
		return e.handleSet(args)
	case "select":
		return e.handleSelect(args)
	case "list", "ls":
		return e.handleList(args)
	case "vars":
		return e.handleVars(args)
	case "delete", "rm":
		return e.handleDelete(args)
	case "lock", "unlock", "hide", "show":
		return e.handleFlag(command)
	case "front", "back":
		return e.handleStack(command)
	case "undo":
		return e.handleHistory(e.editor.Undo, "undo")
	case "redo":
		return e.handleHistory(e.editor.Redo, "redo")
	case "help":
		return e.handleHelp(args)
	default:
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("unknown command: %s. Type 'help' for available commands", command),
		}
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoted := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		if char == '"' || char == '\'' {
			if !inQuotes {
				inQuotes = true
				quoted = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		} else if char == ' ' && !inQuotes {
			if current.Len() > 0 || quoted {
				parts = append(parts, current.String())
				current.Reset()
				quoted = false
			}
		} else {
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 || quoted {
		parts = append(parts, current.String())
	}

	return parts
}
