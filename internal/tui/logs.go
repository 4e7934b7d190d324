package tui

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

type logEntry struct {
	time    time.Time
	message string
	level   string
}

// LogBuffer collects log lines for the status bar. It is an io.Writer for
// a slog text handler, so editor and store logs land in the TUI instead
// of the alternate screen.
type LogBuffer struct {
	mu      sync.Mutex
	entries []logEntry
	max     int
}

// NewLogBuffer keeps at most max entries
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = 100
	}
	return &LogBuffer{max: max}
}

// Write accepts one or more slog text lines
func (l *LogBuffer) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		level, message := parseLogLine(line)
		l.Add(message, level)
	}
	return len(p), nil
}

// Add appends a message at level info, success, warning or error
func (l *LogBuffer) Add(message, level string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{time: time.Now(), message: message, level: level})
	if len(l.entries) > l.max {
		l.entries = l.entries[1:]
	}
}

// last returns the newest entry
func (l *LogBuffer) last() (logEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return logEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Len returns the number of buffered entries
func (l *LogBuffer) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// parseLogLine strips the time and level attributes of a slog text line
// and unquotes its msg
func parseLogLine(line string) (level, message string) {
	level = "info"
	rest := line

	if i := strings.Index(rest, "level="); i >= 0 {
		rest = rest[i+len("level="):]
		lvl := rest
		if j := strings.IndexByte(rest, ' '); j >= 0 {
			lvl, rest = rest[:j], rest[j+1:]
		} else {
			rest = ""
		}
		switch {
		case strings.HasPrefix(lvl, "ERROR"):
			level = "error"
		case strings.HasPrefix(lvl, "WARN"):
			level = "warning"
		}
	}

	if strings.HasPrefix(rest, "msg=") {
		rest = rest[len("msg="):]
		if strings.HasPrefix(rest, `"`) {
			if quoted, err := strconv.QuotedPrefix(rest); err == nil {
				msg, _ := strconv.Unquote(quoted)
				rest = msg + rest[len(quoted):]
			}
		}
	}
	return level, strings.TrimSpace(rest)
}
