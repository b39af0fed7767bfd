// Package logbuf buffers log entries for one request so the middleware can
// flush them as a single structured record.
package logbuf

import (
	"log/slog"
	"sync"
	"time"
)

type Entry struct {
	Level   string
	Message string
	At      time.Time
	Attrs   []slog.Attr
}

type Logger struct {
	mu     sync.Mutex
	parent *Logger
	attrs  []slog.Attr
	buffer *buffer
}

type buffer struct {
	mu      sync.Mutex
	entries []Entry
}

func New(attrs ...slog.Attr) *Logger {
	logger := &Logger{}
	logger.attrs = append(logger.attrs, attrs...)
	return logger
}

// With returns a child logger carrying extra attributes; children of the same
// root share one entry buffer.
func (l *Logger) With(attrs ...slog.Attr) *Logger {
	child := &Logger{parent: l, buffer: l.bufferOrAncestor()}
	if child.buffer == nil {
		child.buffer = &buffer{}
	}
	child.attrs = append(child.attrs, attrs...)
	return child
}

func (l *Logger) Add(attrs ...slog.Attr) {
	if len(attrs) == 0 {
		return
	}
	l.mu.Lock()
	l.attrs = append(l.attrs, attrs...)
	l.mu.Unlock()
}

func (l *Logger) Debug(message string, attrs ...slog.Attr) {
	l.appendEntry("debug", message, attrs...)
}

func (l *Logger) Info(message string, attrs ...slog.Attr) {
	l.appendEntry("info", message, attrs...)
}

func (l *Logger) Warn(message string, attrs ...slog.Attr) {
	l.appendEntry("warn", message, attrs...)
}

func (l *Logger) Error(message string, attrs ...slog.Attr) {
	l.appendEntry("error", message, attrs...)
}

// Flush drains the buffer and returns everything as one slog group attribute.
func (l *Logger) Flush() slog.Attr {
	buf := l.bufferOrAncestor()
	entries := []Entry{}
	if buf != nil {
		buf.mu.Lock()
		entries = make([]Entry, len(buf.entries))
		copy(entries, buf.entries)
		buf.entries = buf.entries[:0]
		buf.mu.Unlock()
	}

	attrs := l.collectAttrs()
	attrs = append(attrs, slog.Any("entries", entriesToPayload(entries)))
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return slog.Group("", args...)
}

func (l *Logger) appendEntry(level string, message string, attrs ...slog.Attr) {
	buf := l.bufferOrAncestor()
	if buf == nil {
		return
	}
	entry := Entry{Level: level, Message: message, At: time.Now()}
	entry.Attrs = append(entry.Attrs, attrs...)
	buf.mu.Lock()
	buf.entries = append(buf.entries, entry)
	buf.mu.Unlock()
}

func (l *Logger) bufferOrAncestor() *buffer {
	for current := l; current != nil; current = current.parent {
		if current.buffer != nil {
			return current.buffer
		}
	}
	return nil
}

func (l *Logger) collectAttrs() []slog.Attr {
	chain := []*Logger{}
	for current := l; current != nil; current = current.parent {
		chain = append(chain, current)
	}

	attrs := make([]slog.Attr, 0)
	for i := len(chain) - 1; i >= 0; i-- {
		logger := chain[i]
		logger.mu.Lock()
		attrs = append(attrs, logger.attrs...)
		logger.mu.Unlock()
	}
	return attrs
}

func entriesToPayload(entries []Entry) []map[string]any {
	payload := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		item := map[string]any{
			"message": entry.Message,
			"level":   entry.Level,
			"at":      entry.At,
		}
		for _, attr := range entry.Attrs {
			if attr.Key == "" {
				continue
			}
			if _, exists := item[attr.Key]; exists {
				continue
			}
			item[attr.Key] = attr.Value.Any()
		}
		payload = append(payload, item)
	}
	return payload
}
