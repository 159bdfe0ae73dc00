package logger

import (
	"encoding/json"
	"sync"
)

const defaultBufferSize = 500

// MessageLogEntry is the event type used when streaming log entries.
const MessageLogEntry = "log:entry"

// Broadcaster publishes typed messages to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Entry is a parsed log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Stream is an io.Writer that keeps the most recent entries and forwards
// each one to a Broadcaster. The hub may be attached after the logger is
// built, since the hub itself needs a logger.
type Stream struct {
	buffer *RingBuffer[Entry]

	mu  sync.RWMutex
	hub Broadcaster
}

// NewStream creates a stream that retains up to size entries.
func NewStream(size int) *Stream {
	if size <= 0 {
		size = defaultBufferSize
	}
	return &Stream{buffer: NewRingBuffer[Entry](size)}
}

// Attach sets the hub entries are forwarded to.
func (s *Stream) Attach(hub Broadcaster) {
	s.mu.Lock()
	s.hub = hub
	s.mu.Unlock()
}

// Write receives JSON entries from zerolog. Malformed entries are dropped.
func (s *Stream) Write(p []byte) (int, error) {
	entry, ok := parseEntry(p)
	if !ok {
		return len(p), nil
	}
	s.buffer.Push(entry)

	s.mu.RLock()
	hub := s.hub
	s.mu.RUnlock()
	if hub != nil {
		hub.Broadcast(MessageLogEntry, entry)
	}
	return len(p), nil
}

// Recent returns buffered entries, oldest first.
func (s *Stream) Recent() []Entry {
	return s.buffer.Items()
}

func parseEntry(data []byte) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, false
	}

	e := Entry{}
	e.Timestamp, _ = take(raw, "time")
	e.Level, _ = take(raw, "level")
	e.Component, _ = take(raw, "component")
	e.Message, _ = take(raw, "message")
	if len(raw) > 0 {
		e.Fields = raw
	}
	return e, true
}

func take(m map[string]any, key string) (string, bool) {
	v, ok := m[key].(string)
	if ok {
		delete(m, key)
	}
	return v, ok
}
