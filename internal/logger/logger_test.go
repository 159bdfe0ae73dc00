package logger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu   sync.Mutex
	msgs []string
}

func (h *recordingHub) Broadcast(msgType string, _ any) {
	h.mu.Lock()
	h.msgs = append(h.msgs, msgType)
	h.mu.Unlock()
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_WritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{Level: "info", Format: "json", Path: dir})
	defer l.Close()

	l.Info().Msg("hello")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestStream_BuffersAndForwards(t *testing.T) {
	stream := NewStream(2)
	hub := &recordingHub{}
	stream.Attach(hub)

	zl := zerolog.New(stream).With().Str("component", "search").Logger()
	zl.Warn().Str("source", "goodreads").Msg("one")
	zl.Warn().Msg("two")
	zl.Warn().Msg("three")

	recent := stream.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Message)
	assert.Equal(t, "three", recent[1].Message)
	assert.Equal(t, "search", recent[1].Component)
	assert.Len(t, hub.msgs, 3)
	assert.Equal(t, MessageLogEntry, hub.msgs[0])
}

func TestStream_IgnoresMalformed(t *testing.T) {
	stream := NewStream(4)
	n, err := stream.Write([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Empty(t, stream.Recent())
}

func TestRingBuffer_Order(t *testing.T) {
	rb := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		rb.Push(i)
	}
	assert.Equal(t, []int{3, 4, 5}, rb.Items())
	assert.Equal(t, 3, rb.Len())
}
