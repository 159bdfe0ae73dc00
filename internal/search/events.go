package search

import "time"

// Event types broadcast around each search.
const (
	EventSearchStarted   = "search:started"
	EventSearchCompleted = "search:completed"
)

// Publisher receives search events.
type Publisher interface {
	Broadcast(msgType string, payload any)
}

// StartedEvent is sent before sources are queried.
type StartedEvent struct {
	ID       string   `json:"id"`
	Query    string   `json:"query"`
	Category Category `json:"category"`
	Page     int      `json:"page"`
	Sources  []string `json:"sources"`
}

// SourceSummary reports one source's contribution to a search.
type SourceSummary struct {
	Source    string `json:"source"`
	Outcome   string `json:"outcome"`
	Results   int    `json:"results"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// CompletedEvent is sent once every source has returned or timed out.
type CompletedEvent struct {
	ID        string          `json:"id"`
	Query     string          `json:"query"`
	Category  Category        `json:"category"`
	Total     int             `json:"total"`
	ElapsedMs int64           `json:"elapsedMs"`
	Sources   []SourceSummary `json:"sources"`
}

func ms(d time.Duration) int64 {
	return d.Milliseconds()
}
