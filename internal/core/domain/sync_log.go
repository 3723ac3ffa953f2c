package domain

import "time"

// SyncStatus is the outcome of one sync run.
type SyncStatus string

const (
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusError   SyncStatus = "error"
)

// SyncLog is the append-only audit record of one sync run for one source.
type SyncLog struct {
	SyncLogID      string     `json:"syncLogID"` // Primary Key (UUID)
	SourceID       string     `json:"sourceID"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Status         SyncStatus `json:"status"`
	PairsProcessed int        `json:"pairsProcessed"`
	PairsSucceeded int        `json:"pairsSucceeded"`
	PairsFailed    int        `json:"pairsFailed"`
	DurationMs     int64      `json:"durationMs"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
}

// SyncResult is the run summary returned by a manual or scheduled sync.
type SyncResult struct {
	SourceCode     string     `json:"sourceCode"`
	Status         SyncStatus `json:"status"`
	PairsProcessed int        `json:"pairsProcessed"`
	PairsSucceeded int        `json:"pairsSucceeded"`
	PairsFailed    int        `json:"pairsFailed"`
	DurationMs     int64      `json:"durationMs"`
	Errors         []string   `json:"errors,omitempty"`
}
