package dto

import (
	"time"

	"github.com/EG0RIAN/tg-exhange-bot/internal/core/domain"
)

// SyncResultResponse is the run summary returned after a manual sync.
type SyncResultResponse struct {
	SourceCode     string   `json:"sourceCode"`
	Status         string   `json:"status"`
	PairsProcessed int      `json:"pairsProcessed"`
	PairsSucceeded int      `json:"pairsSucceeded"`
	PairsFailed    int      `json:"pairsFailed"`
	DurationMs     int64    `json:"durationMs"`
	Errors         []string `json:"errors,omitempty"`
}

// ToSyncResultResponse converts a domain sync result to its API shape.
func ToSyncResultResponse(r domain.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		SourceCode:     r.SourceCode,
		Status:         string(r.Status),
		PairsProcessed: r.PairsProcessed,
		PairsSucceeded: r.PairsSucceeded,
		PairsFailed:    r.PairsFailed,
		DurationMs:     r.DurationMs,
		Errors:         r.Errors,
	}
}

// SyncLogResponse is the API shape of one persisted sync log row.
type SyncLogResponse struct {
	SyncLogID      string     `json:"syncLogID"`
	SourceID       string     `json:"sourceID"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Status         string     `json:"status"`
	PairsProcessed int        `json:"pairsProcessed"`
	PairsSucceeded int        `json:"pairsSucceeded"`
	PairsFailed    int        `json:"pairsFailed"`
	DurationMs     int64      `json:"durationMs"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
}

// ToSyncLogResponse converts a domain sync log to its API shape.
func ToSyncLogResponse(l domain.SyncLog) SyncLogResponse {
	return SyncLogResponse{
		SyncLogID:      l.SyncLogID,
		SourceID:       l.SourceID,
		StartedAt:      l.StartedAt,
		FinishedAt:     l.FinishedAt,
		Status:         string(l.Status),
		PairsProcessed: l.PairsProcessed,
		PairsSucceeded: l.PairsSucceeded,
		PairsFailed:    l.PairsFailed,
		DurationMs:     l.DurationMs,
		ErrorMessage:   l.ErrorMessage,
	}
}
