package models

import "time"

type SummaryType string

const (
	SummaryTypeTraining     SummaryType = "training"
	SummaryTypeCompetitions SummaryType = "competitions"
)

// SummaryCacheEntry — кэш сгенерированной AI-сводки, уникален по (user_id, summary_type).
type SummaryCacheEntry struct {
	ID          int         `json:"id" db:"id"`
	UserID      int         `json:"user_id" db:"user_id"`
	SummaryType SummaryType `json:"summary_type" db:"summary_type"`
	Summary     string      `json:"summary" db:"summary"`
	ContentHash string      `json:"content_hash" db:"content_hash"`
	RowCount    int         `json:"row_count" db:"row_count"`
	ExpiresAt   time.Time   `json:"expires_at" db:"expires_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// SummaryRow is the normalized projection of a source row used for cache
// hashing. Only fields that should invalidate a summary are included, so
// edits to irrelevant fields do not churn the hash.
type SummaryRow struct {
	ID        int    `json:"id"`
	Date      string `json:"date"`
	Category  string `json:"category,omitempty"`
	Format    string `json:"format,omitempty"`
	Status    string `json:"status,omitempty"`
	Result    string `json:"result,omitempty"`
	Placement *int   `json:"placement,omitempty"`
}
