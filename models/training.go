package models

import "time"

// TrainingLog — запись тренировки атлета.
type TrainingLog struct {
	ID              int         `json:"id" db:"id"`
	UserID          int         `json:"user_id" db:"user_id"`
	Date            time.Time   `json:"date" db:"date"`
	DurationMinutes int         `json:"duration_minutes" db:"duration_minutes"`
	Format          MatchFormat `json:"format" db:"format"`
	Category        *string     `json:"category,omitempty" db:"category"`
	Notes           *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
}
