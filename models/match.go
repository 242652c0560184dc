package models

import "time"

// MatchStatus представляет статусы матча, соответствующие ENUM в БД.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusCancelled MatchStatus = "cancelled"
)

type MatchFormat string

const (
	FormatGi   MatchFormat = "gi"
	FormatNoGi MatchFormat = "no_gi"
	FormatBoth MatchFormat = "both"
)

// Match — запланированная схватка с ровно двумя слотами участников (позиции 1 и 2).
type Match struct {
	ID               int         `json:"id" db:"id"`
	EventID          int         `json:"event_id" db:"event_id"`
	CreatorID        int         `json:"creator_id" db:"creator_id"`
	BeltLevel        *BeltLevel  `json:"belt_level,omitempty" db:"belt_level"`
	AgeCategory      *string     `json:"age_category,omitempty" db:"age_category"`
	Gender           *string     `json:"gender,omitempty" db:"gender"`
	Format           MatchFormat `json:"format" db:"format"`
	WeightLimitKG    *float64    `json:"weight_limit_kg,omitempty" db:"weight_limit_kg"`
	TimeLimitSeconds *int        `json:"time_limit_seconds,omitempty" db:"time_limit_seconds"`
	SubmissionOnly   bool        `json:"submission_only" db:"submission_only"`
	CustomRules      *string     `json:"custom_rules,omitempty" db:"custom_rules"`
	Status           MatchStatus `json:"status" db:"status"`
	WinnerPosition   *int        `json:"winner_position,omitempty" db:"winner_position"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Competitors []*MatchCompetitor `json:"competitors,omitempty" db:"-"`
	Requests    []*MatchRequest    `json:"requests,omitempty" db:"-"`
}

// IsTerminal reports whether the match accepts no further slot mutation.
func (m *Match) IsTerminal() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusCancelled
}
