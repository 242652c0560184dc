package models

import "time"

type CompetitionStatus string

const (
	CompetitionStatusCompleted    CompetitionStatus = "completed"
	CompetitionStatusDisqualified CompetitionStatus = "disqualified"
	CompetitionStatusInjured      CompetitionStatus = "injured"
	CompetitionStatusWithdrew     CompetitionStatus = "withdrew"
)

type CompetitionResult string

const (
	ResultWin  CompetitionResult = "win"
	ResultLoss CompetitionResult = "loss"
)

type CompetitionMatchType string

const (
	MatchTypeSingle         CompetitionMatchType = "single"
	MatchTypeSingleTeam     CompetitionMatchType = "single_team"
	MatchTypeTournament     CompetitionMatchType = "tournament"
	MatchTypeTournamentTeam CompetitionMatchType = "tournament_team"
)

// Competition — пользовательская запись истории выступлений.
// Создаётся вручную пользователем либо синтезируется менеджером жизненного
// цикла матча (завершение матча, уход с подтверждённого матча).
type Competition struct {
	ID             int                  `json:"id" db:"id"`
	UserID         int                  `json:"user_id" db:"user_id"`
	EventName      string               `json:"event_name" db:"event_name"`
	EventDate      time.Time            `json:"event_date" db:"event_date"`
	City           *string              `json:"city,omitempty" db:"city"`
	State          *string              `json:"state,omitempty" db:"state"`
	Country        *string              `json:"country,omitempty" db:"country"`
	Placement      *int                 `json:"placement,omitempty" db:"placement"`
	Result         *CompetitionResult   `json:"result,omitempty" db:"result"`
	Status         CompetitionStatus    `json:"status" db:"status"`
	MatchType      CompetitionMatchType `json:"match_type" db:"match_type"`
	Notes          *string              `json:"notes,omitempty" db:"notes"`
	PodiumPhotoKey *string              `json:"-" db:"podium_photo_key"`
	PodiumPhotoURL *string              `json:"podium_photo_url,omitempty" db:"-"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
}
