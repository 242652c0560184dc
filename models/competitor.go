package models

import "time"

// CompetitorType — дискриминант: участник с аккаунтом или ручная запись организатора.
type CompetitorType string

const (
	CompetitorTypeUser   CompetitorType = "user"
	CompetitorTypeManual CompetitorType = "manual"
)

// MatchCompetitor occupies one of the two slots of a match. Exactly one of
// the user fields or the manual fields is populated, per Type.
type MatchCompetitor struct {
	ID             int            `json:"id" db:"id"`
	MatchID        int            `json:"match_id" db:"match_id"`
	Position       int            `json:"position" db:"position"`
	Type           CompetitorType `json:"competitor_type" db:"competitor_type"`
	UserID         *int           `json:"user_id,omitempty" db:"user_id"`
	ManualName     *string        `json:"manual_name,omitempty" db:"manual_name"`
	ManualBelt     *BeltLevel     `json:"manual_belt,omitempty" db:"manual_belt"`
	ManualWeightKG *float64       `json:"manual_weight_kg,omitempty" db:"manual_weight_kg"`
	ManualPhotoKey *string        `json:"-" db:"manual_photo_key"`
	Confirmed      bool           `json:"confirmed" db:"confirmed"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`

	User *User `json:"user,omitempty" db:"-"`
}

func (c *MatchCompetitor) IsRegisteredUser() bool {
	return c.Type == CompetitorTypeUser && c.UserID != nil
}
