package models

import "time"

type WithdrawalReason string

const (
	ReasonInjury     WithdrawalReason = "injury"
	ReasonPersonal   WithdrawalReason = "personal"
	ReasonScheduling WithdrawalReason = "scheduling"
	ReasonOther      WithdrawalReason = "other"
)

// Withdrawal — неизменяемая запись об уходе участника с матча.
// Записи только добавляются, никогда не обновляются и не удаляются.
type Withdrawal struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	EventID   *int             `json:"event_id,omitempty" db:"event_id"`
	MatchID   int              `json:"match_id" db:"match_id"`
	Reason    WithdrawalReason `json:"reason" db:"reason"`
	Comment   *string          `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
