package models

import "time"

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusWithdrawn RequestStatus = "withdrawn"
)

// MatchRequest — заявка пользователя на конкретный слот матча.
// Для пары (match, user, position) допускается максимум одна pending-заявка;
// отклонённая заявка при повторной подаче возвращается в pending, а не дублируется.
type MatchRequest struct {
	ID          int           `json:"id" db:"id"`
	MatchID     int           `json:"match_id" db:"match_id"`
	UserID      int           `json:"user_id" db:"user_id"`
	Position    int           `json:"position" db:"position"`
	Message     *string       `json:"message,omitempty" db:"message"`
	Status      RequestStatus `json:"status" db:"status"`
	RespondedAt *time.Time    `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`

	Requester *User `json:"requester,omitempty" db:"-"`
}
