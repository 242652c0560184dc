package models

import "time"

// Event — родительское событие, к которому привязаны матчи.
type Event struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	OrganizerID int       `json:"organizer_id" db:"organizer_id"`
	Location    *string   `json:"location,omitempty" db:"location"`
	Date        time.Time `json:"date" db:"date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
