package models

import "time"

type UserRole string

const (
	RoleAthlete   UserRole = "athlete"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
)

type BeltLevel string

const (
	BeltWhite  BeltLevel = "white"
	BeltBlue   BeltLevel = "blue"
	BeltPurple BeltLevel = "purple"
	BeltBrown  BeltLevel = "brown"
	BeltBlack  BeltLevel = "black"
)

// User представляет профиль атлета или организатора.
type User struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         UserRole   `json:"role" db:"role"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	Gender       *string    `json:"gender,omitempty" db:"gender"`
	BeltLevel    *BeltLevel `json:"belt_level,omitempty" db:"belt_level"`
	WeightKG     *float64   `json:"weight_kg,omitempty" db:"weight_kg"`
	AvatarKey    *string    `json:"-" db:"avatar_key"`
	AvatarURL    *string    `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
