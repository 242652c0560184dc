package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed     = errors.New("validation failed")
	ErrPasswordTooShort     = errors.New("password is too short")
	ErrInvalidPosition      = errors.New("competitor position must be 1 or 2")
	ErrMatchTerminal        = errors.New("match is completed or cancelled and accepts no changes")
	ErrSlotOccupied         = errors.New("the requested slot is already occupied")
	ErrDuplicateRequest     = errors.New("a pending request for this slot already exists")
	ErrRequestAlreadyClosed = errors.New("request has already been resolved")
	ErrCompetitorConfirmed  = errors.New("competitor is already confirmed")
	ErrMatchNotConfirmable  = errors.New("match cannot be confirmed without two confirmed competitors")
	ErrManualFieldsRequired = errors.New("manual competitor requires at least a name")
	ErrNotEligible          = errors.New("user profile does not satisfy match requirements")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrOrganizerOnly          = errors.New("only the match organizer can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrCompetitorNotFound  = errors.New("competitor not found")
	ErrRequestNotFound     = errors.New("match request not found")
	ErrCompetitionNotFound = errors.New("competition entry not found")
	ErrTrainingLogNotFound = errors.New("training log not found")
)
