package services

import (
	"strings"

	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/storage"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// withdrawalReasonByText — фиксированная таблица маппинга свободного текста
// причины ухода в закрытый enum. Неизвестный текст попадает в ReasonOther.
var withdrawalReasonByText = map[string]models.WithdrawalReason{
	"injury":              models.ReasonInjury,
	"injured":             models.ReasonInjury,
	"medical":             models.ReasonInjury,
	"personal":            models.ReasonPersonal,
	"personal reasons":    models.ReasonPersonal,
	"family":              models.ReasonPersonal,
	"schedule":            models.ReasonScheduling,
	"scheduling":          models.ReasonScheduling,
	"schedule conflict":   models.ReasonScheduling,
	"scheduling conflict": models.ReasonScheduling,
	"conflict":            models.ReasonScheduling,
}

// MapWithdrawalReason переводит введённый пользователем текст в enum причины.
// Внутри системы хранится только enum; исходный текст уходит в заметки.
func MapWithdrawalReason(freeText string) models.WithdrawalReason {
	if reason, ok := withdrawalReasonByText[strings.ToLower(strings.TrimSpace(freeText))]; ok {
		return reason
	}
	return models.ReasonOther
}

// --- Хелперы для заполнения публичных URL ---

func populateUserDetails(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = "" // Важно для безопасности
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.AvatarKey)
		if url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateCompetitionPhotoURL(competition *models.Competition, uploader storage.FileUploader) {
	if competition != nil && competition.PodiumPhotoKey != nil && *competition.PodiumPhotoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*competition.PodiumPhotoKey)
		if url != "" {
			competition.PodiumPhotoURL = &url
		}
	}
}

// GetExtensionFromContentType возвращает расширение файла для ключа в хранилище.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			return "." + strings.Split(parts[1], "+")[0], nil
		}
		return "", ErrValidationFailed
	}
}
