package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grapplehub/grapplehub/models"
)

func TestMapWithdrawalReason(t *testing.T) {
	tests := []struct {
		text string
		want models.WithdrawalReason
	}{
		{"injury", models.ReasonInjury},
		{"Injured", models.ReasonInjury},
		{"MEDICAL", models.ReasonInjury},
		{"personal", models.ReasonPersonal},
		{"personal reasons", models.ReasonPersonal},
		{"family", models.ReasonPersonal},
		{"schedule conflict", models.ReasonScheduling},
		{"  scheduling  ", models.ReasonScheduling},
		{"conflict", models.ReasonScheduling},
		{"just not feeling it", models.ReasonOther},
		{"", models.ReasonOther},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, MapWithdrawalReason(tt.text))
		})
	}
}

func TestGetExtensionFromContentType(t *testing.T) {
	ext, err := GetExtensionFromContentType("image/png")
	assert.NoError(t, err)
	assert.Equal(t, ".png", ext)

	ext, err = GetExtensionFromContentType("image/svg+xml")
	assert.NoError(t, err)
	assert.Equal(t, ".svg", ext)

	_, err = GetExtensionFromContentType("application/pdf")
	assert.ErrorIs(t, err, ErrValidationFailed)
}
