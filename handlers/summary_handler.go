package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grapplehub/grapplehub/middleware"
	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/services"
)

// Сколько последних записей берём в выборку для генерации сводки.
const summarySourceLimit = 100

type SummaryHandler struct {
	summaryService     services.SummaryService
	competitionService services.CompetitionService
	trainingService    services.TrainingService
}

func NewSummaryHandler(
	summaryService services.SummaryService,
	competitionService services.CompetitionService,
	trainingService services.TrainingService,
) *SummaryHandler {
	return &SummaryHandler{
		summaryService:     summaryService,
		competitionService: competitionService,
		trainingService:    trainingService,
	}
}

// GetSummary godoc
// @Summary AI-сводка по истории пользователя
// @Description Возвращает кэшированную сводку либо запрашивает новую у внешнего сервиса.
// @Tags summaries
// @Produce json
// @Param summaryType path string true "Тип сводки (training или competitions)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /summaries/{summaryType} [get]
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	summaryType := models.SummaryType(chi.URLParam(r, "summaryType"))

	var rows []models.SummaryRow
	switch summaryType {
	case models.SummaryTypeCompetitions:
		entries, err := h.competitionService.ListUserEntries(r.Context(), currentUserID, summarySourceLimit, 0)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		rows = services.SummaryRowsFromCompetitions(entries)
	case models.SummaryTypeTraining:
		logs, err := h.trainingService.ListUserSessions(r.Context(), currentUserID, summarySourceLimit, 0)
		if err != nil {
			mapServiceErrorToHTTP(w, r, err)
			return
		}
		rows = services.SummaryRowsFromTrainingLogs(logs)
	default:
		errorResponse(w, r, http.StatusBadRequest, "unknown summary type")
		return
	}

	summary, err := h.summaryService.GetSummary(r.Context(), currentUserID, summaryType, rows)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"summary": summary, "summary_type": summaryType}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
