package handlers

import (
	"net/http"

	"github.com/grapplehub/grapplehub/middleware"
	"github.com/grapplehub/grapplehub/services"
)

type TrainingHandler struct {
	trainingService services.TrainingService
}

func NewTrainingHandler(trainingService services.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainingService: trainingService}
}

// LogSession godoc
// @Summary Записать тренировку
// @Tags training
// @Accept json
// @Produce json
// @Param body body services.TrainingInput true "Тренировка"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /training [post]
func (h *TrainingHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.TrainingInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	session, err := h.trainingService.LogSession(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"training_log": session}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMySessions godoc
// @Summary Журнал тренировок текущего пользователя
// @Tags training
// @Produce json
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /training [get]
func (h *TrainingHandler) ListMySessions(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	limit := getQueryInt(r, "limit", 50)
	offset := getQueryInt(r, "offset", 0)

	sessions, err := h.trainingService.ListUserSessions(r.Context(), currentUserID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"training_logs": sessions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteSession godoc
// @Summary Удалить запись тренировки
// @Tags training
// @Produce json
// @Param logID path int true "Log ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /training/{logID} [delete]
func (h *TrainingHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	logID, err := getIDFromURL(r, "logID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.trainingService.DeleteSession(r.Context(), currentUserID, logID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "session deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
