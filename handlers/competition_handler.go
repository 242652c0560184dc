package handlers

import (
	"net/http"

	"github.com/grapplehub/grapplehub/middleware"
	"github.com/grapplehub/grapplehub/services"
)

type CompetitionHandler struct {
	competitionService services.CompetitionService
}

func NewCompetitionHandler(competitionService services.CompetitionService) *CompetitionHandler {
	return &CompetitionHandler{competitionService: competitionService}
}

// CreateEntry godoc
// @Summary Добавить запись в историю соревнований
// @Tags competitions
// @Accept json
// @Produce json
// @Param body body services.CompetitionInput true "Запись"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitions [post]
func (h *CompetitionHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CompetitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.competitionService.CreateEntry(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competition": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyEntries godoc
// @Summary История соревнований текущего пользователя
// @Tags competitions
// @Produce json
// @Param limit query int false "Лимит"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitions [get]
func (h *CompetitionHandler) ListMyEntries(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	limit := getQueryInt(r, "limit", 50)
	offset := getQueryInt(r, "offset", 0)

	entries, err := h.competitionService.ListUserEntries(r.Context(), currentUserID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitions": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateEntry godoc
// @Summary Обновить запись истории
// @Tags competitions
// @Accept json
// @Produce json
// @Param entryID path int true "Entry ID"
// @Param body body services.CompetitionInput true "Запись"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitions/{entryID} [put]
func (h *CompetitionHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CompetitionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.competitionService.UpdateEntry(r.Context(), currentUserID, entryID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteEntry godoc
// @Summary Удалить запись истории
// @Tags competitions
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitions/{entryID} [delete]
func (h *CompetitionHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.competitionService.DeleteEntry(r.Context(), currentUserID, entryID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "entry deleted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadPodiumPhoto godoc
// @Summary Загрузить фото с пьедестала
// @Tags competitions
// @Accept octet-stream
// @Produce json
// @Param entryID path int true "Entry ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitions/{entryID}/photo [post]
func (h *CompetitionHandler) UploadPodiumPhoto(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	entryID, err := getIDFromURL(r, "entryID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	contentType := r.Header.Get("Content-Type")
	defer r.Body.Close()

	entry, err := h.competitionService.UploadPodiumPhoto(r.Context(), currentUserID, entryID, contentType, r.Body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competition": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
