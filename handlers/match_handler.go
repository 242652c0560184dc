package handlers

import (
	"net/http"

	"github.com/grapplehub/grapplehub/middleware"
	"github.com/grapplehub/grapplehub/models"
	"github.com/grapplehub/grapplehub/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// CreateMatch godoc
// @Summary Создать матч внутри события
// @Tags matches
// @Accept json
// @Produce json
// @Param body body services.CreateMatchInput true "Параметры матча"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.CreateMatch(r.Context(), currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatch godoc
// @Summary Матч с участниками и заявками
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatchDetail(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListEventMatches godoc
// @Summary Матчи события
// @Tags matches
// @Produce json
// @Param eventID path int true "Event ID"
// @Param status query string false "Фильтр по статусу"
// @Success 200 {object} map[string]interface{}
// @Router /events/{eventID}/matches [get]
func (h *MatchHandler) ListEventMatches(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var statusFilter *models.MatchStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := models.MatchStatus(raw)
		statusFilter = &status
	}

	matches, err := h.matchService.ListEventMatches(r.Context(), eventID, statusFilter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type requestSlotPayload struct {
	Position int     `json:"position"`
	Message  *string `json:"message"`
}

// RequestSlot godoc
// @Summary Подать заявку на слот матча
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body requestSlotPayload true "Слот и сообщение"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/requests [post]
func (h *MatchHandler) RequestSlot(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload requestSlotPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	request, err := h.matchService.RequestSlot(r.Context(), currentUserID, matchID, payload.Position, payload.Message)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"request": request}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApproveRequest godoc
// @Summary Одобрить заявку на участие
// @Tags matches
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /requests/{requestID}/approve [post]
func (h *MatchHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.matchService.ApproveRequest(r.Context(), currentUserID, requestID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectRequest godoc
// @Summary Отклонить заявку на участие
// @Tags matches
// @Produce json
// @Param requestID path int true "Request ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /requests/{requestID}/reject [post]
func (h *MatchHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	requestID, err := getIDFromURL(r, "requestID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.RejectRequest(r.Context(), currentUserID, requestID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "request rejected"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type manualCompetitorPayload struct {
	Position int `json:"position"`
	services.ManualCompetitorInput
}

// AddManualCompetitor godoc
// @Summary Добавить участника вручную
// @Description Организатор вписывает участника без учётной записи.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body manualCompetitorPayload true "Данные участника"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/competitors [post]
func (h *MatchHandler) AddManualCompetitor(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload manualCompetitorPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	competitor, err := h.matchService.AddManualCompetitor(r.Context(), currentUserID, matchID, payload.Position, payload.ManualCompetitorInput)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"competitor": competitor}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmCompetitor godoc
// @Summary Подтвердить участие
// @Tags matches
// @Produce json
// @Param competitorID path int true "Competitor ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitors/{competitorID}/confirm [post]
func (h *MatchHandler) ConfirmCompetitor(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	competitorID, err := getIDFromURL(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.ConfirmCompetitor(r.Context(), currentUserID, competitorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RemoveCompetitor godoc
// @Summary Убрать участника из матча
// @Tags matches
// @Produce json
// @Param competitorID path int true "Competitor ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /competitors/{competitorID} [delete]
func (h *MatchHandler) RemoveCompetitor(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	competitorID, err := getIDFromURL(r, "competitorID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.RemoveCompetitor(r.Context(), currentUserID, competitorID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "competitor removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type withdrawPayload struct {
	Reason  string  `json:"reason"`
	Comment *string `json:"comment"`
}

// Withdraw godoc
// @Summary Сняться с матча
// @Description Снятие каскадно освобождает слот и возвращает матч в pending.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body withdrawPayload true "Причина снятия"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/withdraw [post]
func (h *MatchHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload withdrawPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	withdrawal, err := h.matchService.Withdraw(r.Context(), currentUserID, matchID, payload.Reason, payload.Comment)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"withdrawal": withdrawal}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type recordResultPayload struct {
	WinnerPosition int `json:"winner_position"`
}

// RecordResult godoc
// @Summary Зафиксировать результат матча
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body recordResultPayload true "Позиция победителя"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/result [post]
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var payload recordResultPayload
	if err := readJSON(w, r, &payload); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.RecordResult(r.Context(), currentUserID, matchID, payload.WinnerPosition); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "result recorded"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CancelMatch godoc
// @Summary Отменить матч
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID} [delete]
func (h *MatchHandler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.matchService.CancelMatch(r.Context(), currentUserID, matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "match cancelled"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CheckEligibility godoc
// @Summary Проверить соответствие критериям матча
// @Tags matches
// @Produce json
// @Param matchID path int true "Match ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /matches/{matchID}/eligibility [get]
func (h *MatchHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	eligible, err := h.matchService.CheckEligibility(r.Context(), currentUserID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"eligible": eligible}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
