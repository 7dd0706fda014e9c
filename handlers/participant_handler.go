package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/services"
)

// ApplicationNotifier реализуется services.Notifier.
type ApplicationNotifier interface {
	ApplicationSubmitted(ctx context.Context, p *models.Participant)
	ApplicationStatusChanged(ctx context.Context, p *models.Participant)
}

type ParticipantHandler struct {
	participantService services.ParticipantService
	notifier           ApplicationNotifier
}

// NewParticipantHandler - notifier может быть nil.
func NewParticipantHandler(ps services.ParticipantService, notifier ApplicationNotifier) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: ps,
		notifier:           notifier,
	}
}

type updateStatusRequest struct {
	Status      models.ParticipantStatus `json:"status"`
	ApplicantID *int                     `json:"applicant_id"`
}

// Apply godoc
// @Summary Подать заявку на игру
// @Tags participants
// @Description Заявка создаётся в статусе pending. Отказ бизнес-правила возвращается как success=false с сообщением.
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 201 {object} map[string]interface{} "success=true и заявка"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Failure 403 {object} map[string]interface{} "Своя игра"
// @Failure 404 {object} map[string]interface{} "Игра не найдена"
// @Failure 409 {object} map[string]interface{} "Уже подана / игра началась / мест нет"
// @Failure 422 {object} map[string]interface{} "Профиль не заполнен"
// @Security BearerAuth
// @Router /games/{gameID}/apply [post]
func (h *ParticipantHandler) Apply(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participant, err := h.participantService.Apply(r.Context(), gameID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.ApplicationSubmitted(r.Context(), participant)
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"success": true, "participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListApplications godoc
// @Summary Заявки на игру
// @Tags participants
// @Description Владелец видит все заявки, остальные - только одобренные.
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "Игра не найдена"
// @Router /games/{gameID}/participants [get]
func (h *ParticipantHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participantService.ListApplications(r.Context(), gameID, middleware.GetOptionalUserID(r.Context()))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateApplicationStatus godoc
// @Summary Решение владельца по заявке
// @Tags participants
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param participantID path int true "Participant ID"
// @Param body body updateStatusRequest true "Новый статус и, опционально, автор заявки"
// @Success 200 {object} map[string]interface{} "success=true"
// @Failure 404 {object} map[string]interface{} "Заявка или игра не найдена"
// @Failure 409 {object} map[string]interface{} "Мест нет"
// @Failure 422 {object} map[string]string "Недопустимый статус"
// @Security BearerAuth
// @Router /games/{gameID}/participants/{participantID} [patch]
func (h *ParticipantHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input updateStatusRequest
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if !input.Status.Valid() {
		failedValidationResponse(w, r, services.ErrInvalidApplicationStatus.Error())
		return
	}
	if input.ApplicantID != nil && *input.ApplicantID <= 0 {
		badRequestResponse(w, r, errors.New("applicant_id must be a positive integer"))
		return
	}

	participant, err := h.participantService.UpdateApplicationStatus(r.Context(), services.UpdateApplicationStatusInput{
		ParticipantID: participantID,
		GameID:        gameID,
		ApplicantID:   input.ApplicantID,
		Status:        input.Status,
		ActorID:       currentUserID,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.ApplicationStatusChanged(r.Context(), participant)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"success": true, "participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Withdraw godoc
// @Summary Отозвать свою заявку
// @Tags participants
// @Description Чужая или несуществующая заявка не удаляется, ответ тот же.
// @Param participantID path int true "Participant ID"
// @Success 204 "Заявка отозвана"
// @Failure 401 {object} map[string]string "Неавторизован"
// @Security BearerAuth
// @Router /participants/{participantID} [delete]
func (h *ParticipantHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	participantID, err := getIDFromURL(r, "participantID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	if err := h.participantService.Withdraw(r.Context(), participantID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMyApplications godoc
// @Summary Мои заявки
// @Tags participants
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /participants/mine [get]
func (h *ParticipantHandler) ListMyApplications(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	participants, err := h.participantService.ListMyApplications(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"participants": participants}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
