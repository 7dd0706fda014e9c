package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/pickup-hoops/middleware"
	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/services"
)

type MessageNotifier interface {
	MessageSent(ctx context.Context, m *models.Message)
}

type MessageHandler struct {
	messageService services.MessageService
	notifier       MessageNotifier
}

func NewMessageHandler(ms services.MessageService, notifier MessageNotifier) *MessageHandler {
	return &MessageHandler{
		messageService: ms,
		notifier:       notifier,
	}
}

// Inbox godoc
// @Summary Список диалогов
// @Tags messages
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /messages [get]
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	conversations, err := h.messageService.Inbox(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"conversations": conversations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnreadCount godoc
// @Summary Количество непрочитанных сообщений
// @Tags messages
// @Produce json
// @Success 200 {object} map[string]int
// @Security BearerAuth
// @Router /messages/unread [get]
func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	n, err := h.messageService.UnreadCount(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"unread": n}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Conversation godoc
// @Summary Переписка с пользователем
// @Tags messages
// @Description Новые сообщения первыми. before - ID сообщения, с которого листать назад.
// @Produce json
// @Param userID path int true "Собеседник"
// @Param before query int false "ID сообщения"
// @Param limit query int false "Размер страницы (по умолчанию 50, максимум 200)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /messages/{userID} [get]
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	otherID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	before, err := queryInt(r, "before")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	messages, err := h.messageService.Conversation(r.Context(), currentUserID, otherID, before, limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"messages": messages}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Send godoc
// @Summary Отправить сообщение
// @Tags messages
// @Accept json
// @Produce json
// @Param userID path int true "Получатель"
// @Param body body services.SendMessageInput true "Текст и, опционально, игра"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Получатель или игра не найдены"
// @Failure 422 {object} map[string]string "Ошибка валидации"
// @Security BearerAuth
// @Router /messages/{userID} [post]
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	recipientID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.SendMessageInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	message, err := h.messageService.Send(r.Context(), currentUserID, recipientID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if h.notifier != nil {
		h.notifier.MessageSent(r.Context(), message)
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"message": message}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MarkRead godoc
// @Summary Отметить переписку прочитанной
// @Tags messages
// @Produce json
// @Param userID path int true "Собеседник"
// @Success 200 {object} map[string]int
// @Security BearerAuth
// @Router /messages/{userID}/read [post]
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	otherID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	n, err := h.messageService.MarkRead(r.Context(), currentUserID, otherID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"marked": n}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
