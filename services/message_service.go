package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/pickup-hoops/models"
	"github.com/Dosada05/pickup-hoops/repositories"
)

const (
	MaxMessageLength        = 2000
	DefaultConversationSize = 50
	maxConversationSize     = 200
)

type MessageService interface {
	Send(ctx context.Context, senderID, recipientID int, input SendMessageInput) (*models.Message, error)
	Conversation(ctx context.Context, userID, otherID, beforeID, limit int) ([]models.Message, error)
	Inbox(ctx context.Context, userID int) ([]models.Conversation, error)
	MarkRead(ctx context.Context, userID, otherID int) (int64, error)
	UnreadCount(ctx context.Context, userID int) (int, error)
}

type SendMessageInput struct {
	Body   string `json:"body"`
	GameID *int   `json:"game_id"`
}

type messageService struct {
	messageRepo repositories.MessageRepository
	userRepo    repositories.UserRepository
}

func NewMessageService(messageRepo repositories.MessageRepository, userRepo repositories.UserRepository) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

func (s *messageService) Send(ctx context.Context, senderID, recipientID int, input SendMessageInput) (*models.Message, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot send a message to yourself", ErrValidationFailed)
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, fmt.Errorf("%w: body must be 1 to %d characters", ErrValidationFailed, MaxMessageLength)
	}

	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get recipient %d: %w", recipientID, err)
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		GameID:      input.GameID,
		Body:        body,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageGameInvalid):
			return nil, ErrGameNotFound
		case errors.Is(err, repositories.ErrMessageUserInvalid):
			return nil, ErrUserNotFound
		case errors.Is(err, repositories.ErrMessageInvalid):
			return nil, fmt.Errorf("%w: message violates constraints", ErrValidationFailed)
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, userID, otherID, beforeID, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultConversationSize
	}
	if limit > maxConversationSize {
		limit = maxConversationSize
	}
	messages, err := s.messageRepo.ListConversation(ctx, userID, otherID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return messages, nil
}

func (s *messageService) Inbox(ctx context.Context, userID int) ([]models.Conversation, error) {
	conversations, err := s.messageRepo.ListInbox(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}
	return conversations, nil
}

func (s *messageService) MarkRead(ctx context.Context, userID, otherID int) (int64, error) {
	n, err := s.messageRepo.MarkConversationRead(ctx, userID, otherID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return n, nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID int) (int, error) {
	n, err := s.messageRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}
