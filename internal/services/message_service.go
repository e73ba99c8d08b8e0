package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
	"github.com/SAP-F-2025/course-service/internal/repositories"
	"github.com/SAP-F-2025/course-service/internal/validator"
)

// PrivateMessageKind tags direct messages pushed to live subscribers
const PrivateMessageKind = "privateMessage"

// MessageBus delivers payloads to the live subscribers of a user
type MessageBus interface {
	PublishToUser(ctx context.Context, userID, kind string, payload interface{}) error
	Subscribe(ctx context.Context, userID string) (<-chan *message.Message, error)
}

type messageService struct {
	repo      repositories.Repository
	bus       MessageBus
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewMessageService(repo repositories.Repository, bus MessageBus, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) MessageService {
	return &messageService{
		repo:      repo,
		bus:       bus,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// Send stores the message, then pushes it to the recipient. A failed push is
// logged; the stored message is still returned.
func (s *messageService) Send(ctx context.Context, senderID string, req *models.SendMessageRequest) (*models.Message, error) {
	if errs := s.validator.ValidateStruct(req); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	if _, err := findUser(ctx, s.repo, req.Recipient, MsgRecipientNotFound); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: req.Recipient,
		Body:        req.Message,
	}
	if err := s.repo.Message().Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	// the body stays out of the broker
	publishEvent(ctx, s.publisher, s.logger, events.MessageSent, map[string]interface{}{
		"message_id":   msg.ID,
		"sender_id":    msg.SenderID,
		"recipient_id": msg.RecipientID,
	})

	if s.bus != nil {
		if err := s.bus.PublishToUser(ctx, msg.RecipientID, PrivateMessageKind, msg); err != nil {
			s.logger.WarnContext(ctx, "Failed to push message", "message_id", msg.ID, "recipient_id", msg.RecipientID, "error", err)
		}
	}

	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, callerID, userID, contactID string) ([]*models.Message, error) {
	if callerID != userID && callerID != contactID {
		return nil, NewPermissionError(callerID, userID, "conversation", "read", MsgConversationDenied)
	}

	list, err := s.repo.Message().Conversation(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return list, nil
}

func (s *messageService) Subscribe(ctx context.Context, userID string) (<-chan *message.Message, error) {
	if s.bus == nil {
		return nil, fmt.Errorf("live messaging is not available")
	}
	return s.bus.Subscribe(ctx, userID)
}
