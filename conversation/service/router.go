package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"counseling-platform/backend/conversation/models"
	apperrors "counseling-platform/backend/pkg/errors"
	"counseling-platform/backend/pkg/logger"
	"counseling-platform/backend/pkg/observability"
	"counseling-platform/backend/pkg/pubsub"
)

// InboundMessage is a chat turn as submitted by a connected party
type InboundMessage struct {
	SenderID   uint   `json:"sender_id"`
	ReceiverID uint   `json:"receiver_id"`
	SenderType string `json:"sender_type"`
	Content    string `json:"content"`
}

// OutboundMessage is the wire form published to party channels
type OutboundMessage struct {
	ExternalID  string    `json:"external_id"`
	SenderType  string    `json:"sender_type"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	UserID      uint      `json:"user_id"`
	CounselorID uint      `json:"counselor_id"`
	SentTime    time.Time `json:"sent_time"`
}

// ErrorNotice is published to a sender's error channel when routing
// cannot complete
type ErrorNotice struct {
	Error   string `json:"error"`
	Content string `json:"content,omitempty"`
}

// MessageRouter pushes chat turns from sender to receiver. Every turn
// is persisted first, then published to the receiver's channel with an
// echo to the sender. Persistence failure degrades the turn to
// best-effort live delivery; publish failure notifies the sender's
// error channel.
type MessageRouter struct {
	store     *MessageService
	publisher pubsub.Publisher
	log       *logger.Logger
}

func NewMessageRouter(store *MessageService, publisher pubsub.Publisher, log *logger.Logger) *MessageRouter {
	return &MessageRouter{
		store:     store,
		publisher: publisher,
		log:       log.WithComponent("router"),
	}
}

// Route handles one inbound chat turn end to end
func (r *MessageRouter) Route(ctx context.Context, in *InboundMessage) error {
	if !models.ValidSenderKind(in.SenderType) {
		r.notifyError(ctx, models.ChannelKind(in.SenderType), in.SenderID,
			fmt.Sprintf("unknown sender type %q", in.SenderType), in.Content)
		observability.RoutedMessages.WithLabelValues("failed").Inc()
		return apperrors.NewValidationError("unknown sender type")
	}

	// Canonical pair: the USER side of the conversation is always the
	// user id, whichever party sent the turn
	var userID, counselorID uint
	var receiverKind string
	if in.SenderType == models.SenderUser {
		userID, counselorID = in.SenderID, in.ReceiverID
		receiverKind = models.SenderCounselor
	} else {
		userID, counselorID = in.ReceiverID, in.SenderID
		receiverKind = models.SenderUser
	}

	message := &models.ConversationMessage{
		SenderType:  in.SenderType,
		MessageType: models.TypeText,
		Content:     in.Content,
		UserID:      userID,
		CounselorID: counselorID,
	}

	degraded := false
	if err := r.store.SaveMessage(ctx, message); err != nil {
		// Live delivery still proceeds; the turn is just not in history
		r.log.Error("Failed to persist chat turn, delivering anyway",
			"user_id", userID,
			"counselor_id", counselorID,
			"error", err.Error(),
		)
		degraded = true
		if message.ExternalID == "" {
			message.ExternalID = fmt.Sprintf("unsaved-%d", time.Now().UnixNano())
		}
		if message.SentTime.IsZero() {
			message.SentTime = time.Now().UTC()
		}
	}

	payload, err := json.Marshal(OutboundMessage{
		ExternalID:  message.ExternalID,
		SenderType:  message.SenderType,
		MessageType: message.MessageType,
		Content:     message.Content,
		UserID:      message.UserID,
		CounselorID: message.CounselorID,
		SentTime:    message.SentTime,
	})
	if err != nil {
		observability.RoutedMessages.WithLabelValues("failed").Inc()
		return err
	}

	receiverChannel := pubsub.PartyChannel(models.ChannelKind(receiverKind), in.ReceiverID)
	senderChannel := pubsub.PartyChannel(models.ChannelKind(in.SenderType), in.SenderID)

	if err := r.publisher.Publish(ctx, receiverChannel, payload); err != nil {
		r.log.Error("Failed to publish chat turn", "channel", receiverChannel, "error", err.Error())
		r.notifyError(ctx, models.ChannelKind(in.SenderType), in.SenderID,
			"message could not be delivered", in.Content)
		observability.RoutedMessages.WithLabelValues("failed").Inc()
		return err
	}

	// Echo to the sender so all of their connections see the turn
	if err := r.publisher.Publish(ctx, senderChannel, payload); err != nil {
		r.log.Warn("Failed to echo chat turn to sender", "channel", senderChannel, "error", err.Error())
	}

	if degraded {
		observability.RoutedMessages.WithLabelValues("degraded").Inc()
	} else {
		observability.RoutedMessages.WithLabelValues("delivered").Inc()
	}
	return nil
}

// Deliver persists a system-originated message and publishes it to
// both parties. Persistence is authoritative: a save failure fails the
// delivery, while publish failures are only logged.
func (r *MessageRouter) Deliver(ctx context.Context, message *models.ConversationMessage) error {
	if err := r.store.SaveMessage(ctx, message); err != nil {
		return err
	}

	payload, err := json.Marshal(OutboundMessage{
		ExternalID:  message.ExternalID,
		SenderType:  message.SenderType,
		MessageType: message.MessageType,
		Content:     message.Content,
		UserID:      message.UserID,
		CounselorID: message.CounselorID,
		SentTime:    message.SentTime,
	})
	if err != nil {
		return err
	}

	for _, channel := range []string{
		pubsub.PartyChannel("user", message.UserID),
		pubsub.PartyChannel("counselor", message.CounselorID),
	} {
		if err := r.publisher.Publish(ctx, channel, payload); err != nil {
			r.log.Warn("Failed to publish delivery", "channel", channel, "error", err.Error())
		}
	}
	return nil
}

func (r *MessageRouter) notifyError(ctx context.Context, senderKind string, senderID uint, reason, content string) {
	payload, err := json.Marshal(ErrorNotice{Error: reason, Content: content})
	if err != nil {
		return
	}
	channel := pubsub.ErrorChannel(senderKind, senderID)
	if err := r.publisher.Publish(ctx, channel, payload); err != nil {
		r.log.Warn("Failed to publish error notice", "channel", channel, "error", err.Error())
	}
}
