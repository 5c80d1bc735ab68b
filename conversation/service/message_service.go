package service

import (
	"context"
	"time"

	"counseling-platform/backend/conversation/models"
	"counseling-platform/backend/conversation/repository"
	"counseling-platform/backend/pkg/logger"

	"github.com/google/uuid"
)

// MessageService is the append-only conversation store. Saved messages
// are immutable except for the read flag. Sent timestamps are stored
// in UTC and shifted by a single reporting offset exactly once, on the
// read path.
type MessageService struct {
	repo            repository.MessageRepository
	reportingOffset time.Duration
	defaultPageSize int
	log             *logger.Logger
}

func NewMessageService(repo repository.MessageRepository, reportingOffset time.Duration, defaultPageSize int, log *logger.Logger) *MessageService {
	if defaultPageSize <= 0 {
		defaultPageSize = 50
	}
	return &MessageService{
		repo:            repo,
		reportingOffset: reportingOffset,
		defaultPageSize: defaultPageSize,
		log:             log.WithComponent("conversation"),
	}
}

// SaveMessage persists a chat turn, filling defaults the way the rest
// of the system expects: external id, sent time, TEXT kind, unread,
// pre-consultation phase.
func (s *MessageService) SaveMessage(ctx context.Context, message *models.ConversationMessage) error {
	if message.ExternalID == "" {
		message.ExternalID = uuid.New().String()
	}
	if message.SentTime.IsZero() {
		message.SentTime = time.Now().UTC()
	}
	if message.MessageType == "" {
		message.MessageType = models.TypeText
	}
	if message.ConversationType == "" {
		message.ConversationType = models.PhasePreConsultation
	}

	return s.repo.Create(message)
}

// GetConversation returns one page of the (user, counselor)
// conversation in send order. Limit and offset default to 50 and 0.
func (s *MessageService) GetConversation(userID, counselorID uint, limit, offset int) ([]models.ConversationMessage, error) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.repo.GetByPairPaginated(userID, counselorID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.applyReportingOffset(messages), nil
}

// GetByAppointment returns all messages tied to an appointment
func (s *MessageService) GetByAppointment(appointmentID uint) ([]models.ConversationMessage, error) {
	messages, err := s.repo.GetByAppointment(appointmentID)
	if err != nil {
		return nil, err
	}
	return s.applyReportingOffset(messages), nil
}

// UpdateReadStatus marks one message read or unread. Re-applying the
// current status is a no-op success.
func (s *MessageService) UpdateReadStatus(id uint, read bool) error {
	return s.repo.UpdateReadStatus(id, read)
}

// BatchUpdateReadStatus marks a set of messages read or unread.
// Idempotent; an empty id list is a no-op success.
func (s *MessageService) BatchUpdateReadStatus(ids []uint, read bool) error {
	if len(ids) == 0 {
		return nil
	}
	return s.repo.BatchUpdateReadStatus(ids, read)
}

// UnreadCount counts unread messages addressed to the given receiver
func (s *MessageService) UnreadCount(receiverID uint, receiverKind string) (int64, error) {
	return s.repo.UnreadCount(receiverID, receiverKind)
}

// UserConversations lists a user's messages across all counselors,
// newest first
func (s *MessageService) UserConversations(userID uint) ([]models.ConversationMessage, error) {
	messages, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.applyReportingOffset(messages), nil
}

// CounselorConversations lists a counselor's messages across all
// users, newest first
func (s *MessageService) CounselorConversations(counselorID uint) ([]models.ConversationMessage, error) {
	messages, err := s.repo.ListByCounselor(counselorID)
	if err != nil {
		return nil, err
	}
	return s.applyReportingOffset(messages), nil
}

// applyReportingOffset shifts sent timestamps into the reporting
// timezone. Repositories return stored (UTC) values, so the shift
// happens exactly once per read.
func (s *MessageService) applyReportingOffset(messages []models.ConversationMessage) []models.ConversationMessage {
	if s.reportingOffset == 0 {
		return messages
	}
	for i := range messages {
		if !messages[i].SentTime.IsZero() {
			messages[i].SentTime = messages[i].SentTime.Add(s.reportingOffset)
		}
	}
	return messages
}
