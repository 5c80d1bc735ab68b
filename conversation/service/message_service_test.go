package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"counseling-platform/backend/conversation/models"
	"counseling-platform/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMessageRepo struct {
	saved      []*models.ConversationMessage
	stored     []models.ConversationMessage
	lastLimit  int
	lastOffset int
	batchCalls int
	failCreate bool
}

func (r *fakeMessageRepo) Create(message *models.ConversationMessage) error {
	if r.failCreate {
		return errors.New("connection refused")
	}
	message.ID = uint(len(r.saved) + 1)
	r.saved = append(r.saved, message)
	return nil
}

func (r *fakeMessageRepo) GetByID(id uint) (*models.ConversationMessage, error) {
	for i := range r.stored {
		if r.stored[i].ID == id {
			copied := r.stored[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) GetByPairPaginated(userID, counselorID uint, limit, offset int) ([]models.ConversationMessage, error) {
	r.lastLimit = limit
	r.lastOffset = offset
	out := make([]models.ConversationMessage, len(r.stored))
	copy(out, r.stored)
	return out, nil
}

func (r *fakeMessageRepo) GetByAppointment(appointmentID uint) ([]models.ConversationMessage, error) {
	return nil, nil
}

func (r *fakeMessageRepo) UpdateReadStatus(id uint, read bool) error {
	return nil
}

func (r *fakeMessageRepo) BatchUpdateReadStatus(ids []uint, read bool) error {
	r.batchCalls++
	return nil
}

func (r *fakeMessageRepo) UnreadCount(receiverID uint, receiverKind string) (int64, error) {
	return 0, nil
}

func (r *fakeMessageRepo) ListByUser(userID uint) ([]models.ConversationMessage, error) {
	return nil, nil
}

func (r *fakeMessageRepo) ListByCounselor(counselorID uint) ([]models.ConversationMessage, error) {
	return nil, nil
}

func TestSaveMessageFillsDefaults(t *testing.T) {
	repo := &fakeMessageRepo{}
	s := NewMessageService(repo, 0, 50, logger.GetGlobal())

	message := &models.ConversationMessage{
		SenderType:  models.SenderUser,
		Content:     "你好",
		UserID:      7,
		CounselorID: 3,
	}
	require.NoError(t, s.SaveMessage(context.Background(), message))

	assert.NotEmpty(t, message.ExternalID)
	assert.False(t, message.SentTime.IsZero())
	assert.Equal(t, models.TypeText, message.MessageType)
	assert.Equal(t, models.PhasePreConsultation, message.ConversationType)
	assert.False(t, message.ReadStatus)
}

func TestSaveMessageKeepsCallerValues(t *testing.T) {
	repo := &fakeMessageRepo{}
	s := NewMessageService(repo, 0, 50, logger.GetGlobal())

	sent := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	message := &models.ConversationMessage{
		ExternalID:  "ext-1",
		SenderType:  models.SenderCounselor,
		MessageType: models.TypeImage,
		SentTime:    sent,
		UserID:      7,
		CounselorID: 3,
	}
	require.NoError(t, s.SaveMessage(context.Background(), message))

	assert.Equal(t, "ext-1", message.ExternalID)
	assert.Equal(t, sent, message.SentTime)
	assert.Equal(t, models.TypeImage, message.MessageType)
}

func TestGetConversationPaginationDefaults(t *testing.T) {
	repo := &fakeMessageRepo{}
	s := NewMessageService(repo, 0, 50, logger.GetGlobal())

	_, err := s.GetConversation(7, 3, 0, -5)
	require.NoError(t, err)

	assert.Equal(t, 50, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	_, err = s.GetConversation(7, 3, 10, 20)
	require.NoError(t, err)

	assert.Equal(t, 10, repo.lastLimit)
	assert.Equal(t, 20, repo.lastOffset)
}

func TestReportingOffsetAppliedOncePerRead(t *testing.T) {
	stored := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeMessageRepo{stored: []models.ConversationMessage{
		{ID: 1, SentTime: stored, UserID: 7, CounselorID: 3},
	}}
	s := NewMessageService(repo, -8*time.Hour, 50, logger.GetGlobal())

	for i := 0; i < 2; i++ {
		messages, err := s.GetConversation(7, 3, 0, 0)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, stored.Add(-8*time.Hour), messages[0].SentTime)
	}
}

func TestBatchUpdateReadStatusEmptyIsNoop(t *testing.T) {
	repo := &fakeMessageRepo{}
	s := NewMessageService(repo, 0, 50, logger.GetGlobal())

	require.NoError(t, s.BatchUpdateReadStatus(nil, true))
	assert.Zero(t, repo.batchCalls)

	require.NoError(t, s.BatchUpdateReadStatus([]uint{1, 2}, true))
	assert.Equal(t, 1, repo.batchCalls)
}
