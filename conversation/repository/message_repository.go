package repository

import (
	"counseling-platform/backend/conversation/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.ConversationMessage) error
	GetByID(id uint) (*models.ConversationMessage, error)
	GetByPairPaginated(userID, counselorID uint, limit, offset int) ([]models.ConversationMessage, error)
	GetByAppointment(appointmentID uint) ([]models.ConversationMessage, error)
	UpdateReadStatus(id uint, read bool) error
	BatchUpdateReadStatus(ids []uint, read bool) error
	UnreadCount(receiverID uint, receiverKind string) (int64, error)
	ListByUser(userID uint) ([]models.ConversationMessage, error)
	ListByCounselor(counselorID uint) ([]models.ConversationMessage, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Create(message *models.ConversationMessage) error {
	return r.db.Create(message).Error
}

func (r *GormMessageRepository) GetByID(id uint) (*models.ConversationMessage, error) {
	var message models.ConversationMessage
	err := r.db.First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) GetByPairPaginated(userID, counselorID uint, limit, offset int) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	err := r.db.Where("user_id = ? AND counselor_id = ?", userID, counselorID).
		Order("sent_time ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) GetByAppointment(appointmentID uint) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	err := r.db.Where("appointment_id = ?", appointmentID).
		Order("sent_time ASC").
		Find(&messages).Error
	return messages, err
}

// UpdateReadStatus is idempotent: setting an already-matching status
// affects zero rows and is still a success.
func (r *GormMessageRepository) UpdateReadStatus(id uint, read bool) error {
	return r.db.Model(&models.ConversationMessage{}).
		Where("id = ?", id).
		Update("read_status", read).Error
}

func (r *GormMessageRepository) BatchUpdateReadStatus(ids []uint, read bool) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.ConversationMessage{}).
		Where("id IN ?", ids).
		Update("read_status", read).Error
}

func (r *GormMessageRepository) UnreadCount(receiverID uint, receiverKind string) (int64, error) {
	query := r.db.Model(&models.ConversationMessage{}).Where("read_status = ?", false)

	if receiverKind == models.SenderUser {
		query = query.Where("user_id = ? AND sender_type <> ?", receiverID, models.SenderUser)
	} else {
		query = query.Where("counselor_id = ? AND sender_type <> ?", receiverID, models.SenderCounselor)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *GormMessageRepository) ListByUser(userID uint) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	err := r.db.Where("user_id = ?", userID).
		Order("sent_time DESC").
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) ListByCounselor(counselorID uint) ([]models.ConversationMessage, error) {
	var messages []models.ConversationMessage
	err := r.db.Where("counselor_id = ?", counselorID).
		Order("sent_time DESC").
		Find(&messages).Error
	return messages, err
}
