package repository

import (
	"time"

	"counseling-platform/backend/matching/models"

	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(request *models.IntakeRequest) error
	GetByID(id uint) (*models.IntakeRequest, error)
	// MarkMatched applies the PENDING -> MATCHED transition as a single
	// conditional update. It reports false when the request was not in
	// PENDING state, which is how concurrent matchers lose the race.
	MarkMatched(id uint, counselorID uint, matchedAt time.Time) (bool, error)
	ListMatchedByUser(userID uint) ([]models.IntakeRequest, error)
}

type GormRequestRepository struct {
	db *gorm.DB
}

func NewGormRequestRepository(db *gorm.DB) *GormRequestRepository {
	return &GormRequestRepository{db: db}
}

func (r *GormRequestRepository) Create(request *models.IntakeRequest) error {
	return r.db.Create(request).Error
}

func (r *GormRequestRepository) GetByID(id uint) (*models.IntakeRequest, error) {
	var request models.IntakeRequest
	err := r.db.First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *GormRequestRepository) MarkMatched(id uint, counselorID uint, matchedAt time.Time) (bool, error) {
	result := r.db.Model(&models.IntakeRequest{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"matched_counselor_id": counselorID,
			"status":               models.StatusMatched,
			"matched_time":         matchedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRequestRepository) ListMatchedByUser(userID uint) ([]models.IntakeRequest, error) {
	var requests []models.IntakeRequest
	err := r.db.
		Where("user_id = ? AND status = ? AND matched_counselor_id IS NOT NULL", userID, models.StatusMatched).
		Order("matched_time ASC").
		Find(&requests).Error
	return requests, err
}
