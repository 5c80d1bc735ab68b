package repository

import (
	"counseling-platform/backend/counselor/models"

	"gorm.io/gorm"
)

type CounselorRepository interface {
	GetByID(id uint) (*models.Counselor, error)
	ListApproved() ([]models.Counselor, error)
}

type GormCounselorRepository struct {
	db *gorm.DB
}

func NewGormCounselorRepository(db *gorm.DB) *GormCounselorRepository {
	return &GormCounselorRepository{db: db}
}

func (r *GormCounselorRepository) GetByID(id uint) (*models.Counselor, error) {
	var counselor models.Counselor
	err := r.db.First(&counselor, id).Error
	if err != nil {
		return nil, err
	}
	return &counselor, nil
}

func (r *GormCounselorRepository) ListApproved() ([]models.Counselor, error) {
	var counselors []models.Counselor
	err := r.db.Where("status = ?", models.StatusApproved).Find(&counselors).Error
	if counselors == nil {
		counselors = []models.Counselor{}
	}
	return counselors, err
}
