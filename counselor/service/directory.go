package service

import (
	"errors"
	"time"

	"counseling-platform/backend/counselor/models"
	"counseling-platform/backend/counselor/repository"
	"counseling-platform/backend/pkg/cache"
	apperrors "counseling-platform/backend/pkg/errors"

	"gorm.io/gorm"
)

const approvedListCacheKey = "counselors:approved"

// Directory is the read-only view of the counselor roster consumed by
// the matching engine and the chat API.
type Directory struct {
	repo  repository.CounselorRepository
	cache *cache.Cache
}

// NewDirectory creates a directory service. A nil cache disables caching.
func NewDirectory(repo repository.CounselorRepository, cacheTTL time.Duration) *Directory {
	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &Directory{repo: repo, cache: c}
}

// ListApproved returns all counselors eligible for matching
func (d *Directory) ListApproved() ([]models.Counselor, error) {
	if d.cache != nil {
		if cached, found := d.cache.Get(approvedListCacheKey); found {
			if counselors, ok := cached.([]models.Counselor); ok {
				return counselors, nil
			}
		}
	}

	counselors, err := d.repo.ListApproved()
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		d.cache.Set(approvedListCacheKey, counselors)
	}

	return counselors, nil
}

// GetByID returns one counselor regardless of approval status
func (d *Directory) GetByID(id uint) (*models.Counselor, error) {
	counselor, err := d.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewCounselorNotFoundError(id)
		}
		return nil, err
	}
	return counselor, nil
}

// Invalidate drops the cached approved list (admin roster changes)
func (d *Directory) Invalidate() {
	if d.cache != nil {
		d.cache.Delete(approvedListCacheKey)
	}
}
