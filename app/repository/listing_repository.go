package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
	"github.com/iommarket/marketplace/internal/pkg/lifecycle"
)

// listingRepository implements the ListingRepository interface
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository instance
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(listing *models.Listing) error {
	return r.db.Create(listing).Error
}

func (r *listingRepository) GetByID(id uint) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.First(&listing, id).Error; err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) GetByUUID(uuid string) (*models.Listing, error) {
	return models.FindListingByUUID(r.db, uuid)
}

func (r *listingRepository) Update(listing *models.Listing) error {
	return r.db.Save(listing).Error
}

// UpdateStatusIf writes the new status only while the row still carries the
// status the caller validated against. Zero affected rows means a concurrent
// writer got there first and the caller must re-read and re-validate.
func (r *listingRepository) UpdateStatusIf(id uint, from, to lifecycle.Status, expiresAt *time.Time) error {
	updates := map[string]interface{}{"status": to}
	if expiresAt != nil {
		updates["expires_at"] = expiresAt
	}

	tx := r.db.Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return models.ErrListingStatusConflict
	}
	return nil
}

func (r *listingRepository) SetFeatured(id uint, featured bool) error {
	return r.db.Model(&models.Listing{}).
		Where("id = ?", id).
		Update("featured", featured).Error
}

func (r *listingRepository) ListByUserID(userID uint, offset, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&listings).Error
	return listings, err
}

// ListExpired returns live listings whose expiry timestamp has passed.
// APPROVED rows predate the status normalization and are included.
func (r *listingRepository) ListExpired(now time.Time, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?",
			[]lifecycle.Status{lifecycle.StatusLive, lifecycle.StatusApproved}, now).
		Limit(limit).
		Find(&listings).Error
	return listings, err
}

func (r *listingRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Count(&count).Error
	return count, err
}

func (r *listingRepository) CountByStatus(status lifecycle.Status) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *listingRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Listing{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}
