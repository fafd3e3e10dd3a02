package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository instance
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(report *models.ListingReport) error {
	return r.db.Create(report).Error
}

func (r *reportRepository) ListOpen(offset, limit int) ([]models.ListingReport, error) {
	var reports []models.ListingReport
	err := r.db.Where("status = ?", models.ReportStatusOpen).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) Resolve(id uint, status string) error {
	now := time.Now()
	return r.db.Model(&models.ListingReport{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": &now,
		}).Error
}
