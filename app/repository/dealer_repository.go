package repository

import (
	"gorm.io/gorm"

	"github.com/iommarket/marketplace/app/models"
)

// dealerRepository implements the DealerRepository interface
type dealerRepository struct {
	db *gorm.DB
}

// NewDealerRepository creates a new dealer repository instance
func NewDealerRepository(db *gorm.DB) DealerRepository {
	return &dealerRepository{db: db}
}

func (r *dealerRepository) Create(dealer *models.DealerProfile) error {
	return r.db.Create(dealer).Error
}

func (r *dealerRepository) GetByID(id uint) (*models.DealerProfile, error) {
	var dealer models.DealerProfile
	if err := r.db.First(&dealer, id).Error; err != nil {
		return nil, err
	}
	return &dealer, nil
}

func (r *dealerRepository) GetByUserID(userID uint) (*models.DealerProfile, error) {
	var dealer models.DealerProfile
	if err := r.db.Where("user_id = ?", userID).First(&dealer).Error; err != nil {
		return nil, err
	}
	return &dealer, nil
}

func (r *dealerRepository) Update(dealer *models.DealerProfile) error {
	return r.db.Save(dealer).Error
}
