package repositories

import (
	"service-market/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OfferRepository 聊天核心对报价存储的最小依赖：按ID解析报价
type OfferRepository interface {
	FindByID(id uint) (*models.Offer, error)
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) FindByID(id uint) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.First(&offer, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "offerRepo.FindByID")
	}
	return &offer, nil
}
