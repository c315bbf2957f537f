package repositories

import (
	"service-market/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// UserRepository 聊天核心对用户存储的最小依赖：按ID解析用户
type UserRepository interface {
	FindByID(id uint) (*models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.FindByID")
	}
	return &user, nil
}
