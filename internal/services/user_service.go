package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/models"
)

// GoogleUserInfo is the identity payload supplied by the federated login
// callback.
type GoogleUserInfo struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"picture"`
}

type UserService interface {
	UpsertGoogleUser(info *GoogleUserInfo) (*models.User, error)
	GetByID(id string) (*models.User, error)
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

// UpsertGoogleUser creates or updates a user keyed by the external identity
// id. The user's own id is immutable once created.
func (s *userService) UpsertGoogleUser(info *GoogleUserInfo) (*models.User, error) {
	var user models.User
	err := s.db.Where("google_id = ?", info.ID).First(&user).Error
	if err == nil {
		user.Email = info.Email
		user.Name = info.Name
		user.AvatarURL = info.AvatarURL
		if err := s.db.Save(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{
		ID:        uuid.New().String(),
		GoogleID:  info.ID,
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.AvatarURL,
		IsActive:  true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetByID(id string) (*models.User, error) {
	var user models.User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
