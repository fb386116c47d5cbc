package models

import (
	"time"
)

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	GoogleID  string `gorm:"uniqueIndex;not null" json:"-"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Name      string `gorm:"not null" json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	IsActive  bool   `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
