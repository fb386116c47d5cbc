package models

import (
	"time"
)

type PersonalToken struct {
	ID         string     `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:100;not null" json:"name"`
	TokenHash  string     `gorm:"size:128;uniqueIndex;not null" json:"-"`
	UserID     string     `gorm:"index;not null" json:"user_id"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (PersonalToken) TableName() string {
	return "personal_tokens"
}
