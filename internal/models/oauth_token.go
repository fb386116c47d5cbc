package models

import (
	"time"
)

type OAuthToken struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	ClientID    string    `gorm:"index;not null" json:"client_id"`
	AccessToken string    `gorm:"uniqueIndex;not null" json:"-"`
	TokenType   string    `gorm:"default:'Bearer'" json:"token_type"`
	Scopes      ScopeList `gorm:"type:text;not null" json:"scopes"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (OAuthToken) TableName() string {
	return "oauth_tokens"
}
