package models

import (
	"time"
)

type OAuthClient struct {
	ID           string `gorm:"primaryKey" json:"id"`
	ClientID     string `gorm:"uniqueIndex;not null" json:"client_id"`
	ClientSecret string `gorm:"not null" json:"-"` // stored in clear at rest, see DESIGN.md
	ClientName   string `gorm:"not null" json:"client_name"`
	// UserID maps the client to the user whose resources its tokens may
	// access. Empty means the client has no resource-owner mapping yet.
	UserID    string    `json:"user_id,omitempty"`
	Scopes    ScopeList `gorm:"type:text;not null" json:"scopes"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}
