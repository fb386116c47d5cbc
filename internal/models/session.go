package models

import (
	"time"
)

// SessionData is the value serialized under a session key in the session
// cache. Sessions are never persisted relationally; deleting the key is
// revocation.
type SessionData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
