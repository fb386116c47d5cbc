package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type OAuthClient struct {
	ID           string `gorm:"primaryKey"`
	ClientID     string `gorm:"uniqueIndex;not null"`
	ClientSecret string `gorm:"not null"`
	ClientName   string `gorm:"not null"`
	UserID       string
	Scopes       string `gorm:"type:text;not null"`
	IsActive     bool   `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}

type User struct {
	ID        string `gorm:"primaryKey"`
	GoogleID  string `gorm:"uniqueIndex;not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func main() {
	// Parse command line flags
	dbPath := flag.String("db", "yata.sqlite", "Path to the SQLite database")
	scopes := flag.String("scopes", `["todos:read","todos:write"]`, "Allowed scopes as a JSON array")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(*dbPath), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	clientID := "dev-client"
	clientSecret := "dev-secret-123"

	// Check if client already exists
	var existing OAuthClient
	if err := db.Where("client_id = ?", clientID).First(&existing).Error; err == nil {
		fmt.Println("Development client already exists!")
		fmt.Printf("Client ID: %s\n", clientID)
		fmt.Printf("Client Secret: %s\n", clientSecret)
		return
	}

	// Get or create a dev user to map the client to
	userID := getDevUserID(db)
	if userID == "" {
		log.Fatal("Failed to get dev user")
	}

	client := OAuthClient{
		ID:           uuid.New().String(),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		ClientName:   "Development Client",
		UserID:       userID,
		Scopes:       *scopes,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(&client).Error; err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Println("✓ Development OAuth client created!")
	fmt.Printf("Client ID: %s\n", clientID)
	fmt.Printf("Client Secret: %s\n", clientSecret)
	fmt.Printf("Mapped User ID: %s\n", userID)
	fmt.Println("\nUse these credentials for testing:")
	fmt.Printf("curl -X POST http://localhost:8080/api/v1/oauth/token \\\n")
	fmt.Printf("  -u '%s:%s' \\\n", clientID, clientSecret)
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -d '{\"grant_type\":\"client_credentials\",\"scope\":\"todos:read todos:write\"}'\n")
}

// getDevUserID gets or creates a development user
func getDevUserID(db *gorm.DB) string {
	email := "dev@yata.local"

	var user User
	if err := db.Where("email = ?", email).First(&user).Error; err == nil {
		fmt.Printf("Found existing user: %s (ID: %s)\n", user.Email, user.ID)
		return user.ID
	}

	user = User{
		ID:        uuid.New().String(),
		GoogleID:  "dev-google-id",
		Email:     email,
		Name:      "Dev User",
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := db.Create(&user).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		return ""
	}

	fmt.Printf("Created new user: %s (ID: %s)\n", user.Email, user.ID)
	return user.ID
}
