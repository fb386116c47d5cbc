package database

import (
	"fmt"
)

// DatabaseConfig describes how to reach the durable record store, which
// holds users, OAuth clients and both token tables. Deployments run
// PostgreSQL; sqlite covers local development.
type DatabaseConfig struct {
	// Driver selects the dialect: "postgres" or "sqlite" (the default)
	Driver string

	// PostgreSQL connection settings
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// SQLite database file path
	Path string
}

// String renders the configuration with the password masked, safe for logs
func (c *DatabaseConfig) String() string {
	return fmt.Sprintf("DatabaseConfig{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		c.Driver, c.Host, c.Port, c.User, c.Name, c.SSLMode, c.Path)
}

// DSN builds the driver-specific data source name. Postgres connections pin
// the session to UTC so token expiry comparisons never depend on the server
// timezone.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
	case "sqlite", "":
		return c.Path
	default:
		return ""
	}
}
