// Package database provides database operations for alerts and notification groups.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultOrganization is the organization used when none is specified.
const DefaultOrganization = "default"

// Alert represents an alert definition record in the database.
type Alert struct {
	AlertID             uuid.UUID     `json:"alert_id"`
	OrgID               string        `json:"org_id"`
	Name                string        `json:"name"`
	Query               string        `json:"query"`
	Period              time.Duration `json:"period"`
	NotificationGroupID string        `json:"notification_group_id"`
	Enabled             bool          `json:"enabled"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// NotificationGroup represents a notification group and its recipients.
type NotificationGroup struct {
	GroupID    string      `json:"group_id"`
	OrgID      string      `json:"org_id"`
	Name       string      `json:"name"`
	Recipients []Recipient `json:"recipients"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Recipient represents a delivery endpoint inside a notification group.
type Recipient struct {
	RecipientID string    `json:"recipient_id"`
	GroupID     string    `json:"group_id"`
	Type        string    `json:"type"` // email, webhook
	Address     string    `json:"address"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
}

// DB wraps a database connection and provides alert and notification group operations.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection using the provided DSN.
func NewDB(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Successfully connected to PostgreSQL database")

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		slog.Info("Closing database connection")
		return db.conn.Close()
	}
	return nil
}
