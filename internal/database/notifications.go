// Package database provides database operations for alerts and notification groups.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// GetNotificationGroup retrieves a notification group with its enabled
// recipients. Returns (nil, nil) when the group does not exist.
func (db *DB) GetNotificationGroup(ctx context.Context, groupID string) (*NotificationGroup, error) {
	query := `
		SELECT group_id, org_id, name, created_at, updated_at
		FROM notification_groups
		WHERE group_id = $1
	`
	var group NotificationGroup
	err := db.conn.QueryRowContext(ctx, query, groupID).Scan(
		&group.GroupID,
		&group.OrgID,
		&group.Name,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification group: %w", err)
	}

	recipients, err := db.listRecipients(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Recipients = recipients
	return &group, nil
}

// listRecipients retrieves the enabled recipients of a notification group.
func (db *DB) listRecipients(ctx context.Context, groupID string) ([]Recipient, error) {
	query := `
		SELECT recipient_id, group_id, type, address, enabled, created_at
		FROM notification_recipients
		WHERE group_id = $1 AND enabled = TRUE
		ORDER BY created_at
	`
	rows, err := db.conn.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(
			&r.RecipientID,
			&r.GroupID,
			&r.Type,
			&r.Address,
			&r.Enabled,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipients: %w", err)
	}
	return recipients, nil
}

// CreateNotificationGroup creates a new notification group.
func (db *DB) CreateNotificationGroup(ctx context.Context, groupID, org, name string) error {
	query := `
		INSERT INTO notification_groups (group_id, org_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := db.conn.ExecContext(ctx, query, groupID, org, name)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("notification group already exists: %s", groupID)
			}
		}
		return fmt.Errorf("failed to create notification group: %w", err)
	}
	return nil
}

// AddRecipient adds a recipient to a notification group.
func (db *DB) AddRecipient(ctx context.Context, groupID, recipientType, address string) error {
	query := `
		INSERT INTO notification_recipients (group_id, type, address, enabled, created_at)
		VALUES ($1, $2, $3, TRUE, NOW())
	`
	_, err := db.conn.ExecContext(ctx, query, groupID, recipientType, address)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" { // foreign_key_violation
				return fmt.Errorf("notification group not found: %s", groupID)
			}
		}
		return fmt.Errorf("failed to add recipient: %w", err)
	}
	return nil
}
