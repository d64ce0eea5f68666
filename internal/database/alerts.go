// Package database provides database operations for alerts and notification groups.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GetAlert retrieves an alert definition by ID within an organization.
// Returns (nil, nil) when the alert does not exist: absence is a normal
// outcome for the engine (it passivates the evaluation unit), not an error.
func (db *DB) GetAlert(ctx context.Context, alertID uuid.UUID, org string) (*Alert, error) {
	query := `
		SELECT alert_id, org_id, name, query, period_seconds, notification_group_id, enabled, created_at, updated_at
		FROM alerts
		WHERE alert_id = $1 AND org_id = $2
	`
	var alert Alert
	var periodSeconds int64
	err := db.conn.QueryRowContext(ctx, query, alertID, org).Scan(
		&alert.AlertID,
		&alert.OrgID,
		&alert.Name,
		&alert.Query,
		&periodSeconds,
		&alert.NotificationGroupID,
		&alert.Enabled,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	alert.Period = time.Duration(periodSeconds) * time.Second
	return &alert, nil
}

// CreateAlert creates a new alert definition.
// Returns the created alert with generated alert_id.
func (db *DB) CreateAlert(ctx context.Context, org, name, queryText string, period time.Duration, groupID string) (*Alert, error) {
	query := `
		INSERT INTO alerts (org_id, name, query, period_seconds, notification_group_id, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())
		RETURNING alert_id, org_id, name, query, period_seconds, notification_group_id, enabled, created_at, updated_at
	`
	var alert Alert
	var periodSeconds int64
	err := db.conn.QueryRowContext(ctx, query, org, name, queryText, int64(period/time.Second), groupID).Scan(
		&alert.AlertID,
		&alert.OrgID,
		&alert.Name,
		&alert.Query,
		&periodSeconds,
		&alert.NotificationGroupID,
		&alert.Enabled,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return nil, fmt.Errorf("alert already exists for org %s with name %s", org, name)
			}
			if pqErr.Code == "23503" { // foreign_key_violation
				return nil, fmt.Errorf("notification group not found: %s", groupID)
			}
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	alert.Period = time.Duration(periodSeconds) * time.Second
	return &alert, nil
}

// UpdateAlert updates an alert's query, period and notification group.
func (db *DB) UpdateAlert(ctx context.Context, alertID uuid.UUID, queryText string, period time.Duration, groupID string) error {
	query := `
		UPDATE alerts
		SET query = $2, period_seconds = $3, notification_group_id = $4, updated_at = NOW()
		WHERE alert_id = $1
	`
	result, err := db.conn.ExecContext(ctx, query, alertID, queryText, int64(period/time.Second), groupID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23503" { // foreign_key_violation
				return fmt.Errorf("notification group not found: %s", groupID)
			}
		}
		return fmt.Errorf("failed to update alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	return nil
}

// DeleteAlert removes an alert definition.
func (db *DB) DeleteAlert(ctx context.Context, alertID uuid.UUID) error {
	query := `DELETE FROM alerts WHERE alert_id = $1`
	result, err := db.conn.ExecContext(ctx, query, alertID)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	return nil
}

// ListAlerts retrieves all enabled alerts for an organization.
func (db *DB) ListAlerts(ctx context.Context, org string) ([]*Alert, error) {
	query := `
		SELECT alert_id, org_id, name, query, period_seconds, notification_group_id, enabled, created_at, updated_at
		FROM alerts
		WHERE org_id = $1 AND enabled = TRUE
		ORDER BY created_at DESC
	`
	rows, err := db.conn.QueryContext(ctx, query, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		var alert Alert
		var periodSeconds int64
		if err := rows.Scan(
			&alert.AlertID,
			&alert.OrgID,
			&alert.Name,
			&alert.Query,
			&periodSeconds,
			&alert.NotificationGroupID,
			&alert.Enabled,
			&alert.CreatedAt,
			&alert.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.Period = time.Duration(periodSeconds) * time.Second
		alerts = append(alerts, &alert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alerts: %w", err)
	}
	return alerts, nil
}
