package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ AlertRepository = (*alertRepository)(nil)

// alertRepository handles database operations for price alerts
type alertRepository struct {
	db *DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *DB) AlertRepository {
	return &alertRepository{db: db}
}

// CreateAlert inserts a new active alert and returns its database ID
func (r *alertRepository) CreateAlert(itemID, ownerEmail string, targetPrice int) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO alerts (item_id, owner_email, target_price)
		VALUES ($1, $2, $3)
		RETURNING id
	`, itemID, ownerEmail, targetPrice).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}

	return id, nil
}

// GetAlert retrieves an alert by its database ID
func (r *alertRepository) GetAlert(alertID string) (*Alert, error) {
	var alert Alert
	err := r.db.QueryRow(`
		SELECT id, item_id, owner_email, target_price, active, triggered_at, created_at
		FROM alerts
		WHERE id = $1
	`, alertID).Scan(
		&alert.ID, &alert.ItemID, &alert.OwnerEmail, &alert.TargetPrice,
		&alert.Active, &alert.TriggeredAt, &alert.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return &alert, nil
}

// GetActiveAlertsForItem returns all alerts still eligible to trigger for an item
func (r *alertRepository) GetActiveAlertsForItem(itemID string) ([]Alert, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, owner_email, target_price, active, triggered_at, created_at
		FROM alerts
		WHERE item_id = $1 AND active = TRUE
		ORDER BY created_at
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// GetAlertsForOwner returns all alerts created by one owner
func (r *alertRepository) GetAlertsForOwner(ownerEmail string) ([]Alert, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, owner_email, target_price, active, triggered_at, created_at
		FROM alerts
		WHERE owner_email = $1
		ORDER BY created_at DESC
	`, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts for owner: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

// DeactivateAlert marks an alert as triggered. The transition is one-way.
func (r *alertRepository) DeactivateAlert(alertID string, triggeredAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE alerts
		SET active = FALSE, triggered_at = $2
		WHERE id = $1 AND active = TRUE
	`, alertID, triggeredAt)

	if err != nil {
		return fmt.Errorf("failed to deactivate alert: %w", err)
	}

	return nil
}

// DeleteAlert removes an alert owned by the given user
func (r *alertRepository) DeleteAlert(alertID, ownerEmail string) error {
	result, err := r.db.Exec(`
		DELETE FROM alerts
		WHERE id = $1 AND owner_email = $2
	`, alertID, ownerEmail)
	if err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func scanAlerts(rows *sql.Rows) ([]Alert, error) {
	var alerts []Alert
	for rows.Next() {
		var alert Alert
		err := rows.Scan(
			&alert.ID, &alert.ItemID, &alert.OwnerEmail, &alert.TargetPrice,
			&alert.Active, &alert.TriggeredAt, &alert.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert rows: %w", err)
	}

	return alerts, nil
}
