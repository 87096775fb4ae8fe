package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ HistoryRepository = (*historyRepository)(nil)

// historyRepository handles database operations for the price history
type historyRepository struct {
	db *DB
}

// NewHistoryRepository creates a new price history repository
func NewHistoryRepository(db *DB) HistoryRepository {
	return &historyRepository{db: db}
}

// AppendPrice adds a new price observation. History is append-only.
func (r *historyRepository) AppendPrice(itemID string, price int, observedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO price_history (item_id, price, observed_at)
		VALUES ($1, $2, $3)
	`, itemID, price, observedAt)

	if err != nil {
		return fmt.Errorf("failed to append price: %w", err)
	}

	return nil
}

// GetHistory returns the most recent price entries for an item, newest first
func (r *historyRepository) GetHistory(itemID string, limit int) ([]PriceEntry, error) {
	rows, err := r.db.Query(`
		SELECT id, item_id, price, observed_at
		FROM price_history
		WHERE item_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var entries []PriceEntry
	for rows.Next() {
		var entry PriceEntry
		if err := rows.Scan(&entry.ID, &entry.ItemID, &entry.Price, &entry.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price entries: %w", err)
	}

	return entries, nil
}

// GetLastPrice returns the most recent recorded price for an item.
// The second return value reports whether any entry exists.
func (r *historyRepository) GetLastPrice(itemID string) (int, bool, error) {
	var price int
	err := r.db.QueryRow(`
		SELECT price
		FROM price_history
		WHERE item_id = $1
		ORDER BY observed_at DESC
		LIMIT 1
	`, itemID).Scan(&price)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last price: %w", err)
	}

	return price, true, nil
}
