package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ItemRepository = (*itemRepository)(nil)

// itemRepository handles database operations for tracked items
type itemRepository struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, owner_email, url, title, list_price, sale_price, discount,
       condition, storage, color, image_url, out_of_stock,
       last_checked_at, created_at, updated_at`

// CreateItem inserts a new tracked item and returns its database ID
func (r *itemRepository) CreateItem(item Item) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO items (owner_email, url, title, list_price, sale_price, discount,
		                   condition, storage, color, image_url, out_of_stock, last_checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, item.OwnerEmail, item.URL, item.Title, item.ListPrice, item.SalePrice, item.Discount,
		item.Condition, item.Storage, item.Color, item.ImageURL, item.OutOfStock,
		item.LastCheckedAt).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create item: %w", err)
	}

	return id, nil
}

// GetItem retrieves an item by its database ID
func (r *itemRepository) GetItem(itemID string) (*Item, error) {
	var item Item
	err := r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM items
		WHERE id = $1
	`, itemID).Scan(
		&item.ID, &item.OwnerEmail, &item.URL, &item.Title, &item.ListPrice, &item.SalePrice,
		&item.Discount, &item.Condition, &item.Storage, &item.Color, &item.ImageURL,
		&item.OutOfStock, &item.LastCheckedAt, &item.CreatedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return &item, nil
}

// GetItemByURL retrieves an owner's item by product URL
func (r *itemRepository) GetItemByURL(ownerEmail, url string) (*Item, error) {
	var item Item
	err := r.db.QueryRow(`
		SELECT `+itemColumns+`
		FROM items
		WHERE owner_email = $1 AND url = $2
	`, ownerEmail, url).Scan(
		&item.ID, &item.OwnerEmail, &item.URL, &item.Title, &item.ListPrice, &item.SalePrice,
		&item.Discount, &item.Condition, &item.Storage, &item.Color, &item.ImageURL,
		&item.OutOfStock, &item.LastCheckedAt, &item.CreatedAt, &item.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by URL: %w", err)
	}

	return &item, nil
}

// GetItemsForOwner returns all items tracked by one owner
func (r *itemRepository) GetItemsForOwner(ownerEmail string) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE owner_email = $1
		ORDER BY created_at DESC
	`, ownerEmail)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for owner: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetStaleItems returns items whose last check is older than the given cutoff
func (r *itemRepository) GetStaleItems(olderThan time.Time) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT `+itemColumns+`
		FROM items
		WHERE last_checked_at IS NULL OR last_checked_at < $1
		ORDER BY COALESCE(last_checked_at, '1970-01-01'::timestamptz)
	`, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to get stale items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItemCount returns the total number of tracked items
func (r *itemRepository) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

// UpdateSnapshot replaces the stored snapshot fields after a successful check
func (r *itemRepository) UpdateSnapshot(item Item) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET title = $2, list_price = $3, sale_price = $4, discount = $5,
		    condition = $6, storage = $7, color = $8, image_url = $9,
		    out_of_stock = $10, last_checked_at = $11, updated_at = NOW()
		WHERE id = $1
	`, item.ID, item.Title, item.ListPrice, item.SalePrice, item.Discount,
		item.Condition, item.Storage, item.Color, item.ImageURL,
		item.OutOfStock, item.LastCheckedAt)

	if err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	return nil
}

// TouchLastChecked records a check attempt without touching snapshot fields
func (r *itemRepository) TouchLastChecked(itemID string, checkedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET last_checked_at = $2
		WHERE id = $1
	`, itemID, checkedAt)

	if err != nil {
		return fmt.Errorf("failed to touch last checked: %w", err)
	}

	return nil
}

// DeleteItem removes an item (and, via cascade, its history and alerts)
func (r *itemRepository) DeleteItem(itemID, ownerEmail string) error {
	result, err := r.db.Exec(`
		DELETE FROM items
		WHERE id = $1 AND owner_email = $2
	`, itemID, ownerEmail)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
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

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID, &item.OwnerEmail, &item.URL, &item.Title, &item.ListPrice, &item.SalePrice,
			&item.Discount, &item.Condition, &item.Storage, &item.Color, &item.ImageURL,
			&item.OutOfStock, &item.LastCheckedAt, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}
