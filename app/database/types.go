package database

import (
	"time"
)

// Item is a tracked product record holding the last extracted snapshot
type Item struct {
	ID            string // Database UUID
	OwnerEmail    string
	URL           string
	Title         string
	ListPrice     int
	SalePrice     int
	Discount      string // e.g. "20%"
	Condition     string // Fair, Good, Excellent or Superb
	Storage       string // e.g. "4GB / 64GB"
	Color         string
	ImageURL      string
	OutOfStock    bool
	LastCheckedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PriceEntry is one append-only price observation for an item
type PriceEntry struct {
	ID         string
	ItemID     string
	Price      int
	ObservedAt time.Time
}

// Alert is a user-defined price threshold. It deactivates once triggered;
// re-enabling requires creating a new alert.
type Alert struct {
	ID          string
	ItemID      string
	OwnerEmail  string
	TargetPrice int
	Active      bool
	TriggeredAt *time.Time
	CreatedAt   time.Time
}
