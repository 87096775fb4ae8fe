package database

import (
	"time"
)

type ItemRepository interface {
	CreateItem(item Item) (string, error)
	GetItem(itemID string) (*Item, error)
	GetItemByURL(ownerEmail, url string) (*Item, error)
	GetItemsForOwner(ownerEmail string) ([]Item, error)
	GetStaleItems(olderThan time.Time) ([]Item, error)
	GetItemCount() (int, error)

	UpdateSnapshot(item Item) error
	TouchLastChecked(itemID string, checkedAt time.Time) error
	DeleteItem(itemID, ownerEmail string) error
}

type HistoryRepository interface {
	AppendPrice(itemID string, price int, observedAt time.Time) error
	GetHistory(itemID string, limit int) ([]PriceEntry, error)
	GetLastPrice(itemID string) (int, bool, error)
}

type AlertRepository interface {
	CreateAlert(itemID, ownerEmail string, targetPrice int) (string, error)
	GetAlert(alertID string) (*Alert, error)
	GetActiveAlertsForItem(itemID string) ([]Alert, error)
	GetAlertsForOwner(ownerEmail string) ([]Alert, error)

	DeactivateAlert(alertID string, triggeredAt time.Time) error
	DeleteAlert(alertID, ownerEmail string) error
}
