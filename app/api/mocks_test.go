package api

import (
	"context"
	"time"

	"pricewatch/app/database"
	"pricewatch/app/scrape"
)

type mockItemRepository struct {
	existing  *database.Item
	createdID string
	created   []database.Item
	createErr error
}

func (m *mockItemRepository) CreateItem(item database.Item) (string, error) {
	m.created = append(m.created, item)
	return m.createdID, m.createErr
}
func (m *mockItemRepository) GetItem(itemID string) (*database.Item, error) { return nil, nil }
func (m *mockItemRepository) GetItemByURL(ownerEmail, url string) (*database.Item, error) {
	return m.existing, nil
}
func (m *mockItemRepository) GetItemsForOwner(ownerEmail string) ([]database.Item, error) {
	return nil, nil
}
func (m *mockItemRepository) GetStaleItems(olderThan time.Time) ([]database.Item, error) {
	return nil, nil
}
func (m *mockItemRepository) GetItemCount() (int, error)              { return 0, nil }
func (m *mockItemRepository) UpdateSnapshot(item database.Item) error { return nil }
func (m *mockItemRepository) TouchLastChecked(itemID string, checkedAt time.Time) error {
	return nil
}
func (m *mockItemRepository) DeleteItem(itemID, ownerEmail string) error { return nil }

type mockHistoryRepository struct {
	appended int
}

func (m *mockHistoryRepository) AppendPrice(itemID string, price int, observedAt time.Time) error {
	m.appended++
	return nil
}
func (m *mockHistoryRepository) GetHistory(itemID string, limit int) ([]database.PriceEntry, error) {
	return nil, nil
}
func (m *mockHistoryRepository) GetLastPrice(itemID string) (int, bool, error) {
	return 0, false, nil
}

type mockAlertRepository struct {
	created int
}

func (m *mockAlertRepository) CreateAlert(itemID, ownerEmail string, targetPrice int) (string, error) {
	m.created++
	return "alert-1", nil
}
func (m *mockAlertRepository) GetAlert(alertID string) (*database.Alert, error) { return nil, nil }
func (m *mockAlertRepository) GetActiveAlertsForItem(itemID string) ([]database.Alert, error) {
	return nil, nil
}
func (m *mockAlertRepository) GetAlertsForOwner(ownerEmail string) ([]database.Alert, error) {
	return nil, nil
}
func (m *mockAlertRepository) DeactivateAlert(alertID string, triggeredAt time.Time) error {
	return nil
}
func (m *mockAlertRepository) DeleteAlert(alertID, ownerEmail string) error { return nil }

type mockFetcher struct {
	html  string
	err   error
	calls int
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.calls++
	return m.html, m.err
}

type mockExtractor struct {
	res *scrape.Result
	err error
}

func (m *mockExtractor) Run(html string, sourceURL string) (*scrape.Result, error) {
	return m.res, m.err
}
