package tracker

import (
	"context"
	"sync"
	"time"

	"pricewatch/app/database"
	"pricewatch/app/scrape"
)

type mockItemRepository struct {
	items       []database.Item
	staleErr    error
	snapshots   []database.Item
	snapshotErr error
	touched     []string
	touchErr    error
}

func (m *mockItemRepository) CreateItem(item database.Item) (string, error) { return "", nil }
func (m *mockItemRepository) GetItem(itemID string) (*database.Item, error) { return nil, nil }
func (m *mockItemRepository) GetItemByURL(ownerEmail, url string) (*database.Item, error) {
	return nil, nil
}
func (m *mockItemRepository) GetItemsForOwner(ownerEmail string) ([]database.Item, error) {
	return nil, nil
}
func (m *mockItemRepository) GetStaleItems(olderThan time.Time) ([]database.Item, error) {
	return m.items, m.staleErr
}
func (m *mockItemRepository) GetItemCount() (int, error) { return len(m.items), nil }
func (m *mockItemRepository) UpdateSnapshot(item database.Item) error {
	m.snapshots = append(m.snapshots, item)
	return m.snapshotErr
}
func (m *mockItemRepository) TouchLastChecked(itemID string, checkedAt time.Time) error {
	m.touched = append(m.touched, itemID)
	return m.touchErr
}
func (m *mockItemRepository) DeleteItem(itemID, ownerEmail string) error { return nil }

type appendedPrice struct {
	itemID string
	price  int
}

type mockHistoryRepository struct {
	lastPrice  int
	hasHistory bool
	appended   []appendedPrice
	appendErr  error
}

func (m *mockHistoryRepository) AppendPrice(itemID string, price int, observedAt time.Time) error {
	m.appended = append(m.appended, appendedPrice{itemID: itemID, price: price})
	return m.appendErr
}
func (m *mockHistoryRepository) GetHistory(itemID string, limit int) ([]database.PriceEntry, error) {
	return nil, nil
}
func (m *mockHistoryRepository) GetLastPrice(itemID string) (int, bool, error) {
	return m.lastPrice, m.hasHistory, nil
}

type mockAlertRepository struct {
	alerts        []database.Alert
	alertsErr     error
	deactivated   []string
	deactivateErr error
}

func (m *mockAlertRepository) CreateAlert(itemID, ownerEmail string, targetPrice int) (string, error) {
	return "", nil
}
func (m *mockAlertRepository) GetAlert(alertID string) (*database.Alert, error) { return nil, nil }
func (m *mockAlertRepository) GetActiveAlertsForItem(itemID string) ([]database.Alert, error) {
	return m.alerts, m.alertsErr
}
func (m *mockAlertRepository) GetAlertsForOwner(ownerEmail string) ([]database.Alert, error) {
	return nil, nil
}
func (m *mockAlertRepository) DeactivateAlert(alertID string, triggeredAt time.Time) error {
	m.deactivated = append(m.deactivated, alertID)
	return m.deactivateErr
}
func (m *mockAlertRepository) DeleteAlert(alertID, ownerEmail string) error { return nil }

type mockSender struct {
	intents []Intent
	err     error
}

func (m *mockSender) Send(intent Intent) error {
	m.intents = append(m.intents, intent)
	return m.err
}

type mockFetcher struct {
	pages   map[string]string // keyed by URL
	errs    map[string]error
	block   chan struct{} // when set, Fetch waits until closed
	mu      sync.Mutex
	fetched []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	m.fetched = append(m.fetched, url)
	m.mu.Unlock()

	if m.block != nil {
		<-m.block
	}
	if err, ok := m.errs[url]; ok {
		return "", err
	}
	return m.pages[url], nil
}

type mockExtractor struct {
	results map[string]*scrape.Result // keyed by source URL
	errs    map[string]error
}

func (m *mockExtractor) Run(html string, sourceURL string) (*scrape.Result, error) {
	if err, ok := m.errs[sourceURL]; ok {
		return nil, err
	}
	return m.results[sourceURL], nil
}
