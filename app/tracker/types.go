package tracker

// Reconciliation event types

type EventType string

const (
	EventPriceChanged  EventType = "price_changed"
	EventStockRestored EventType = "stock_restored"
	EventStockDepleted EventType = "stock_depleted"
)

type Event struct {
	Type     EventType
	OldPrice int // set for price_changed; zero when no history existed
	NewPrice int // set for price_changed
}

// Notification intent types

type IntentType string

const (
	IntentPriceTarget IntentType = "price_target_reached"
	IntentBackInStock IntentType = "back_in_stock"
)
