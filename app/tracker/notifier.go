package tracker

import (
	"fmt"
	"log/slog"
	"time"

	"pricewatch/app/database"
)

// Intent is a single notification request handed to the delivery
// collaborator. Alert is set only for price target notifications.
type Intent struct {
	Type     IntentType
	Item     database.Item
	Alert    *database.Alert
	NewPrice int
}

// Sender delivers one notification intent. Delivery failures are logged
// and swallowed; a missed email must not corrupt price history or alert
// state.
type Sender interface {
	Send(intent Intent) error
}

// Notifier decides whether and to whom a notification goes. Delivery
// itself is the Sender's problem.
type Notifier struct {
	alertRepo database.AlertRepository
	sender    Sender
}

func NewNotifier(alertRepo database.AlertRepository, sender Sender) *Notifier {
	return &Notifier{
		alertRepo: alertRepo,
		sender:    sender,
	}
}

// OnPriceChanged evaluates all active alerts for the item against the new
// price. Every alert with targetPrice >= newPrice produces one intent and
// is deactivated, whether or not delivery succeeds. Returns the number of
// alerts triggered.
func (n *Notifier) OnPriceChanged(item database.Item, newPrice int) (int, error) {
	alerts, err := n.alertRepo.GetActiveAlertsForItem(item.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load active alerts: %w", err)
	}

	triggered := 0
	for _, alert := range alerts {
		if alert.TargetPrice < newPrice {
			continue
		}

		if err := n.alertRepo.DeactivateAlert(alert.ID, time.Now().UTC()); err != nil {
			return triggered, fmt.Errorf("failed to deactivate alert %s: %w", alert.ID, err)
		}
		triggered++

		a := alert
		intent := Intent{
			Type:     IntentPriceTarget,
			Item:     item,
			Alert:    &a,
			NewPrice: newPrice,
		}
		if err := n.sender.Send(intent); err != nil {
			slog.Warn("Notification delivery failed", "type", string(intent.Type), "item", item.ID, "alert", alert.ID, "error", err)
		}
	}

	return triggered, nil
}

// OnStockRestored emits a single back-in-stock intent to the item's owner
func (n *Notifier) OnStockRestored(item database.Item) {
	intent := Intent{
		Type: IntentBackInStock,
		Item: item,
	}
	if err := n.sender.Send(intent); err != nil {
		slog.Warn("Notification delivery failed", "type", string(intent.Type), "item", item.ID, "error", err)
	}
}
