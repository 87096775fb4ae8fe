package tracker

import (
	"time"

	"pricewatch/app/database"
	"pricewatch/app/scrape"
)

// Reconciler maps a fresh extraction result onto the stored item snapshot
// and reports the transitions that occurred.
type Reconciler struct{}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Run returns the updated snapshot plus zero or more events. lastPrice is
// the most recent recorded history price; hasHistory is false when no
// entry exists yet. A price_changed event fires only while the item is in
// stock and the extracted sale price differs from the last recorded one,
// which also makes reconciliation idempotent: running twice with the same
// result produces no events the second time (once the history entry for
// the first run has been appended).
func (r *Reconciler) Run(item database.Item, res *scrape.Result, lastPrice int, hasHistory bool, now time.Time) (database.Item, []Event) {
	updated := item
	updated.Title = res.Title
	updated.ListPrice = res.ListPrice
	updated.SalePrice = res.SalePrice
	updated.Discount = res.Discount
	updated.Condition = res.Condition
	updated.Storage = res.Storage
	updated.Color = res.Color
	updated.ImageURL = res.ImageURL
	updated.OutOfStock = res.OutOfStock
	updated.LastCheckedAt = &now

	var events []Event

	if !res.OutOfStock && (!hasHistory || res.SalePrice != lastPrice) {
		events = append(events, Event{
			Type:     EventPriceChanged,
			OldPrice: lastPrice,
			NewPrice: res.SalePrice,
		})
	}

	if item.OutOfStock && !res.OutOfStock {
		events = append(events, Event{Type: EventStockRestored})
	}
	if !item.OutOfStock && res.OutOfStock {
		events = append(events, Event{Type: EventStockDepleted})
	}

	return updated, events
}
