package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"pricewatch/app/database"
	"pricewatch/app/scrape"
)

// ErrSweepInProgress is returned when a sweep is triggered while a
// previous one is still running. Overlapping sweeps are prevented rather
// than coordinated; each item must be touched by at most one sweep at a
// time.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Fetcher retrieves the raw markup for one product page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor recovers structured product fields from raw markup
type Extractor interface {
	Run(html string, sourceURL string) (*scrape.Result, error)
}

// SweepResult summarizes one full pass over the stale items
type SweepResult struct {
	Total   int
	Updated int
	Errors  map[string]error // keyed by item ID
}

// Sweeper runs the periodic fetch-extract-reconcile-notify cycle over all
// stale items, sequentially, with a fixed delay between items. The source
// is a single upstream host; the delay is a deliberate throttle, not an
// optimization target.
type Sweeper struct {
	itemRepo    database.ItemRepository
	historyRepo database.HistoryRepository
	fetcher     Fetcher
	extractor   Extractor
	reconciler  *Reconciler
	notifier    *Notifier

	staleAfter time.Duration
	interval   time.Duration
	itemDelay  time.Duration
	sleep      func(time.Duration) // injectable for tests

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewSweeper(itemRepo database.ItemRepository, historyRepo database.HistoryRepository,
	fetcher Fetcher, extractor Extractor, notifier *Notifier,
	staleAfter, interval, itemDelay time.Duration) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		itemRepo:    itemRepo,
		historyRepo: historyRepo,
		fetcher:     fetcher,
		extractor:   extractor,
		reconciler:  NewReconciler(),
		notifier:    notifier,
		staleAfter:  staleAfter,
		interval:    interval,
		itemDelay:   itemDelay,
		sleep:       time.Sleep,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the periodic sweep loop in the background
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				result, err := s.Run(s.ctx)
				if err != nil {
					slog.Error("Sweep failed", "error", err)
					continue
				}
				slog.Info("Sweep completed", "total", result.Total, "updated", result.Updated, "errors", len(result.Errors))
			}
		}
	}()
}

// Stop cancels the sweep loop and waits for it to exit
func (s *Sweeper) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Run performs one sweep over all items whose last check is older than the
// staleness threshold. Per-item failures are recorded and do not stop
// processing of subsequent items. A second Run while one is in flight
// returns ErrSweepInProgress.
func (s *Sweeper) Run(ctx context.Context) (*SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)

	cutoff := time.Now().UTC().Add(-s.staleAfter)
	items, err := s.itemRepo.GetStaleItems(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load stale items: %w", err)
	}

	result := &SweepResult{
		Total:  len(items),
		Errors: make(map[string]error),
	}

	for i, item := range items {
		if i > 0 {
			s.sleep(s.itemDelay)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		if err := s.processItem(ctx, item); err != nil {
			slog.Warn("Item check failed", "item", item.ID, "url", item.URL, "error", err)
			result.Errors[item.ID] = err
			continue
		}
		result.Updated++
	}

	return result, nil
}

func (s *Sweeper) processItem(ctx context.Context, item database.Item) error {
	html, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		// Snapshot and last_checked_at stay untouched so the item is
		// retried on the next sweep.
		return err
	}

	now := time.Now().UTC()

	res, err := s.extractor.Run(html, item.URL)
	if err != nil {
		if touchErr := s.itemRepo.TouchLastChecked(item.ID, now); touchErr != nil {
			return fmt.Errorf("failed to record check time: %w", touchErr)
		}
		return err
	}

	lastPrice, hasHistory, err := s.historyRepo.GetLastPrice(item.ID)
	if err != nil {
		return fmt.Errorf("failed to load last price: %w", err)
	}

	updated, events := s.reconciler.Run(item, res, lastPrice, hasHistory, now)

	if err := s.itemRepo.UpdateSnapshot(updated); err != nil {
		return fmt.Errorf("failed to update snapshot: %w", err)
	}

	for _, event := range events {
		switch event.Type {
		case EventPriceChanged:
			if err := s.historyRepo.AppendPrice(item.ID, event.NewPrice, now); err != nil {
				return fmt.Errorf("failed to append price history: %w", err)
			}
			if _, err := s.notifier.OnPriceChanged(updated, event.NewPrice); err != nil {
				// Alert evaluation must never roll back the
				// reconciliation that triggered it.
				slog.Warn("Alert evaluation failed", "item", item.ID, "error", err)
			}
		case EventStockRestored:
			s.notifier.OnStockRestored(updated)
		case EventStockDepleted:
			// Status change already persisted with the snapshot;
			// nobody is notified.
		}
	}

	return nil
}
