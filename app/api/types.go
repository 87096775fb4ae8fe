package api

import (
	"context"

	"pricewatch/app/database"
	"pricewatch/app/tracker"
)

// SweepTrigger starts one sweep on demand
type SweepTrigger interface {
	Run(ctx context.Context) (*tracker.SweepResult, error)
}

type Handler struct {
	itemRepo    database.ItemRepository
	historyRepo database.HistoryRepository
	alertRepo   database.AlertRepository
	fetcher     tracker.Fetcher
	extractor   tracker.Extractor
	sweeper     SweepTrigger

	sourceHost       string
	sourcePathPrefix string
}

type TrackItemRequest struct {
	URL         string `json:"url" binding:"required"`
	TargetPrice int    `json:"target_price"`
}

type CreateAlertRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	TargetPrice int    `json:"target_price" binding:"required"`
}
