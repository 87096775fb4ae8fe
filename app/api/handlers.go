package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pricewatch/app/cfg"
	"pricewatch/app/database"
	"pricewatch/app/scrape"
	"pricewatch/app/tracker"
)

func NewHandler(itemRepo database.ItemRepository, historyRepo database.HistoryRepository,
	alertRepo database.AlertRepository, fetcher tracker.Fetcher, extractor tracker.Extractor,
	sweeper SweepTrigger) *Handler {
	appCfg := cfg.Get()

	return &Handler{
		itemRepo:         itemRepo,
		historyRepo:      historyRepo,
		alertRepo:        alertRepo,
		fetcher:          fetcher,
		extractor:        extractor,
		sweeper:          sweeper,
		sourceHost:       appCfg.SourceHost,
		sourcePathPrefix: appCfg.SourcePathPrefix,
	}
}

// ownerEmail reads the acting user from the X-User-Email header. Items and
// alerts are always scoped to their owner.
func ownerEmail(c *gin.Context) (string, bool) {
	owner := strings.TrimSpace(strings.ToLower(c.GetHeader("X-User-Email")))
	if owner == "" || !strings.Contains(owner, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid X-User-Email header required"})
		return "", false
	}
	return owner, true
}

// validateProductURL checks that a URL points at a product page on the
// single supported source site.
func validateProductURL(raw, host, pathPrefix string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme '%s'", u.Scheme)
	}

	if u.Host != host && u.Host != strings.TrimPrefix(host, "www.") {
		return fmt.Errorf("URL host must be %s", host)
	}

	if !strings.HasPrefix(u.Path, pathPrefix+"/") || len(u.Path) <= len(pathPrefix)+1 {
		return fmt.Errorf("URL must point to a product page under %s/", pathPrefix)
	}

	return nil
}

// TrackItem registers a new product URL. The first fetch and extraction
// happen synchronously: a page we cannot price is rejected up front and no
// record is created.
func (h *Handler) TrackItem(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	var req TrackItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := validateProductURL(req.URL, h.sourceHost, h.sourcePathPrefix); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported product URL", "details": err.Error()})
		return
	}

	existing, err := h.itemRepo.GetItemByURL(owner, req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "get_item_by_url", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "URL is already tracked", "item_id": existing.ID})
		return
	}

	html, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		slog.Warn("Initial fetch failed", "url", req.URL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch product page"})
		return
	}

	res, err := h.extractor.Run(html, req.URL)
	if err != nil {
		if errors.Is(err, scrape.ErrNoPriceData) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No price data found on page"})
			return
		}
		slog.Error("Extraction failed", "url", req.URL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to extract product data"})
		return
	}

	now := time.Now().UTC()
	item := database.Item{
		OwnerEmail:    owner,
		URL:           req.URL,
		Title:         res.Title,
		ListPrice:     res.ListPrice,
		SalePrice:     res.SalePrice,
		Discount:      res.Discount,
		Condition:     res.Condition,
		Storage:       res.Storage,
		Color:         res.Color,
		ImageURL:      res.ImageURL,
		OutOfStock:    res.OutOfStock,
		LastCheckedAt: &now,
	}

	id, err := h.itemRepo.CreateItem(item)
	if err != nil {
		slog.Error("Database error", "operation", "create_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create item"})
		return
	}
	item.ID = id

	if !res.OutOfStock {
		if err := h.historyRepo.AppendPrice(id, res.SalePrice, now); err != nil {
			slog.Warn("Failed to record initial price", "item", id, "error", err)
		}
	}

	if req.TargetPrice > 0 {
		if _, err := h.alertRepo.CreateAlert(id, owner, req.TargetPrice); err != nil {
			slog.Warn("Failed to create alert", "item", id, "error", err)
		}
	}

	c.JSON(http.StatusCreated, itemResponse(item))
}

func (h *Handler) ListItems(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	items, err := h.itemRepo.GetItemsForOwner(owner)
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]gin.H, 0, len(items))
	for _, item := range items {
		response = append(response, itemResponse(item))
	}

	c.JSON(http.StatusOK, gin.H{"items": response, "total": len(response)})
}

func (h *Handler) GetItem(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	item, found := h.ownedItem(c, owner)
	if !found {
		return
	}

	c.JSON(http.StatusOK, itemResponse(*item))
}

func (h *Handler) DeleteItem(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	if err := h.itemRepo.DeleteItem(c.Param("id"), owner); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) GetHistory(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	item, found := h.ownedItem(c, owner)
	if !found {
		return
	}

	entries, err := h.historyRepo.GetHistory(item.ID, 100)
	if err != nil {
		slog.Error("Database error", "operation", "get_history", "item", item.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	history := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		history = append(history, gin.H{
			"price":       entry.Price,
			"observed_at": entry.ObservedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"item_id": item.ID, "history": history})
}

func (h *Handler) CreateAlert(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if req.TargetPrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target price must be positive"})
		return
	}

	item, err := h.itemRepo.GetItem(req.ItemID)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil || item.OwnerEmail != owner {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	id, err := h.alertRepo.CreateAlert(item.ID, owner, req.TargetPrice)
	if err != nil {
		slog.Error("Database error", "operation", "create_alert", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create alert"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":           id,
		"item_id":      item.ID,
		"target_price": req.TargetPrice,
		"active":       true,
	})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	alerts, err := h.alertRepo.GetAlertsForOwner(owner)
	if err != nil {
		slog.Error("Database error", "operation", "list_alerts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]gin.H, 0, len(alerts))
	for _, alert := range alerts {
		entry := gin.H{
			"id":           alert.ID,
			"item_id":      alert.ItemID,
			"target_price": alert.TargetPrice,
			"active":       alert.Active,
		}
		if alert.TriggeredAt != nil {
			entry["triggered_at"] = alert.TriggeredAt.Format(time.RFC3339)
		}
		response = append(response, entry)
	}

	c.JSON(http.StatusOK, gin.H{"alerts": response, "total": len(response)})
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	owner, ok := ownerEmail(c)
	if !ok {
		return
	}

	if err := h.alertRepo.DeleteAlert(c.Param("id"), owner); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

// TriggerSweep runs one sweep synchronously and reports its summary
func (h *Handler) TriggerSweep(c *gin.Context) {
	result, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, tracker.ErrSweepInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": "A sweep is already running"})
			return
		}
		slog.Error("Manual sweep failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed", "details": err.Error()})
		return
	}

	sweepErrors := make(map[string]string, len(result.Errors))
	for itemID, itemErr := range result.Errors {
		sweepErrors[itemID] = itemErr.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"total":   result.Total,
		"updated": result.Updated,
		"errors":  sweepErrors,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if itemCount, err := h.itemRepo.GetItemCount(); err == nil {
		health["items"] = itemCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ownedItem(c *gin.Context, owner string) (*database.Item, bool) {
	item, err := h.itemRepo.GetItem(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if item == nil || item.OwnerEmail != owner {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return nil, false
	}
	return item, true
}

func itemResponse(item database.Item) gin.H {
	response := gin.H{
		"id":           item.ID,
		"url":          item.URL,
		"title":        item.Title,
		"list_price":   item.ListPrice,
		"sale_price":   item.SalePrice,
		"discount":     item.Discount,
		"condition":    item.Condition,
		"storage":      item.Storage,
		"color":        item.Color,
		"image_url":    item.ImageURL,
		"out_of_stock": item.OutOfStock,
	}
	if item.LastCheckedAt != nil {
		response["last_checked_at"] = item.LastCheckedAt.Format(time.RFC3339)
	}
	return response
}
