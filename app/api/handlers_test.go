package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"pricewatch/app/database"
	"pricewatch/app/scrape"
)

func TestValidateProductURL(t *testing.T) {
	host := "www.cashify.in"
	pathPrefix := "/buy-refurbished-mobile-phones"

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{
			name:    "valid product URL",
			url:     "https://www.cashify.in/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: false,
		},
		{
			name:    "valid without www",
			url:     "https://cashify.in/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: false,
		},
		{
			name:    "plain http accepted",
			url:     "http://www.cashify.in/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: false,
		},
		{
			name:    "wrong host",
			url:     "https://www.example.com/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: true,
		},
		{
			name:    "unsupported scheme",
			url:     "ftp://www.cashify.in/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: true,
		},
		{
			name:    "missing path prefix",
			url:     "https://www.cashify.in/sell-old-mobile-phones/apple-iphone-12",
			wantErr: true,
		},
		{
			name:    "category page without product slug",
			url:     "https://www.cashify.in/buy-refurbished-mobile-phones/",
			wantErr: true,
		},
		{
			name:    "bare prefix without trailing slash",
			url:     "https://www.cashify.in/buy-refurbished-mobile-phones",
			wantErr: true,
		},
		{
			name:    "prefix as substring of another path",
			url:     "https://www.cashify.in/buy-refurbished-mobile-phones-accessories/case",
			wantErr: true,
		},
		{
			name:    "relative URL",
			url:     "/buy-refurbished-mobile-phones/apple-iphone-12",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProductURL(tt.url, host, pathPrefix)
			if tt.wantErr && err == nil {
				t.Errorf("Expected error for URL '%s', got nil", tt.url)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected URL '%s' to be accepted, got %v", tt.url, err)
			}
		})
	}
}

const productURL = "https://www.cashify.in/buy-refurbished-mobile-phones/apple-iphone-12"

func newTestHandler(itemRepo *mockItemRepository, historyRepo *mockHistoryRepository,
	alertRepo *mockAlertRepository, fetcher *mockFetcher, extractor *mockExtractor) *Handler {
	return &Handler{
		itemRepo:         itemRepo,
		historyRepo:      historyRepo,
		alertRepo:        alertRepo,
		fetcher:          fetcher,
		extractor:        extractor,
		sourceHost:       "www.cashify.in",
		sourcePathPrefix: "/buy-refurbished-mobile-phones",
	}
}

func postTrackItem(h *Handler, body, owner string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-User-Email", owner)
	}
	c.Request = req

	h.TrackItem(c)
	return w
}

func TestHandler_TrackItem_NoPriceData(t *testing.T) {
	itemRepo := &mockItemRepository{}
	historyRepo := &mockHistoryRepository{}
	fetcher := &mockFetcher{html: "<html/>"}
	extractor := &mockExtractor{err: scrape.ErrNoPriceData}

	h := newTestHandler(itemRepo, historyRepo, &mockAlertRepository{}, fetcher, extractor)

	w := postTrackItem(h, `{"url":"`+productURL+`"}`, "user@example.com")

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", w.Code)
	}
	if len(itemRepo.created) != 0 {
		t.Errorf("Expected no item created when extraction fails, got %d", len(itemRepo.created))
	}
	if historyRepo.appended != 0 {
		t.Errorf("Expected no history entry when extraction fails, got %d", historyRepo.appended)
	}
}

func TestHandler_TrackItem_DuplicateURL(t *testing.T) {
	itemRepo := &mockItemRepository{
		existing: &database.Item{ID: "item-1", OwnerEmail: "user@example.com", URL: productURL},
	}
	fetcher := &mockFetcher{html: "<html/>"}

	h := newTestHandler(itemRepo, &mockHistoryRepository{}, &mockAlertRepository{}, fetcher, &mockExtractor{})

	w := postTrackItem(h, `{"url":"`+productURL+`"}`, "user@example.com")

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch for a duplicate URL, got %d calls", fetcher.calls)
	}
	if len(itemRepo.created) != 0 {
		t.Errorf("Expected no item created for a duplicate URL, got %d", len(itemRepo.created))
	}
}

func TestHandler_TrackItem_Created(t *testing.T) {
	itemRepo := &mockItemRepository{createdID: "item-1"}
	historyRepo := &mockHistoryRepository{}
	alertRepo := &mockAlertRepository{}
	fetcher := &mockFetcher{html: "<html/>"}
	extractor := &mockExtractor{
		res: &scrape.Result{
			Title:     "Apple iPhone 12",
			ListPrice: 49999,
			SalePrice: 41999,
			Discount:  "16%",
			Condition: "Good",
			Storage:   "128GB",
		},
	}

	h := newTestHandler(itemRepo, historyRepo, alertRepo, fetcher, extractor)

	w := postTrackItem(h, `{"url":"`+productURL+`","target_price":30000}`, "user@example.com")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if len(itemRepo.created) != 1 {
		t.Fatalf("Expected 1 item created, got %d", len(itemRepo.created))
	}
	if itemRepo.created[0].SalePrice != 41999 {
		t.Errorf("Expected created item sale price 41999, got %d", itemRepo.created[0].SalePrice)
	}
	if historyRepo.appended != 1 {
		t.Errorf("Expected initial history entry, got %d", historyRepo.appended)
	}
	if alertRepo.created != 1 {
		t.Errorf("Expected alert created for target price, got %d", alertRepo.created)
	}
	if !strings.Contains(w.Body.String(), "item-1") {
		t.Error("Expected response to carry the new item ID")
	}
}

func TestHandler_TrackItem_OutOfStockSkipsInitialHistory(t *testing.T) {
	itemRepo := &mockItemRepository{createdID: "item-1"}
	historyRepo := &mockHistoryRepository{}
	extractor := &mockExtractor{
		res: &scrape.Result{
			Title:      "Apple iPhone 12",
			ListPrice:  50000,
			SalePrice:  45000,
			OutOfStock: true,
		},
	}

	h := newTestHandler(itemRepo, historyRepo, &mockAlertRepository{}, &mockFetcher{html: "<html/>"}, extractor)

	w := postTrackItem(h, `{"url":"`+productURL+`"}`, "user@example.com")

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	if historyRepo.appended != 0 {
		t.Errorf("Expected no history entry for an out-of-stock item, got %d", historyRepo.appended)
	}
}

func TestHandler_TrackItem_FetchFailure(t *testing.T) {
	itemRepo := &mockItemRepository{}
	fetcher := &mockFetcher{err: &scrape.FetchError{URL: productURL, StatusCode: 503}}

	h := newTestHandler(itemRepo, &mockHistoryRepository{}, &mockAlertRepository{}, fetcher, &mockExtractor{})

	w := postTrackItem(h, `{"url":"`+productURL+`"}`, "user@example.com")

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
	if len(itemRepo.created) != 0 {
		t.Errorf("Expected no item created when the fetch fails, got %d", len(itemRepo.created))
	}
}

func TestHandler_TrackItem_UnsupportedURL(t *testing.T) {
	fetcher := &mockFetcher{}
	h := newTestHandler(&mockItemRepository{}, &mockHistoryRepository{}, &mockAlertRepository{}, fetcher, &mockExtractor{})

	w := postTrackItem(h, `{"url":"https://www.example.com/some-product"}`, "user@example.com")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if fetcher.calls != 0 {
		t.Errorf("Expected no fetch for an unsupported URL, got %d calls", fetcher.calls)
	}
}

func TestHandler_TrackItem_MissingOwner(t *testing.T) {
	itemRepo := &mockItemRepository{}
	h := newTestHandler(itemRepo, &mockHistoryRepository{}, &mockAlertRepository{}, &mockFetcher{}, &mockExtractor{})

	w := postTrackItem(h, `{"url":"`+productURL+`"}`, "")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without owner header, got %d", w.Code)
	}
	if len(itemRepo.created) != 0 {
		t.Errorf("Expected no item created, got %d", len(itemRepo.created))
	}
}
