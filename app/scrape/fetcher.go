package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// FetchError reports a network or HTTP-level failure retrieving a page
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher retrieves product pages with a browser-like request profile.
// The source site serves stripped-down markup to clients it does not
// recognize, so the headers matter.
type Fetcher struct {
	client *resty.Client
}

func NewFetcher(userAgent string, timeout time.Duration) *Fetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-IN,en;q=0.9")

	return &Fetcher{client: client}
}

// Fetch returns the raw markup of the page at url
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	return resp.String(), nil
}
