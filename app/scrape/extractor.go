package scrape

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoPriceData is returned when neither a list price nor a sale price
// could be located anywhere in the page. Callers treat this as a per-item
// failure, not a fatal one.
var ErrNoPriceData = errors.New("no price data")

const (
	maxPrice       = 2000000
	maxTitleLength = 100

	// Placeholder prices for unavailable items whose page carries no
	// price markup at all. These are synthetic values, not observations:
	// anything reading price history must expect them for items that were
	// out of stock at first sight.
	fallbackListPrice = 50000
	fallbackSalePrice = 45000
	listPriceOffset   = 5000

	defaultCondition = "Good"
	defaultCapacity  = "128GB"

	outOfStockSelector = `[class*="out-of-stock"]`
)

// rule is one named pattern in an extraction cascade. Cascades are ordered
// lists evaluated in sequence; the first rule that yields a usable value
// wins, so the most specific patterns come first.
type rule struct {
	name string
	re   *regexp.Regexp
}

var listPriceRules = []rule{
	{"del-tag", regexp.MustCompile(`<del[^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
	{"old-price-class", regexp.MustCompile(`class="[^"]*old-price[^"]*"[^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
	{"line-through", regexp.MustCompile(`line-through[^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
	{"strike-tag", regexp.MustCompile(`<(?:s|strike)[^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
}

var salePriceRules = []rule{
	{"sale-price-class", regexp.MustCompile(`class="[^"]*(?:sale-price|current-price)[^"]*"[^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
	{"itemprop-price", regexp.MustCompile(`itemprop="price"[^>]*content="([0-9,]+)`)},
	{"price-heading", regexp.MustCompile(`<h[23][^>]*>[^0-9₹<]*₹\s*([0-9,]+)`)},
	{"any-rupee", regexp.MustCompile(`₹\s*([0-9,]+)`)},
}

var discountRules = []rule{
	{"discount-class", regexp.MustCompile(`class="[^"]*discount[^"]*"[^>]*>[^0-9<]*(\d{1,3})\s*%`)},
	{"percent-off", regexp.MustCompile(`(\d{1,3})\s*%\s*(?i:off)`)},
	{"save-percent", regexp.MustCompile(`(?i:save)\s*(\d{1,3})\s*%`)},
}

var conditionRules = []rule{
	{"condition-label", regexp.MustCompile(`(?i)condition\s*[:\-–]?\s*(fair|good|excellent|superb)`)},
	{"condition-suffix", regexp.MustCompile(`(?i)\b(fair|good|excellent|superb)\b\s+condition`)},
	{"condition-class", regexp.MustCompile(`(?i)class="[^"]*condition[^"]*"[^>]*>\s*([a-z]+)`)},
}

var capacityRules = []rule{
	{"capacity-token", regexp.MustCompile(`(?i)(\d{1,4}\s?(?:GB|TB))`)},
}

// Image rules prefer filenames carrying a vendor or device hint over a
// bare image-extension match.
var imageRules = []rule{
	{"device-hint", regexp.MustCompile(`(?i)(?:src|data-src)="([^"]*(?:iphone|galaxy|pixel|oneplus|xiaomi|phone)[^"]*\.(?:jpe?g|png|webp))"`)},
	{"product-path", regexp.MustCompile(`(?i)(?:src|data-src)="([^"]*/product[^"]*\.(?:jpe?g|png|webp))"`)},
	{"any-image", regexp.MustCompile(`(?i)src="([^"]+\.(?:jpe?g|png|webp))"`)},
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	vendorSuffixRe = regexp.MustCompile(`(?i)\s*[|–-]\s*cashify[^|]*$`)
	ramCapacityRe  = regexp.MustCompile(`(?i)(\d+)\s*GB\s*/\s*(\d+)\s*(GB|TB)`)
)

var conditionVocabulary = []string{"Fair", "Good", "Excellent", "Superb"}

// Extractor recovers structured product fields from raw page markup
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Run extracts all product fields from html. sourceURL is used to resolve
// relative image URLs. It fails with ErrNoPriceData only when neither
// price could be located; every other field degrades to a default.
func (e *Extractor) Run(html string, sourceURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	res := &Result{}

	res.OutOfStock = doc.Find(outOfStockSelector).Length() > 0
	res.Title = extractTitle(doc)

	res.ListPrice = firstPrice(listPriceRules, html)
	if !res.OutOfStock {
		res.SalePrice = firstPrice(salePriceRules, html)
	}

	res.Discount = "0%"
	if !res.OutOfStock {
		res.Discount = extractDiscount(html, res.ListPrice, res.SalePrice)
	}

	extractSpecs(doc, html, res)
	res.ImageURL = extractImageURL(html, sourceURL)

	if res.OutOfStock {
		backfillPrices(res)
	}

	if res.ListPrice == 0 && res.SalePrice == 0 {
		return nil, ErrNoPriceData
	}

	return res, nil
}

// firstMatch evaluates a cascade against text and returns the first
// captured group that matches.
func firstMatch(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// firstPrice evaluates a price cascade and returns the first numeric match
// inside the accepted range, with commas stripped.
func firstPrice(rules []rule, text string) int {
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			if n, ok := parsePrice(m[1]); ok {
				return n
			}
		}
	}
	return 0
}

func parsePrice(raw string) (int, bool) {
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || n <= 0 || n >= maxPrice {
		return 0, false
	}
	return n, true
}

func extractTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	title = whitespaceRe.ReplaceAllString(title, " ")
	title = vendorSuffixRe.ReplaceAllString(title, "")

	if runes := []rune(title); len(runes) > maxTitleLength {
		title = string(runes[:maxTitleLength-3]) + "..."
	}

	return title
}

func extractDiscount(html string, listPrice, salePrice int) string {
	if raw, ok := firstMatch(discountRules, html); ok {
		return raw + "%"
	}

	if listPrice > 0 && salePrice > 0 && listPrice > salePrice {
		pct := int(math.Round(float64(listPrice-salePrice) / float64(listPrice) * 100))
		return fmt.Sprintf("%d%%", pct)
	}

	return "0%"
}

// extractSpecs fills condition, storage and color. The primary source is
// the comma-separated spec line under the product title, shaped like
// "Apple iPhone 12, Good, 4 GB / 64 GB, Black".
func extractSpecs(doc *goquery.Document, html string, res *Result) {
	specLine := strings.TrimSpace(doc.Find(".product-spec, .product-subtitle").First().Text())
	if specLine == "" {
		specLine, _ = doc.Find(`meta[name="description"]`).Attr("content")
	}

	var ram, capacity string

	parts := strings.Split(specLine, ",")
	if len(parts) >= 4 {
		if c, ok := matchCondition(parts[1]); ok {
			res.Condition = c
		}
		if m := ramCapacityRe.FindStringSubmatch(parts[2]); m != nil {
			ram = m[1] + "GB"
			capacity = m[2] + strings.ToUpper(m[3])
		} else if token, ok := firstMatch(capacityRules, parts[2]); ok {
			capacity = normalizeCapacity(token)
		}
		res.Color = strings.TrimSpace(parts[3])
	}

	if res.Condition == "" {
		if raw, ok := firstMatch(conditionRules, html); ok {
			if c, ok := matchCondition(raw); ok {
				res.Condition = c
			}
		}
	}
	if res.Condition == "" {
		res.Condition = defaultCondition
	}

	if capacity == "" {
		capacity = findCapacity(res.Title)
	}
	if capacity == "" {
		capacity = findCapacity(html)
	}
	if capacity == "" {
		capacity = defaultCapacity
	}

	if ram != "" {
		res.Storage = fmt.Sprintf("%s / %s", ram, capacity)
	} else {
		res.Storage = capacity
	}
}

// matchCondition normalizes free-form text to the known condition
// vocabulary by case-insensitive substring match.
func matchCondition(s string) (string, bool) {
	lower := strings.ToLower(s)
	for _, c := range conditionVocabulary {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c, true
		}
	}
	return "", false
}

func findCapacity(text string) string {
	token, ok := firstMatch(capacityRules, text)
	if !ok || len(token) >= 20 {
		return ""
	}
	return normalizeCapacity(token)
}

func normalizeCapacity(token string) string {
	return strings.ToUpper(strings.ReplaceAll(token, " ", ""))
}

func extractImageURL(html string, sourceURL string) string {
	raw, ok := firstMatch(imageRules, html)
	if !ok {
		return ""
	}
	return resolveURL(raw, sourceURL)
}

func resolveURL(raw, sourceURL string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.IsAbs() {
		return raw
	}
	base, err := url.Parse(sourceURL)
	if err != nil {
		return raw
	}
	return base.ResolveReference(u).String()
}

// backfillPrices synthesizes prices for unavailable items. The sale price
// cascade is skipped entirely for out-of-stock pages, so SalePrice is
// always derived here.
func backfillPrices(res *Result) {
	switch {
	case res.ListPrice == 0 && res.SalePrice == 0:
		res.ListPrice = fallbackListPrice
		res.SalePrice = fallbackSalePrice
	case res.ListPrice == 0:
		res.ListPrice = res.SalePrice + listPriceOffset
	case res.SalePrice == 0:
		res.SalePrice = res.ListPrice
	}
}
