package scrape

// Result holds the structured fields recovered from one product page.
// It is transient; the reconciler maps it onto the stored item snapshot.
type Result struct {
	Title      string
	ListPrice  int
	SalePrice  int
	Discount   string // e.g. "20%"
	Condition  string // Fair, Good, Excellent or Superb
	Storage    string // e.g. "4GB / 64GB"
	Color      string
	ImageURL   string
	OutOfStock bool
}
