// Package snapshot builds the per-SKU inventory view: live warehouse
// quantities reconciled against virtual transfers, merged with virtual
// stock totals.
package snapshot

// Row is the canonical snapshot row. All upstream shapes are normalized
// into this exactly once, at the ingestion boundary.
type Row struct {
	Title      string `json:"title"`
	SKU        string `json:"sku"`
	Available  int    `json:"available"`
	Virtual    int    `json:"virtual"`
	ProductRef string `json:"product_ref,omitempty"`
}

// Result is the assembled snapshot.
type Result struct {
	Rows         []Row  `json:"rows"`
	InStock      int    `json:"in_stock"`
	LocationName string `json:"location_name"`
	Placeholder  bool   `json:"placeholder,omitempty"`
}

// Options controls sorting and truncation. The dashboard asks for the top
// rows by available quantity; reports take the untruncated list.
type Options struct {
	SortByAvailable bool
	Limit           int // 0 means no truncation
}

// DashboardOptions is the default dashboard view: top 10 by available.
var DashboardOptions = Options{SortByAvailable: true, Limit: 10}
