// Package ledger maintains per-(location, SKU) virtual stock balances from
// an append-only log of transfers and sales. Balances are an incrementally
// updated cache over the log; every mutation applies the movement record
// and its balance adjustments in one transaction.
package ledger

import "time"

// MovementKind discriminates entries of the movement log.
type MovementKind string

const (
	// MovementTransfer moves stock between two locations.
	MovementTransfer MovementKind = "transfer"
	// MovementSale removes stock from one location.
	MovementSale MovementKind = "sale"
)

// StockEntry is the cached balance for one (location, SKU) pair.
// Invariant: Qty >= 0.
type StockEntry struct {
	LocationID int64  `json:"location_id"`
	SKU        string `json:"sku"`
	Qty        int    `json:"qty"`
}

// Transfer is an immutable movement record with two sides.
type Transfer struct {
	ID             int64     `json:"id"`
	FromLocationID int64     `json:"from_location_id"`
	ToLocationID   int64     `json:"to_location_id"`
	SKU            string    `json:"sku"`
	Qty            int       `json:"qty"`
	Notes          string    `json:"notes"`
	BatchRef       string    `json:"batch_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Sale is an immutable single-sided movement record.
type Sale struct {
	ID               int64     `json:"id"`
	LocationID       int64     `json:"location_id"`
	SKU              string    `json:"sku"`
	Qty              int       `json:"qty"`
	Value            *float64  `json:"value,omitempty"`
	ExternalOrderRef *string   `json:"external_order_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Movement is a log entry in replay order, used by the audit.
type Movement struct {
	Kind           MovementKind
	FromLocationID int64
	ToLocationID   int64 // zero for sales
	SKU            string
	Qty            int
	CreatedAt      time.Time
}

// TransferInput describes a transfer request by location names.
type TransferInput struct {
	FromName string
	ToName   string
	SKU      string
	Qty      int
	Notes    string
	BatchRef string
}

// SaleInput describes a sale request by location name.
type SaleInput struct {
	LocationName string
	SKU          string
	Qty          int
	Value        *float64
}

// BatchLine is one line of a batch transfer.
type BatchLine struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// TransferView is a transfer with resolved display names.
type TransferView struct {
	CreatedAt      time.Time `json:"created_at"`
	FromLocationID int64     `json:"from_location_id"`
	ToLocationID   int64     `json:"to_location_id"`
	FromName       string    `json:"from_name"`
	ToName         string    `json:"to_name"`
	SKU            string    `json:"sku"`
	Qty            int       `json:"qty"`
	Notes          string    `json:"notes"`
}

// SaleView is a sale with its resolved display name.
type SaleView struct {
	CreatedAt    time.Time `json:"created_at"`
	LocationName string    `json:"location_name"`
	SKU          string    `json:"sku"`
	Qty          int       `json:"qty"`
	Value        *float64  `json:"value,omitempty"`
}

// Drift reports a cached balance that disagrees with a log replay.
type Drift struct {
	LocationID int64  `json:"location_id"`
	SKU        string `json:"sku"`
	Cached     int    `json:"cached"`
	Replayed   int    `json:"replayed"`
}

// deletedLocationName labels history rows whose location row is gone.
const deletedLocationName = "(deleted)"
