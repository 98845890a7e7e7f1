package settings

// PlaceholderWarehouseRef marks an unset warehouse location.
const PlaceholderWarehouseRef = "gid://shopify/Location/0"

// Settings is the single configuration record. It is loaded once per
// request and passed into services as a value; services never read the
// settings table themselves.
type Settings struct {
	WarehouseLocationRef string `json:"warehouse_location_ref"`
	AutoSyncOrders       bool   `json:"auto_sync_orders"`
	InvoiceBranding      string `json:"invoice_branding"`
}

// HasWarehouse reports whether a real warehouse location is configured.
func (s Settings) HasWarehouse() bool {
	return s.WarehouseLocationRef != "" && s.WarehouseLocationRef != PlaceholderWarehouseRef
}
