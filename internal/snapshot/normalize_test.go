package snapshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRowTuple(t *testing.T) {
	row, err := NormalizeRow([]any{"Widget", "SKU-1", float64(12), float64(3)})
	require.NoError(t, err)
	require.Equal(t, Row{Title: "Widget", SKU: "SKU-1", Available: 12, Virtual: 3}, row)
}

func TestNormalizeRowShortTuple(t *testing.T) {
	row, err := NormalizeRow([]any{"Widget", "SKU-1"})
	require.NoError(t, err)
	require.Equal(t, Row{Title: "Widget", SKU: "SKU-1"}, row)

	_, err = NormalizeRow([]any{"Widget"})
	require.ErrorIs(t, err, ErrUnknownRowShape)
}

func TestNormalizeRowKeyed(t *testing.T) {
	row, err := NormalizeRow(map[string]any{
		"title":     "Widget",
		"sku":       "SKU-1",
		"available": float64(7),
		"virtual":   2,
	})
	require.NoError(t, err)
	require.Equal(t, Row{Title: "Widget", SKU: "SKU-1", Available: 7, Virtual: 2}, row)
}

func TestNormalizeRowKeyedLegacyNames(t *testing.T) {
	row, err := NormalizeRow(map[string]any{
		"Product":      "Widget",
		"variantSku":   "SKU-1",
		"warehouseQty": 7,
		"virtualTotal": 2,
		"productGid":   "gid://shopify/Product/1",
	})
	require.NoError(t, err)
	require.Equal(t, Row{
		Title:      "Widget",
		SKU:        "SKU-1",
		Available:  7,
		Virtual:    2,
		ProductRef: "gid://shopify/Product/1",
	}, row)
}

func TestNormalizeRowDefaultsTitle(t *testing.T) {
	row, err := NormalizeRow(map[string]any{"sku": "SKU-1"})
	require.NoError(t, err)
	require.Equal(t, "Product", row.Title)
}

func TestNormalizeRowUnknownShape(t *testing.T) {
	_, err := NormalizeRow(42)
	require.ErrorIs(t, err, ErrUnknownRowShape)
}

func TestNormalizeRowsDropsUnparseable(t *testing.T) {
	rows := NormalizeRows([]any{
		[]any{"Widget", "SKU-1", 5},
		42,
		map[string]any{"sku": "SKU-2", "available": 3},
	})
	require.Len(t, rows, 2)
	require.Equal(t, "SKU-1", rows[0].SKU)
	require.Equal(t, "SKU-2", rows[1].SKU)
}
