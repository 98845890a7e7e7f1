package snapshot

import (
	"errors"
	"fmt"
)

// ErrUnknownRowShape indicates a row that is neither a positional tuple nor
// a keyed object.
var ErrUnknownRowShape = errors.New("snapshot: unknown row shape")

// NormalizeRow parses one upstream row into the canonical shape. Two
// shapes exist in the wild: positional tuples [title, sku, qty, virtual]
// and keyed objects with drifting field names. This is the only place that
// knows about either; consumers see Row and nothing else.
func NormalizeRow(raw any) (Row, error) {
	switch v := raw.(type) {
	case []any:
		return normalizeTuple(v)
	case map[string]any:
		return normalizeKeyed(v), nil
	case Row:
		return v, nil
	default:
		return Row{}, fmt.Errorf("%w: %T", ErrUnknownRowShape, raw)
	}
}

// NormalizeRows parses a whole upstream list, dropping rows that cannot be
// parsed.
func NormalizeRows(raw []any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, item := range raw {
		row, err := NormalizeRow(item)
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func normalizeTuple(tuple []any) (Row, error) {
	if len(tuple) < 2 {
		return Row{}, fmt.Errorf("%w: tuple of %d", ErrUnknownRowShape, len(tuple))
	}
	row := Row{
		Title: asString(tuple[0], "Product"),
		SKU:   asString(tuple[1], ""),
	}
	if len(tuple) > 2 {
		row.Available = asInt(tuple[2])
	}
	if len(tuple) > 3 {
		row.Virtual = asInt(tuple[3])
	}
	return row, nil
}

func normalizeKeyed(obj map[string]any) Row {
	return Row{
		Title:      firstString(obj, []string{"title", "Product"}, "Product"),
		SKU:        firstString(obj, []string{"sku", "SKU", "variantSku"}, ""),
		Available:  firstInt(obj, []string{"available", "warehouseQty", "qty"}),
		Virtual:    firstInt(obj, []string{"virtual", "virtualTotal"}),
		ProductRef: firstString(obj, []string{"product_ref", "productGid"}, ""),
	}
}

func firstString(obj map[string]any, keys []string, fallback string) string {
	for _, key := range keys {
		if raw, ok := obj[key]; ok {
			if s := asString(raw, ""); s != "" {
				return s
			}
		}
	}
	return fallback
}

func firstInt(obj map[string]any, keys []string) int {
	for _, key := range keys {
		if raw, ok := obj[key]; ok {
			return asInt(raw)
		}
	}
	return 0
}

func asString(raw any, fallback string) string {
	if s, ok := raw.(string); ok && s != "" {
		return s
	}
	return fallback
}

func asInt(raw any) int {
	switch n := raw.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(n, "%d", &parsed); err == nil {
			return parsed
		}
	}
	return 0
}
