package ledger

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TransferRow is the display shape of a transfer for activity tables.
type TransferRow struct {
	Date  string `json:"date"`
	Route string `json:"route"`
	SKU   string `json:"sku"`
	Qty   int    `json:"qty"`
	Notes string `json:"notes"`
}

// SaleRow is the display shape of a sale for activity tables.
type SaleRow struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Qty      int    `json:"qty"`
	Value    string `json:"value"`
}

const displayDateLayout = "02 Jan 2006"

var moneyPrinter = message.NewPrinter(language.English)

// TransferRows shapes views into display rows.
func TransferRows(views []TransferView) []TransferRow {
	rows := make([]TransferRow, 0, len(views))
	for _, v := range views {
		rows = append(rows, TransferRow{
			Date:  v.CreatedAt.Format(displayDateLayout),
			Route: fmt.Sprintf("%s → %s", v.FromName, v.ToName),
			SKU:   v.SKU,
			Qty:   v.Qty,
			Notes: v.Notes,
		})
	}
	return rows
}

// SaleRows shapes views into display rows with a localized currency column.
func SaleRows(views []SaleView) []SaleRow {
	rows := make([]SaleRow, 0, len(views))
	for _, v := range views {
		value := "—"
		if v.Value != nil {
			value = moneyPrinter.Sprintf("PKR %v", number.Decimal(*v.Value))
		}
		rows = append(rows, SaleRow{
			Date:     v.CreatedAt.Format(displayDateLayout),
			Location: v.LocationName,
			Qty:      v.Qty,
			Value:    value,
		})
	}
	return rows
}
