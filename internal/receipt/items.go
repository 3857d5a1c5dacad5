package receipt

import (
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-items/internal/document"
)

const (
	nameColumn  = 1
	priceColumn = 2

	// per-unit rows end in "<qty> x <unit price> <marker>" after the product name
	unitSuffixTokens = 4
)

// LineItem is a purchased product reconstructed from a receipt table
type LineItem struct {
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
	Unit  string              `json:"unit"`
}

// Stats counts what happened to the rows of a receipt table
type Stats struct {
	Rows       int `json:"rows"`
	Ignored    int `json:"ignored"`
	Unparsable int `json:"unparsable"`
	Corrected  int `json:"corrected"`
	Discarded  int `json:"discarded"`
}

type reconstruction struct {
	items []LineItem
	stats Stats
}

// Reconstruct turns a receipt table into line items. Rows that cannot be
// read are dropped and logged; they never abort the receipt.
func (h Heuristics) Reconstruct(grid *document.Grid) ([]LineItem, Stats) {
	rows := grid.Rows()
	if h.SortRows {
		rows = grid.SortedRows()
	}

	r := &reconstruction{
		items: make([]LineItem, 0, len(rows)),
	}

	for _, row := range rows {
		r.stats.Rows++

		name, _ := grid.Cell(row, nameColumn)
		name = strings.TrimSpace(name)

		if name == "" || containsAny(name, h.IgnoredProducts) {
			r.stats.Ignored++
			continue
		}

		if isPerUnit(name) {
			r.perUnitRow(row, name)
			continue
		}

		priceText, _ := grid.Cell(row, priceColumn)
		price, err := ParsePrice(priceText)
		if err != nil {
			slog.Warn("Price is not valid", "row", row, "name", name, "price", strings.TrimSpace(priceText), "error", err)
			r.stats.Unparsable++
			continue
		}

		r.items = append(r.items, LineItem{
			Name:  name,
			Price: decimal.NewNullDecimal(price),
		})
	}

	return r.items, r.stats
}

// perUnitRow handles layouts that print "<qty> x <unit price> EUR/<unit>"
// inside the name cell
func (r *reconstruction) perUnitRow(row int, name string) {
	tokens := strings.Fields(name)

	marker := slices.IndexFunc(tokens, isUnitMarker)
	if marker <= 0 {
		slog.Warn("Unit price not found", "row", row, "name", name)
		r.stats.Unparsable++
		return
	}

	priceText := tokens[marker-1]
	_, unit, _ := strings.Cut(tokens[marker], "/")

	// OCR sometimes splits one receipt line into two table rows; the second
	// starts with a bare quantity and carries the unit price of the first.
	if isQuantity(tokens[0]) {
		r.correctLast(row, priceText, unit)
		return
	}

	var product string
	if len(tokens) > unitSuffixTokens {
		product = strings.Join(tokens[:len(tokens)-unitSuffixTokens], " ")
	}
	if product == "" {
		slog.Warn("Product name not found", "row", row, "name", name)
		r.stats.Unparsable++
		return
	}

	price, err := ParsePrice(priceText)
	if err != nil {
		slog.Warn("Price is not valid", "row", row, "name", product, "price", priceText, "error", err)
		r.stats.Unparsable++
		return
	}

	r.items = append(r.items, LineItem{
		Name:  product,
		Price: decimal.NewNullDecimal(price),
		Unit:  unit,
	})
}

// correctLast moves a continuation row's price and unit onto the previous item.
// A continuation with an unreadable price discards the previous item instead.
func (r *reconstruction) correctLast(row int, priceText, unit string) {
	price, err := ParsePrice(priceText)
	if err != nil {
		if len(r.items) > 0 {
			last := r.items[len(r.items)-1]
			r.items = r.items[:len(r.items)-1]
			slog.Warn("Discarding item with invalid continuation price", "row", row, "name", last.Name, "price", priceText, "error", err)
			r.stats.Discarded++
		}
		return
	}

	if len(r.items) == 0 {
		slog.Warn("Continuation row without a previous item", "row", row, "price", priceText)
		r.stats.Unparsable++
		return
	}

	last := &r.items[len(r.items)-1]
	last.Price = decimal.NewNullDecimal(price)
	last.Unit = unit
	r.stats.Corrected++
}

func isPerUnit(name string) bool {
	return strings.Contains(name, "€") || strings.Contains(name, "EUR/")
}

func isUnitMarker(token string) bool {
	return strings.Contains(token, "EUR/") || strings.Contains(token, "€/")
}

// isQuantity reports whether a token is a plain number with at most one period
func isQuantity(token string) bool {
	token = strings.Replace(token, ".", "", 1)
	if token == "" {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
