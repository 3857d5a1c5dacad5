package receipt

import (
	"errors"

	"github.com/zombor/receipt-items/internal/document"
)

// ErrNoTableFound is returned when an analyzed receipt contains no table
var ErrNoTableFound = errors.New("no table found")

// Result is the interpretation of one analyzed receipt
type Result struct {
	Info  Info       `json:"info"`
	Items []LineItem `json:"items"`
	Stats Stats      `json:"stats"`
}

// Interpret reconstructs the header and line items of a receipt from its
// analysis blocks. Only the first table is read.
func (h Heuristics) Interpret(blocks []document.Block) (*Result, error) {
	index := document.NewIndex(blocks)

	tables := index.Tables()
	if len(tables) == 0 {
		return nil, ErrNoTableFound
	}

	items, stats := h.Reconstruct(index.Grid(tables[0]))

	return &Result{
		Info:  h.ExtractInfo(index.Lines()),
		Items: items,
		Stats: stats,
	}, nil
}
