package receipt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparsablePrice is returned when price text cannot be read as a
// non-negative decimal
var ErrUnparsablePrice = errors.New("unparsable price")

// ParsePrice reads a price as printed on a receipt. The first comma is
// treated as the decimal separator; any further comma makes the text invalid.
func ParsePrice(text string) (decimal.Decimal, error) {
	normalized := strings.Replace(strings.TrimSpace(text), ",", ".", 1)

	price, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrUnparsablePrice, text)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is negative", ErrUnparsablePrice, text)
	}

	return price, nil
}
