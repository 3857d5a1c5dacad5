package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	receiptDateLayout = "2-1-2006"
	recordDateLayout  = "2006-01-02 15:04:05"
	objectTimeLayout  = "20060102-150405"
)

// ErrUnresolvedHeader is returned when the receipt date cannot be determined
var ErrUnresolvedHeader = errors.New("unresolved receipt header")

// Record is one output line: a purchased item with its currency and the
// time of purchase
type Record struct {
	Name     string       `json:"name"`
	Price    *json.Number `json:"price"`
	Currency string       `json:"currency"`
	Unit     string       `json:"unit"`
	Date     string       `json:"date"`
}

// Timestamp combines the header date and time. A missing time falls back
// to midnight; a missing or malformed date is an error.
func (i Info) Timestamp() (time.Time, error) {
	if i.Date == "" {
		return time.Time{}, fmt.Errorf("%w: date not found", ErrUnresolvedHeader)
	}

	date, err := time.Parse(receiptDateLayout, i.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrUnresolvedHeader, i.Date)
	}

	if i.Time == "" {
		slog.Warn("Receipt time not found, using midnight", "date", i.Date)
		return date, nil
	}

	hours, minutes, ok := strings.Cut(i.Time, ":")
	h, herr := strconv.Atoi(hours)
	m, merr := strconv.Atoi(minutes)
	if !ok || herr != nil || merr != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", ErrUnresolvedHeader, i.Time)
	}

	return date.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
}

// BuildRecords tags the items of a result with currency and purchase time
func BuildRecords(result *Result, currency string) ([]Record, time.Time, error) {
	ts, err := result.Info.Timestamp()
	if err != nil {
		return nil, time.Time{}, err
	}

	date := ts.Format(recordDateLayout)

	records := make([]Record, 0, len(result.Items))
	for _, item := range result.Items {
		record := Record{
			Name:     item.Name,
			Currency: currency,
			Unit:     item.Unit,
			Date:     date,
		}
		if item.Price.Valid {
			price := json.Number(item.Price.Decimal.String())
			record.Price = &price
		}
		records = append(records, record)
	}

	return records, ts, nil
}

// EncodeRecords writes records as newline-delimited JSON
func EncodeRecords(w io.Writer, records []Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)

	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
	}
	return nil
}

// ObjectKey returns the storage key of a receipt's records, partitioned by store
func ObjectKey(store string, ts time.Time) string {
	return fmt.Sprintf("store=%s/%s.json", store, ts.Format(objectTimeLayout))
}
