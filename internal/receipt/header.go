package receipt

import (
	"regexp"
	"strings"

	"github.com/zombor/receipt-items/internal/document"
)

var (
	datePattern       = regexp.MustCompile(`\d+-\d+-\d+`)
	dottedDatePattern = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	timePattern       = regexp.MustCompile(`\d{1,2}:\d{2}`)
)

// Info is the header metadata of a receipt. Empty fields are unresolved.
type Info struct {
	Store string `json:"store"`
	Date  string `json:"date"` // day-month-year, hyphen separated
	Time  string `json:"time"` // hour:minute
}

// ExtractInfo scans the LINE blocks of a receipt for the store name, date
// and time. The store comes from the first matching line, date and time
// from the last.
func (h Heuristics) ExtractInfo(lines []*document.Block) Info {
	var info Info

	for _, line := range lines {
		if info.Store == "" && containsAny(line.Text, h.Stores) {
			store, _, _ := strings.Cut(line.Text, ",")
			info.Store = strings.TrimSpace(store)
		}

		if date := findDate(line.Text); date != "" {
			info.Date = date
		}

		if t := timePattern.FindString(line.Text); t != "" {
			info.Time = t
		}
	}

	return info
}

func findDate(text string) string {
	if date := datePattern.FindString(text); date != "" {
		return date
	}
	if date := dottedDatePattern.FindString(text); date != "" {
		return strings.ReplaceAll(date, ".", "-")
	}
	return ""
}
