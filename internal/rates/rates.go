// Package rates holds the normalized quote model and the logic that turns
// the raw, variably-shaped API payloads into it.
package rates

import (
	"fmt"
	"strings"
)

// Type selects which quoted rate a payload lookup targets.
type Type string

const (
	TypeBlue    Type = "blue"
	TypeOficial Type = "oficial"
)

// Types lists the supported rate types in display order.
var Types = []Type{TypeBlue, TypeOficial}

// ParseType maps user input to a Type, case-insensitively.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeBlue:
		return TypeBlue, nil
	case TypeOficial:
		return TypeOficial, nil
	}
	return "", fmt.Errorf("unknown rate type %q", s)
}

// RangeOptions are the history windows offered to the user, in days.
var RangeOptions = []int{7, 30, 60, 90}

// ValidRange reports whether days is one of the offered windows.
func ValidRange(days int) bool {
	for _, n := range RangeOptions {
		if n == days {
			return true
		}
	}
	return false
}

// QuoteNow is the latest snapshot for one rate type. A nil field means the
// source did not provide a usable number for it. Avg is computed locally as
// (buy+sell)/2 and stays nil unless both sides are present; the quote
// endpoint itself does not supply an average.
type QuoteNow struct {
	Buy  *float64 `json:"buy"`
	Sell *float64 `json:"sell"`
	Avg  *float64 `json:"avg"`
}

// Snapshot couples a QuoteNow with the source's last_update timestamp.
type Snapshot struct {
	QuoteNow
	LastUpdate string `json:"last_update,omitempty"`
}

// HistoryPoint is one day of the normalized series. Date keeps only the
// ISO date, no time component. Buy and Sell are backfilled with Avg when the
// source omits them, so a kept point always has every field populated that
// can be derived from the row.
type HistoryPoint struct {
	Date string   `json:"date"`
	Buy  *float64 `json:"buy"`
	Sell *float64 `json:"sell"`
	Avg  *float64 `json:"avg"`
}

// HistorySeries is ordered ascending by date. Duplicate dates from the
// source are preserved in order.
type HistorySeries []HistoryPoint

// Num is a convenience constructor for optional numeric fields.
func Num(v float64) *float64 { return &v }
