package rates

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Shape identifies which of the known history encodings a payload uses.
// The history endpoint has shipped all three over time, without version
// negotiation, so the shape is sniffed per response.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeKeyed is an object keyed by rate type, each value an array of
	// daily records: {"blue": [...], "oficial": [...]}.
	ShapeKeyed
	// ShapeNested is an array of daily rows, each row holding one
	// sub-object per rate type: [{"date": ..., "blue": {...}, ...}].
	ShapeNested
	// ShapeTagged is a flat array of per-type rows labeled with a
	// "source" string: [{"date": ..., "source": "Blue", ...}].
	ShapeTagged
)

func (s Shape) String() string {
	switch s {
	case ShapeKeyed:
		return "keyed"
	case ShapeNested:
		return "nested"
	case ShapeTagged:
		return "tagged"
	}
	return "unknown"
}

// Field alias chains, tried in order; first present non-null key wins.
// The APIs have shipped several spellings for the same logical field, so the
// chains are kept as data: a new spelling is one more entry here.
var (
	nowBuyKeys  = []string{"value_buy", "compra", "bid"}
	nowSellKeys = []string{"value_sell", "venta", "ask"}
	rowBuyKeys  = []string{"value_buy", "buy", "bid"}
	rowSellKeys = []string{"value_sell", "sell", "ask"}
	avgKeys     = []string{"value_avg"}
)

// DetectShape classifies a raw history payload. Anything unclassifiable is
// ShapeUnknown and normalizes to an empty series.
func DetectShape(raw json.RawMessage) Shape {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ShapeUnknown
	}
	return detectShape(v)
}

func detectShape(v any) Shape {
	switch t := v.(type) {
	case []any:
		if len(t) > 0 {
			if row, ok := t[0].(map[string]any); ok {
				if _, tagged := row["source"].(string); tagged {
					return ShapeTagged
				}
			}
		}
		return ShapeNested
	case map[string]any:
		for _, rt := range Types {
			if _, ok := t[string(rt)]; ok {
				return ShapeKeyed
			}
		}
	}
	return ShapeUnknown
}

// NormalizeNow extracts the latest quote for one rate type from the quote
// endpoint payload. It never fails: a malformed payload or missing
// sub-object yields a QuoteNow with all fields nil.
func NormalizeNow(raw json.RawMessage, t Type) QuoteNow {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return QuoteNow{}
	}
	sub, _ := m[string(t)].(map[string]any)
	if sub == nil {
		return QuoteNow{}
	}
	buy := toNumber(field(sub, nowBuyKeys...))
	sell := toNumber(field(sub, nowSellKeys...))
	var avg *float64
	if buy != nil && sell != nil {
		avg = Num((*buy + *sell) / 2)
	}
	return QuoteNow{Buy: buy, Sell: sell, Avg: avg}
}

// LastUpdate returns the payload's top-level last_update timestamp string,
// or "" when absent.
func LastUpdate(raw json.RawMessage) string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	s, _ := m["last_update"].(string)
	return s
}

// NormalizeHistory turns a raw history payload of any known shape into an
// ordered series for one rate type, keeping the trailing rangeDays points.
// rangeDays is clamped to at least 1. It never fails: malformed payloads
// normalize to an empty series.
func NormalizeHistory(raw json.RawMessage, t Type, rangeDays int) HistorySeries {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	var pts HistorySeries
	switch detectShape(v) {
	case ShapeKeyed:
		m := v.(map[string]any)
		arr, _ := m[string(t)].([]any)
		for _, e := range arr {
			row, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if p, ok := normalizePoint(row["date"], field(row, "value_buy"), field(row, "value_sell"), field(row, avgKeys...)); ok {
				pts = append(pts, p)
			}
		}
	case ShapeNested:
		for _, e := range v.([]any) {
			row, ok := e.(map[string]any)
			if !ok {
				continue
			}
			sub, _ := row[string(t)].(map[string]any)
			if sub == nil {
				sub = map[string]any{}
			}
			if p, ok := normalizePoint(row["date"], field(sub, rowBuyKeys...), field(sub, rowSellKeys...), field(sub, avgKeys...)); ok {
				pts = append(pts, p)
			}
		}
	case ShapeTagged:
		target := string(t)
		for _, e := range v.([]any) {
			row, ok := e.(map[string]any)
			if !ok {
				continue
			}
			src, _ := row["source"].(string)
			if !strings.Contains(strings.ToLower(src), target) {
				continue
			}
			if p, ok := normalizePoint(row["date"], field(row, "value_buy"), field(row, "value_sell"), field(row, avgKeys...)); ok {
				pts = append(pts, p)
			}
		}
	default:
		return nil
	}

	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date < pts[j].Date })

	keep := rangeDays
	if keep < 1 {
		keep = 1
	}
	if len(pts) > keep {
		pts = pts[len(pts)-keep:]
	}
	return pts
}

// normalizePoint derives one HistoryPoint from a raw (date, buy, sell, avg)
// tuple. It rejects rows without a date and rows where no numeric field
// survives coercion. A supplied avg is used verbatim; otherwise it is
// derived from whichever sides are present.
func normalizePoint(dateVal, buyRaw, sellRaw, avgRaw any) (HistoryPoint, bool) {
	date, _ := dateVal.(string)
	if date == "" {
		return HistoryPoint{}, false
	}
	// Keep the ISO date only; some encodings append a time component.
	if len(date) > 10 {
		date = date[:10]
	}

	buy := toNumber(buyRaw)
	sell := toNumber(sellRaw)
	avg := toNumber(avgRaw)

	if avg == nil {
		switch {
		case buy != nil && sell != nil:
			avg = Num((*buy + *sell) / 2)
		case buy != nil:
			avg = buy
		case sell != nil:
			avg = sell
		}
	}
	if buy == nil && sell == nil && avg == nil {
		return HistoryPoint{}, false
	}
	if buy == nil {
		buy = avg
	}
	if sell == nil {
		sell = avg
	}
	return HistoryPoint{Date: date, Buy: buy, Sell: sell, Avg: avg}, true
}

// field returns the first present, non-null value among keys.
func field(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// toNumber coerces a decoded JSON value to a float. Anything that is not a
// finite number, or a string holding one, yields nil — never NaN and never
// a silent zero.
func toNumber(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}
	return nil
}
