package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/JuanManuel1970/dolar/internal/rates"
)

var typeLabels = map[rates.Type]string{
	rates.TypeBlue:    "Dólar Blue",
	rates.TypeOficial: "Dólar Oficial",
}

// TypeLabel returns the display name of a rate type.
func TypeLabel(t rates.Type) string {
	if s, ok := typeLabels[t]; ok {
		return s
	}
	return string(t)
}

// Placeholder stands in for values the source did not provide.
const Placeholder = "—"

// FormatAmount renders a value with es-AR digit grouping: dots for
// thousands, comma decimal separator, at most two decimals with trailing
// zeros dropped. Nil renders as the placeholder.
func FormatAmount(v *float64) string {
	if v == nil {
		return Placeholder
	}
	s := fmt.Sprintf("%.2f", *v)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}

// TimeAgo renders a relative label for the source's last_update timestamp,
// or the placeholder when it is absent or unparseable.
func TimeAgo(iso string, now time.Time) string {
	if iso == "" {
		return Placeholder
	}
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return Placeholder
	}
	s := int(now.Sub(ts).Seconds())
	if s < 0 {
		s = 0
	}
	if s < 60 {
		return fmt.Sprintf("hace %ds", s)
	}
	m := s / 60
	if m < 60 {
		return fmt.Sprintf("hace %d min", m)
	}
	return fmt.Sprintf("hace %d h", m/60)
}

// QuoteLine is the shareable one-line summary of a quote.
func QuoteLine(t rates.Type, q rates.QuoteNow) string {
	return fmt.Sprintf("%s — Compra: $%s · Venta: $%s · Promedio: $%s",
		TypeLabel(t), FormatAmount(q.Buy), FormatAmount(q.Sell), FormatAmount(q.Avg))
}
