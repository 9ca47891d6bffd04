// Package source defines the boundary between the dashboard and the quote
// backends.
package source

import (
	"context"

	"github.com/JuanManuel1970/dolar/internal/rates"
)

// Source delivers normalized quote data for one rate type. Implementations
// absorb payload irregularities themselves; an error means transport
// failure, never a malformed-but-parseable payload.
type Source interface {
	Name() string
	Latest(ctx context.Context, t rates.Type) (rates.Snapshot, error)
	History(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error)
}
