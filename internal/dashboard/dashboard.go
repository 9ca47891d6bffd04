// Package dashboard owns the single view state of the tracker: the current
// selection, the latest quote, the history series and the loading/error
// flags, plus the display helpers shared by the front-ends.
package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/JuanManuel1970/dolar/internal/source"
	"go.uber.org/zap"
)

// ErrMessage is the single user-facing failure message. Transport detail
// stays in the logs.
const ErrMessage = "No se pudo cargar la información. Probá más tarde."

// State is one consistent snapshot of the view. On failure Now is nil and
// History is empty: stale values are never left behind.
type State struct {
	Type       rates.Type          `json:"type"`
	TypeLabel  string              `json:"type_label"`
	RangeDays  int                 `json:"range_days"`
	Now        *rates.QuoteNow     `json:"now"`
	LastUpdate string              `json:"last_update,omitempty"`
	History    rates.HistorySeries `json:"history"`
	Loading    bool                `json:"loading"`
	Err        string              `json:"error,omitempty"`
}

// Controller runs fetch-normalize cycles against a Source and applies the
// results to the state. A selection change while a cycle is in flight starts
// a new cycle without canceling the old one; the generation counter makes
// the overtaken cycle discard its results instead of overwriting fresher
// state.
type Controller struct {
	src source.Source
	log *zap.Logger

	gen   atomic.Uint64
	mu    sync.Mutex
	state State
}

func NewController(src source.Source, log *zap.Logger, t rates.Type, rangeDays int) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{src: src, log: log}
	c.state = State{
		Type:      t,
		TypeLabel: TypeLabel(t),
		RangeDays: rangeDays,
		History:   rates.HistorySeries{},
	}
	return c
}

// State returns a snapshot of the view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select applies a new (type, range) selection and refreshes.
func (c *Controller) Select(ctx context.Context, t rates.Type, rangeDays int) error {
	if !rates.ValidRange(rangeDays) {
		return fmt.Errorf("range must be one of %v, got %d", rates.RangeOptions, rangeDays)
	}
	c.mu.Lock()
	c.state.Type = t
	c.state.TypeLabel = TypeLabel(t)
	c.state.RangeDays = rangeDays
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh runs one cycle: the latest quote first, then the history, applied
// together. Any failure clears both and sets the error message.
func (c *Controller) Refresh(ctx context.Context) error {
	gen := c.gen.Add(1)

	c.mu.Lock()
	t, days := c.state.Type, c.state.RangeDays
	c.state.Loading = true
	c.mu.Unlock()

	snap, err := c.src.Latest(ctx, t)
	var hist rates.HistorySeries
	if err == nil {
		hist, err = c.src.History(ctx, t, days)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen.Load() {
		// A newer cycle started while this one was in flight.
		c.log.Debug("discarding overtaken cycle", zap.Uint64("gen", gen))
		return nil
	}
	c.state.Loading = false
	if err != nil {
		c.log.Warn("refresh failed",
			zap.String("source", c.src.Name()),
			zap.String("type", string(t)),
			zap.Error(err))
		c.state.Now = nil
		c.state.LastUpdate = ""
		c.state.History = rates.HistorySeries{}
		c.state.Err = ErrMessage
		return err
	}
	if hist == nil {
		hist = rates.HistorySeries{}
	}
	q := snap.QuoteNow
	c.state.Now = &q
	c.state.LastUpdate = snap.LastUpdate
	c.state.History = hist
	c.state.Err = ""
	return nil
}
