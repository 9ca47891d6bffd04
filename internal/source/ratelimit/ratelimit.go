// Package ratelimit gates calls to a Source so the public API behind it is
// not hit more often than configured.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/JuanManuel1970/dolar/internal/source"
)

// MinInterval wraps a Source and enforces a minimum time between upstream
// calls. Concurrent calls wait until the interval has elapsed since the last
// one, or return early if the context is canceled.
type MinInterval struct {
	S        source.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Latest(ctx context.Context, t rates.Type) (rates.Snapshot, error) {
	if err := m.wait(ctx); err != nil {
		return rates.Snapshot{}, err
	}
	snap, err := m.S.Latest(ctx, t)
	m.mark()
	return snap, err
}

func (m *MinInterval) History(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	series, err := m.S.History(ctx, t, rangeDays)
	m.mark()
	return series, err
}

func (m *MinInterval) wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	wait := time.Until(m.last.Add(m.Interval))
	m.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MinInterval) mark() {
	if m.Interval <= 0 {
		return
	}
	m.mu.Lock()
	m.last = time.Now()
	m.mu.Unlock()
}
