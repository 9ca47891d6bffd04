// Package cache decorates a Source with a short TTL so that a burst of
// dashboard refreshes does not hammer the upstream API. Concurrent refreshes
// of the same key are coalesced into a single upstream call. Errors are
// propagated rather than papered over with expired entries: the tracker
// prefers no data over stale data.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/JuanManuel1970/dolar/internal/source"
	"golang.org/x/sync/singleflight"
)

type latestEntry struct {
	expiresAt time.Time
	snap      rates.Snapshot
}

type historyEntry struct {
	expiresAt time.Time
	series    rates.HistorySeries
}

// Source caches Latest per rate type and History per (rate type, range).
type Source struct {
	S   source.Source
	TTL time.Duration

	mu      sync.RWMutex
	latest  map[rates.Type]latestEntry
	history map[string]historyEntry
	sf      singleflight.Group
}

func (c *Source) Name() string { return c.S.Name() }

func (c *Source) Latest(ctx context.Context, t rates.Type) (rates.Snapshot, error) {
	if c.TTL <= 0 {
		return c.S.Latest(ctx, t)
	}

	c.mu.RLock()
	e, ok := c.latest[t]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.snap, nil
	}

	v, err, _ := c.sf.Do("latest:"+string(t), func() (any, error) {
		snap, err := c.S.Latest(ctx, t)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.latest == nil {
			c.latest = make(map[rates.Type]latestEntry)
		}
		c.latest[t] = latestEntry{expiresAt: time.Now().Add(c.TTL), snap: snap}
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return rates.Snapshot{}, err
	}
	return v.(rates.Snapshot), nil
}

func (c *Source) History(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error) {
	if c.TTL <= 0 {
		return c.S.History(ctx, t, rangeDays)
	}

	key := fmt.Sprintf("history:%s:%d", t, rangeDays)

	c.mu.RLock()
	e, ok := c.history[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.series, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		series, err := c.S.History(ctx, t, rangeDays)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.history == nil {
			c.history = make(map[string]historyEntry)
		}
		c.history[key] = historyEntry{expiresAt: time.Now().Add(c.TTL), series: series}
		c.mu.Unlock()
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(rates.HistorySeries), nil
}
