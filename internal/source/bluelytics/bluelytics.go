// Package bluelytics adapts the Bluelytics public API to the Source
// interface. The API needs no key; both endpoints are plain GETs and the
// response shapes are handled by the rates package.
package bluelytics

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JuanManuel1970/dolar/internal/rates"
)

const (
	DefaultNowURL     = "https://api.bluelytics.com.ar/v2/latest"
	DefaultHistoryURL = "https://api.bluelytics.com.ar/v2/evolution.json"
)

// Fetcher describes the fetch capability the source depends on.
//
//go:generate mockgen -package=bluelytics_test -destination=mock_fetcher_test.go -source=bluelytics.go Fetcher
type Fetcher interface {
	JSON(ctx context.Context, url string) (json.RawMessage, error)
}

// Config controls the Bluelytics source behavior.
type Config struct {
	Name       string
	NowURL     string
	HistoryURL string
}

type Source struct {
	cfg   Config
	fetch Fetcher
}

func New(cfg Config, f Fetcher) *Source {
	if cfg.Name == "" {
		cfg.Name = "Bluelytics"
	}
	if cfg.NowURL == "" {
		cfg.NowURL = DefaultNowURL
	}
	if cfg.HistoryURL == "" {
		cfg.HistoryURL = DefaultHistoryURL
	}
	return &Source{cfg: cfg, fetch: f}
}

func (s *Source) Name() string { return s.cfg.Name }

// Latest fetches the quote endpoint and normalizes it for one rate type.
func (s *Source) Latest(ctx context.Context, t rates.Type) (rates.Snapshot, error) {
	raw, err := s.fetch.JSON(ctx, s.cfg.NowURL)
	if err != nil {
		return rates.Snapshot{}, fmt.Errorf("bluelytics: latest: %w", err)
	}
	return rates.Snapshot{
		QuoteNow:   rates.NormalizeNow(raw, t),
		LastUpdate: rates.LastUpdate(raw),
	}, nil
}

// History fetches the evolution endpoint and normalizes it for one rate
// type, keeping the trailing rangeDays points.
func (s *Source) History(ctx context.Context, t rates.Type, rangeDays int) (rates.HistorySeries, error) {
	raw, err := s.fetch.JSON(ctx, s.cfg.HistoryURL)
	if err != nil {
		return nil, fmt.Errorf("bluelytics: history: %w", err)
	}
	return rates.NormalizeHistory(raw, t, rangeDays), nil
}
