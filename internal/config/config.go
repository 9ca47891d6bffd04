// Package config loads tracker settings from an optional JSON file with
// environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

type Bluelytics struct {
	NowURL                string `json:"now_url"`
	HistoryURL            string `json:"history_url"`
	ProxyURL              string `json:"proxy_url"`
	CacheTTLSeconds       int    `json:"cache_ttl_sec"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	Burst                 int    `json:"burst"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Dashboard struct {
	DefaultType      string `json:"default_type"`
	DefaultRangeDays int    `json:"default_range_days"`
}

type Config struct {
	Server     Server     `json:"server"`
	Bluelytics Bluelytics `json:"bluelytics"`
	Dashboard  Dashboard  `json:"dashboard"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		Bluelytics: Bluelytics{
			NowURL:          "https://api.bluelytics.com.ar/v2/latest",
			HistoryURL:      "https://api.bluelytics.com.ar/v2/evolution.json",
			ProxyURL:        "https://api.allorigins.win/raw?url=",
			CacheTTLSeconds: 60,
		},
		Dashboard: Dashboard{DefaultType: "blue", DefaultRangeDays: 60},
	}
}

// Load reads JSON config from path. If path is empty or the file does not
// exist, it returns defaults. Environment variables override select fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("BLUELYTICS_NOW_URL"); v != "" {
		cfg.Bluelytics.NowURL = v
	}
	if v := os.Getenv("BLUELYTICS_HISTORY_URL"); v != "" {
		cfg.Bluelytics.HistoryURL = v
	}
	if v := os.Getenv("CORS_PROXY_URL"); v != "" {
		cfg.Bluelytics.ProxyURL = v
	}
	if v := os.Getenv("BLUELYTICS_CACHE_TTL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Bluelytics.CacheTTLSeconds = x
		}
	}
	if v := os.Getenv("BLUELYTICS_MAX_RPM"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Bluelytics.MaxRequestsPerMinute = x
		}
	}
	if v := os.Getenv("BLUELYTICS_BURST"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Bluelytics.Burst = x
		}
	}
	if v := os.Getenv("BLUELYTICS_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.Bluelytics.MinRequestIntervalSec = x
		}
	}
	if v := os.Getenv("DEFAULT_TYPE"); v != "" {
		cfg.Dashboard.DefaultType = v
	}
	if v := os.Getenv("DEFAULT_RANGE_DAYS"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Dashboard.DefaultRangeDays = x
		}
	}
}
