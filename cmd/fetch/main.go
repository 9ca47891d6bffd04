// Command fetch runs one fetch-normalize cycle and prints the current quote
// and the history series for the selected rate type.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/JuanManuel1970/dolar/internal/config"
	"github.com/JuanManuel1970/dolar/internal/dashboard"
	"github.com/JuanManuel1970/dolar/internal/gateway"
	"github.com/JuanManuel1970/dolar/internal/httpx"
	"github.com/JuanManuel1970/dolar/internal/logx"
	"github.com/JuanManuel1970/dolar/internal/rates"
	"github.com/JuanManuel1970/dolar/internal/source/bluelytics"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	var (
		typeFlag   string
		daysFlag   int
		jsonFlag   bool
		configPath string
	)
	flag.StringVar(&typeFlag, "type", "", "rate type: blue or oficial (default from config)")
	flag.IntVar(&daysFlag, "days", 0, "history window in days: 7, 30, 60 or 90 (default from config)")
	flag.BoolVar(&jsonFlag, "json", false, "print the raw view state as JSON")
	flag.StringVar(&configPath, "config", os.Getenv("CONFIG_FILE"), "path to config.json (optional)")
	flag.Parse()

	log := logx.L()
	defer log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	if typeFlag == "" {
		typeFlag = cfg.Dashboard.DefaultType
	}
	if daysFlag == 0 {
		daysFlag = cfg.Dashboard.DefaultRangeDays
	}

	t, err := rates.ParseType(typeFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !rates.ValidRange(daysFlag) {
		fmt.Fprintf(os.Stderr, "days must be one of %v\n", rates.RangeOptions)
		os.Exit(2)
	}

	client := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	gw := gateway.New(client, cfg.Bluelytics.ProxyURL, log)
	src := bluelytics.New(bluelytics.Config{
		NowURL:     cfg.Bluelytics.NowURL,
		HistoryURL: cfg.Bluelytics.HistoryURL,
	}, gw)

	ctrl := dashboard.NewController(src, log, t, daysFlag)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = ctrl.Refresh(ctx)

	st := ctrl.State()
	if jsonFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(st)
		if st.Err != "" {
			os.Exit(1)
		}
		return
	}
	if st.Err != "" {
		fmt.Fprintln(os.Stderr, st.Err)
		os.Exit(1)
	}

	fmt.Printf("%s — %s\n", st.TypeLabel, dashboard.TimeAgo(st.LastUpdate, time.Now()))
	if st.Now != nil {
		fmt.Printf("  Compra:   $%s\n", dashboard.FormatAmount(st.Now.Buy))
		fmt.Printf("  Venta:    $%s\n", dashboard.FormatAmount(st.Now.Sell))
		fmt.Printf("  Promedio: $%s\n", dashboard.FormatAmount(st.Now.Avg))
		fmt.Println()
		fmt.Println(dashboard.QuoteLine(st.Type, *st.Now))
	}

	fmt.Printf("\nHistórico %d días — %s\n", st.RangeDays, st.TypeLabel)
	if len(st.History) == 0 {
		fmt.Println("  Sin datos.")
		return
	}
	for _, p := range st.History {
		fmt.Printf("  %s  compra $%-10s venta $%-10s promedio $%s\n",
			p.Date, dashboard.FormatAmount(p.Buy), dashboard.FormatAmount(p.Sell), dashboard.FormatAmount(p.Avg))
	}
}
