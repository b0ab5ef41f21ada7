package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"mt4-report-analyzer/internal/config"
	"mt4-report-analyzer/internal/database"
	"mt4-report-analyzer/internal/history"
	"mt4-report-analyzer/internal/logger"
	"mt4-report-analyzer/internal/metrics"
	"mt4-report-analyzer/internal/report"
	"mt4-report-analyzer/internal/tradermade"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const rangeLayout = "2006-01-02"

func main() {
	flags := pflag.NewFlagSet("analyzer", pflag.ExitOnError)
	configDir := flags.String("config", "./configs", "directory containing config.yml")
	flags.String("report", "", "path to the detailed statement (.htm)")
	flags.Bool("enrich", true, "complete trade high/low with market data")
	flags.String("snapshot-db", "", "sqlite DSN where trade histories are stored")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	snapshotID := flags.Uint("snapshot", 0, "analyze a stored snapshot instead of parsing a report")
	from := flags.String("from", "", "only analyze trades opened on or after this date (YYYY-MM-DD)")
	to := flags.String("to", "", "only analyze trades closed before the end of this date (YYYY-MM-DD)")
	income := flags.String("income", "monthly", "income by period frequency: weekly, monthly or yearly")
	_ = flags.Parse(os.Args[1:])

	// Load application configuration
	cfg, err := config.LoadConfig(*configDir, flags)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := database.NewSnapshotStore(db, log)

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var h *history.TradeHistory
	if *snapshotID != 0 {
		h, err = store.Load(*snapshotID)
		if err != nil {
			log.Fatal("Failed to load snapshot", zap.Uint("id", *snapshotID), zap.Error(err))
		}
	} else {
		h, err = buildHistory(ctx, &cfg, log)
		if err != nil {
			log.Fatal("Failed to read report", zap.String("path", cfg.Report.Path), zap.Error(err))
		}
		if _, err := store.Save(h, filepath.Base(cfg.Report.Path)); err != nil {
			log.Error("Failed to store snapshot", zap.Error(err))
		}
	}

	engine := metrics.FromHistory(h, &cfg.Metrics, log)
	if *from != "" || *to != "" {
		start, end, err := parseRange(*from, *to)
		if err != nil {
			log.Fatal("Invalid date range", zap.Error(err))
		}
		engine = engine.Between(start, end)
		log.Info("Restricted to date range", zap.Time("from", start), zap.Time("to", end))
	}

	printReport(log, engine, metrics.Frequency(*income))
}

// buildHistory parses the configured report and, when possible, enriches its
// forex trades with market data.
func buildHistory(ctx context.Context, cfg *config.Config, log *zap.Logger) (*history.TradeHistory, error) {
	parser, err := report.FromFile(cfg.Report.Path, log)
	if err != nil {
		return nil, err
	}
	h, err := history.NewBuilder(log).Build(parser)
	if err != nil {
		return nil, err
	}

	switch {
	case !cfg.Report.Enrich:
		log.Info("Enrichment disabled, high/low are taken from open and close prices")
	case cfg.TraderMade.ApiKey == "":
		log.Warn("No TraderMade API key (TM_API_KEY), high/low are taken from open and close prices")
	default:
		client := tradermade.NewRestClient(&cfg.TraderMade, log)
		if _, err := tradermade.NewEnricher(client, log).CompleteHighLow(ctx, h.ForexTrades()); err != nil {
			return nil, fmt.Errorf("enrichment interrupted: %w", err)
		}
	}
	return h, nil
}

func parseRange(from, to string) (start, end time.Time, err error) {
	start = time.Time{}
	end = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if from != "" {
		if start, err = time.Parse(rangeLayout, from); err != nil {
			return
		}
	}
	if to != "" {
		if end, err = time.Parse(rangeLayout, to); err != nil {
			return
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	if end.Before(start) {
		err = fmt.Errorf("range end %s is before start %s", to, from)
	}
	return
}

func printReport(log *zap.Logger, engine *metrics.Engine, freq metrics.Frequency) {
	for _, kpi := range engine.Report() {
		log.Info("KPI", zap.String("name", kpi.Name), zap.Any("value", kpi.Value))
	}

	lower, upper, msg := engine.ProfitCI()
	log.Info("Mean profit confidence interval",
		zap.Float64("lower", lower),
		zap.Float64("upper", upper),
		zap.String("note", msg),
	)
	lower, upper, msg = engine.WinningProfitCI()
	log.Info("Mean winning profit confidence interval",
		zap.Float64("lower", lower),
		zap.Float64("upper", upper),
		zap.String("note", msg),
	)

	table := engine.IncomeByPeriod(metrics.ColumnSymbol, freq)
	for i, period := range table.Periods {
		fields := []zap.Field{zap.String("period", period.Format(rangeLayout))}
		for j, column := range table.Columns {
			fields = append(fields, zap.Float64(column, table.Values[i][j]))
		}
		log.Info("Income by period", fields...)
	}
}
