package tradermade

import (
	"context"
	"math"
	"time"

	"mt4-report-analyzer/internal/models"

	"go.uber.org/zap"
)

const (
	fieldHigh = "high"
	fieldLow  = "low"
)

// Summary counts the outcome of an enrichment run.
type Summary struct {
	Enriched int
	Fallback int
	Skipped  int
}

// Enricher completes the High and Low of trades with the extremes reached
// while they were open.
type Enricher struct {
	client RestClientInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewEnricher creates a new Enricher.
func NewEnricher(client RestClientInterface, logger *zap.Logger) *Enricher {
	return &Enricher{
		client: client,
		logger: logger.Named("enricher"),
		now:    time.Now,
	}
}

// CompleteHighLow queries the price history of every trade, one request at a
// time. A failed or empty query is not an error: the trade falls back to the
// extremes of its open and close prices. Only a cancelled ctx stops the run.
func (e *Enricher) CompleteHighLow(ctx context.Context, trades []*models.Trade) (Summary, error) {
	var s Summary
	now := e.now()

	for _, t := range trades {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if t.Enriched {
			s.Skipped++
			continue
		}

		l := e.logger.With(zap.Int64("order", t.Order), zap.String("symbol", t.Symbol))
		params := NewTimeSeriesParams(t, now)
		series, err := e.client.TimeSeries(ctx, params, fieldHigh, fieldLow)
		if err != nil && ctx.Err() != nil {
			return s, ctx.Err()
		}

		switch {
		case err != nil:
			l.Warn("Failed to fetch high/low, using open and close prices", zap.Error(err))
			t.ResetHighLow()
			s.Fallback++
		case len(series[fieldHigh]) == 0 || len(series[fieldLow]) == 0:
			l.Warn("No data for trade, using open and close prices")
			t.ResetHighLow()
			s.Fallback++
		default:
			t.High = math.Max(maxOf(series[fieldHigh]), math.Max(t.OpenPrice, t.ClosePrice))
			t.Low = math.Min(minOf(series[fieldLow]), math.Min(t.OpenPrice, t.ClosePrice))
			s.Enriched++
		}
		t.Enriched = true
	}

	e.logger.Info("High/low enrichment finished",
		zap.Int("enriched", s.Enriched),
		zap.Int("fallback", s.Fallback),
		zap.Int("skipped", s.Skipped),
	)
	return s, nil
}

func maxOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Max(m, x)
	}
	return m
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		m = math.Min(m, x)
	}
	return m
}
