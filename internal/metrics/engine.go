// Package metrics derives per-trade analytics and account level KPIs from a
// closed trade history.
package metrics

import (
	"math"
	"sort"
	"strings"
	"time"

	"mt4-report-analyzer/internal/config"
	"mt4-report-analyzer/internal/currency"
	"mt4-report-analyzer/internal/history"
	"mt4-report-analyzer/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// lot is the number of base currency units in one standard lot.
	lot = 1e5

	pipScale    = 1e4
	jpyPipScale = 1e2
)

// Default bootstrap parameters, used when no metrics configuration is given.
const (
	DefaultBootstrapIterations = 10000
	DefaultConfidenceLevel     = 95
)

// Row is a trade together with the columns derived from it.
type Row struct {
	models.Trade
	MaxPossibleGain float64 `json:"max_possible_gain"`
	MaxPossibleLoss float64 `json:"max_possible_loss"`
	CumProfit       float64 `json:"cum_profit"`
	DayOfWeek       string  `json:"day_of_week"`
	Won             bool    `json:"won_trade"`
	Pips            int     `json:"pips"`
}

// Engine holds the analytics table of a trade history. The table is computed
// once in NewEngine and never modified afterwards, so an Engine may be shared
// between goroutines.
type Engine struct {
	rows     []Row
	balances []models.Balance
	currency string
	cfg      config.Metrics
	logger   *zap.Logger
}

// NewEngine builds the analytics table. The trades are copied and sorted by
// close time; balances are kept for reconciliation only. cfg may be nil.
func NewEngine(trades []*models.Trade, balances []models.Balance, accountCurrency string, cfg *config.Metrics, logger *zap.Logger) *Engine {
	return newEngine(trades, balances, accountCurrency, cfg, logger.Named("metrics"))
}

func newEngine(trades []*models.Trade, balances []models.Balance, accountCurrency string, cfg *config.Metrics, logger *zap.Logger) *Engine {
	e := &Engine{
		rows:     make([]Row, 0, len(trades)),
		balances: append([]models.Balance(nil), balances...),
		currency: strings.ToUpper(accountCurrency),
		logger:   logger,
	}
	if cfg != nil {
		e.cfg = *cfg
	}
	if e.cfg.BootstrapIterations < 1 {
		e.cfg.BootstrapIterations = DefaultBootstrapIterations
	}
	if e.cfg.ConfidenceLevel <= 0 {
		e.cfg.ConfidenceLevel = DefaultConfidenceLevel
	}

	for _, t := range trades {
		e.rows = append(e.rows, Row{Trade: *t})
	}
	sort.SliceStable(e.rows, func(i, j int) bool {
		return e.rows[i].CloseTime.Before(e.rows[j].CloseTime)
	})

	e.completeRows()
	e.logger.Debug("Metrics table built", zap.Int("rows", len(e.rows)), zap.String("currency", e.currency))
	return e
}

// FromHistory builds an Engine over the forex trades of h.
func FromHistory(h *history.TradeHistory, cfg *config.Metrics, logger *zap.Logger) *Engine {
	return NewEngine(h.ForexTrades(), h.Balances(), h.Currency(), cfg, logger)
}

// completeRows fills the derived columns. Later columns may depend on earlier ones.
func (e *Engine) completeRows() {
	var cum float64
	for i := range e.rows {
		r := &e.rows[i]
		r.MaxPossibleGain = e.maxPossible(r, false)
		r.MaxPossibleLoss = e.maxPossible(r, true)
		cum += r.Profit
		r.CumProfit = cum
		r.DayOfWeek = currency.Weekday(r.CloseTime.Weekday())
		r.Won = r.Profit > 0
		r.Pips = pips(r)
	}
}

// maxPossible returns the profit the trade would have made if closed at its
// best (or, with loss set, worst) price, never less favorable than the
// realized profit and rounded to cents.
func (e *Engine) maxPossible(r *Row, loss bool) float64 {
	// buy: gain at high, loss at low. sell: the opposite.
	ref := r.High
	if (r.OrderType == models.OrderTypeSell) != loss {
		ref = r.Low
	}

	amount := e.profitAt(r, ref)
	rounded, profit := round2(amount), round2(r.Profit)
	if (!loss && rounded < profit) || (loss && rounded > profit) {
		e.logger.Warn("Max possible amount is less favorable than the realized profit, using profit",
			zap.Int64("order", r.Order),
			zap.Bool("loss", loss),
			zap.Float64("amount", rounded),
			zap.Float64("profit", r.Profit),
		)
		return profit
	}
	return rounded
}

// profitAt estimates the profit of closing the trade at price.
func (e *Engine) profitAt(r *Row, price float64) float64 {
	sign := 1.0
	if r.OrderType == models.OrderTypeSell {
		sign = -1
	}

	switch {
	case r.Quote == e.currency:
		return sign * lot * r.Volume * (price - r.OpenPrice)
	case r.Base == e.currency:
		if price == 0 {
			return r.Profit
		}
		return sign * lot * r.Volume * (price - r.OpenPrice) / price
	case r.Profit == 0:
		return r.Profit
	}

	// Neither side is the account currency. Scale the realized profit by the
	// price move (rule of three); the sign follows the realized profit.
	move := r.ClosePrice - r.OpenPrice
	if move == 0 {
		e.logger.Warn("Open and close prices are equal, can't estimate by rule of three",
			zap.Int64("order", r.Order),
			zap.Float64("price", r.OpenPrice),
		)
		return r.Profit
	}
	return r.Profit * (price - r.OpenPrice) / move
}

func pips(r *Row) int {
	scale := pipScale
	if strings.Contains(r.Symbol, "JPY") {
		scale = jpyPipScale
	}
	sign := -1.0
	if r.Won {
		sign = 1
	}
	return int(math.Round(sign * scale * math.Abs(r.ClosePrice-r.OpenPrice)))
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Rows returns a copy of the analytics table, ordered by close time.
func (e *Engine) Rows() []Row {
	out := make([]Row, len(e.rows))
	copy(out, e.rows)
	return out
}

// Balances returns a copy of the balance operations the engine was built with.
func (e *Engine) Balances() []models.Balance {
	out := make([]models.Balance, len(e.balances))
	copy(out, e.balances)
	return out
}

// Profits returns the realized profit of every trade, ordered by close time.
func (e *Engine) Profits() []float64 {
	out := make([]float64, len(e.rows))
	for i, r := range e.rows {
		out[i] = r.Profit
	}
	return out
}

// WinningProfits returns the profit of every winning trade.
func (e *Engine) WinningProfits() []float64 {
	out := make([]float64, 0, len(e.rows))
	for _, r := range e.rows {
		if r.Won {
			out = append(out, r.Profit)
		}
	}
	return out
}

// Between returns an independent Engine over the trades opened at or after
// start and closed at or before end. Balances are not carried over.
func (e *Engine) Between(start, end time.Time) *Engine {
	trades := make([]*models.Trade, 0, len(e.rows))
	for i := range e.rows {
		t := e.rows[i].Trade
		if !t.OpenTime.Before(start) && !t.CloseTime.After(end) {
			trades = append(trades, &t)
		}
	}
	cfg := e.cfg
	return newEngine(trades, nil, e.currency, &cfg, e.logger)
}
