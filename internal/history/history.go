package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mt4-report-analyzer/internal/currency"
	"mt4-report-analyzer/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DateLayout is the timestamp layout used by the statement.
const DateLayout = "2006.01.02 15:04:05"

const (
	minTradeCells   = 14
	minBalanceCells = 5
	balanceKeyword  = "balance"
)

var (
	// ErrMissingCurrency is returned when the account header has no currency.
	ErrMissingCurrency = errors.New("account currency not found in report")
	// ErrMalformedBalance is returned when a balance row cannot be converted.
	// Balance rows are not best effort: they feed account reconciliation.
	ErrMalformedBalance = errors.New("malformed balance row")
)

// OperationsSource provides the raw rows and account header of a statement.
// It is implemented by *report.Parser.
type OperationsSource interface {
	Operations() ([][]string, error)
	AccountInfo() (map[string]string, error)
}

// TradeHistory owns the trades and balances read from one statement.
type TradeHistory struct {
	trades   []*models.Trade
	balances []models.Balance
	currency string
}

// Builder turns raw statement rows into a TradeHistory.
type Builder struct {
	logger   *zap.Logger
	validate *validator.Validate
}

// NewBuilder creates a new Builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{
		logger:   logger.Named("history"),
		validate: validator.New(),
	}
}

// Build reads every operation of src. Malformed trade rows and truncated
// balance rows are skipped with a warning; a balance row whose date or amount
// can't be converted, or a structural report error, aborts the build.
func (b *Builder) Build(src OperationsSource) (*TradeHistory, error) {
	info, err := src.AccountInfo()
	if err != nil {
		return nil, err
	}
	cur := strings.ToUpper(info["currency"])
	if cur == "" {
		return nil, ErrMissingCurrency
	}

	rows, err := src.Operations()
	if err != nil {
		return nil, err
	}

	h := &TradeHistory{currency: cur}
	for _, row := range rows {
		switch {
		case isTrade(row):
			if trade, ok := b.parseTrade(row); ok {
				h.trades = append(h.trades, trade)
			}
		case isBalance(row):
			if len(row) < minBalanceCells {
				b.logger.Warn("Skipping malformed balance row (too few columns)",
					zap.Strings("row", row),
					zap.Int("columns", len(row)),
				)
				continue
			}
			balance, err := b.parseBalance(row)
			if err != nil {
				return nil, err
			}
			h.balances = append(h.balances, balance)
		}
	}

	h.stampBalanceTypes()
	h.stampDurations()
	h.stampPairs()

	b.logger.Info("Trade history built",
		zap.String("currency", h.currency),
		zap.Int("trades", len(h.trades)),
		zap.Int("balances", len(h.balances)),
	)
	return h, nil
}

func isTrade(row []string) bool {
	if len(row) < 3 {
		return false
	}
	side := strings.ToLower(strings.TrimSpace(row[2]))
	return side == models.OrderTypeBuy || side == models.OrderTypeSell
}

func isBalance(row []string) bool {
	return len(row) >= 3 && strings.ToLower(strings.TrimSpace(row[2])) == balanceKeyword
}

func (b *Builder) parseTrade(row []string) (*models.Trade, bool) {
	l := b.logger.With(zap.Strings("row", row))
	if len(row) < minTradeCells {
		l.Warn("Skipping malformed trade row (too few columns)", zap.Int("columns", len(row)))
		return nil, false
	}

	c := &cellReader{row: row}
	trade := &models.Trade{
		Order:      c.parseInt(0),
		OpenTime:   c.parseTime(1),
		OrderType:  strings.ToLower(strings.TrimSpace(row[2])),
		Volume:     c.parseFloat(3),
		Symbol:     strings.ToUpper(strings.TrimSpace(row[4])),
		OpenPrice:  c.parseFloat(5),
		StopLoss:   c.parseOptionalFloat(6),
		TakeProfit: c.parseOptionalFloat(7),
		CloseTime:  c.parseTime(8),
		ClosePrice: c.parseFloat(9),
		Commission: c.parseFloat(10),
		Taxes:      c.parseFloat(11),
		Swap:       c.parseFloat(12),
		Profit:     c.parseFloat(13),
	}
	if c.err != nil {
		l.Warn("Failed to parse trade row", zap.Error(c.err))
		return nil, false
	}
	if err := b.validate.Struct(trade); err != nil {
		l.Warn("Skipping invalid trade row", zap.Error(err))
		return nil, false
	}

	trade.ResetHighLow()
	return trade, true
}

// parseBalance expects at least minBalanceCells cells.
func (b *Builder) parseBalance(row []string) (models.Balance, error) {
	c := &cellReader{row: row}
	balance := models.Balance{
		Order: c.parseInt(0),
		Date:  c.parseTime(1),
	}
	if c.err != nil {
		return models.Balance{}, fmt.Errorf("%w: %v", ErrMalformedBalance, c.err)
	}

	amount, err := ParseAmount(row[4])
	if err != nil {
		return models.Balance{}, fmt.Errorf("%w: %v", ErrMalformedBalance, err)
	}
	balance.Amount = amount
	if err := b.validate.Struct(balance); err != nil {
		return models.Balance{}, fmt.Errorf("%w: %v", ErrMalformedBalance, err)
	}
	return balance, nil
}

// ParseAmount converts a money cell using spaces as thousand separators,
// e.g. "10 000.00" -> 10000.
func ParseAmount(s string) (float64, error) {
	clean := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("amount %q can't be converted to a number: %w", s, err)
	}
	return d.InexactFloat64(), nil
}

func (h *TradeHistory) stampBalanceTypes() {
	for i := range h.balances {
		h.balances[i].BalanceType = models.BalanceTypeOf(h.balances[i].Amount)
	}
}

func (h *TradeHistory) stampDurations() {
	for _, t := range h.trades {
		t.Duration = t.CloseTime.Sub(t.OpenTime)
	}
}

func (h *TradeHistory) stampPairs() {
	for _, t := range h.trades {
		t.Base, t.Quote = currency.SplitPair(t.Symbol)
	}
}

// Currency returns the account currency code, e.g. "USD".
func (h *TradeHistory) Currency() string {
	return h.currency
}

// Trades returns every trade of the statement. The trades are owned by the
// history; only High, Low and Enriched are meant to be updated by callers.
func (h *TradeHistory) Trades() []*models.Trade {
	return h.trades
}

// Balances returns a copy of the deposit and withdrawal operations.
func (h *TradeHistory) Balances() []models.Balance {
	out := make([]models.Balance, len(h.balances))
	copy(out, h.balances)
	return out
}

// ForexTrades returns the trades whose base and quote are both recognized currencies.
func (h *TradeHistory) ForexTrades() []*models.Trade {
	out := make([]*models.Trade, 0, len(h.trades))
	for _, t := range h.trades {
		if currency.IsCode(t.Base) && currency.IsCode(t.Quote) {
			out = append(out, t)
		}
	}
	return out
}

// cellReader converts cells of one row and keeps the first conversion error.
type cellReader struct {
	row []string
	err error
}

func (c *cellReader) cell(i int) string {
	return strings.TrimSpace(c.row[i])
}

func (c *cellReader) fail(i int, err error) {
	if c.err == nil {
		c.err = fmt.Errorf("column %d (%q): %w", i, c.row[i], err)
	}
}

func (c *cellReader) parseInt(i int) int64 {
	v, err := strconv.ParseInt(c.cell(i), 10, 64)
	if err != nil {
		c.fail(i, err)
	}
	return v
}

func (c *cellReader) parseFloat(i int) float64 {
	v, err := strconv.ParseFloat(c.cell(i), 64)
	if err != nil {
		c.fail(i, err)
	}
	return v
}

// parseOptionalFloat treats an empty or zero cell as "not set".
func (c *cellReader) parseOptionalFloat(i int) *float64 {
	if c.cell(i) == "" {
		return nil
	}
	v := c.parseFloat(i)
	if v == 0 {
		return nil
	}
	return &v
}

func (c *cellReader) parseTime(i int) time.Time {
	v, err := time.Parse(DateLayout, c.cell(i))
	if err != nil {
		c.fail(i, err)
	}
	return v
}
