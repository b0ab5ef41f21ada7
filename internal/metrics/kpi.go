package metrics

import (
	"math"
	"sort"

	"mt4-report-analyzer/internal/currency"

	"go.uber.org/zap"
)

// safeDiv returns num/den, or 0 with a warning when den is zero.
func (e *Engine) safeDiv(kpi string, num, den float64) float64 {
	if den == 0 {
		e.logger.Warn("Zero division, returning 0", zap.String("kpi", kpi))
		return 0
	}
	return num / den
}

// Currency returns the account currency code.
func (e *Engine) Currency() string {
	return e.currency
}

// CurrencySymbol returns the display sign of the account currency.
func (e *Engine) CurrencySymbol() string {
	return currency.Symbol(e.currency)
}

// NTrades returns the number of trades.
func (e *Engine) NTrades() int {
	return len(e.rows)
}

// NTradesWon returns the number of trades with a positive profit.
func (e *Engine) NTradesWon() int {
	n := 0
	for _, r := range e.rows {
		if r.Won {
			n++
		}
	}
	return n
}

// NTradesLoss returns the number of trades that were not won, break-even included.
func (e *Engine) NTradesLoss() int {
	return e.NTrades() - e.NTradesWon()
}

func (e *Engine) WinRate() float64 {
	return e.safeDiv("win_rate", float64(e.NTradesWon()), float64(e.NTrades()))
}

// GrossRevenue is the sum of the profit of winning trades.
func (e *Engine) GrossRevenue() float64 {
	var sum float64
	for _, r := range e.rows {
		if r.Won {
			sum += r.Profit
		}
	}
	return sum
}

// GrossLoss is the sum of the profit of trades that were not won.
func (e *Engine) GrossLoss() float64 {
	var sum float64
	for _, r := range e.rows {
		if !r.Won {
			sum += r.Profit
		}
	}
	return sum
}

func (e *Engine) NetIncome() float64 {
	return e.GrossRevenue() + e.GrossLoss()
}

// Expectancy is the average outcome of a trade.
func (e *Engine) Expectancy() float64 {
	return e.safeDiv("expectancy", e.NetIncome(), float64(e.NTrades()))
}

func (e *Engine) AvgWin() float64 {
	return e.safeDiv("avg_win", e.GrossRevenue(), float64(e.NTradesWon()))
}

func (e *Engine) AvgLoss() float64 {
	return e.safeDiv("avg_loss", e.GrossLoss(), float64(e.NTradesLoss()))
}

// AvgWinOverLoss is the ratio of the average win to the average loss.
// It is negative whenever there are losses.
func (e *Engine) AvgWinOverLoss() float64 {
	return e.safeDiv("avg_win_over_loss", e.AvgWin(), e.AvgLoss())
}

func (e *Engine) ProfitFactor() float64 {
	return math.Abs(e.safeDiv("profit_factor", e.GrossRevenue(), e.GrossLoss()))
}

// PerfectEfficiencyIncome is the income had every trade closed at its best price.
func (e *Engine) PerfectEfficiencyIncome() float64 {
	var sum float64
	for _, r := range e.rows {
		sum += r.MaxPossibleGain
	}
	return sum
}

// Efficiency is the share of the perfect income actually earned by winning trades.
func (e *Engine) Efficiency() float64 {
	return e.safeDiv("efficiency", e.GrossRevenue(), e.PerfectEfficiencyIncome())
}

// MostTraded returns the most frequent symbol, the alphabetically first on ties.
func (e *Engine) MostTraded() string {
	counts := make(map[string]int)
	for _, r := range e.rows {
		counts[r.Symbol]++
	}
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	best := ""
	for _, s := range symbols {
		if best == "" || counts[s] > counts[best] {
			best = s
		}
	}
	return best
}

func (e *Engine) ConsecutiveWins() int {
	return e.longestStreak(true)
}

func (e *Engine) ConsecutiveLosses() int {
	return e.longestStreak(false)
}

func (e *Engine) longestStreak(won bool) int {
	longest, streak := 0, 0
	for _, r := range e.rows {
		if r.Won != won {
			streak = 0
			continue
		}
		streak++
		longest = max(longest, streak)
	}
	return longest
}

// LargestEarningTrade returns the highest profit, 0 without trades.
func (e *Engine) LargestEarningTrade() float64 {
	if len(e.rows) == 0 {
		return 0
	}
	m := e.rows[0].Profit
	for _, r := range e.rows[1:] {
		m = math.Max(m, r.Profit)
	}
	return m
}

// LargestLossTrade returns the lowest profit, 0 without trades.
func (e *Engine) LargestLossTrade() float64 {
	if len(e.rows) == 0 {
		return 0
	}
	m := e.rows[0].Profit
	for _, r := range e.rows[1:] {
		m = math.Min(m, r.Profit)
	}
	return m
}

// StdProfit is the sample standard deviation of profit, 0 with fewer than two trades.
func (e *Engine) StdProfit() float64 {
	n := len(e.rows)
	if n < 2 {
		return 0
	}
	avg := mean(e.Profits())
	var ss float64
	for _, r := range e.rows {
		d := r.Profit - avg
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// MaxRunup is the largest rise of the cumulative profit above its running minimum.
func (e *Engine) MaxRunup() float64 {
	return e.maxRun(false)
}

// MaxDrawdown is the largest fall of the cumulative profit, as a negative number.
func (e *Engine) MaxDrawdown() float64 {
	if run := e.maxRun(true); run > 0 {
		return -run
	}
	return 0
}

// maxRun scans the cumulative profit once. With drawdown set the curve is
// mirrored so the same scan finds the deepest fall.
func (e *Engine) maxRun(drawdown bool) float64 {
	sign := 1.0
	if drawdown {
		sign = -1
	}
	var low, run float64
	for _, r := range e.rows {
		v := sign * r.CumProfit
		if v < low {
			low = v
		} else if v-low > run {
			run = v - low
		}
	}
	return run
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
