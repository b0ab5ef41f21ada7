package metrics

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// Frequency is the bucket size of a period aggregation.
type Frequency string

const (
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// Categorical columns accepted by IncomeByPeriod and Categories.
const (
	ColumnSymbol    = "symbol"
	ColumnOrderType = "order_type"
	ColumnDayOfWeek = "day_of_week"

	profitSeries = "profit"
)

var categoryOf = map[string]func(r *Row) string{
	ColumnSymbol:    func(r *Row) string { return r.Symbol },
	ColumnOrderType: func(r *Row) string { return r.OrderType },
	ColumnDayOfWeek: func(r *Row) string { return r.DayOfWeek },
}

// ParseFrequency accepts the frequency names and their one letter aliases W, M and Y.
func ParseFrequency(s string) (Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "w":
		return Weekly, true
	case "monthly", "m":
		return Monthly, true
	case "yearly", "y":
		return Yearly, true
	}
	return "", false
}

// IncomeTable holds profit sums per period (rows) and category (columns).
type IncomeTable struct {
	// Periods are the last days of each bucket, at midnight.
	Periods []time.Time
	Columns []string
	// Values[i][j] is the profit of Columns[j] during Periods[i].
	Values [][]float64
}

// Empty reports whether the table has no periods.
func (t IncomeTable) Empty() bool {
	return len(t.Periods) == 0
}

// Series returns the profit of column for every period, or nil if the column is unknown.
func (t IncomeTable) Series(column string) []float64 {
	for j, c := range t.Columns {
		if c != column {
			continue
		}
		out := make([]float64, len(t.Values))
		for i, row := range t.Values {
			out[i] = row[j]
		}
		return out
	}
	return nil
}

// IncomeByPeriod sums profit by close time bucket and by each distinct value
// of column. An empty column yields a single "profit" series. Buckets are
// contiguous between the first and last close time; an unknown column or
// frequency is logged and yields an empty table.
func (e *Engine) IncomeByPeriod(column string, freq Frequency) IncomeTable {
	key := func(*Row) string { return profitSeries }
	if column != "" {
		var ok bool
		if key, ok = categoryOf[column]; !ok {
			e.logger.Error("Column for income by period does not exist", zap.String("column", column))
			return IncomeTable{}
		}
	}
	parsed, ok := ParseFrequency(string(freq))
	if !ok {
		e.logger.Error("Unknown income by period frequency", zap.String("frequency", string(freq)))
		return IncomeTable{}
	}
	freq = parsed
	if len(e.rows) == 0 {
		return IncomeTable{}
	}

	t := IncomeTable{}
	colIndex := make(map[string]int)
	for i := range e.rows {
		k := key(&e.rows[i])
		if _, ok := colIndex[k]; !ok {
			colIndex[k] = len(t.Columns)
			t.Columns = append(t.Columns, k)
		}
	}

	// Rows are sorted by close time, so the first and last rows bound the buckets.
	first := periodEnd(e.rows[0].CloseTime, freq)
	last := periodEnd(e.rows[len(e.rows)-1].CloseTime, freq)
	periodIndex := make(map[time.Time]int)
	for p := first; !p.After(last); p = nextPeriodEnd(p, freq) {
		periodIndex[p] = len(t.Periods)
		t.Periods = append(t.Periods, p)
		t.Values = append(t.Values, make([]float64, len(t.Columns)))
	}

	for i := range e.rows {
		r := &e.rows[i]
		t.Values[periodIndex[periodEnd(r.CloseTime, freq)]][colIndex[key(r)]] += r.Profit
	}
	e.logger.Debug("Income by period computed",
		zap.String("column", column),
		zap.String("frequency", string(freq)),
		zap.Int("periods", len(t.Periods)),
	)
	return t
}

// Categories returns the distinct values of a categorical column in order of
// first appearance, or nil for an unknown column.
func (e *Engine) Categories(column string) []string {
	key, ok := categoryOf[column]
	if !ok {
		e.logger.Error("Unknown categorical column", zap.String("column", column))
		return nil
	}
	seen := make(map[string]bool)
	out := make([]string, 0)
	for i := range e.rows {
		v := key(&e.rows[i])
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// periodEnd returns midnight of the last day of the bucket containing t.
// Weeks end on Sunday.
func periodEnd(t time.Time, freq Frequency) time.Time {
	y, m, d := t.Date()
	switch freq {
	case Weekly:
		return time.Date(y, m, d+(7-int(t.Weekday()))%7, 0, 0, 0, 0, t.Location())
	case Monthly:
		return time.Date(y, m+1, 0, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(y, time.December, 31, 0, 0, 0, 0, t.Location())
	}
}

func nextPeriodEnd(p time.Time, freq Frequency) time.Time {
	y, m, d := p.Date()
	switch freq {
	case Weekly:
		return time.Date(y, m, d+7, 0, 0, 0, 0, p.Location())
	case Monthly:
		return time.Date(y, m+2, 0, 0, 0, 0, 0, p.Location())
	default:
		return time.Date(y+1, time.December, 31, 0, 0, 0, 0, p.Location())
	}
}
