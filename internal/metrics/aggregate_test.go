package metrics

import (
	"testing"
	"time"

	"mt4-report-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func aggregateEngine(logger *zap.Logger) *Engine {
	trades := []*models.Trade{
		newTrade(1, "EURUSD", "buy", 0.1, 1.1, 1.1050, 50, day(2, 10), day(2, 14)),
		newTrade(2, "USDJPY", "sell", 0.1, 145.0, 145.3, -20, day(3, 10), day(3, 14)),
		newTrade(3, "EURUSD", "sell", 0.1, 1.1, 1.0970, 30, day(16, 9), day(16, 11)),
	}
	return NewEngine(trades, nil, "USD", nil, logger)
}

func midnight(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestIncomeByPeriod(t *testing.T) {
	e := aggregateEngine(zap.NewNop())

	t.Run("WeeklyBySymbol", func(t *testing.T) {
		table := e.IncomeByPeriod(ColumnSymbol, Weekly)

		assert.Equal(t, []time.Time{midnight(7), midnight(14), midnight(21)}, table.Periods)
		assert.Equal(t, []string{"EURUSD", "USDJPY"}, table.Columns)
		assert.Equal(t, []float64{50, 0, 30}, table.Series("EURUSD"))
		assert.Equal(t, []float64{-20, 0, 0}, table.Series("USDJPY"))
		assert.Nil(t, table.Series("GBPUSD"))
	})

	t.Run("MonthlyWithoutColumn", func(t *testing.T) {
		table := e.IncomeByPeriod("", Monthly)

		assert.Equal(t, []time.Time{midnight(31)}, table.Periods)
		assert.Equal(t, []string{"profit"}, table.Columns)
		assert.Equal(t, []float64{60}, table.Series("profit"))
	})

	t.Run("YearlyAliasByOrderType", func(t *testing.T) {
		table := e.IncomeByPeriod(ColumnOrderType, Frequency("Y"))

		require.Len(t, table.Periods, 1)
		assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), table.Periods[0])
		assert.Equal(t, []float64{50}, table.Series("buy"))
		assert.Equal(t, []float64{10}, table.Series("sell"))
	})

	t.Run("SundayCloseBelongsToThatWeek", func(t *testing.T) {
		sunday := NewEngine([]*models.Trade{
			newTrade(1, "EURUSD", "buy", 0.1, 1.1, 1.1050, 50, day(7, 10), day(7, 22)),
		}, nil, "USD", nil, zap.NewNop())

		table := sunday.IncomeByPeriod("", Weekly)

		assert.Equal(t, []time.Time{midnight(7)}, table.Periods)
	})

	t.Run("EmptyEngine", func(t *testing.T) {
		empty := NewEngine(nil, nil, "USD", nil, zap.NewNop())
		assert.True(t, empty.IncomeByPeriod(ColumnSymbol, Weekly).Empty())
	})
}

func TestIncomeByPeriod_UnknownColumn(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := aggregateEngine(zap.New(core))

	table := e.IncomeByPeriod("magic_number", Weekly)

	assert.True(t, table.Empty())
	assert.Equal(t, 1, logs.FilterMessageSnippet("does not exist").Len())

	table = e.IncomeByPeriod(ColumnSymbol, Frequency("hourly"))
	assert.True(t, table.Empty())
	assert.Equal(t, 1, logs.FilterMessageSnippet("frequency").Len())
}

func TestCategories(t *testing.T) {
	e := aggregateEngine(zap.NewNop())

	assert.Equal(t, []string{"EURUSD", "USDJPY"}, e.Categories(ColumnSymbol))
	assert.Equal(t, []string{"buy", "sell"}, e.Categories(ColumnOrderType))
	assert.Equal(t, []string{"tuesday", "wednesday"}, e.Categories(ColumnDayOfWeek))
	assert.Nil(t, e.Categories("profit"))
}

func TestParseFrequency(t *testing.T) {
	testCases := []struct {
		input    string
		expected Frequency
		ok       bool
	}{
		{"weekly", Weekly, true},
		{"W", Weekly, true},
		{"Monthly", Monthly, true},
		{"m", Monthly, true},
		{"y", Yearly, true},
		{"daily", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			f, ok := ParseFrequency(tc.input)
			assert.Equal(t, tc.expected, f)
			assert.Equal(t, tc.ok, ok)
		})
	}
}
