package metrics

import (
	"testing"

	"mt4-report-analyzer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// kpiEngine returns an engine over the profits 100, -50, 30, 20, -40, 0 in close order.
func kpiEngine(t *testing.T) *Engine {
	t.Helper()
	profits := []float64{100, -50, 30, 20, -40, 0}
	symbols := []string{"GBPUSD", "EURUSD", "GBPUSD", "EURUSD", "EURUSD", "GBPUSD"}
	trades := make([]*models.Trade, 0, len(profits))
	for i, p := range profits {
		trades = append(trades, newTrade(int64(i+1), symbols[i], "buy", 0.1, 1.1, 1.1+p/1e4, p, day(i+1, 8), day(i+1, 12)))
	}
	return NewEngine(trades, nil, "EUR", nil, zap.NewNop())
}

func TestKPIs(t *testing.T) {
	e := kpiEngine(t)

	assert.Equal(t, "EUR", e.Currency())
	assert.Equal(t, "€", e.CurrencySymbol())
	assert.Equal(t, 6, e.NTrades())
	assert.Equal(t, 3, e.NTradesWon())
	assert.Equal(t, 3, e.NTradesLoss())
	assert.InDelta(t, 0.5, e.WinRate(), 1e-9)
	assert.InDelta(t, 150, e.GrossRevenue(), 1e-9)
	assert.InDelta(t, -90, e.GrossLoss(), 1e-9)
	assert.InDelta(t, 60, e.NetIncome(), 1e-9)
	assert.InDelta(t, 10, e.Expectancy(), 1e-9)
	assert.InDelta(t, 50, e.AvgWin(), 1e-9)
	assert.InDelta(t, -30, e.AvgLoss(), 1e-9)
	assert.InDelta(t, -5.0/3, e.AvgWinOverLoss(), 1e-9)
	assert.InDelta(t, 5.0/3, e.ProfitFactor(), 1e-9)
	assert.Equal(t, "EURUSD", e.MostTraded())
	assert.Equal(t, 2, e.ConsecutiveWins())
	assert.Equal(t, 2, e.ConsecutiveLosses())
	assert.InDelta(t, 100, e.LargestEarningTrade(), 1e-9)
	assert.InDelta(t, -50, e.LargestLossTrade(), 1e-9)
	assert.InDelta(t, 54.405882, e.StdProfit(), 1e-6)
	assert.InDelta(t, 100, e.MaxRunup(), 1e-9)
	assert.InDelta(t, -50, e.MaxDrawdown(), 1e-9)
}

func TestEfficiency(t *testing.T) {
	trades := []*models.Trade{
		withExtremes(newTrade(1, "EURUSD", "buy", 0.1, 1.1000, 1.1050, 50, day(2, 10), day(2, 14)), 1.1100, 1.0990),
		withExtremes(newTrade(2, "EURUSD", "buy", 0.1, 1.1000, 1.0980, -20, day(3, 10), day(3, 14)), 1.1050, 1.0950),
	}
	e := NewEngine(trades, nil, "USD", nil, zap.NewNop())

	assert.InDelta(t, 150, e.PerfectEfficiencyIncome(), 1e-9)
	assert.InDelta(t, 50.0/150, e.Efficiency(), 1e-9)
}

func TestKPIs_EmptyEngine(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEngine(nil, nil, "GBP", nil, zap.New(core))

	assert.Equal(t, 0.0, e.WinRate())
	assert.Equal(t, 0.0, e.Expectancy())
	assert.Equal(t, 0.0, e.ProfitFactor())
	assert.Equal(t, 0.0, e.Efficiency())
	assert.Equal(t, 0.0, e.StdProfit())
	assert.Equal(t, 0.0, e.LargestEarningTrade())
	assert.Equal(t, 0.0, e.MaxDrawdown())
	assert.Equal(t, "", e.MostTraded())
	assert.Equal(t, "£", e.CurrencySymbol())
	assert.Positive(t, logs.FilterMessage("Zero division, returning 0").Len())
}

func TestCurrencySymbol_Unknown(t *testing.T) {
	e := NewEngine(nil, nil, "CHF", nil, zap.NewNop())
	assert.Equal(t, "$", e.CurrencySymbol())
}

func TestReport(t *testing.T) {
	e := kpiEngine(t)

	report := e.Report()

	require.Len(t, report, len(KPIs()))
	names := make([]string, len(report))
	values := make(map[string]any, len(report))
	for i, kv := range report {
		names[i] = kv.Name
		values[kv.Name] = kv.Value
	}
	assert.Equal(t, "currency", names[0])
	assert.Contains(t, names, "max_drawdown")
	assert.Equal(t, 6, values["n_of_trades"])
	assert.Equal(t, "EURUSD", values["most_traded"])
	assert.InDelta(t, 0.5, values["win_rate"], 1e-9)
}

func TestKPIs_RegistryIsNotShared(t *testing.T) {
	registry := KPIs()
	registry[0] = KPI{Name: "replaced", Value: func(*Engine) any { return nil }}
	registry = registry[:1]

	report := kpiEngine(t).Report()
	assert.Equal(t, "currency", report[0].Name)
	assert.Len(t, report, len(KPIs()))
	assert.Greater(t, len(report), len(registry))
}
