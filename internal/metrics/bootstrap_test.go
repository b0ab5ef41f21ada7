package metrics

import (
	"math"
	"slices"
	"testing"

	"mt4-report-analyzer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func seededEngine(logger *zap.Logger) *Engine {
	return NewEngine(nil, nil, "USD", &config.Metrics{BootstrapIterations: 2000, ConfidenceLevel: 95, Seed: 42}, logger)
}

func sample(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i%7)*15 - 40
	}
	return out
}

func TestBootstrapCI(t *testing.T) {
	t.Run("InvalidParameters", func(t *testing.T) {
		e := seededEngine(zap.NewNop())
		testCases := []struct {
			name       string
			data       []float64
			iterations int
			ci         float64
		}{
			{"no iterations", sample(40), 0, 95},
			{"zero confidence", sample(40), 100, 0},
			{"confidence above 100", sample(40), 100, 120},
			{"NaN confidence", []float64{1, 2, 3, 4}, 100, math.NaN()},
			{"no data", nil, 100, 95},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				lower, upper, msg := e.BootstrapCI(tc.data, tc.iterations, tc.ci)
				assert.Equal(t, 0.0, lower)
				assert.Equal(t, 0.0, upper)
				assert.Empty(t, msg)
			})
		}
	})

	t.Run("InsufficientSample", func(t *testing.T) {
		lower, upper, msg := seededEngine(zap.NewNop()).BootstrapCI([]float64{12.5}, 1000, 95)
		assert.Equal(t, 0.0, lower)
		assert.Equal(t, 0.0, upper)
		assert.Contains(t, msg, "insufficient")
	})

	t.Run("SmallSampleIsNoted", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		_, _, msg := seededEngine(zap.New(core)).BootstrapCI(sample(10), 500, 95)
		assert.Contains(t, msg, "less than 30")
		assert.Equal(t, 1, logs.FilterMessageSnippet("less than 30").Len())
	})

	t.Run("LargeSample", func(t *testing.T) {
		data := sample(60)
		lower, upper, msg := seededEngine(zap.NewNop()).BootstrapCI(data, 2000, 95)

		assert.LessOrEqual(t, lower, upper)
		assert.GreaterOrEqual(t, lower, slices.Min(data))
		assert.LessOrEqual(t, upper, slices.Max(data))
		assert.Less(t, lower, mean(data))
		assert.Greater(t, upper, mean(data))
		assert.Contains(t, msg, "95%")
	})

	t.Run("SeedIsReproducible", func(t *testing.T) {
		data := sample(40)
		l1, u1, _ := seededEngine(zap.NewNop()).BootstrapCI(data, 500, 90)
		l2, u2, _ := seededEngine(zap.NewNop()).BootstrapCI(data, 500, 90)
		assert.Equal(t, l1, l2)
		assert.Equal(t, u1, u2)
	})
}

func TestProfitCI(t *testing.T) {
	e := kpiEngine(t)
	lower, upper, msg := e.ProfitCI()
	assert.LessOrEqual(t, lower, upper)
	assert.NotEmpty(t, msg)
}

func TestWinningProfitCI(t *testing.T) {
	e := kpiEngine(t)
	assert.ElementsMatch(t, []float64{100, 30, 20}, e.WinningProfits())

	lower, upper, msg := e.WinningProfitCI()
	assert.LessOrEqual(t, lower, upper)
	assert.GreaterOrEqual(t, lower, 20.0)
	assert.LessOrEqual(t, upper, 100.0)
	assert.Contains(t, msg, "less than 30")
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	require.InDelta(t, 1, percentile(sorted, 0), 1e-9)
	assert.InDelta(t, 3, percentile(sorted, 50), 1e-9)
	assert.InDelta(t, 5, percentile(sorted, 100), 1e-9)
	assert.InDelta(t, 1.1, percentile(sorted, 2.5), 1e-9)
	assert.InDelta(t, 4.9, percentile(sorted, 97.5), 1e-9)
	assert.InDelta(t, 7, percentile([]float64{7}, 50), 1e-9)
}
