package metrics

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"
)

const (
	minBootstrapSample  = 2
	reliableSampleSize  = 30
	insufficientMessage = "insufficient amount of trades to calculate confidence intervals"
	smallSampleMessage  = "bootstrap CI sample less than 30! result not very meaningful"
)

// ProfitCI is the bootstrap confidence interval of the mean profit, using the
// configured iterations and confidence level.
func (e *Engine) ProfitCI() (lower, upper float64, msg string) {
	return e.BootstrapCI(e.Profits(), e.cfg.BootstrapIterations, e.cfg.ConfidenceLevel)
}

// WinningProfitCI is the bootstrap confidence interval of the mean profit of
// winning trades.
func (e *Engine) WinningProfitCI() (lower, upper float64, msg string) {
	return e.BootstrapCI(e.WinningProfits(), e.cfg.BootstrapIterations, e.cfg.ConfidenceLevel)
}

// BootstrapCI estimates a ci percent confidence interval of the mean of data by
// resampling it with replacement iterations times. Invalid parameters yield
// (0, 0, ""). Fewer than two observations yield (0, 0) and an explanation.
//
// A non-zero metrics seed makes the result reproducible.
func (e *Engine) BootstrapCI(data []float64, iterations int, ci float64) (lower, upper float64, msg string) {
	// negated so that a NaN level is rejected too
	if iterations < 1 || !(ci > 0 && ci <= 100) || len(data) == 0 {
		e.logger.Warn("Invalid bootstrap parameters",
			zap.Int("iterations", iterations),
			zap.Float64("ci", ci),
			zap.Int("observations", len(data)),
		)
		return 0, 0, ""
	}
	if len(data) < minBootstrapSample {
		return 0, 0, insufficientMessage
	}

	msg = fmt.Sprintf("This %g%% CI is based on historical trade outcomes. Future results may differ.", ci)
	if len(data) < reliableSampleSize {
		msg = smallSampleMessage
		e.logger.Info(msg, zap.Int("observations", len(data)))
	}

	rng := e.rand()
	means := make([]float64, iterations)
	for i := range means {
		var sum float64
		for range data {
			sum += data[rng.IntN(len(data))]
		}
		means[i] = sum / float64(len(data))
	}
	sort.Float64s(means)

	tail := (100 - ci) / 2
	return percentile(means, tail), percentile(means, 100-tail), msg
}

func (e *Engine) rand() *rand.Rand {
	seed := e.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// percentile returns the p-th percentile of sorted values, interpolating
// linearly between the closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
