package tradermade

import (
	"net/url"
	"strconv"
	"time"

	"mt4-report-analyzer/internal/models"
)

// Interval is the sampling unit of a time series request.
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHourly Interval = "hourly"
	IntervalDaily  Interval = "daily"
)

const (
	// The API only serves minute data for the last month and hourly data for the last year.
	// A month is taken as 28 days.
	daysInYear  = 365
	daysInMonth = 28

	maxDaysForMinuteCall = 2
	maxDaysForHourlyCall = 28

	minuteDateLayout = "2006-01-02-15:04"
	dailyDateLayout  = "2006-01-02"

	// Daily series skip the opening day of trades opened before this hour.
	dailyCorrectionHour = 17

	responseFormat = "split"
)

type periodThreshold struct {
	minutes float64
	period  int
}

// periodThresholds lists, per interval and from coarsest to finest, the
// trade duration in minutes above which a sampling period is used.
var periodThresholds = map[Interval][]periodThreshold{
	IntervalMinute: {
		{minutes: 60 * 10, period: 30},
		{minutes: 60 * 6, period: 15},
		{minutes: 60 * 2, period: 6},
		{minutes: 30, period: 2},
	},
	IntervalHourly: {
		{minutes: 60 * 24 * 15, period: 8},
		{minutes: 60 * 24 * 8, period: 6},
		{minutes: 60 * 24 * 4, period: 4},
		{minutes: 60 * 24 * 2, period: 2},
	},
	IntervalDaily: {},
}

// OptimalInterval selects the finest interval the API can serve for a trade
// opened at openTime and lasting duration, as seen at now.
func OptimalInterval(openTime time.Time, duration time.Duration, now time.Time) Interval {
	day := 24 * time.Hour
	switch {
	case isMoreRecentThan(openTime, now, daysInMonth):
		if duration < maxDaysForMinuteCall*day {
			return IntervalMinute
		}
		return IntervalHourly
	case isMoreRecentThan(openTime, now, daysInYear):
		if duration < maxDaysForHourlyCall*day {
			return IntervalHourly
		}
		return IntervalDaily
	default:
		return IntervalDaily
	}
}

func isMoreRecentThan(t, now time.Time, days int) bool {
	return now.Sub(t) < time.Duration(days)*24*time.Hour
}

// OptimalPeriod selects the largest sampling period for the duration, keeping
// responses small for long trades. Unknown intervals and short trades get 1.
func OptimalPeriod(duration time.Duration, interval Interval) int {
	minutes := duration.Minutes()
	for _, th := range periodThresholds[interval] {
		if minutes > th.minutes {
			return th.period
		}
	}
	return 1
}

// StartDateCorrection returns the offset to add to the request start date.
// The daily series leaves out the opening day unless the start moves back one day.
func StartDateCorrection(interval Interval, openTime, closeTime time.Time) time.Duration {
	if interval != IntervalDaily {
		return 0
	}
	if openTime.Hour() < dailyCorrectionHour || sameDay(openTime, closeTime) {
		return -24 * time.Hour
	}
	return 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TimeSeriesParams are the query parameters of a timeseries request, minus the API key.
type TimeSeriesParams struct {
	Currency string
	Start    time.Time
	End      time.Time
	Interval Interval
	Period   int
}

// NewTimeSeriesParams builds the request covering the lifetime of a trade.
func NewTimeSeriesParams(t *models.Trade, now time.Time) TimeSeriesParams {
	duration := t.CloseTime.Sub(t.OpenTime)
	interval := OptimalInterval(t.OpenTime, duration, now)
	return TimeSeriesParams{
		Currency: t.Symbol,
		Start:    t.OpenTime.Add(StartDateCorrection(interval, t.OpenTime, t.CloseTime)),
		End:      t.CloseTime,
		Interval: interval,
		Period:   OptimalPeriod(duration, interval),
	}
}

// Values encodes the parameters with the date layout expected for the interval.
func (p TimeSeriesParams) Values(apiKey string) url.Values {
	layout := minuteDateLayout
	if p.Interval == IntervalDaily {
		layout = dailyDateLayout
	}

	v := url.Values{}
	v.Set("currency", p.Currency)
	v.Set("api_key", apiKey)
	v.Set("start_date", p.Start.Format(layout))
	v.Set("end_date", p.End.Format(layout))
	v.Set("interval", string(p.Interval))
	v.Set("period", strconv.Itoa(p.Period))
	v.Set("format", responseFormat)
	return v
}
