package tradermade

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"mt4-report-analyzer/internal/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	baseURL            = "https://marketdata.tradermade.com/api/v1"
	timeSeriesEndpoint = "/timeseries"
	defaultMaxRetries  = 3
	dateColumn         = "date"
)

// RestClientInterface defines the interface for the TraderMade REST API client.
type RestClientInterface interface {
	// TimeSeries returns the requested fields of the series described by params,
	// keyed by field name. An empty map means the API had no usable data.
	TimeSeries(ctx context.Context, params TimeSeriesParams, fields ...string) (map[string][]float64, error)
}

// RestClient is a client for the TraderMade REST API.
// It implements the RestClientInterface.
type RestClient struct {
	client     *resty.Client
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	maxRetries int
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new TraderMade REST API client.
func NewRestClient(cfg *config.TraderMade, logger *zap.Logger) *RestClient {
	url := cfg.BaseURL
	if url == "" {
		url = baseURL
	}

	client := resty.New().SetBaseURL(url)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	// rate.Limit is requests per second.
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = defaultMaxRetries
	}

	return &RestClient{
		client:     client,
		apiKey:     cfg.ApiKey,
		logger:     logger.Named("tradermade"),
		limiter:    rate.NewLimiter(limit, burst),
		maxRetries: maxRetries,
	}
}

// quotes is the "split" representation of a series: column names and rows of values.
type quotes struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// TimeSeriesResponse represents the response from the /timeseries endpoint.
type TimeSeriesResponse struct {
	Quotes  *quotes `json:"quotes"`
	Message string  `json:"message"`
}

// TimeSeries fetches a time series and extracts the requested fields.
func (c *RestClient) TimeSeries(ctx context.Context, params TimeSeriesParams, fields ...string) (map[string][]float64, error) {
	req := c.client.R().
		SetQueryParamsFromValues(params.Values(c.apiKey)).
		SetResult(&TimeSeriesResponse{})

	c.logger.Debug("Requesting time series",
		zap.String("currency", params.Currency),
		zap.String("interval", string(params.Interval)),
		zap.Int("period", params.Period),
		zap.Time("start", params.Start),
		zap.Time("end", params.End),
	)

	resp, err := c.doRequest(ctx, http.MethodGet, timeSeriesEndpoint, req)
	if err != nil {
		return nil, fmt.Errorf("failed to get time series for %s: %w", params.Currency, err)
	}

	result := resp.Result().(*TimeSeriesResponse)
	if result.Quotes == nil {
		c.logger.Info("Quotes not in response", zap.String("currency", params.Currency), zap.String("message", result.Message))
		return map[string][]float64{}, nil
	}
	return c.extractFields(result.Quotes, fields), nil
}

// extractFields returns one series per field. If any field is missing from the
// columns the whole result is empty.
func (c *RestClient) extractFields(q *quotes, fields []string) map[string][]float64 {
	index := make(map[string]int, len(q.Columns))
	for i, col := range q.Columns {
		index[col] = i
	}

	out := make(map[string][]float64, len(fields))
	for _, f := range fields {
		i, ok := index[f]
		if !ok {
			c.logger.Warn("Requested field not found in data", zap.String("field", f), zap.Strings("columns", q.Columns))
			return map[string][]float64{}
		}
		series := make([]float64, 0, len(q.Data))
		for _, row := range q.Data {
			if i >= len(row) {
				continue
			}
			if v, ok := toFloat(row[i]); ok {
				series = append(series, v)
			}
		}
		out[f] = series
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error

	req.SetContext(ctx)
	for i := 0; i < c.maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// Network errors are always retried. Responses only on 429 and server errors.
		var retryAfter time.Duration
		if err == nil {
			statusCode := resp.StatusCode()
			if statusCode != http.StatusTooManyRequests && statusCode < 500 {
				return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
			}
			if seconds, convErr := strconv.Atoi(resp.Header().Get("Retry-After")); convErr == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
			err = fmt.Errorf("status %s", resp.Status())
		}

		if i == c.maxRetries-1 {
			break
		}

		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, err)
}
