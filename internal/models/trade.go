package models

import "time"

// Order sides as they appear in the statement.
const (
	OrderTypeBuy  = "buy"
	OrderTypeSell = "sell"
)

// Trade represents a closed position read from a trading statement.
// High and Low default to the extremes of the open and close prices until
// the trade is enriched with market data.
type Trade struct {
	ID         uint          `gorm:"primaryKey" json:"-"`
	SnapshotID uint          `gorm:"index" json:"-"`
	Order      int64         `json:"order"`
	OpenTime   time.Time     `json:"open_time" validate:"required"`
	OrderType  string        `json:"order_type" validate:"oneof=buy sell"`
	Volume     float64       `json:"volume" validate:"gt=0"`
	Symbol     string        `json:"symbol" validate:"required"`
	OpenPrice  float64       `json:"open_price"`
	StopLoss   *float64      `json:"sl,omitempty"`
	TakeProfit *float64      `json:"tp,omitempty"`
	CloseTime  time.Time     `json:"close_time" validate:"gtefield=OpenTime"`
	ClosePrice float64       `json:"close_price"`
	Commission float64       `json:"commission"`
	Taxes      float64       `json:"taxes"`
	Swap       float64       `json:"swap"`
	Profit     float64       `json:"profit"`
	High       float64       `json:"high"`
	Low        float64       `json:"low"`
	Enriched   bool          `json:"enriched"`
	Duration   time.Duration `json:"duration"`
	Base       string        `json:"base"`
	Quote      string        `json:"quote"`
}

// ResetHighLow sets High and Low to the extremes of the open and close prices.
func (t *Trade) ResetHighLow() {
	t.High = max(t.OpenPrice, t.ClosePrice)
	t.Low = min(t.OpenPrice, t.ClosePrice)
}
