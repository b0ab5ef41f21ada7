package models

import "time"

// Balance types, derived from the sign of the amount.
const (
	BalanceTypeDeposit    = "deposit"
	BalanceTypeWithdrawal = "withdrawal"
)

// Balance represents a deposit or withdrawal operation of the account.
type Balance struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	SnapshotID  uint      `gorm:"index" json:"-"`
	Order       int64     `json:"order"`
	Date        time.Time `json:"date" validate:"required"`
	Amount      float64   `json:"amount"`
	BalanceType string    `json:"balance_type"`
}

// BalanceTypeOf returns the balance type matching the sign of amount.
func BalanceTypeOf(amount float64) string {
	if amount >= 0 {
		return BalanceTypeDeposit
	}
	return BalanceTypeWithdrawal
}
