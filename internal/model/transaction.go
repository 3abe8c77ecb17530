package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
)

type Transaction struct {
	ID        string          `db:"id"`
	GoalID    string          `db:"goal_id"`
	Type      string          `db:"type"`
	Amount    decimal.Decimal `db:"amount"`
	Timestamp time.Time       `db:"occurred_at"`
	Notes     string          `db:"notes"`
	Position  int             `db:"position"` // append order within the goal
}

func ValidTransactionType(t string) bool {
	return t == TransactionDeposit || t == TransactionWithdrawal
}

// SavedAmount sums deposits and subtracts withdrawals.
func SavedAmount(transactions []Transaction) decimal.Decimal {
	saved := decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case TransactionDeposit:
			saved = saved.Add(t.Amount)
		case TransactionWithdrawal:
			saved = saved.Sub(t.Amount)
		}
	}
	return saved
}
