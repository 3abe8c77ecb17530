package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID           string          `db:"id"`
	Title        string          `db:"title"`
	TargetAmount decimal.Decimal `db:"target_amount"`
	Deadline     *time.Time      `db:"deadline"`
	Notes        string          `db:"notes"`
	Image        *Bitmap         `db:"image"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// GoalWithTransactions is a goal together with its full transaction history.
// It is the unit of backup and restore.
type GoalWithTransactions struct {
	Goal         Goal
	Transactions []Transaction
}

// Saved returns deposits minus withdrawals.
func (g *GoalWithTransactions) Saved() decimal.Decimal {
	return SavedAmount(g.Transactions)
}

// Progress returns the saved percentage of the target, capped at 100.
func (g *GoalWithTransactions) Progress() decimal.Decimal {
	return ProgressPercent(g.Saved(), g.Goal.TargetAmount)
}

func ProgressPercent(saved, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() || !saved.IsPositive() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	pct := saved.Div(target).Mul(hundred).Round(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
