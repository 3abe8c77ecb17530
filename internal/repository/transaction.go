package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/greenstash/greenstash/internal/db"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
)

type TransactionRepository interface {
	Create(transaction *model.Transaction) error
	Append(transaction *model.Transaction, check func(existing []model.Transaction) error) error
	Transactions(goalID string) ([]model.Transaction, error)
	ByID(goalID, transactionID string) (*model.Transaction, error)
	Delete(goalID, transactionID string) error
}

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func insertTransaction(e sqlx.Execer, t *model.Transaction) error {
	query := `INSERT INTO transactions (id, goal_id, type, amount, occurred_at, notes, position)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := e.Exec(query, t.ID, t.GoalID, t.Type, t.Amount, utc(t.Timestamp), t.Notes, t.Position)
	return err
}

// Create appends a transaction after the goal's existing ones.
func (r *transactionRepository) Create(t *model.Transaction) error {
	return r.Append(t, nil)
}

// Append adds a transaction after the goal's existing ones. The goal row is
// written first, which serialises appends to the same goal, so check sees
// exactly the history the new transaction lands on. A non-nil error from
// check aborts the insert.
func (r *transactionRepository) Append(t *model.Transaction, check func(existing []model.Transaction) error) error {
	return db.Transact(r.db, func(tx *sqlx.Tx) error {
		result, err := tx.Exec(`UPDATE goals SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), t.GoalID)
		err = checkAffected(result, err, ErrGoalNotFound)
		if err != nil {
			return err
		}

		var existing []model.Transaction
		query := `SELECT * FROM transactions WHERE goal_id = $1 ORDER BY position ASC`
		err = tx.Select(&existing, query, t.GoalID)
		if err != nil {
			return err
		}

		if check != nil {
			err = check(existing)
			if err != nil {
				return err
			}
		}

		t.Position = 1
		if n := len(existing); n > 0 {
			t.Position = existing[n-1].Position + 1
		}
		return insertTransaction(tx, t)
	})
}

func (r *transactionRepository) Transactions(goalID string) ([]model.Transaction, error) {
	var transactions []model.Transaction
	query := `SELECT * FROM transactions WHERE goal_id = $1 ORDER BY position ASC`

	err := r.db.Select(&transactions, query, goalID)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *transactionRepository) ByID(goalID, transactionID string) (*model.Transaction, error) {
	t := &model.Transaction{}
	query := `SELECT * FROM transactions WHERE goal_id = $1 AND id = $2`

	err := r.db.Get(t, query, goalID, transactionID)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (r *transactionRepository) Delete(goalID, transactionID string) error {
	query := `DELETE FROM transactions WHERE goal_id = $1 AND id = $2`
	result, err := r.db.Exec(query, goalID, transactionID)

	return checkAffected(result, err, ErrTransactionNotFound)
}
