package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/greenstash/greenstash/internal/db"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	GoalSortRecent   = "recent"
	GoalSortDeadline = "deadline"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	CreateWithTransactions(goal *model.Goal, transactions []model.Transaction) error
	CreateAll(goals []model.GoalWithTransactions) error
	ByID(goalID string) (*model.Goal, error)
	Goals(sortBy string) ([]*model.Goal, error)
	Update(goal *model.Goal) error
	UpdateImage(goalID string, image *model.Bitmap) error
	Delete(goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// utc normalises a time before it is written. SQLite cannot scan back a
// time stored with a non-zero offset.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func insertGoal(e sqlx.Execer, goal *model.Goal) error {
	query := `INSERT INTO goals (id, title, target_amount, deadline, notes, image, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := e.Exec(query,
		goal.ID,
		goal.Title,
		goal.TargetAmount,
		utcPtr(goal.Deadline),
		goal.Notes,
		goal.Image,
		utc(goal.CreatedAt),
		utc(goal.UpdatedAt),
	)

	return err
}

func (r *goalRepository) Create(goal *model.Goal) error {
	return insertGoal(r.db, goal)
}

// CreateWithTransactions inserts a goal and its history atomically.
// Transactions are expected to carry their ids and positions already.
func (r *goalRepository) CreateWithTransactions(goal *model.Goal, transactions []model.Transaction) error {
	return r.CreateAll([]model.GoalWithTransactions{{Goal: *goal, Transactions: transactions}})
}

// CreateAll inserts every goal with its history in a single transaction.
// Either all of them are stored or none are.
func (r *goalRepository) CreateAll(goals []model.GoalWithTransactions) error {
	return db.Transact(r.db, func(tx *sqlx.Tx) error {
		for i := range goals {
			err := insertGoal(tx, &goals[i].Goal)
			if err != nil {
				return err
			}

			for j := range goals[i].Transactions {
				err = insertTransaction(tx, &goals[i].Transactions[j])
				if err != nil {
					return err
				}
			}
		}

		return nil
	})
}

func (r *goalRepository) ByID(goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.Get(goal, query, goalID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(sortBy string) ([]*model.Goal, error) {
	var goals []*model.Goal

	// Validate and build ORDER BY clause
	var orderBy string
	switch sortBy {
	case GoalSortDeadline:
		orderBy = "ORDER BY deadline IS NULL, deadline ASC, LOWER(title) ASC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY updated_at DESC"
	}

	query := `SELECT * FROM goals ` + orderBy

	err := r.db.Select(&goals, query)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, target_amount = $2, deadline = $3, notes = $4, updated_at = $5
	          WHERE id = $6`

	goal.UpdatedAt = time.Now().UTC()
	result, err := r.db.Exec(query,
		goal.Title,
		goal.TargetAmount,
		utcPtr(goal.Deadline),
		goal.Notes,
		goal.UpdatedAt,
		goal.ID,
	)

	return checkAffected(result, err, ErrGoalNotFound)
}

// UpdateImage replaces the goal image; nil clears it.
func (r *goalRepository) UpdateImage(goalID string, image *model.Bitmap) error {
	query := `UPDATE goals SET image = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.Exec(query, image, time.Now().UTC(), goalID)

	return checkAffected(result, err, ErrGoalNotFound)
}

func (r *goalRepository) Delete(goalID string) error {
	query := `DELETE FROM goals WHERE id = $1`
	result, err := r.db.Exec(query, goalID)

	return checkAffected(result, err, ErrGoalNotFound)
}

func checkAffected(result sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
