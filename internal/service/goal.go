package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenstash/greenstash/internal/draft"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/repository"
	"golang.org/x/sync/errgroup"
)

const GoalSortProgress = "progress"

// loadLimit bounds concurrent per-goal transaction loads.
const loadLimit = 4

type GoalService struct {
	repo            repository.GoalRepository
	transactionRepo repository.TransactionRepository
	layout          string
}

func NewGoalService(
	repo repository.GoalRepository,
	transactionRepo repository.TransactionRepository,
	layout string,
) *GoalService {
	return &GoalService{
		repo:            repo,
		transactionRepo: transactionRepo,
		layout:          layout,
	}
}

// Layout returns the date layout drafts are parsed with.
func (s *GoalService) Layout() string {
	return s.layout
}

func (s *GoalService) Create(d draft.Draft) (*model.Goal, error) {
	goal, err := draft.Validate(d, s.layout)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	goal.ID = uuid.New().String()
	goal.CreatedAt = now
	goal.UpdatedAt = now

	err = s.repo.Create(&goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return &goal, nil
}

// Update applies the draft to an existing goal. The image is only written
// when the draft changed it. A deadline text equal to the stored deadline in
// the draft layout keeps the stored time, which may carry more precision
// than the layout shows.
func (s *GoalService) Update(goalID string, d draft.Draft) (*model.Goal, error) {
	goal, err := s.repo.ByID(goalID)
	if err != nil {
		return nil, err
	}

	fields, err := draft.Validate(d, s.layout)
	if err != nil {
		return nil, err
	}

	if goal.Deadline == nil || fields.Deadline == nil || strings.TrimSpace(d.Deadline) != goal.Deadline.Format(s.layout) {
		goal.Deadline = fields.Deadline
	}
	goal.Title = fields.Title
	goal.TargetAmount = fields.TargetAmount
	goal.Notes = fields.Notes

	err = s.repo.Update(goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	if !goal.Image.Equal(fields.Image) {
		err = s.repo.UpdateImage(goalID, fields.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to update goal image: %w", err)
		}
		goal.Image = fields.Image
	}

	return goal, nil
}

// ByID returns a goal together with its transaction history.
func (s *GoalService) ByID(goalID string) (*model.GoalWithTransactions, error) {
	goal, err := s.repo.ByID(goalID)
	if err != nil {
		return nil, err
	}

	transactions, err := s.transactionRepo.Transactions(goalID)
	if err != nil {
		return nil, err
	}

	return &model.GoalWithTransactions{Goal: *goal, Transactions: transactions}, nil
}

// Goals lists all goals with their transactions. Sorting by progress happens
// here since progress is derived from the transaction history.
func (s *GoalService) Goals(ctx context.Context, sortBy string) ([]model.GoalWithTransactions, error) {
	repoSort := sortBy
	if sortBy == GoalSortProgress {
		repoSort = repository.GoalSortTitle
	}

	goals, err := s.repo.Goals(repoSort)
	if err != nil {
		return nil, err
	}

	list, err := withTransactions(ctx, s.transactionRepo, goals)
	if err != nil {
		return nil, err
	}

	if sortBy == GoalSortProgress {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Progress().GreaterThan(list[j].Progress())
		})
	}

	return list, nil
}

func (s *GoalService) Delete(goalID string) error {
	return s.repo.Delete(goalID)
}

func (s *GoalService) SetImage(goalID string, image *model.Bitmap) error {
	err := image.Validate()
	if err != nil {
		return err
	}
	return s.repo.UpdateImage(goalID, image)
}

func (s *GoalService) ClearImage(goalID string) error {
	return s.repo.UpdateImage(goalID, nil)
}

// ValidSort reports whether sortBy names a supported goal ordering.
func ValidSort(sortBy string) bool {
	switch sortBy {
	case "", repository.GoalSortRecent, repository.GoalSortDeadline, repository.GoalSortTitle, GoalSortProgress:
		return true
	}
	return false
}

// withTransactions loads each goal's transactions, a few goals at a time.
// The result keeps the order of goals.
func withTransactions(ctx context.Context, repo repository.TransactionRepository, goals []*model.Goal) ([]model.GoalWithTransactions, error) {
	out := make([]model.GoalWithTransactions, len(goals))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadLimit)

	for i, goal := range goals {
		g.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err
			}

			transactions, err := repo.Transactions(goal.ID)
			if err != nil {
				return fmt.Errorf("failed to load transactions for goal %s: %w", goal.ID, err)
			}

			out[i] = model.GoalWithTransactions{Goal: *goal, Transactions: transactions}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	return out, nil
}
