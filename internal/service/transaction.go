package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/repository"
	"github.com/greenstash/greenstash/internal/validation"
)

var (
	ErrInsufficientFunds = errors.New("withdrawal exceeds saved amount")
)

type TransactionService struct {
	goalRepo repository.GoalRepository
	repo     repository.TransactionRepository
	now      func() time.Time
}

func NewTransactionService(goalRepo repository.GoalRepository, repo repository.TransactionRepository) *TransactionService {
	return &TransactionService{
		goalRepo: goalRepo,
		repo:     repo,
		now:      time.Now,
	}
}

func (s *TransactionService) Deposit(goalID, amount, notes string) (*model.Transaction, error) {
	return s.record(goalID, model.TransactionDeposit, amount, notes)
}

// Withdraw records a withdrawal. The goal's saved amount may not go negative.
func (s *TransactionService) Withdraw(goalID, amount, notes string) (*model.Transaction, error) {
	return s.record(goalID, model.TransactionWithdrawal, amount, notes)
}

func (s *TransactionService) record(goalID, transactionType, amountText, notes string) (*model.Transaction, error) {
	value, err := validation.ParseAmount(amountText)
	if err != nil {
		return nil, err
	}

	t := &model.Transaction{
		ID:        uuid.New().String(),
		GoalID:    goalID,
		Type:      transactionType,
		Amount:    value,
		Timestamp: s.now(),
		Notes:     strings.TrimSpace(notes),
	}

	var check func([]model.Transaction) error
	if transactionType == model.TransactionWithdrawal {
		check = func(existing []model.Transaction) error {
			if value.GreaterThan(model.SavedAmount(existing)) {
				return ErrInsufficientFunds
			}
			return nil
		}
	}

	err = s.repo.Append(t, check)
	if errors.Is(err, repository.ErrGoalNotFound) || errors.Is(err, ErrInsufficientFunds) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return t, nil
}

// List returns a goal's transactions in the order they were recorded.
func (s *TransactionService) List(goalID string) ([]model.Transaction, error) {
	_, err := s.goalRepo.ByID(goalID)
	if err != nil {
		return nil, err
	}
	return s.repo.Transactions(goalID)
}

func (s *TransactionService) Delete(goalID, transactionID string) error {
	return s.repo.Delete(goalID, transactionID)
}
