package validation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	ErrTitleEmpty      = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title is too long (max 100 characters)")
	ErrAmountInvalid   = errors.New("amount must be a number greater than zero")
	ErrDeadlineInvalid = errors.New("deadline does not match the date format")
)

const maxTitleLength = 100

// ValidateTitle validates a goal title
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)

	if trimmed == "" {
		return ErrTitleEmpty
	}

	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return ErrTitleTooLong
	}

	return nil
}

// ParseAmount parses a user-entered amount. Only positive values are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasSuffix(s, ".") {
		return decimal.Zero, ErrAmountInvalid
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrAmountInvalid
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrAmountInvalid
	}

	return amount, nil
}

// ParseDeadline parses an optional deadline in the given layout.
// An empty string means no deadline.
func ParseDeadline(s, layout string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	deadline, err := time.Parse(layout, s)
	if err != nil {
		return nil, ErrDeadlineInvalid
	}

	return &deadline, nil
}
