package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/greenstash/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

// Wire records mirror the JSON document field for field. Pointers mark
// fields whose presence is checked on decode.

type envelopeWire struct {
	Version   *int        `json:"version"`
	Timestamp *int64      `json:"timestamp"`
	Data      *[]goalWire `json:"data"`
}

type goalWire struct {
	Title        *string           `json:"title"`
	TargetAmount *json.RawMessage  `json:"targetAmount"`
	Deadline     *string           `json:"deadline"`
	Notes        *string           `json:"notes"`
	Image        *string           `json:"image"`
	Transactions []transactionWire `json:"transactions"`
}

type transactionWire struct {
	Type      *string          `json:"type"`
	Amount    *json.RawMessage `json:"amount"`
	Timestamp *string          `json:"timestamp"`
	Notes     *string          `json:"notes"`
}

func (c *Codec) goalToWire(g *model.GoalWithTransactions) (goalWire, error) {
	image, err := encodeImage(g.Goal.Image)
	if err != nil {
		return goalWire{}, fmt.Errorf("image: %w", err)
	}

	title := g.Goal.Title
	w := goalWire{
		Title:        &title,
		TargetAmount: amountToWire(g.Goal.TargetAmount),
		Deadline:     c.dateToWire(g.Goal.Deadline),
		Notes:        optionalString(g.Goal.Notes),
		Image:        image,
		Transactions: make([]transactionWire, 0, len(g.Transactions)),
	}

	for i := range g.Transactions {
		t, err := c.transactionToWire(&g.Transactions[i])
		if err != nil {
			return goalWire{}, fmt.Errorf("transactions[%d]: %w", i, err)
		}
		w.Transactions = append(w.Transactions, t)
	}

	return w, nil
}

func (c *Codec) goalFromWire(i int, w *goalWire, env *Envelope) (model.GoalWithTransactions, error) {
	path := fmt.Sprintf("data[%d]", i)

	if w.Title == nil {
		return model.GoalWithTransactions{}, malformed(path+".title", "missing")
	}
	target, err := amountFromWire(path+".targetAmount", w.TargetAmount)
	if err != nil {
		return model.GoalWithTransactions{}, err
	}

	goal := model.GoalWithTransactions{
		Goal: model.Goal{
			Title:        *w.Title,
			TargetAmount: target,
		},
		Transactions: make([]model.Transaction, 0, len(w.Transactions)),
	}

	if w.Deadline != nil {
		deadline, err := time.Parse(DateLayout, *w.Deadline)
		if err != nil {
			return model.GoalWithTransactions{}, malformed(path+".deadline", "%v", err)
		}
		goal.Goal.Deadline = &deadline
	}
	if w.Notes != nil {
		goal.Goal.Notes = *w.Notes
	}

	image, err := decodeImage(w.Image)
	if err != nil {
		imgErr := &CorruptImageError{Goal: i, Title: *w.Title, Err: err}
		if c.policy != ImagePolicyPlaceholder {
			return model.GoalWithTransactions{}, imgErr
		}
		env.ImageErrors = append(env.ImageErrors, imgErr)
		image = nil
	}
	goal.Goal.Image = image

	for j := range w.Transactions {
		t, err := c.transactionFromWire(fmt.Sprintf("%s.transactions[%d]", path, j), &w.Transactions[j])
		if err != nil {
			return model.GoalWithTransactions{}, err
		}
		goal.Transactions = append(goal.Transactions, t)
	}

	return goal, nil
}

func (c *Codec) transactionToWire(t *model.Transaction) (transactionWire, error) {
	if !model.ValidTransactionType(t.Type) {
		return transactionWire{}, fmt.Errorf("invalid transaction type %q", t.Type)
	}

	typ := t.Type
	return transactionWire{
		Type:      &typ,
		Amount:    amountToWire(t.Amount),
		Timestamp: c.dateToWire(&t.Timestamp),
		Notes:     optionalString(t.Notes),
	}, nil
}

func (c *Codec) transactionFromWire(path string, w *transactionWire) (model.Transaction, error) {
	if w.Type == nil {
		return model.Transaction{}, malformed(path+".type", "missing")
	}
	if !model.ValidTransactionType(*w.Type) {
		return model.Transaction{}, malformed(path+".type", "unknown transaction type %q", *w.Type)
	}
	amount, err := amountFromWire(path+".amount", w.Amount)
	if err != nil {
		return model.Transaction{}, err
	}
	if w.Timestamp == nil {
		return model.Transaction{}, malformed(path+".timestamp", "missing")
	}
	ts, err := time.Parse(DateLayout, *w.Timestamp)
	if err != nil {
		return model.Transaction{}, malformed(path+".timestamp", "%v", err)
	}

	t := model.Transaction{
		Type:      *w.Type,
		Amount:    amount,
		Timestamp: ts,
	}
	if w.Notes != nil {
		t.Notes = *w.Notes
	}
	return t, nil
}

func (c *Codec) dateToWire(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(c.loc).Format(DateLayout)
	return &s
}

func amountToWire(d decimal.Decimal) *json.RawMessage {
	n := json.RawMessage(d.String())
	return &n
}

// amountFromWire reads a JSON number token. Quoted amounts are rejected and
// so is anything not greater than zero.
func amountFromWire(path string, raw *json.RawMessage) (decimal.Decimal, error) {
	if raw == nil {
		return decimal.Zero, malformed(path, "missing")
	}
	token := *raw
	if len(token) == 0 || (token[0] != '-' && (token[0] < '0' || token[0] > '9')) {
		return decimal.Zero, malformed(path, "expected a number, got %s", token)
	}
	d, err := decimal.NewFromString(string(token))
	if err != nil {
		return decimal.Zero, malformed(path, "%v", err)
	}
	if !d.IsPositive() {
		return decimal.Zero, malformed(path, "must be greater than zero, got %s", d)
	}
	return d, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
