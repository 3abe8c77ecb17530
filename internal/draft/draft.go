// Package draft holds the editable state of a goal while the user fills in
// the goal form. A Draft is never mutated: every input event produces a new
// Draft through Reduce, and Validate turns the final Draft into a Goal.
package draft

import (
	"strings"
	"time"

	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/validation"
)

// Date styles users can pick for typing deadlines.
const (
	DateStyleDayMonthYear = "dd/MM/yyyy"
	DateStyleYearMonthDay = "yyyy/MM/dd"
	DateStyleMonthDayYear = "MM/dd/yyyy"
)

var dateStyleLayouts = map[string]string{
	DateStyleDayMonthYear: "02/01/2006",
	DateStyleYearMonthDay: "2006/01/02",
	DateStyleMonthDayYear: "01/02/2006",
}

// Layout returns the Go time layout for a date style, and false for an
// unknown style.
func Layout(style string) (string, bool) {
	layout, ok := dateStyleLayouts[style]
	return layout, ok
}

type Draft struct {
	Title        string
	TargetAmount string
	Deadline     string
	Notes        string
	Image        *model.Bitmap
}

// Change is one input event on the goal form.
type Change interface {
	apply(Draft) Draft
}

type TitleChanged struct{ Text string }

type AmountChanged struct{ Text string }

type DeadlineChanged struct{ Text string }

// DeadlinePicked is a date chosen from a calendar rather than typed.
type DeadlinePicked struct {
	Date   time.Time
	Layout string
}

type NotesChanged struct{ Text string }

type ImageChanged struct{ Image *model.Bitmap }

type ImageCleared struct{}

func (c TitleChanged) apply(d Draft) Draft    { d.Title = c.Text; return d }
func (c AmountChanged) apply(d Draft) Draft   { d.TargetAmount = FilterAmount(c.Text); return d }
func (c DeadlineChanged) apply(d Draft) Draft { d.Deadline = c.Text; return d }
func (c DeadlinePicked) apply(d Draft) Draft  { d.Deadline = c.Date.Format(c.Layout); return d }
func (c NotesChanged) apply(d Draft) Draft    { d.Notes = c.Text; return d }
func (c ImageChanged) apply(d Draft) Draft    { d.Image = c.Image; return d }
func (c ImageCleared) apply(d Draft) Draft    { d.Image = nil; return d }

// Reduce returns the draft with change applied.
func Reduce(d Draft, change Change) Draft {
	if change == nil {
		return d
	}
	return change.apply(d)
}

// ReduceAll applies changes in order.
func ReduceAll(d Draft, changes ...Change) Draft {
	for _, c := range changes {
		d = Reduce(d, c)
	}
	return d
}

// FilterAmount keeps what can be typed into an amount field: digits, a
// single decimal point that is not the first character, and at most two
// digits after the point.
func FilterAmount(text string) string {
	var b strings.Builder
	seenDot := false
	fraction := 0

	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			if seenDot {
				if fraction == 2 {
					continue
				}
				fraction++
			}
			b.WriteRune(r)
		case r == '.' && !seenDot && b.Len() > 0:
			seenDot = true
			b.WriteRune(r)
		}
	}

	return b.String()
}

// FromGoal pre-fills a draft for editing an existing goal. The amount keeps
// every stored digit so an untouched field validates back to the same value.
func FromGoal(g *model.Goal, layout string) Draft {
	d := Draft{
		Title:        g.Title,
		TargetAmount: g.TargetAmount.String(),
		Notes:        g.Notes,
		Image:        g.Image,
	}
	if g.Deadline != nil {
		d.Deadline = g.Deadline.Format(layout)
	}
	return d
}

// Validate checks the draft and builds the goal fields it describes.
// Identity and timestamps are left to the caller.
func Validate(d Draft, layout string) (model.Goal, error) {
	err := validation.ValidateTitle(d.Title)
	if err != nil {
		return model.Goal{}, err
	}

	amount, err := validation.ParseAmount(d.TargetAmount)
	if err != nil {
		return model.Goal{}, err
	}

	deadline, err := validation.ParseDeadline(d.Deadline, layout)
	if err != nil {
		return model.Goal{}, err
	}

	return model.Goal{
		Title:        strings.TrimSpace(d.Title),
		TargetAmount: amount,
		Deadline:     deadline,
		Notes:        strings.TrimSpace(d.Notes),
		Image:        d.Image,
	}, nil
}
