package model

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBitmapPNGRoundTrip(t *testing.T) {
	b := NewBitmap(4, 3)
	b.Set(0, 0, color.NRGBA{R: 255, A: 255})
	b.Set(3, 2, color.NRGBA{G: 10, B: 20, A: 128})

	data, err := b.PNG()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var got Bitmap
	if err := got.Scan(data); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !b.Equal(&got) {
		t.Fatalf("bitmap changed through png")
	}
}

func TestBitmapFromOffsetImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	src.Set(6, 5, color.RGBA{R: 4, G: 5, B: 6, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}

	b, err := DecodeBitmap(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b.Width != 2 || b.Height != 1 {
		t.Fatalf("unexpected size %dx%d", b.Width, b.Height)
	}
	if b.At(1, 0) != (color.NRGBA{R: 4, G: 5, B: 6, A: 255}) {
		t.Fatalf("unexpected pixel %v", b.At(1, 0))
	}
}

func TestBitmapValidate(t *testing.T) {
	cases := []struct {
		b  Bitmap
		ok bool
	}{
		{Bitmap{Width: 1, Height: 1, Pix: make([]byte, 4)}, true},
		{Bitmap{Width: 0, Height: 1}, false},
		{Bitmap{Width: 2, Height: 2, Pix: make([]byte, 15)}, false},
	}
	for i, tc := range cases {
		err := tc.b.Validate()
		if (err == nil) != tc.ok {
			t.Fatalf("case %d: expected ok=%v, got %v", i, tc.ok, err)
		}
	}
}

func TestProgress(t *testing.T) {
	g := GoalWithTransactions{
		Goal: Goal{TargetAmount: decimal.NewFromInt(200)},
		Transactions: []Transaction{
			{Type: TransactionDeposit, Amount: decimal.NewFromInt(100)},
			{Type: TransactionWithdrawal, Amount: decimal.NewFromInt(50)},
		},
	}
	if !g.Saved().Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected saved 50, got %s", g.Saved())
	}
	if !g.Progress().Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected 25%%, got %s", g.Progress())
	}

	g.Transactions = append(g.Transactions, Transaction{Type: TransactionDeposit, Amount: decimal.NewFromInt(1000)})
	if !g.Progress().Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected progress capped at 100, got %s", g.Progress())
	}

	g.Goal.TargetAmount = decimal.Zero
	if !g.Progress().IsZero() {
		t.Fatalf("expected zero progress for zero target")
	}
}
