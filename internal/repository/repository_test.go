package repository

import (
	"errors"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/greenstash/greenstash/internal/db"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn := filepath.Join(t.TempDir(), "data", "test.db") + "?_pragma=foreign_keys(1)"

	database, err := db.Init("sqlite", conn)
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := db.RunMigrations(database.DB, "sqlite"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func newGoal(title string, deadline *time.Time) *model.Goal {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Goal{
		ID:           uuid.New().String(),
		Title:        title,
		TargetAmount: decimal.RequireFromString("250.75"),
		Deadline:     deadline,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestGoalRepositoryCRUD(t *testing.T) {
	repo := NewGoalRepository(openTestDB(t))

	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	goal := newGoal("Bike", &deadline)
	goal.Notes = "blue"
	goal.Image = model.NewBitmap(2, 2)
	goal.Image.Set(1, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 200})

	if err := repo.Create(goal); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.ByID(goal.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.Title != "Bike" || got.Notes != "blue" || !got.TargetAmount.Equal(goal.TargetAmount) {
		t.Fatalf("unexpected goal: %+v", got)
	}
	if got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Fatalf("unexpected deadline: %v", got.Deadline)
	}
	if !got.Image.Equal(goal.Image) {
		t.Fatalf("image not stored losslessly")
	}

	got.Title = "Road bike"
	got.Deadline = nil
	if err := repo.Update(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.UpdateImage(goal.ID, nil); err != nil {
		t.Fatalf("clear image: %v", err)
	}

	got, err = repo.ByID(goal.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.Title != "Road bike" || got.Deadline != nil || got.Image != nil {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.Delete(goal.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.ByID(goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.Delete(goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestGoalRepositorySorting(t *testing.T) {
	repo := NewGoalRepository(openTestDB(t))

	early := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, g := range []*model.Goal{newGoal("charlie", nil), newGoal("Alpha", &late), newGoal("bravo", &early)} {
		if err := repo.Create(g); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	titles := func(sortBy string) []string {
		goals, err := repo.Goals(sortBy)
		if err != nil {
			t.Fatalf("goals: %v", err)
		}
		var out []string
		for _, g := range goals {
			out = append(out, g.Title)
		}
		return out
	}

	if got := titles(GoalSortTitle); got[0] != "Alpha" || got[1] != "bravo" || got[2] != "charlie" {
		t.Fatalf("unexpected title order: %v", got)
	}
	if got := titles(GoalSortDeadline); got[0] != "bravo" || got[1] != "Alpha" || got[2] != "charlie" {
		t.Fatalf("unexpected deadline order: %v", got)
	}
}

func TestTransactionsKeepAppendOrderAndCascade(t *testing.T) {
	database := openTestDB(t)
	goals := NewGoalRepository(database)
	transactions := NewTransactionRepository(database)

	goal := newGoal("Fund", nil)
	if err := goals.Create(goal); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	ts := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	amounts := []string{"10", "2.5", "7.25"}
	for i, a := range amounts {
		tx := &model.Transaction{
			ID:        uuid.New().String(),
			GoalID:    goal.ID,
			Type:      model.TransactionDeposit,
			Amount:    decimal.RequireFromString(a),
			Timestamp: ts.Add(-time.Duration(i) * time.Hour), // older each time
		}
		if err := transactions.Create(tx); err != nil {
			t.Fatalf("create transaction: %v", err)
		}
		if tx.Position != i+1 {
			t.Fatalf("expected position %d, got %d", i+1, tx.Position)
		}
	}

	list, err := transactions.Transactions(goal.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, a := range amounts {
		if !list[i].Amount.Equal(decimal.RequireFromString(a)) {
			t.Fatalf("transaction %d out of order: %s", i, list[i].Amount)
		}
	}

	if err := transactions.Delete(goal.ID, list[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := transactions.ByID(goal.ID, list[0].ID); !errors.Is(err, ErrTransactionNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := goals.Delete(goal.ID); err != nil {
		t.Fatalf("delete goal: %v", err)
	}
	list, err = transactions.Transactions(goal.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected transactions removed with goal, got %d (err=%v)", len(list), err)
	}
}

func TestCreateWithTransactionsIsAtomic(t *testing.T) {
	database := openTestDB(t)
	goals := NewGoalRepository(database)

	goal := newGoal("Imported", nil)
	txs := []model.Transaction{
		{ID: "t1", GoalID: goal.ID, Type: model.TransactionDeposit, Amount: decimal.NewFromInt(1), Timestamp: time.Now(), Position: 1},
		{ID: "t1", GoalID: goal.ID, Type: model.TransactionDeposit, Amount: decimal.NewFromInt(2), Timestamp: time.Now(), Position: 2},
	}

	if err := goals.CreateWithTransactions(goal, txs); err == nil {
		t.Fatalf("expected duplicate transaction id to fail")
	}
	if _, err := goals.ByID(goal.ID); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected goal insert rolled back, got %v", err)
	}

	txs[1].ID = "t2"
	if err := goals.CreateWithTransactions(goal, txs); err != nil {
		t.Fatalf("create with transactions: %v", err)
	}
	list, err := NewTransactionRepository(database).Transactions(goal.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 transactions, got %d (err=%v)", len(list), err)
	}
}

func TestCreateAllStoresNothingOnFailure(t *testing.T) {
	database := openTestDB(t)
	goals := NewGoalRepository(database)

	first := newGoal("First", nil)
	second := newGoal("Second", nil)
	batch := []model.GoalWithTransactions{
		{Goal: *first, Transactions: []model.Transaction{
			{ID: "dup", GoalID: first.ID, Type: model.TransactionDeposit, Amount: decimal.NewFromInt(3), Timestamp: time.Now(), Position: 1},
		}},
		{Goal: *second, Transactions: []model.Transaction{
			{ID: "dup", GoalID: second.ID, Type: model.TransactionDeposit, Amount: decimal.NewFromInt(4), Timestamp: time.Now(), Position: 1},
		}},
	}

	if err := goals.CreateAll(batch); err == nil {
		t.Fatalf("expected duplicate transaction id to fail")
	}
	list, err := goals.Goals(GoalSortTitle)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected no goals after failed batch, got %d (err=%v)", len(list), err)
	}

	batch[1].Transactions[0].ID = "other"
	if err := goals.CreateAll(batch); err != nil {
		t.Fatalf("create all: %v", err)
	}
	list, err = goals.Goals(GoalSortTitle)
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 goals, got %d (err=%v)", len(list), err)
	}
}

func TestOffsetTimesAreStoredAsUTC(t *testing.T) {
	database := openTestDB(t)
	goals := NewGoalRepository(database)
	transactions := NewTransactionRepository(database)

	zone := time.FixedZone("", -5*3600)
	deadline := time.Date(2024, 3, 15, 18, 30, 0, 0, time.FixedZone("", 5*3600+1800))
	goal := newGoal("Offset", &deadline)
	goal.CreatedAt = goal.CreatedAt.In(zone)
	goal.UpdatedAt = goal.UpdatedAt.In(zone)
	if err := goals.Create(goal); err != nil {
		t.Fatalf("create: %v", err)
	}

	ts := time.Date(2024, 3, 1, 22, 15, 0, 0, zone)
	tx := &model.Transaction{ID: uuid.New().String(), GoalID: goal.ID, Type: model.TransactionDeposit, Amount: decimal.NewFromInt(5), Timestamp: ts}
	if err := transactions.Create(tx); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	got, err := goals.ByID(goal.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if !got.Deadline.Equal(deadline) || !got.CreatedAt.Equal(goal.CreatedAt) {
		t.Fatalf("times changed: deadline=%s created=%s", got.Deadline, got.CreatedAt)
	}
	list, err := transactions.Transactions(goal.ID)
	if err != nil || len(list) != 1 || !list[0].Timestamp.Equal(ts) {
		t.Fatalf("unexpected transactions %+v (err=%v)", list, err)
	}
}

func TestAppendCheckVetoesInsert(t *testing.T) {
	database := openTestDB(t)
	goals := NewGoalRepository(database)
	transactions := NewTransactionRepository(database)

	goal := newGoal("Veto", nil)
	if err := goals.Create(goal); err != nil {
		t.Fatalf("create: %v", err)
	}

	veto := errors.New("no")
	tx := &model.Transaction{ID: uuid.New().String(), GoalID: goal.ID, Type: model.TransactionWithdrawal, Amount: decimal.NewFromInt(1), Timestamp: time.Now()}
	if err := transactions.Append(tx, func([]model.Transaction) error { return veto }); !errors.Is(err, veto) {
		t.Fatalf("expected veto error, got %v", err)
	}
	list, err := transactions.Transactions(goal.ID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected nothing stored, got %d (err=%v)", len(list), err)
	}

	tx.GoalID = "missing"
	if err := transactions.Append(tx, nil); !errors.Is(err, ErrGoalNotFound) {
		t.Fatalf("expected ErrGoalNotFound, got %v", err)
	}
}

func TestBackupRepository(t *testing.T) {
	repo := NewBackupRepository(openTestDB(t))

	older := &model.Backup{ID: "b1", Filename: "a.json", StoragePath: "backups/a.json", Size: 10, GoalCount: 1, SchemaVersion: 1, Timestamp: 1000, CreatedAt: time.Now().Add(-time.Hour)}
	newer := &model.Backup{ID: "b2", Filename: "b.json", StoragePath: "backups/b.json", Size: 20, GoalCount: 2, SchemaVersion: 1, Timestamp: 2000, CreatedAt: time.Now()}
	for _, b := range []*model.Backup{older, newer} {
		if err := repo.Create(b); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := repo.Backups()
	if err != nil || len(list) != 2 || list[0].ID != "b2" {
		t.Fatalf("unexpected list: %v (err=%v)", list, err)
	}

	got, err := repo.ByID("b1")
	if err != nil || got.Timestamp != 1000 || got.StoragePath != "backups/a.json" {
		t.Fatalf("unexpected backup: %+v (err=%v)", got, err)
	}

	if err := repo.Delete("b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.ByID("b1"); !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
