package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/greenstash/greenstash/internal/backup"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/repository"
	"github.com/greenstash/greenstash/internal/storage"
)

var (
	ErrStorageDisabled = errors.New("backup storage is not configured")
)

// ImportResult summarises what an import added.
type ImportResult struct {
	Version       int   `json:"version"`
	Timestamp     int64 `json:"timestamp"`
	Goals         int   `json:"goals"`
	Transactions  int   `json:"transactions"`
	ImagesDropped int   `json:"imagesDropped"`
}

type BackupService struct {
	codec           *backup.Codec
	goalRepo        repository.GoalRepository
	transactionRepo repository.TransactionRepository
	backupRepo      repository.BackupRepository
	storage         storage.Storage
}

// NewBackupService wires the codec to the repositories. store may be nil,
// in which case snapshot operations return ErrStorageDisabled.
func NewBackupService(
	codec *backup.Codec,
	goalRepo repository.GoalRepository,
	transactionRepo repository.TransactionRepository,
	backupRepo repository.BackupRepository,
	store storage.Storage,
) *BackupService {
	return &BackupService{
		codec:           codec,
		goalRepo:        goalRepo,
		transactionRepo: transactionRepo,
		backupRepo:      backupRepo,
		storage:         store,
	}
}

// ExportFilename is the download name for a backup taken at t.
func ExportFilename(t time.Time) string {
	return fmt.Sprintf("greenstash-backup-%s.json", t.UTC().Format("20060102-150405"))
}

// Export encodes every goal with its transactions into a backup document.
func (s *BackupService) Export(ctx context.Context) (string, error) {
	text, _, err := s.export(ctx)
	return text, err
}

func (s *BackupService) export(ctx context.Context) (string, int, error) {
	goals, err := s.goalRepo.Goals(repository.GoalSortRecent)
	if err != nil {
		return "", 0, fmt.Errorf("failed to load goals: %w", err)
	}

	list, err := withTransactions(ctx, s.transactionRepo, goals)
	if err != nil {
		return "", 0, err
	}

	text, err := s.codec.Encode(list)
	if err != nil {
		return "", 0, fmt.Errorf("failed to encode backup: %w", err)
	}

	return text, len(list), nil
}

// Import decodes a backup document and adds its goals under fresh ids.
// All goals and their transactions are stored in one database transaction,
// so a failed import writes nothing and can simply be retried.
func (s *BackupService) Import(ctx context.Context, text string) (*ImportResult, error) {
	env, err := s.codec.Decode(text)
	if err != nil {
		return nil, err
	}

	for _, imgErr := range env.ImageErrors {
		slog.Warn("dropped corrupt image during import", "goal_index", imgErr.Goal, "title", imgErr.Title, "error", imgErr.Err)
	}

	err = ctx.Err()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Version:       env.Version,
		Timestamp:     env.Timestamp,
		ImagesDropped: len(env.ImageErrors),
	}

	now := time.Now()
	goals := make([]model.GoalWithTransactions, len(env.Data))
	for i, item := range env.Data {
		goal := item.Goal
		goal.ID = uuid.New().String()
		goal.CreatedAt = now
		goal.UpdatedAt = now

		transactions := make([]model.Transaction, len(item.Transactions))
		for j, t := range item.Transactions {
			t.ID = uuid.New().String()
			t.GoalID = goal.ID
			t.Position = j + 1
			transactions[j] = t
		}

		goals[i] = model.GoalWithTransactions{Goal: goal, Transactions: transactions}
		result.Transactions += len(transactions)
	}

	err = s.goalRepo.CreateAll(goals)
	if err != nil {
		return nil, fmt.Errorf("failed to import backup: %w", err)
	}
	result.Goals = len(goals)

	slog.Info("backup imported", "goals", result.Goals, "transactions", result.Transactions, "images_dropped", result.ImagesDropped)

	return result, nil
}

// Snapshot exports the current data to object storage and records it.
func (s *BackupService) Snapshot(ctx context.Context) (*model.Backup, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	text, count, err := s.export(ctx)
	if err != nil {
		return nil, err
	}

	var head struct {
		Version   int   `json:"version"`
		Timestamp int64 `json:"timestamp"`
	}
	err = json.Unmarshal([]byte(text), &head)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup header: %w", err)
	}

	filename := fmt.Sprintf("%d.json", head.Timestamp)
	storagePath := "backups/" + filename

	err = s.storage.Save(storagePath, strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	b := &model.Backup{
		ID:            uuid.New().String(),
		Filename:      filename,
		StoragePath:   storagePath,
		Size:          int64(len(text)),
		GoalCount:     count,
		SchemaVersion: head.Version,
		Timestamp:     head.Timestamp,
		CreatedAt:     time.Now(),
	}

	err = s.backupRepo.Create(b)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded snapshot
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete snapshot from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create backup record: %w", err)
	}

	return b, nil
}

func (s *BackupService) Snapshots() ([]*model.Backup, error) {
	return s.backupRepo.Backups()
}

// Restore imports a stored snapshot.
func (s *BackupService) Restore(ctx context.Context, backupID string) (*ImportResult, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}

	b, err := s.backupRepo.ByID(backupID)
	if err != nil {
		return nil, err
	}

	rc, err := s.storage.Open(b.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return s.Import(ctx, string(data))
}

// DeleteSnapshot removes a snapshot from storage and database
func (s *BackupService) DeleteSnapshot(backupID string) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}

	b, err := s.backupRepo.ByID(backupID)
	if err != nil {
		return err
	}

	// Delete from storage (best effort)
	delErr := s.storage.Delete(b.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete snapshot from storage", "error", delErr, "path", b.StoragePath)
	}

	err = s.backupRepo.Delete(backupID)
	if err != nil {
		return fmt.Errorf("failed to delete backup record: %w", err)
	}

	return nil
}

// SnapshotURL returns a temporary download link for a snapshot.
func (s *BackupService) SnapshotURL(backupID string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	b, err := s.backupRepo.ByID(backupID)
	if err != nil {
		return "", err
	}

	return s.storage.URL(b.StoragePath)
}
