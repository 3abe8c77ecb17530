package repository

import (
	"database/sql"
	"errors"

	"github.com/greenstash/greenstash/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrBackupNotFound = errors.New("backup not found")
)

type BackupRepository interface {
	Create(backup *model.Backup) error
	ByID(id string) (*model.Backup, error)
	Backups() ([]*model.Backup, error)
	Delete(id string) error
}

type backupRepository struct {
	db *sqlx.DB
}

func NewBackupRepository(db *sqlx.DB) BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) Create(backup *model.Backup) error {
	query := `INSERT INTO backups (id, filename, storage_path, size, goal_count, schema_version, envelope_timestamp, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		backup.ID,
		backup.Filename,
		backup.StoragePath,
		backup.Size,
		backup.GoalCount,
		backup.SchemaVersion,
		backup.Timestamp,
		utc(backup.CreatedAt),
	)

	return err
}

func (r *backupRepository) ByID(id string) (*model.Backup, error) {
	backup := &model.Backup{}
	query := `SELECT * FROM backups WHERE id = $1`

	err := r.db.Get(backup, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrBackupNotFound
	}
	if err != nil {
		return nil, err
	}

	return backup, nil
}

func (r *backupRepository) Backups() ([]*model.Backup, error) {
	var backups []*model.Backup
	query := `SELECT * FROM backups ORDER BY created_at DESC`

	err := r.db.Select(&backups, query)
	if err != nil {
		return nil, err
	}

	return backups, nil
}

func (r *backupRepository) Delete(id string) error {
	query := `DELETE FROM backups WHERE id = $1`
	result, err := r.db.Exec(query, id)

	return checkAffected(result, err, ErrBackupNotFound)
}
