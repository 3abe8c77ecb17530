package model

import (
	"time"
)

// Backup is a stored snapshot of the goal data. The JSON document itself
// lives in object storage at StoragePath.
type Backup struct {
	ID            string    `db:"id"`
	Filename      string    `db:"filename"`
	StoragePath   string    `db:"storage_path"`
	Size          int64     `db:"size"`
	GoalCount     int       `db:"goal_count"`
	SchemaVersion int       `db:"schema_version"`
	Timestamp     int64     `db:"envelope_timestamp"` // epoch millis
	CreatedAt     time.Time `db:"created_at"`
}
