package handler

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/greenstash/greenstash/internal/ctxkeys"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/greenstash/greenstash/internal/validation"
)

type BackupHandler struct {
	backupService *service.BackupService
}

func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
	}
}

type snapshotResponse struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	GoalCount     int       `json:"goalCount"`
	SchemaVersion int       `json:"schemaVersion"`
	Timestamp     int64     `json:"timestamp"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toSnapshotResponse(b *model.Backup) snapshotResponse {
	return snapshotResponse{
		ID:            b.ID,
		Filename:      b.Filename,
		Size:          b.Size,
		GoalCount:     b.GoalCount,
		SchemaVersion: b.SchemaVersion,
		Timestamp:     b.Timestamp,
		CreatedAt:     b.CreatedAt,
	}
}

func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	text, err := h.backupService.Export(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to export backup")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+service.ExportFilename(time.Now()))
	_, err = io.WriteString(w, text)
	if err != nil {
		slog.Error("failed to write backup", "error", err, "device", ctxkeys.Device(r.Context()))
	}
}

// Import accepts the backup either as the raw request body or as a
// multipart upload in the "file" field.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	maxSize := validation.BackupConstraints.MaxSize

	var text string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		err := r.ParseMultipartForm(maxSize)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to parse form", err.Error())
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "no backup file uploaded", "")
			return
		}
		defer func() {
			closeErr := file.Close()
			if closeErr != nil {
				slog.Error("failed to close file", "error", closeErr)
			}
		}()

		err = validation.ValidateFile(header, validation.BackupConstraints)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid backup file", err.Error())
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read upload", err.Error())
			return
		}
		text = string(data)
	} else {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSize))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "backup too large", err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read backup", err.Error())
			return
		}
		text = string(data)
	}

	result, err := h.backupService.Import(r.Context(), text)
	if err != nil {
		writeServiceError(w, r, err, "failed to import backup")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *BackupHandler) Snapshots(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backupService.Snapshots()
	if err != nil {
		writeServiceError(w, r, err, "failed to list snapshots")
		return
	}

	resp := make([]snapshotResponse, 0, len(backups))
	for _, b := range backups {
		resp = append(resp, toSnapshotResponse(b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BackupHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	b, err := h.backupService.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to create snapshot")
		return
	}

	slog.Info("snapshot created", "backup_id", b.ID, "goals", b.GoalCount, "device", ctxkeys.Device(r.Context()))
	writeJSON(w, http.StatusCreated, toSnapshotResponse(b))
}

func (h *BackupHandler) SnapshotURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.backupService.SnapshotURL(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to create download link")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	result, err := h.backupService.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to restore snapshot")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *BackupHandler) DeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	err := h.backupService.DeleteSnapshot(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to delete snapshot")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
