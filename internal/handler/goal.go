package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/greenstash/greenstash/internal/draft"
	"github.com/greenstash/greenstash/internal/model"
	"github.com/greenstash/greenstash/internal/service"
	"github.com/greenstash/greenstash/internal/validation"
	"github.com/shopspring/decimal"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(goalService *service.GoalService) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
	}
}

// goalRequest carries the goal form fields as typed by the user. Deadlines
// use the configured date style. On update, omitted fields keep their value.
type goalRequest struct {
	Title        *string `json:"title"`
	TargetAmount *string `json:"targetAmount"`
	Deadline     *string `json:"deadline"`
	Notes        *string `json:"notes"`
}

type goalResponse struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	TargetAmount decimal.Decimal       `json:"targetAmount"`
	Deadline     *string               `json:"deadline"`
	Notes        string                `json:"notes"`
	HasImage     bool                  `json:"hasImage"`
	Saved        decimal.Decimal       `json:"saved"`
	Progress     decimal.Decimal       `json:"progress"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
	Transactions []transactionResponse `json:"transactions,omitempty"`
}

func (h *GoalHandler) toResponse(g *model.GoalWithTransactions, withTransactions bool) goalResponse {
	resp := goalResponse{
		ID:           g.Goal.ID,
		Title:        g.Goal.Title,
		TargetAmount: g.Goal.TargetAmount,
		Notes:        g.Goal.Notes,
		HasImage:     g.Goal.Image != nil,
		Saved:        g.Saved(),
		Progress:     g.Progress(),
		CreatedAt:    g.Goal.CreatedAt,
		UpdatedAt:    g.Goal.UpdatedAt,
	}
	if g.Goal.Deadline != nil {
		deadline := g.Goal.Deadline.Format(h.goalService.Layout())
		resp.Deadline = &deadline
	}
	if withTransactions {
		resp.Transactions = make([]transactionResponse, 0, len(g.Transactions))
		for _, t := range g.Transactions {
			resp.Transactions = append(resp.Transactions, toTransactionResponse(t))
		}
	}
	return resp
}

// apply folds the request into a draft. Amounts are taken as sent and
// checked by validation, not filtered like keystrokes.
func (req goalRequest) apply(d draft.Draft) draft.Draft {
	var changes []draft.Change
	if req.Title != nil {
		changes = append(changes, draft.TitleChanged{Text: *req.Title})
	}
	if req.Deadline != nil {
		changes = append(changes, draft.DeadlineChanged{Text: *req.Deadline})
	}
	if req.Notes != nil {
		changes = append(changes, draft.NotesChanged{Text: *req.Notes})
	}
	d = draft.ReduceAll(d, changes...)
	if req.TargetAmount != nil {
		d.TargetAmount = *req.TargetAmount
	}
	return d
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	sortBy := r.URL.Query().Get("sort")
	if !service.ValidSort(sortBy) {
		writeError(w, http.StatusBadRequest, "invalid sort", "use recent, deadline, title or progress")
		return
	}

	goals, err := h.goalService.Goals(r.Context(), sortBy)
	if err != nil {
		writeServiceError(w, r, err, "failed to load goals")
		return
	}

	resp := make([]goalResponse, 0, len(goals))
	for i := range goals {
		resp = append(resp, h.toResponse(&goals[i], false))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := h.goalService.Create(req.apply(draft.Draft{}))
	if err != nil {
		writeServiceError(w, r, err, "failed to create goal")
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(&model.GoalWithTransactions{Goal: *goal}, false))
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(goal, true))
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	current, err := h.goalService.ByID(goalID)
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}

	d := req.apply(draft.FromGoal(&current.Goal, h.goalService.Layout()))
	goal, err := h.goalService.Update(goalID, d)
	if err != nil {
		writeServiceError(w, r, err, "failed to update goal")
		return
	}

	current.Goal = *goal
	writeJSON(w, http.StatusOK, h.toResponse(current, false))
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to delete goal")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	goalID := r.PathValue("id")

	// Parse multipart form (6MB max, image itself is limited to 5MB)
	err := r.ParseMultipartForm(6 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form", err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no image uploaded", "")
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	err = validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	bitmap, err := model.DecodeBitmap(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable image", err.Error())
		return
	}

	err = h.goalService.SetImage(goalID, bitmap)
	if err != nil {
		writeServiceError(w, r, err, "failed to store image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) Image(w http.ResponseWriter, r *http.Request) {
	goal, err := h.goalService.ByID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to load goal")
		return
	}
	if goal.Goal.Image == nil {
		writeError(w, http.StatusNotFound, "goal has no image", "")
		return
	}

	data, err := goal.Goal.Image.PNG()
	if err != nil {
		writeServiceError(w, r, err, "failed to encode image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (h *GoalHandler) ClearImage(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.ClearImage(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "failed to clear image")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
