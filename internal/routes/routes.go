package routes

import (
	"net/http"

	"github.com/greenstash/greenstash/internal/app"
	"github.com/greenstash/greenstash/internal/handler"
	"github.com/greenstash/greenstash/internal/middleware"
	"github.com/rs/cors"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService)
	transaction := handler.NewTransactionHandler(app.TransactionService)
	backup := handler.NewBackupHandler(app.BackupService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// ============================================================================
	// API ROUTES (bearer token required)
	// ============================================================================

	api := http.NewServeMux()

	// Goals
	api.HandleFunc("GET /api/goals", goal.List)
	api.HandleFunc("POST /api/goals", goal.Create)
	api.HandleFunc("GET /api/goals/{id}", goal.Get)
	api.HandleFunc("PUT /api/goals/{id}", goal.Update)
	api.HandleFunc("DELETE /api/goals/{id}", goal.Delete)
	api.HandleFunc("PUT /api/goals/{id}/image", goal.UploadImage)
	api.HandleFunc("GET /api/goals/{id}/image", goal.Image)
	api.HandleFunc("DELETE /api/goals/{id}/image", goal.ClearImage)

	// Transactions
	api.HandleFunc("GET /api/goals/{id}/transactions", transaction.List)
	api.HandleFunc("POST /api/goals/{id}/transactions", transaction.Create)
	api.HandleFunc("DELETE /api/goals/{id}/transactions/{txID}", transaction.Delete)

	// Backups - imports and restores are rate limited
	rateLimiter := middleware.RateLimitImports()

	api.HandleFunc("GET /api/backup", backup.Export)
	api.HandleFunc("POST /api/backup", rateLimiter(backup.Import))
	api.HandleFunc("GET /api/snapshots", backup.Snapshots)
	api.HandleFunc("POST /api/snapshots", backup.CreateSnapshot)
	api.HandleFunc("GET /api/snapshots/{id}/url", backup.SnapshotURL)
	api.HandleFunc("POST /api/snapshots/{id}/restore", rateLimiter(backup.Restore))
	api.HandleFunc("DELETE /api/snapshots/{id}", backup.DeleteSnapshot)

	mux.Handle("/api/", middleware.RequireToken(app.TokenService)(api))

	c := cors.New(cors.Options{
		AllowedOrigins: app.Cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	})

	return middleware.Chain(mux,
		middleware.RequestLogging,
		c.Handler,
	)
}
