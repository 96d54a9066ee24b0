package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hqhub/taskbank/internal/config"
	"github.com/hqhub/taskbank/internal/handler/dto"
	"github.com/hqhub/taskbank/internal/middleware"
	"github.com/hqhub/taskbank/internal/repository"
	"github.com/hqhub/taskbank/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	pool               *pgxpool.Pool
	cfg                *config.Config
	ledgerService      *service.LedgerService
	reputationService  *service.ReputationService
	taskService        *service.TaskService
	sweeper            *service.Sweeper
	identityMiddleware *middleware.IdentityMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(pool *pgxpool.Pool, cfg *config.Config) *Handler {
	// Create repositories
	walletRepo := repository.NewWalletRepository(pool)
	entryRepo := repository.NewLedgerEntryRepository(pool)
	repRepo := repository.NewReputationRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	appRepo := repository.NewTaskApplicationRepository(pool)

	// Create services
	ledgerService := service.NewLedgerService(pool, walletRepo, entryRepo)
	reputationService := service.NewReputationService(pool, repRepo)
	taskService := service.NewTaskService(pool, ledgerService, reputationService, taskRepo, appRepo, repRepo)
	sweeper := service.NewSweeper(pool, taskRepo, appRepo, cfg.SweepBatchSize)

	return &Handler{
		pool:               pool,
		cfg:                cfg,
		ledgerService:      ledgerService,
		reputationService:  reputationService,
		taskService:        taskService,
		sweeper:            sweeper,
		identityMiddleware: middleware.NewIdentityMiddleware(),
	}
}

// Sweeper exposes the sweep job for the background scheduler.
func (h *Handler) Sweeper() *service.Sweeper {
	return h.sweeper
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	identified := func(fn http.HandlerFunc) http.Handler {
		return h.identityMiddleware.Identify(fn)
	}

	// Wallet and ledger
	mux.Handle("GET /api/v1/wallet", identified(h.handleGetWallet))
	mux.Handle("GET /api/v1/wallet/statement", identified(h.handleStatement))
	mux.Handle("POST /api/v1/wallet/credit", identified(h.handleCredit))
	mux.Handle("POST /api/v1/wallet/debit", identified(h.handleDebit))
	mux.Handle("POST /api/v1/wallet/reverse", identified(h.handleReverse))

	// Reputation
	mux.Handle("GET /api/v1/reputation", identified(h.handleGetReputation))
	mux.Handle("GET /api/v1/reputation/entries", identified(h.handleReputationEntries))
	mux.Handle("POST /api/v1/reputation/adjust", identified(h.handleReputationAdjust))
	mux.Handle("POST /api/v1/reputation/reverse", identified(h.handleReputationReverse))
	mux.Handle("GET /api/v1/leaderboard", identified(h.handleLeaderboard))

	// Tasks
	mux.Handle("GET /api/v1/tasks", identified(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", identified(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", identified(h.handleGetTask))
	mux.Handle("GET /api/v1/tasks/{id}/applications", identified(h.handleListApplications))
	mux.Handle("POST /api/v1/tasks/{id}/apply", identified(h.handleApplyToTask))
	mux.Handle("POST /api/v1/tasks/{id}/pick", identified(h.handlePickExecutor))
	mux.Handle("POST /api/v1/tasks/{id}/complete", identified(h.handleCompleteTask))
	mux.Handle("POST /api/v1/tasks/{id}/cancel", identified(h.handleCancelTask))

	// Operational
	mux.Handle("POST /api/v1/sweep", identified(h.handleSweep))
}

// handleHealthz returns 200 OK if the database is reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.pool.Ping(ctx); err != nil {
		slog.Error("database health check failed", "error", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Ping checks if the database is reachable (used for testing).
func (h *Handler) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// extractTaskID extracts and validates task ID from path parameter.
// Returns (taskID, true) if valid, ("", false) if invalid (error already sent to client).
func extractTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := r.PathValue("id")
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id is required")
		return "", false
	}

	if _, err := uuid.Parse(taskID); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", "task id must be a valid UUID")
		return "", false
	}

	return taskID, true
}

// requireUserID pulls the caller identity from context, responding with 401
// if the middleware did not set one.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "IDENTITY_REQUIRED", "Caller identity required")
		return "", false
	}
	return userID, true
}
