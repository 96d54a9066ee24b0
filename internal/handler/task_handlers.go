package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/hqhub/taskbank/internal/domain"
	"github.com/hqhub/taskbank/internal/handler/dto"
	"github.com/hqhub/taskbank/internal/repository"
	"github.com/hqhub/taskbank/internal/service"
)

// handleCreateTask opens a new task, escrowing its value from the caller.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.Title == "" || len(req.Title) > 200 {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title must be between 1 and 200 characters")
		return
	}

	difficulty := domain.TaskDifficulty(req.Difficulty)
	if !difficulty.IsValid() {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "difficulty must be EASY, MEDIUM, HARD or ELITE")
		return
	}

	valueCents, ok := resolveAmount(w, req.ValueCents, req.Value)
	if !ok {
		return
	}

	result, err := h.taskService.CreateTask(ctx, service.CreateTaskParams{
		TaskID:      req.TaskID,
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Acceptance:  req.Acceptance,
		Difficulty:  difficulty,
		ValueCents:  valueCents,
	})
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ToTaskResponse(result))
}

// handleGetTask retrieves task details.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(ctx, taskID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetail(task))
}

// handleListTasks returns a list of tasks with filters.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	var statuses []string
	if statusParam := query.Get("status"); statusParam != "" {
		statuses = splitAndTrim(statusParam, ",")
	}

	var difficulties []string
	if difficultyParam := query.Get("difficulty"); difficultyParam != "" {
		difficulties = splitAndTrim(difficultyParam, ",")
	}

	var creatorID *string
	if creatorParam := query.Get("creator"); creatorParam != "" {
		if creatorParam == "me" {
			creatorID = &userID
		} else {
			creatorID = &creatorParam
		}
	}

	var executorID *string
	if executorParam := query.Get("executor"); executorParam != "" {
		if executorParam == "me" {
			executorID = &userID
		} else {
			executorID = &executorParam
		}
	}

	limit := 50
	if limitParam := query.Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	offset := 0
	if offsetParam := query.Get("offset"); offsetParam != "" {
		if n, err := strconv.Atoi(offsetParam); err == nil && n >= 0 {
			offset = n
		}
	}

	tasks, err := h.taskService.ListTasks(ctx, repository.TaskListFilters{
		Statuses:     statuses,
		Difficulties: difficulties,
		CreatorID:    creatorID,
		ExecutorID:   executorID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list tasks")
		return
	}

	out := dto.TasksListResponse{
		Tasks:  make([]dto.TaskDetail, len(tasks)),
		Limit:  limit,
		Offset: offset,
	}
	for i, task := range tasks {
		out.Tasks[i] = dto.ToTaskDetail(task)
	}

	respondJSON(w, http.StatusOK, out)
}

// handleApplyToTask records the caller's application.
func (h *Handler) handleApplyToTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	result, err := h.taskService.ApplyToTask(ctx, taskID, userID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.ApplyResponse{
		Application: dto.ToApplicationInfo(result.Application),
		AssignedNow: result.AssignedNow,
		Idempotent:  result.Idempotent,
	})
}

// handlePickExecutor hand-assigns an applicant on a manual-pick task.
func (h *Handler) handlePickExecutor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	var req dto.PickExecutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if req.ExecutorID == "" {
		respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "executor_id is required")
		return
	}

	result, err := h.taskService.PickExecutor(ctx, taskID, userID, req.ExecutorID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(result))
}

// handleCompleteTask settles the task; the caller must be the assigned
// executor.
func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	result, err := h.taskService.CompleteTask(ctx, taskID, userID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(result))
}

// handleCancelTask aborts a task and refunds the escrow.
func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	result, err := h.taskService.CancelTask(ctx, taskID, userID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(result))
}

// handleListApplications lists a task's applications.
func (h *Handler) handleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, ok := extractTaskID(w, r)
	if !ok {
		return
	}

	apps, err := h.taskService.ListApplications(ctx, taskID)
	if err != nil {
		status, code, message := dto.MapDomainError(err)
		respondError(w, status, code, message)
		return
	}

	out := dto.ApplicationsResponse{Applications: make([]dto.ApplicationInfo, len(apps))}
	for i, app := range apps {
		out.Applications[i] = dto.ToApplicationInfo(app)
	}

	respondJSON(w, http.StatusOK, out)
}

// handleSweep triggers one sweep of expired application windows.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	report, err := h.sweeper.Sweep(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Sweep failed")
		return
	}

	respondJSON(w, http.StatusOK, dto.SweepResponse{
		Processed:           report.Processed,
		Assigned:            report.Assigned,
		SkippedNoApplicants: report.SkippedNoApplicants,
	})
}

// splitAndTrim splits a string by delimiter and trims whitespace.
func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
