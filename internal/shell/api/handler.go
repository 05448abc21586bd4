// Package api provides HTTP handlers for the rollout timeline API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/artpar/rollout/internal/core/notify"
	"github.com/artpar/rollout/internal/core/progress"
	"github.com/artpar/rollout/internal/core/schedule"
	"github.com/artpar/rollout/internal/core/timeline"
	"github.com/artpar/rollout/internal/shell/store"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, d *notify.Dispatcher, l *slog.Logger) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if d == nil {
		d = notify.NewDispatcher(l)
	}
	return &Handler{
		store:      s,
		dispatcher: d,
		logger:     l,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.jsonContentType)

	r.Get("/health", h.handleHealth)

	r.Route("/api/v1/timelines", func(r chi.Router) {
		r.Post("/", h.handleCreateTimeline)
		r.Get("/", h.handleListTimelines)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetTimeline)
			r.Delete("/", h.handleDeleteTimeline)

			r.Post("/stages", h.handleAddStage)
			r.Post("/milestones", h.handleAddMilestone)
			r.Post("/dependencies", h.handleAddDependency)

			r.Post("/items/{itemID}/start", h.handleStartItem)
			r.Post("/items/{itemID}/complete", h.handleCompleteItem)
			r.Post("/items/{itemID}/fail", h.handleFailItem)
			r.Post("/stages/{stageID}/tasks/{taskID}/complete", h.handleCompleteTask)
			r.Post("/milestones/{msID}/delay", h.handleDelayMilestone)

			r.Get("/validation", h.handleValidation)
			r.Get("/critical-path", h.handleCriticalPath)
			r.Get("/ready", h.handleReady)
			r.Get("/next", h.handleNext)
			r.Get("/unblocked-by/{itemID}", h.handleUnblockedBy)
			r.Get("/estimate", h.handleEstimate)
			r.Get("/progress", h.handleProgress)
		})
	})

	return r
}

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// =============================================================================
// Timeline Handlers
// =============================================================================

func (h *Handler) handleCreateTimeline(w http.ResponseWriter, r *http.Request) {
	var req CreateTimelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "validation_error")
		return
	}

	tl := timeline.NewTimeline(req.Name)
	tl.Description = req.Description

	if err := h.store.SaveTimeline(r.Context(), tl); err != nil {
		h.logger.Error("failed to save timeline", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save timeline", "store_error")
		return
	}
	h.writeJSON(w, http.StatusCreated, tl)
}

func (h *Handler) handleListTimelines(w http.ResponseWriter, r *http.Request) {
	opts := listOptions(r)

	var (
		timelines []*timeline.Timeline
		err       error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		timelines, err = h.store.SearchByName(r.Context(), r.URL.Query().Get("q"), opts)
	case r.URL.Query().Get("status") != "":
		status := timeline.TimelineStatus(r.URL.Query().Get("status"))
		timelines, err = h.store.ListByStatus(r.Context(), status, opts)
	default:
		timelines, err = h.store.ListTimelines(r.Context(), opts)
	}
	if err != nil {
		h.logger.Error("failed to list timelines", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list timelines", "store_error")
		return
	}
	h.writeJSON(w, http.StatusOK, timelines)
}

func (h *Handler) handleGetTimeline(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, tl)
}

func (h *Handler) handleDeleteTimeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteTimeline(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "timeline not found", "not_found")
			return
		}
		h.logger.Error("failed to delete timeline", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete timeline", "store_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Item Handlers
// =============================================================================

func (h *Handler) handleAddStage(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	var req AddStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "validation_error")
		return
	}

	stage := timeline.NewStage(req.Name, parsePriority(req.Priority))
	stage.Description = req.Description
	stage.Owner = req.Owner

	start, err := parseDate(req.PlannedStart)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid planned_start", "validation_error")
		return
	}
	end, err := parseDate(req.PlannedEnd)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid planned_end", "validation_error")
		return
	}
	stage.PlannedStartDate = start
	stage.PlannedEndDate = end

	for _, t := range req.Tasks {
		stage.AddTask(t.Description, t.EstimatedHours)
	}

	if err := tl.AddStage(stage); err != nil {
		h.writeError(w, http.StatusConflict, err.Error(), "conflict")
		return
	}
	if !h.saveTimeline(w, r, tl) {
		return
	}
	h.writeJSON(w, http.StatusCreated, stage)
}

func (h *Handler) handleAddMilestone(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	var req AddMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", "validation_error")
		return
	}

	target, err := parseDate(req.Target)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid target", "validation_error")
		return
	}

	ms := timeline.NewMilestone(req.Name, parsePriority(req.Priority), target)
	ms.Owner = req.Owner

	if err := tl.AddMilestone(ms); err != nil {
		h.writeError(w, http.StatusConflict, err.Error(), "conflict")
		return
	}
	if !h.saveTimeline(w, r, tl) {
		return
	}
	h.writeJSON(w, http.StatusCreated, ms)
}

func (h *Handler) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	var req AddDependencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	depType := timeline.DependencyType(req.Type)
	if req.Type == "" {
		depType = timeline.FinishToStart
	}
	blocker := true
	if req.IsBlocker != nil {
		blocker = *req.IsBlocker
	}

	err := tl.AddDependency(req.ItemID, timeline.Dependency{
		DependsOnID: req.DependsOnID,
		Type:        depType,
		DelayDays:   req.DelayDays,
		IsBlocker:   blocker,
	})
	if err != nil {
		if errors.Is(err, timeline.ErrItemNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error(), "not_found")
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	// Reject edits that make the graph invalid rather than persisting a
	// plan later queries cannot trust.
	report := schedule.NewResolver(tl).ValidateDependencies()
	if !report.Valid {
		h.writeJSON(w, http.StatusUnprocessableEntity, report)
		return
	}

	if !h.saveTimeline(w, r, tl) {
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleStartItem(w http.ResponseWriter, r *http.Request) {
	h.transitionItem(w, r, func(item timeline.Item, tl *timeline.Timeline) (timeline.Trigger, error) {
		if err := item.Base().Start(time.Now()); err != nil {
			return "", err
		}
		return timeline.TriggerStageStarted, nil
	})
}

func (h *Handler) handleCompleteItem(w http.ResponseWriter, r *http.Request) {
	h.transitionItem(w, r, func(item timeline.Item, tl *timeline.Timeline) (timeline.Trigger, error) {
		if ms, ok := item.(*timeline.Milestone); ok {
			if err := ms.Reach(time.Now()); err != nil {
				return "", err
			}
			return timeline.TriggerMilestoneReached, nil
		}
		if err := item.Base().Complete(time.Now()); err != nil {
			return "", err
		}
		return timeline.TriggerStageCompleted, nil
	})
}

func (h *Handler) handleFailItem(w http.ResponseWriter, r *http.Request) {
	h.transitionItem(w, r, func(item timeline.Item, tl *timeline.Timeline) (timeline.Trigger, error) {
		if ms, ok := item.(*timeline.Milestone); ok {
			if err := ms.Miss(time.Now()); err != nil {
				return "", err
			}
			return timeline.TriggerMilestoneMissed, nil
		}
		if err := item.Base().Fail(time.Now()); err != nil {
			return "", err
		}
		return timeline.TriggerStageFailed, nil
	})
}

// transitionItem applies a state transition to an item and dispatches the
// resulting notification trigger.
func (h *Handler) transitionItem(w http.ResponseWriter, r *http.Request, apply func(timeline.Item, *timeline.Timeline) (timeline.Trigger, error)) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	item, found := tl.FindItem(itemID)
	if !found {
		h.writeError(w, http.StatusNotFound, "item not found", "not_found")
		return
	}

	trigger, err := apply(item, tl)
	if err != nil {
		h.writeError(w, http.StatusConflict, err.Error(), "invalid_transition")
		return
	}

	if !h.saveTimeline(w, r, tl) {
		return
	}

	h.dispatcher.Dispatch(trigger, item, tl)
	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	stage, found := tl.FindStage(chi.URLParam(r, "stageID"))
	if !found {
		h.writeError(w, http.StatusNotFound, "stage not found", "not_found")
		return
	}
	if err := stage.CompleteTask(chi.URLParam(r, "taskID")); err != nil {
		h.writeError(w, http.StatusNotFound, "task not found", "not_found")
		return
	}

	if !h.saveTimeline(w, r, tl) {
		return
	}
	h.writeJSON(w, http.StatusOK, stage)
}

func (h *Handler) handleDelayMilestone(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	ms, found := tl.FindMilestone(chi.URLParam(r, "msID"))
	if !found {
		h.writeError(w, http.StatusNotFound, "milestone not found", "not_found")
		return
	}

	var req DelayMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}
	target, err := parseDate(req.Target)
	if err != nil || target == nil {
		h.writeError(w, http.StatusBadRequest, "invalid target", "validation_error")
		return
	}

	if err := ms.Delay(*target, time.Now()); err != nil {
		h.writeError(w, http.StatusConflict, err.Error(), "invalid_transition")
		return
	}

	if !h.saveTimeline(w, r, tl) {
		return
	}
	h.dispatcher.Dispatch(timeline.TriggerMilestoneDelayed, ms, tl)
	h.writeJSON(w, http.StatusOK, ms)
}

// =============================================================================
// Scheduling Query Handlers
// =============================================================================

func (h *Handler) handleValidation(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, schedule.NewResolver(tl).ValidateDependencies())
}

func (h *Handler) handleCriticalPath(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	result, err := schedule.NewResolver(tl).CriticalPath()
	if err != nil {
		// Cycle in the finish-bounding subgraph; the validation endpoint
		// reports the exact path.
		h.writeError(w, http.StatusUnprocessableEntity, err.Error(), "invalid_plan")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}
	ready := schedule.NewResolver(tl).ItemsReadyToStart()
	h.writeJSON(w, http.StatusOK, summarize(ready))
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid limit", "validation_error")
			return
		}
		limit = n
	}

	next := schedule.NewResolver(tl).NextItems(limit)
	h.writeJSON(w, http.StatusOK, summarize(next))
}

func (h *Handler) handleUnblockedBy(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	itemID := chi.URLParam(r, "itemID")
	if _, found := tl.FindItem(itemID); !found {
		h.writeError(w, http.StatusNotFound, "item not found", "not_found")
		return
	}

	unblocked := schedule.NewResolver(tl).ItemsUnblockedBy(itemID)
	h.writeJSON(w, http.StatusOK, summarize(unblocked))
}

func (h *Handler) handleEstimate(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	var resp EstimateResponse
	if estimate := schedule.NewResolver(tl).EstimateCompletionDate(time.Now()); estimate != nil {
		formatted := estimate.Format(time.RFC3339)
		resp.EstimatedCompletion = &formatted
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	tl, ok := h.loadTimeline(w, r)
	if !ok {
		return
	}

	strat, err := progress.ForName(r.URL.Query().Get("strategy"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	h.writeJSON(w, http.StatusOK, progress.GetDetailedProgress(tl, strat))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) loadTimeline(w http.ResponseWriter, r *http.Request) (*timeline.Timeline, bool) {
	id := chi.URLParam(r, "id")
	tl, err := h.store.GetTimeline(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "timeline not found", "not_found")
			return nil, false
		}
		h.logger.Error("failed to load timeline", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to load timeline", "store_error")
		return nil, false
	}
	return tl, true
}

func (h *Handler) saveTimeline(w http.ResponseWriter, r *http.Request, tl *timeline.Timeline) bool {
	if err := h.store.SaveTimeline(r.Context(), tl); err != nil {
		h.logger.Error("failed to save timeline", "id", tl.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save timeline", "store_error")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func summarize(items []timeline.Item) []ItemSummary {
	summaries := make([]ItemSummary, 0, len(items))
	for _, item := range items {
		base := item.Base()
		summaries = append(summaries, ItemSummary{
			ID:       base.ID,
			Name:     base.Name,
			Status:   string(base.Status),
			Priority: string(base.Priority),
		})
	}
	return summaries
}

func listOptions(r *http.Request) store.ListOptions {
	opts := store.DefaultListOptions()
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Offset = n
		}
	}
	return opts.Normalize()
}

func parsePriority(s string) timeline.Priority {
	switch s {
	case "critical":
		return timeline.PriorityCritical
	case "high":
		return timeline.PriorityHigh
	case "low":
		return timeline.PriorityLow
	default:
		return timeline.PriorityMedium
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	utc := t.UTC()
	return &utc, nil
}
