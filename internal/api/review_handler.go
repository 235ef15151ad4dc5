package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/vocab-api/internal/api/middleware"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/config"
	"github.com/phrazzld/vocab-api/internal/domain"
	"github.com/phrazzld/vocab-api/internal/domain/srs"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service/review"
	"github.com/phrazzld/vocab-api/internal/store"
)

// ReviewHandler handles review session endpoints: starting a session,
// answering items, flushing the session, and schedule queries.
type ReviewHandler struct {
	reviewService  review.Service
	reviewLogStore store.ReviewLogStore
	defaults       config.ReviewConfig
	validator      *validator.Validate
	logger         *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(
	reviewService review.Service,
	reviewLogStore store.ReviewLogStore,
	defaults config.ReviewConfig,
	log *slog.Logger,
) *ReviewHandler {
	if reviewService == nil || reviewLogStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependencies
		panic("reviewService and reviewLogStore cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReviewHandler{
		reviewService:  reviewService,
		reviewLogStore: reviewLogStore,
		defaults:       defaults,
		validator:      validator.New(),
		logger:         log.With(slog.String("component", "review_handler")),
	}
}

// StartSession handles POST /reviews/session. The request body is optional;
// omitted limits fall back to the configured defaults.
func (h *ReviewHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req StartSessionRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
			return
		}
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaults.SessionLimit
	}
	batchSize := req.BatchSize
	if batchSize == 0 {
		batchSize = h.defaults.BatchSize
	}

	plan, err := h.reviewService.StartSession(ctx, userID, limit, batchSize)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusCreated, NewSessionPlanResponse(plan))
}

// SubmitAnswer handles POST /reviews/items/{id}/answer. The answered item is
// returned with its projected review state; nothing is persisted until the
// session ends.
func (h *ReviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	answer := review.ReviewAnswer{
		Quality: req.Quality,
		Rating:  srs.Rating(req.Rating),
	}

	item, err := h.reviewService.SubmitAnswer(ctx, userID, itemID, answer)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// EndSession handles POST /reviews/session/end.
func (h *ReviewHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	h.finishSession(w, r, false)
}

// AbandonSession handles POST /reviews/session/abandon. Answers already
// given are kept; the session log is marked abandoned.
func (h *ReviewHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	h.finishSession(w, r, true)
}

func (h *ReviewHandler) finishSession(w http.ResponseWriter, r *http.Request, abandon bool) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var summary *review.SessionSummary
	var err error
	if abandon {
		summary, err = h.reviewService.AbandonSession(ctx, userID)
	} else {
		summary, err = h.reviewService.EndSession(ctx, userID)
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewSessionSummaryResponse(summary))
}

// DueItems handles GET /reviews/due.
func (h *ReviewHandler) DueItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, err := h.reviewService.DueItems(ctx, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponseList(items))
}

// WeakItems handles GET /items/weak, returning items whose track record
// marks them as struggling.
func (h *ReviewHandler) WeakItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, err := h.reviewService.WeakItems(ctx, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponseList(items))
}

// PostponeItem handles POST /items/{id}/postpone.
func (h *ReviewHandler) PostponeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	itemID, ok := parseItemID(w, r)
	if !ok {
		return
	}

	var req PostponeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.reviewService.PostponeItem(ctx, userID, itemID, req.Days)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// History handles GET /reviews/history, returning the user's most recent
// session logs. The limit query parameter caps the result count.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	logs, err := h.reviewLogStore.ListByUser(ctx, userID, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}
	if logs == nil {
		logs = []*domain.ReviewLog{}
	}

	shared.RespondWithJSON(w, http.StatusOK, logs)
}
