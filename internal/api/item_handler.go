package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/phrazzld/vocab-api/internal/api/middleware"
	"github.com/phrazzld/vocab-api/internal/api/shared"
	"github.com/phrazzld/vocab-api/internal/platform/logger"
	"github.com/phrazzld/vocab-api/internal/service"
)

// ItemHandler handles CRUD requests for learning items.
type ItemHandler struct {
	itemService service.ItemService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewItemHandler creates a new ItemHandler backed by the given service.
func NewItemHandler(itemService service.ItemService, log *slog.Logger) *ItemHandler {
	if itemService == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("itemService cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ItemHandler{
		itemService: itemService,
		validator:   validator.New(),
		logger:      log.With(slog.String("component", "item_handler")),
	}
}

// Create handles POST /items.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.itemService.CreateItem(ctx, userID, req.Term, req.Definition, req.GroupKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusCreated, NewItemResponse(item))
}

// Get handles GET /items/{id}.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	item, err := h.itemService.GetItem(ctx, userID, itemID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// List handles GET /items.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContextOrDefault(ctx, h.logger)

	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, err := h.itemService.ListItems(ctx, userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponseList(items))
}

// Update handles PUT /items/{id}.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateItemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	item, err := h.itemService.UpdateContent(
		ctx, userID, itemID, req.Term, req.Definition, req.Example, req.GroupKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, http.StatusOK, NewItemResponse(item))
}

// Delete handles DELETE /items/{id}.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.itemService.DeleteItem(ctx, userID, itemID); err != nil {
		shared.RespondWithErrorAndLog(w, r, log, err,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseItemID extracts and validates the {id} URL parameter. On failure it
// writes a 400 response and returns false.
func parseItemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid item ID")
		return uuid.Nil, false
	}
	return itemID, true
}
