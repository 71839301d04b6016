package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/internal/server/storage"
	"github.com/avikom/catersync/internal/validation"
	"github.com/avikom/catersync/pkg/api"
)

type contextKey string

// Context keys populated by the auth middleware.
const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
)

// GetUserID extracts the authenticated user's id from the context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetUsername extracts the authenticated username from the context.
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok
}

// maxPayloadSize bounds a single record's JSON payload.
const maxPayloadSize = 1 << 20 // 1 MiB

// EntityHandler serves the generic collection CRUD endpoints.
type EntityHandler struct {
	logger  *slog.Logger
	storage storage.EntityStorage
}

// NewEntityHandler creates the collection handler
func NewEntityHandler(logger *slog.Logger, entityStorage storage.EntityStorage) *EntityHandler {
	return &EntityHandler{
		logger:  logger,
		storage: entityStorage,
	}
}

// List handles GET /api/v1/{collection}
func (h *EntityHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := h.collection(w, r)
	if !ok {
		return
	}

	query, err := parseListQuery(r)
	if err != nil {
		sendError(h.logger, w, api.CodeValidation, err.Error(), http.StatusBadRequest)
		return
	}

	items, err := h.storage.ListEntities(ctx, kind, query)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list entities",
			slog.String("collection", string(kind)), slog.Any("error", err))
		sendError(h.logger, w, "", "internal server error", http.StatusInternalServerError)
		return
	}

	if items == nil {
		items = []api.Entity{}
	}
	sendJSON(h.logger, w, api.ListResponse{Items: items}, http.StatusOK)
}

// Create handles POST /api/v1/{collection}
func (h *EntityHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ok := h.collection(w, r)
	if !ok {
		return
	}

	payload, ok := h.readPayload(w, r, kind)
	if !ok {
		return
	}

	entity, err := h.storage.CreateEntity(ctx, kind, payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create entity",
			slog.String("collection", string(kind)), slog.Any("error", err))
		sendError(h.logger, w, "", "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "entity created",
		slog.String("collection", string(kind)),
		slog.Int64("id", entity.ID))

	sendJSON(h.logger, w, entity, http.StatusCreated)
}

// Get handles GET /api/v1/{collection}/{id}
func (h *EntityHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, id, ok := h.collectionID(w, r)
	if !ok {
		return
	}

	entity, err := h.storage.GetEntity(ctx, kind, id)
	if err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			sendError(h.logger, w, api.CodeNotFound, "record not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get entity",
			slog.String("collection", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		sendError(h.logger, w, "", "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(h.logger, w, entity, http.StatusOK)
}

// Update handles PUT /api/v1/{collection}/{id}. A non-empty If-Match
// header must match the record's current version exactly; a mismatch
// returns 412 with the server's current copy in the error body.
func (h *EntityHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, id, ok := h.collectionID(w, r)
	if !ok {
		return
	}

	payload, ok := h.readPayload(w, r, kind)
	if !ok {
		return
	}

	baseVersion := r.Header.Get("If-Match")

	entity, err := h.storage.UpdateEntity(ctx, kind, id, payload, baseVersion)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntityNotFound):
			sendError(h.logger, w, api.CodeNotFound, "record not found", http.StatusNotFound)
		case errors.Is(err, storage.ErrVersionMismatch):
			h.sendVersionMismatch(ctx, w, kind, id)
		default:
			h.logger.ErrorContext(ctx, "failed to update entity",
				slog.String("collection", string(kind)), slog.Int64("id", id), slog.Any("error", err))
			sendError(h.logger, w, "", "internal server error", http.StatusInternalServerError)
		}
		return
	}

	sendJSON(h.logger, w, entity, http.StatusOK)
}

// Delete handles DELETE /api/v1/{collection}/{id}
func (h *EntityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, id, ok := h.collectionID(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteEntity(ctx, kind, id); err != nil {
		if errors.Is(err, storage.ErrEntityNotFound) {
			sendError(h.logger, w, api.CodeNotFound, "record not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete entity",
			slog.String("collection", string(kind)), slog.Int64("id", id), slog.Any("error", err))
		sendError(h.logger, w, "", "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "entity deleted",
		slog.String("collection", string(kind)),
		slog.Int64("id", id))

	w.WriteHeader(http.StatusNoContent)
}

// sendVersionMismatch answers 412 carrying the server's current copy
// so the client can surface both sides of the conflict.
func (h *EntityHandler) sendVersionMismatch(ctx context.Context, w http.ResponseWriter, kind models.Kind, id int64) {
	current, err := h.storage.GetEntity(ctx, kind, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load current entity for conflict response",
			slog.String("collection", string(kind)), slog.Int64("id", id), slog.Any("error", err))
	}
	sendJSON(h.logger, w, api.ErrorResponse{
		Code:    api.CodeVersionMismatch,
		Message: "record was modified by someone else",
		Current: current,
	}, http.StatusPreconditionFailed)
}

// collection resolves and validates the {collection} path segment
func (h *EntityHandler) collection(w http.ResponseWriter, r *http.Request) (models.Kind, bool) {
	kind := models.Kind(r.PathValue("collection"))
	if !kind.Valid() {
		sendError(h.logger, w, api.CodeNotFound, "unknown collection", http.StatusNotFound)
		return "", false
	}
	return kind, true
}

// collectionID resolves the {collection} and {id} path segments
func (h *EntityHandler) collectionID(w http.ResponseWriter, r *http.Request) (models.Kind, int64, bool) {
	kind, ok := h.collection(w, r)
	if !ok {
		return "", 0, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		sendError(h.logger, w, api.CodeValidation, "invalid record id", http.StatusBadRequest)
		return "", 0, false
	}
	return kind, id, true
}

// readPayload reads and validates a record payload from the body
func (h *EntityHandler) readPayload(w http.ResponseWriter, r *http.Request, kind models.Kind) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize+1))
	if err != nil {
		sendError(h.logger, w, api.CodeValidation, "failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	if len(body) > maxPayloadSize {
		sendError(h.logger, w, api.CodeValidation, "payload too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}

	if err := validation.ValidatePayload(kind, body); err != nil {
		h.logger.WarnContext(r.Context(), "payload rejected",
			slog.String("collection", string(kind)), slog.Any("error", err))
		sendError(h.logger, w, api.CodeValidation, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return json.RawMessage(body), true
}

func parseListQuery(r *http.Request) (api.ListQuery, error) {
	q := r.URL.Query()
	query := api.ListQuery{
		Search: q.Get("search"),
		Status: q.Get("status"),
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return api.ListQuery{}, errors.New("invalid from timestamp, expected RFC 3339")
		}
		query.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return api.ListQuery{}, errors.New("invalid to timestamp, expected RFC 3339")
		}
		query.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return api.ListQuery{}, errors.New("invalid limit")
		}
		query.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return api.ListQuery{}, errors.New("invalid offset")
		}
		query.Offset = n
	}
	return query, nil
}
