package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/service"
	"go.uber.org/zap"
)

// ContactDirectory defines the contact operations required by ContactHandler.
type ContactDirectory interface {
	ListByOwner(ctx context.Context, userID string, categoryID int64) ([]models.Contact, error)
	Search(ctx context.Context, userID, query string) ([]models.Contact, error)
	Get(ctx context.Context, userID string, contactID int64) (*models.Contact, error)
	Create(ctx context.Context, userID string, in service.CreateInput) (*models.Contact, error)
	Edit(ctx context.Context, userID string, contactID int64, in service.EditInput) (*models.Contact, error)
	Delete(ctx context.Context, userID string, contactID int64) error
}

// ContactHandler handles HTTP requests for contacts.
type ContactHandler struct {
	Directory ContactDirectory
	Logger    *zap.Logger
}

// List handles GET /api/contacts?categoryId=N. A missing or zero categoryId lists everything.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	categoryID := models.AllCategories
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid categoryId"})
			return
		}
		categoryID = id
	}

	contacts, err := h.Directory.ListByOwner(r.Context(), middleware.GetUserIDFromContext(r.Context()), categoryID)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Search handles GET /api/contacts/search?q=...
func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Directory.Search(r.Context(), middleware.GetUserIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Get handles GET /api/contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	contact, err := h.Directory.Get(r.Context(), middleware.GetUserIDFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Create handles POST /api/contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if !decodeBody(w, r, &in) {
		return
	}
	contact, err := h.Directory.Create(r.Context(), middleware.GetUserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// Edit handles PUT /api/contacts/{id}.
func (h *ContactHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in service.EditInput
	if !decodeBody(w, r, &in) {
		return
	}
	contact, err := h.Directory.Edit(r.Context(), middleware.GetUserIDFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Delete handles DELETE /api/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Directory.Delete(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// States handles GET /api/states.
func States(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.States)
}
