package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
	"github.com/atinyakov/ContactKeeper/internal/models"
	"go.uber.org/zap"
)

// CategoryManager defines the category operations required by CategoryHandler.
type CategoryManager interface {
	ListCategoriesForOwner(ctx context.Context, userID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, userID, name string) (*models.Category, error)
	DeleteCategory(ctx context.Context, userID string, categoryID int64) error
	Link(ctx context.Context, userID string, categoryID, contactID int64) error
	Unlink(ctx context.Context, userID string, categoryID, contactID int64) error
}

// CategoryHandler handles HTTP requests for categories and contact tagging.
type CategoryHandler struct {
	Categories CategoryManager
	Logger     *zap.Logger
}

// CreateCategoryRequest is the JSON payload for POST /api/categories.
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Categories.ListCategoriesForOwner(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// Create handles POST /api/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	cat, err := h.Categories.CreateCategory(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Name)
	if err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, cat)
}

// Delete handles DELETE /api/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Categories.DeleteCategory(r.Context(), middleware.GetUserIDFromContext(r.Context()), id); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Link handles PUT /api/categories/{id}/contacts/{contactId}.
func (h *CategoryHandler) Link(w http.ResponseWriter, r *http.Request) {
	h.association(w, r, h.Categories.Link)
}

// Unlink handles DELETE /api/categories/{id}/contacts/{contactId}.
func (h *CategoryHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	h.association(w, r, h.Categories.Unlink)
}

func (h *CategoryHandler) association(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, userID string, categoryID, contactID int64) error) {
	categoryID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	contactID, ok := pathID(w, r, "contactId")
	if !ok {
		return
	}
	if err := op(r.Context(), middleware.GetUserIDFromContext(r.Context()), categoryID, contactID); err != nil {
		writeError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
