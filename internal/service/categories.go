package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

// maxCategoryName bounds category name length in characters.
const maxCategoryName = 50

// CategoryRepository defines the persistence operations needed by CategoryService.
type CategoryRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]models.Category, error)
	// Create returns repository.ErrDuplicate if the owner already uses name.
	Create(ctx context.Context, userID, name string) (*models.Category, error)
	Delete(ctx context.Context, userID string, id int64) error
	Exists(ctx context.Context, userID string, id int64) (bool, error)
	// Link must only write rows where both sides belong to userID.
	Link(ctx context.Context, userID string, categoryID, contactID int64) error
	Unlink(ctx context.Context, userID string, categoryID, contactID int64) error
}

// ContactChecker reports whether a user owns a contact.
type ContactChecker interface {
	Exists(ctx context.Context, userID string, id int64) (bool, error)
}

// CategoryService owns the contact↔category association.
type CategoryService struct {
	repo     CategoryRepository
	contacts ContactChecker
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(repo CategoryRepository, contacts ContactChecker) *CategoryService {
	return &CategoryService{repo: repo, contacts: contacts}
}

// ListCategoriesForOwner returns the categories of userID ordered by name.
func (s *CategoryService) ListCategoriesForOwner(ctx context.Context, userID string) ([]models.Category, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// CreateCategory adds a category named name for userID.
func (s *CategoryService) CreateCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, &ValidationError{Fields: map[string]string{"name": "required"}}
	case utf8.RuneCountInString(name) > maxCategoryName:
		return nil, &ValidationError{Fields: map[string]string{"name": "max"}}
	}
	cat, err := s.repo.Create(ctx, userID, name)
	if err != nil {
		return nil, translate(err)
	}
	return cat, nil
}

// DeleteCategory removes a category of userID and its links.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID string, categoryID int64) error {
	return translate(s.repo.Delete(ctx, userID, categoryID))
}

// Link tags a contact with a category. Both must belong to userID, otherwise
// ErrCrossOwner is returned and nothing is written. Linking twice is a no-op.
func (s *CategoryService) Link(ctx context.Context, userID string, categoryID, contactID int64) error {
	ownsCategory, err := s.repo.Exists(ctx, userID, categoryID)
	if err != nil {
		return err
	}
	ownsContact, err := s.contacts.Exists(ctx, userID, contactID)
	if err != nil {
		return err
	}
	if !ownsCategory || !ownsContact {
		return fmt.Errorf("%w: category %d, contact %d", ErrCrossOwner, categoryID, contactID)
	}
	return s.repo.Link(ctx, userID, categoryID, contactID)
}

// Unlink removes a tag. Removing a link that does not exist is a no-op.
func (s *CategoryService) Unlink(ctx context.Context, userID string, categoryID, contactID int64) error {
	return s.repo.Unlink(ctx, userID, categoryID, contactID)
}
