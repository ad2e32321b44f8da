// Package service holds the contact directory and category association logic.
// Every operation takes the caller's user id explicitly and is scoped to it.
package service

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/repository"
	"go.uber.org/zap"
)

// ContactRepository defines the persistence operations needed by the Directory.
type ContactRepository interface {
	ListByOwner(ctx context.Context, userID string) ([]models.Contact, error)
	ListByCategory(ctx context.Context, userID string, categoryID int64) ([]models.Contact, error)
	SearchByName(ctx context.Context, userID, query string) ([]models.Contact, error)
	// GetByID returns repository.ErrNotFound for unknown or foreign ids.
	GetByID(ctx context.Context, userID string, id int64) (*models.Contact, error)
	Exists(ctx context.Context, userID string, id int64) (bool, error)
	// Create stores c and its category links atomically.
	Create(ctx context.Context, c *models.Contact, categoryIDs []int64) error
	// Update returns repository.ErrConflict when c.Version is stale or the row is gone.
	Update(ctx context.Context, c *models.Contact, replaceImage bool) error
	Delete(ctx context.Context, userID string, id int64) error
}

// ImageCodec converts an uploaded image into stored bytes and a content type.
type ImageCodec interface {
	ToBytes(r io.Reader, declaredType string) ([]byte, string, error)
}

// CategoryLister yields the categories a user may tag contacts with.
type CategoryLister interface {
	ListCategoriesForOwner(ctx context.Context, userID string) ([]models.Category, error)
}

// Directory serves one user's contacts and mediates all changes to them.
type Directory struct {
	contacts   ContactRepository
	categories CategoryLister
	codec      ImageCodec
	log        *zap.Logger
	now        func() time.Time
}

// NewDirectory constructs a Directory. A nil logger disables logging.
func NewDirectory(contacts ContactRepository, categories CategoryLister, codec ImageCodec, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{
		contacts:   contacts,
		categories: categories,
		codec:      codec,
		log:        log,
		now:        time.Now,
	}
}

// ListByOwner returns the contacts of userID sorted by last then first name.
// With categoryID other than models.AllCategories only members of that
// category are returned; a category userID does not own has no members.
func (d *Directory) ListByOwner(ctx context.Context, userID string, categoryID int64) ([]models.Contact, error) {
	if categoryID == models.AllCategories {
		return d.contacts.ListByOwner(ctx, userID)
	}
	return d.contacts.ListByCategory(ctx, userID, categoryID)
}

// Search returns the contacts of userID whose full name ("First Last")
// contains query, ignoring case. An empty query lists everything.
func (d *Directory) Search(ctx context.Context, userID, query string) ([]models.Contact, error) {
	if query == "" {
		return d.ListByOwner(ctx, userID, models.AllCategories)
	}
	return d.contacts.SearchByName(ctx, userID, query)
}

// Get returns a single contact of userID with its categories.
func (d *Directory) Get(ctx context.Context, userID string, contactID int64) (*models.Contact, error) {
	c, err := d.contacts.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// Create validates in and stores a new contact owned by userID, tagged with
// in.CategoryIDs. Nothing is written when validation, category ownership or
// image decoding fails.
func (d *Directory) Create(ctx context.Context, userID string, in CreateInput) (*models.Contact, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	ids := uniqueIDs(in.CategoryIDs)
	picked, err := d.ownedCategories(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	c := in.toContact()
	c.OwnerID = userID
	c.Created = d.now().UTC()

	if in.Image != nil {
		if err := d.attachImage(&c, in.Image); err != nil {
			return nil, err
		}
	}

	if err := d.contacts.Create(ctx, &c, ids); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	c.Categories = picked
	return &c, nil
}

// Edit rewrites the fields of an existing contact. Owner and creation time
// are never changed and category links are left alone. A stale version on a
// deleted contact is ErrNotFound; on a live one it is ErrConcurrentModification.
func (d *Directory) Edit(ctx context.Context, userID string, contactID int64, in EditInput) (*models.Contact, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.OwnerID != userID {
		return nil, ErrNotFound
	}

	c := in.toContact()
	c.ID = contactID
	c.OwnerID = userID
	c.Created = in.Created
	c.Version = in.Version

	if in.Image != nil {
		if err := d.attachImage(&c, in.Image); err != nil {
			return nil, err
		}
	}

	err := d.contacts.Update(ctx, &c, in.Image != nil)
	if errors.Is(err, repository.ErrConflict) {
		exists, xerr := d.contacts.Exists(ctx, userID, contactID)
		if xerr != nil {
			return nil, xerr
		}
		if !exists {
			return nil, ErrNotFound
		}
		d.log.Error("contact edited concurrently",
			zap.String("user", userID),
			zap.Int64("contact_id", contactID),
			zap.Int64("version", in.Version),
		)
		return nil, fmt.Errorf("%w: contact %d at version %d", ErrConcurrentModification, contactID, in.Version)
	}
	if err != nil {
		return nil, fmt.Errorf("edit contact: %w", err)
	}

	return d.Get(ctx, userID, contactID)
}

// Delete removes a contact of userID and all its category links.
func (d *Directory) Delete(ctx context.Context, userID string, contactID int64) error {
	return translate(d.contacts.Delete(ctx, userID, contactID))
}

func (d *Directory) attachImage(c *models.Contact, img *ImageUpload) error {
	data, contentType, err := d.codec.ToBytes(bytes.NewReader(img.Data), img.ContentType)
	if err != nil {
		return err
	}
	c.ImageData = data
	c.ImageType = contentType
	return nil
}

// ownedCategories resolves ids against userID's categories and fails with
// ErrCrossOwner on the first id that is not among them. The result is in the
// same order Get reports categories: by name, then id.
func (d *Directory) ownedCategories(ctx context.Context, userID string, ids []int64) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	owned, err := d.categories.ListCategoriesForOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	picked := make([]models.Category, 0, len(ids))
	for _, id := range ids {
		i := slices.IndexFunc(owned, func(c models.Category) bool { return c.ID == id })
		if i < 0 {
			return nil, fmt.Errorf("%w: category %d", ErrCrossOwner, id)
		}
		picked = append(picked, owned[i])
	}
	slices.SortFunc(picked, func(a, b models.Category) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return picked, nil
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
