package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.categories.CreateCategory(ctx, "u1", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.categories.CreateCategory(ctx, "u1", strings.Repeat("x", maxCategoryName+1))
	assert.ErrorIs(t, err, ErrValidation)

	cat, err := f.categories.CreateCategory(ctx, "u1", "  Friends ")
	require.NoError(t, err)
	assert.Equal(t, "Friends", cat.Name)
}

func TestCreateCategory_DuplicatePerOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.category(t, "u1", "Work")

	_, err := f.categories.CreateCategory(ctx, "u1", "Work")
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	_, err = f.categories.CreateCategory(ctx, "u2", "Work")
	assert.NoError(t, err)
}

func TestListCategoriesForOwner(t *testing.T) {
	f := newFixture(t)
	f.category(t, "u1", "Work")
	f.category(t, "u1", "Family")
	f.category(t, "u2", "Other")

	cats, err := f.categories.ListCategoriesForOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Family", cats[0].Name)
	assert.Equal(t, "Work", cats[1].Name)
}

func TestLink_CrossOwnerRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "u1", "Work")
	mallory := f.create(t, "u2", "Mallory", "Evil")

	assert.ErrorIs(t, f.categories.Link(ctx, "u1", cat.ID, mallory.ID), ErrCrossOwner)
	assert.ErrorIs(t, f.categories.Link(ctx, "u2", cat.ID, mallory.ID), ErrCrossOwner)

	got, err := f.dir.ListByOwner(ctx, "u1", cat.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, f.data.links)
}

func TestLink_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "u1", "Work")
	c := f.create(t, "u1", "Alice", "Zed")

	require.NoError(t, f.categories.Link(ctx, "u1", cat.ID, c.ID))
	require.NoError(t, f.categories.Link(ctx, "u1", cat.ID, c.ID))
	assert.Len(t, f.data.links, 1)
}

func TestUnlink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "u1", "Work")
	c := f.create(t, "u1", "Alice", "Zed", cat.ID)

	require.NoError(t, f.categories.Unlink(ctx, "u1", cat.ID, c.ID))
	require.NoError(t, f.categories.Unlink(ctx, "u1", cat.ID, c.ID))

	got, err := f.dir.ListByOwner(ctx, "u1", cat.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDeleteCategory_RemovesLinksOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cat := f.category(t, "u1", "Work")
	c := f.create(t, "u1", "Alice", "Zed", cat.ID)

	assert.ErrorIs(t, f.categories.DeleteCategory(ctx, "u2", cat.ID), ErrNotFound)
	require.NoError(t, f.categories.DeleteCategory(ctx, "u1", cat.ID))

	assert.Empty(t, f.data.links)
	got, err := f.dir.Get(ctx, "u1", c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Categories)
}

type stubCategoryRepo struct {
	CategoryRepository
	existsErr error
}

func (s stubCategoryRepo) Exists(context.Context, string, int64) (bool, error) {
	return false, s.existsErr
}

func TestLink_PropagatesLookupError(t *testing.T) {
	wantErr := errors.New("db down")
	svc := NewCategoryService(stubCategoryRepo{existsErr: wantErr}, memContacts{newMemData()})

	err := svc.Link(context.Background(), "u1", 1, 2)
	if err != wantErr {
		t.Fatalf("Link error = %v; want %v", err, wantErr)
	}
}

var _ CategoryLister = (*CategoryService)(nil)
