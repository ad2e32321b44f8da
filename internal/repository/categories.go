package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/lib/pq"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresCategoryRepository stores categories and contact↔category links.
type PostgresCategoryRepository struct {
	DB *sql.DB
}

// NewPostgresCategoryRepository creates a new PostgresCategoryRepository using the provided *sql.DB.
func NewPostgresCategoryRepository(db *sql.DB) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{DB: db}
}

// ListByOwner returns the categories of userID ordered by name.
func (r *PostgresCategoryRepository) ListByOwner(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, user_login, name FROM categories WHERE user_login = $1 ORDER BY name, id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	return categories, nil
}

// Create inserts a category for userID. A name already used by the same
// owner yields ErrDuplicate.
func (r *PostgresCategoryRepository) Create(ctx context.Context, userID, name string) (*models.Category, error) {
	cat := models.Category{OwnerID: userID, Name: name}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO categories (user_login, name) VALUES ($1, $2) RETURNING id`,
		userID, name,
	).Scan(&cat.ID)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &cat, nil
}

// Delete removes a category of userID together with its links.
func (r *PostgresCategoryRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM categories WHERE user_login = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exists reports whether userID owns a category with the given id.
func (r *PostgresCategoryRepository) Exists(ctx context.Context, userID string, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM categories WHERE user_login = $1 AND id = $2)`,
		userID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

// Link associates contactID with categoryID. The row is only written when
// both belong to userID; an existing link is left as is.
func (r *PostgresCategoryRepository) Link(ctx context.Context, userID string, categoryID, contactID int64) error {
	return linkCategories(ctx, r.DB, userID, contactID, []int64{categoryID})
}

// Unlink removes the association if it exists.
func (r *PostgresCategoryRepository) Unlink(ctx context.Context, userID string, categoryID, contactID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM contact_categories cc
		USING contacts c
		WHERE cc.contact_id = c.id
		  AND c.user_login = $1
		  AND cc.category_id = $2
		  AND cc.contact_id = $3
	`, userID, categoryID, contactID)
	if err != nil {
		return fmt.Errorf("unlink: %w", err)
	}
	return nil
}

// linkCategories inserts contact↔category rows, joining on the owner so a
// contact can only ever be linked to categories of the same user.
func linkCategories(ctx context.Context, ex execer, userID string, contactID int64, categoryIDs []int64) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO contact_categories (contact_id, category_id)
		SELECT c.id, k.id
		FROM contacts c
		JOIN categories k ON k.user_login = c.user_login
		WHERE c.id = $1 AND c.user_login = $2 AND k.id = ANY($3)
		ON CONFLICT DO NOTHING
	`, contactID, userID, pq.Array(categoryIDs))
	if err != nil {
		return fmt.Errorf("link categories: %w", err)
	}
	return nil
}

