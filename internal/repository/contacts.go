package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/ContactKeeper/internal/models"
)

const contactColumns = `c.id, c.user_login, c.first_name, c.last_name, c.birth_date,
		c.address1, c.address2, c.city, c.state, c.zip_code, c.email, c.phone,
		c.image_data, c.image_type, c.created, c.version`

const contactOrder = `ORDER BY c.last_name, c.first_name, c.id`

// PostgresContactRepository stores contacts in PostgreSQL.
// Every query is scoped by the owner's login.
type PostgresContactRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresContactRepository creates a new PostgresContactRepository using the provided *sql.DB.
func NewPostgresContactRepository(db *sql.DB) *PostgresContactRepository {
	return &PostgresContactRepository{DB: db}
}

// ListByOwner returns every contact of userID ordered by last name, then first name.
func (r *PostgresContactRepository) ListByOwner(ctx context.Context, userID string) ([]models.Contact, error) {
	return r.query(ctx, "ListByOwner", `
		SELECT `+contactColumns+`
		FROM contacts c
		WHERE c.user_login = $1
		`+contactOrder, userID)
}

// ListByCategory returns the contacts of userID linked to categoryID.
// A category that userID does not own yields no rows.
func (r *PostgresContactRepository) ListByCategory(ctx context.Context, userID string, categoryID int64) ([]models.Contact, error) {
	return r.query(ctx, "ListByCategory", `
		SELECT `+contactColumns+`
		FROM contacts c
		JOIN contact_categories cc ON cc.contact_id = c.id
		JOIN categories k ON k.id = cc.category_id AND k.user_login = c.user_login
		WHERE c.user_login = $1 AND k.id = $2
		`+contactOrder, userID, categoryID)
}

// SearchByName returns the contacts of userID whose "first last" name contains
// query, ignoring case. The query is matched literally.
func (r *PostgresContactRepository) SearchByName(ctx context.Context, userID, query string) ([]models.Contact, error) {
	return r.query(ctx, "SearchByName", `
		SELECT `+contactColumns+`
		FROM contacts c
		WHERE c.user_login = $1
		  AND strpos(lower(c.first_name || ' ' || c.last_name), lower($2)) > 0
		`+contactOrder, userID, query)
}

// GetByID fetches one contact of userID together with its categories.
// Returns ErrNotFound if the id does not exist or belongs to another user.
func (r *PostgresContactRepository) GetByID(ctx context.Context, userID string, id int64) (*models.Contact, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts c
		WHERE c.user_login = $1 AND c.id = $2
	`, userID, id)

	contact, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT k.id, k.user_login, k.name
		FROM categories k
		JOIN contact_categories cc ON cc.category_id = k.id
		WHERE cc.contact_id = $1 AND k.user_login = $2
		ORDER BY k.name, k.id
	`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("GetByID categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		contact.Categories = append(contact.Categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByID categories: %w", err)
	}
	return &contact, nil
}

// Exists reports whether userID owns a contact with the given id.
func (r *PostgresContactRepository) Exists(ctx context.Context, userID string, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM contacts WHERE user_login = $1 AND id = $2)`,
		userID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("Exists: %w", err)
	}
	return exists, nil
}

// Create inserts c and links it to categoryIDs in a single transaction.
// c.ID and c.Version are filled in from the database. Category ids not owned by
// c.OwnerID are skipped by the insert guard.
func (r *PostgresContactRepository) Create(ctx context.Context, c *models.Contact, categoryIDs []int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO contacts (user_login, first_name, last_name, birth_date, address1, address2,
			city, state, zip_code, email, phone, image_data, image_type, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, version
	`, c.OwnerID, c.FirstName, c.LastName, c.BirthDate, c.Address1, c.Address2,
		c.City, c.State, c.ZipCode, c.Email, c.Phone, c.ImageData, c.ImageType, c.Created,
	).Scan(&c.ID, &c.Version)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}

	if len(categoryIDs) > 0 {
		if err := linkCategories(ctx, tx, c.OwnerID, c.ID, categoryIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update writes the editable fields of c if the stored version still equals
// c.Version. Owner and creation time are never written. When replaceImage is
// false the stored image is kept. On success c.Version holds the new version;
// when no row matched, ErrConflict is returned.
func (r *PostgresContactRepository) Update(ctx context.Context, c *models.Contact, replaceImage bool) error {
	err := r.DB.QueryRowContext(ctx, `
		UPDATE contacts SET
			first_name = $1, last_name = $2, birth_date = $3, address1 = $4, address2 = $5,
			city = $6, state = $7, zip_code = $8, email = $9, phone = $10,
			image_data = CASE WHEN $11 THEN $12 ELSE image_data END,
			image_type = CASE WHEN $11 THEN $13 ELSE image_type END,
			version = version + 1
		WHERE id = $14 AND user_login = $15 AND version = $16
		RETURNING version
	`, c.FirstName, c.LastName, c.BirthDate, c.Address1, c.Address2,
		c.City, c.State, c.ZipCode, c.Email, c.Phone,
		replaceImage, c.ImageData, c.ImageType,
		c.ID, c.OwnerID, c.Version,
	).Scan(&c.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// Delete removes the contact; its category links go with it through the
// ON DELETE CASCADE foreign key. Returns ErrNotFound if nothing was removed.
func (r *PostgresContactRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM contacts WHERE user_login = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) query(ctx context.Context, op, query string, args ...any) ([]models.Contact, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return contacts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(s scanner) (models.Contact, error) {
	var (
		c         models.Contact
		birthDate sql.NullTime
	)
	err := s.Scan(&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &birthDate,
		&c.Address1, &c.Address2, &c.City, &c.State, &c.ZipCode, &c.Email, &c.Phone,
		&c.ImageData, &c.ImageType, &c.Created, &c.Version)
	if err != nil {
		return models.Contact{}, err
	}
	if birthDate.Valid {
		bd := birthDate.Time.UTC()
		c.BirthDate = &bd
	}
	c.Created = c.Created.UTC()
	return c, nil
}
