package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"contactlink/internal/contact/models"
	"contactlink/pkg/platform/sentinel"
	txcontext "contactlink/pkg/platform/tx"
)

// Postgres implements Store over database/sql. When the context carries a
// transaction (pkg/platform/tx), every query joins it; FindMatching then locks
// the matched rows FOR UPDATE so the read-decide-write sequence for a chain is
// serialized across concurrent identify requests.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed contact store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const contactColumns = `id, email, phone_number, linked_id, link_precedence, created_at, updated_at, deleted_at`

func (s *Postgres) FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error) {
	if email == nil && phone == nil {
		return nil, nil
	}

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE deleted_at IS NULL
		  AND (($1::text IS NOT NULL AND email = $1)
		    OR ($2::text IS NOT NULL AND phone_number = $2))
		ORDER BY created_at, id
	`
	// Row locks only matter inside the per-request transaction; outside one
	// they would be released immediately anyway.
	if _, inTx := txcontext.From(ctx); inTx {
		query += ` FOR UPDATE`
	}

	rows, err := s.q(ctx).QueryContext(ctx, query, email, phone)
	if err != nil {
		return nil, mapError(err, "find matching contacts")
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (s *Postgres) FindPrimaryAmong(ctx context.Context, ids []int64) (*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE deleted_at IS NULL
		  AND link_precedence = 'primary'
		  AND id = ANY($1)
		ORDER BY created_at, id
		LIMIT 1
	`
	row := s.q(ctx).QueryRowContext(ctx, query, pq.Array(ids))
	contact, err := scanContact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, mapError(err, "find primary among")
	}
	return contact, nil
}

func (s *Postgres) FindChain(ctx context.Context, primaryID int64) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE deleted_at IS NULL
		  AND (id = $1 OR linked_id = $1)
		ORDER BY created_at, id
	`
	rows, err := s.q(ctx).QueryContext(ctx, query, primaryID)
	if err != nil {
		return nil, mapError(err, "find chain")
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (s *Postgres) Create(ctx context.Context, contact *models.Contact) error {
	query := `
		INSERT INTO contacts (email, phone_number, linked_id, link_precedence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`
	err := s.q(ctx).QueryRowContext(ctx, query,
		contact.Email,
		contact.PhoneNumber,
		contact.LinkedID,
		string(contact.LinkPrecedence),
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return mapError(err, "create contact")
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, id int64, precedence models.LinkPrecedence, linkedID *int64) error {
	query := `
		UPDATE contacts
		SET link_precedence = $2, linked_id = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`
	res, err := s.q(ctx).ExecContext(ctx, query, id, string(precedence), linkedID)
	if err != nil {
		return mapError(err, "update contact")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) UpdateAllLinkedTo(ctx context.Context, oldPrimaryID, newPrimaryID int64) error {
	query := `
		UPDATE contacts
		SET linked_id = $2, updated_at = now()
		WHERE linked_id = $1 AND deleted_at IS NULL
	`
	if _, err := s.q(ctx).ExecContext(ctx, query, oldPrimaryID, newPrimaryID); err != nil {
		return mapError(err, "re-point secondaries")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (*models.Contact, error) {
	c := &models.Contact{}
	var email, phone sql.NullString
	var linkedID sql.NullInt64
	var precedence string
	var deletedAt sql.NullTime

	err := row.Scan(&c.ID, &email, &phone, &linkedID, &precedence, &c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.PhoneNumber = &phone.String
	}
	if linkedID.Valid {
		c.LinkedID = &linkedID.Int64
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	c.LinkPrecedence = models.LinkPrecedence(precedence)
	return c, nil
}

func scanContacts(rows *sql.Rows) ([]*models.Contact, error) {
	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

// mapError translates driver errors into sentinels the service layer acts on.
// Serialization failures, deadlocks and unique violations all mean the same
// thing here: another request touched the chain first, retry the whole unit.
func mapError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
