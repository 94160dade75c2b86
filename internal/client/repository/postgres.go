package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dimaluz/UserService/internal/client/domain"
	"github.com/dimaluz/UserService/internal/storage"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a client repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const clientColumns = `id, email, first_name, last_name, phone_number, company_name, country, city, domain, account_id, subaccount_id, password_hash, date_joined, is_active, role`

// GetByID returns the client for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

// GetByEmail returns the client with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE email = $1`, email)
	return scanClient(row)
}

// ListByRole returns all clients carrying the given role, newest first.
func (r *PostgresRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE role = $1 ORDER BY date_joined DESC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Client
	for rows.Next() {
		c, err := scanClientRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create persists the client. The client must have ID set; it is not assigned
// by this method. Conflicts on the email, phone_number, or domain unique
// indexes surface as storage.ErrUniqueViolation.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		c.ID, c.Email, c.FirstName, c.LastName, c.PhoneNumber, c.CompanyName,
		c.Country, c.City, c.Domain, nullString(c.AccountID), nullString(c.SubaccountID),
		c.PasswordHash, c.DateJoined, c.IsActive, string(c.Role))
	return storage.MapError(err)
}

// Update rewrites the mutable fields of the record. ID and DateJoined are
// never touched. Updating a missing row is a no-op.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Client) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clients SET email = $2, first_name = $3, last_name = $4, phone_number = $5,
		 company_name = $6, country = $7, city = $8, domain = $9, account_id = $10,
		 subaccount_id = $11, password_hash = $12, is_active = $13, role = $14 WHERE id = $1`,
		c.ID, c.Email, c.FirstName, c.LastName, c.PhoneNumber, c.CompanyName,
		c.Country, c.City, c.Domain, nullString(c.AccountID), nullString(c.SubaccountID),
		c.PasswordHash, c.IsActive, string(c.Role))
	return storage.MapError(err)
}

func scanClient(row *sql.Row) (*domain.Client, error) {
	var c domain.Client
	var accountID, subaccountID sql.NullString
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.PhoneNumber,
		&c.CompanyName, &c.Country, &c.City, &c.Domain, &accountID, &subaccountID,
		&c.PasswordHash, &c.DateJoined, &c.IsActive, &c.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.AccountID = accountID.String
	c.SubaccountID = subaccountID.String
	return &c, nil
}

func scanClientRow(rows *sql.Rows) (*domain.Client, error) {
	var c domain.Client
	var accountID, subaccountID sql.NullString
	err := rows.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.PhoneNumber,
		&c.CompanyName, &c.Country, &c.City, &c.Domain, &accountID, &subaccountID,
		&c.PasswordHash, &c.DateJoined, &c.IsActive, &c.Role)
	if err != nil {
		return nil, err
	}
	c.AccountID = accountID.String
	c.SubaccountID = subaccountID.String
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
