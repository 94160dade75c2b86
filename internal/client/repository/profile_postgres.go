package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dimaluz/UserService/internal/client/domain"
	"github.com/dimaluz/UserService/internal/storage"
)

type PostgresProfileRepository struct {
	db *sql.DB
}

// NewPostgresProfileRepository returns a role-profile repository that uses the given db for persistence.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const profileColumns = `id, email, first_name, last_name, phone_number, company_name, country, city, domain, password_hash, role, created_at`

// GetByID returns the profile for id, or nil if not found.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM client_profiles WHERE id = $1`, id)
	return scanClientProfile(row)
}

// GetByEmail returns the profile correlated with the given base-record email,
// or nil if the base record was never materialized.
func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM client_profiles WHERE email = $1`, email)
	return scanClientProfile(row)
}

// ListByRole returns all profiles carrying the given role, newest first.
func (r *PostgresProfileRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM client_profiles WHERE role = $1 ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.PhoneNumber,
			&p.CompanyName, &p.Country, &p.City, &p.Domain, &p.PasswordHash, &p.Role, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Create persists the profile. The unique index on email is what makes
// materialization at-most-once: a retry surfaces storage.ErrUniqueViolation.
func (r *PostgresProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO client_profiles (`+profileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.Email, p.FirstName, p.LastName, p.PhoneNumber, p.CompanyName,
		p.Country, p.City, p.Domain, p.PasswordHash, string(p.Role), p.CreatedAt)
	return storage.MapError(err)
}

// FindUnmaterialized returns base records with no profile row, oldest first.
func (r *PostgresProfileRepository) FindUnmaterialized(ctx context.Context, limit int) ([]*domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients c
		 WHERE NOT EXISTS (SELECT 1 FROM client_profiles p WHERE p.email = c.email)
		 ORDER BY c.date_joined ASC LIMIT $1`, limit)
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

func scanClientProfile(row *sql.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.PhoneNumber,
		&p.CompanyName, &p.Country, &p.City, &p.Domain, &p.PasswordHash, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
