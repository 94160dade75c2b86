package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dimaluz/UserService/internal/storage"
	"github.com/dimaluz/UserService/internal/user/domain"
)

type PostgresProfileRepository struct {
	db *sql.DB
}

// NewPostgresProfileRepository returns a role-profile repository that uses the given db for persistence.
func NewPostgresProfileRepository(db *sql.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

const profileColumns = `id, email, first_name, last_name, role, created_at`

// GetByID returns the profile for id, or nil if not found.
func (r *PostgresProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// GetByEmail returns the profile correlated with the given base-record email,
// or nil if the base record was never materialized.
func (r *PostgresProfileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE email = $1`, email)
	return scanProfile(row)
}

// ListByRole returns all profiles carrying the given role, newest first.
func (r *PostgresProfileRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE role = $1 ORDER BY created_at DESC`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt); err != nil {
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
		`INSERT INTO user_profiles (`+profileColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Email, p.FirstName, p.LastName, string(p.Role), p.CreatedAt)
	return storage.MapError(err)
}

// FindUnmaterialized returns base records with no profile row, oldest first.
func (r *PostgresProfileRepository) FindUnmaterialized(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users u
		 WHERE NOT EXISTS (SELECT 1 FROM user_profiles p WHERE p.email = u.email)
		 ORDER BY u.date_joined ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
			&u.DateJoined, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.Role); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func scanProfile(row *sql.Row) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.ID, &p.Email, &p.FirstName, &p.LastName, &p.Role, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
