package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dimaluz/UserService/internal/storage"
	"github.com/dimaluz/UserService/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, password_hash, date_joined, is_staff, is_superuser, is_active, role`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// ListByRole returns all users carrying the given role, newest first.
func (r *PostgresRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY date_joined DESC`, string(role))
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

// Create persists the user. The user must have ID set; it is not assigned by
// this method. Unique-index conflicts surface as storage.ErrUniqueViolation.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.DateJoined, u.IsStaff, u.IsSuperuser, u.IsActive, string(u.Role))
	return storage.MapError(err)
}

// Update rewrites the mutable fields of the record. ID and DateJoined are
// never touched. Updating a missing row is a no-op.
func (r *PostgresRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = $2, first_name = $3, last_name = $4, password_hash = $5,
		 is_staff = $6, is_superuser = $7, is_active = $8, role = $9 WHERE id = $1`,
		u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash,
		u.IsStaff, u.IsSuperuser, u.IsActive, string(u.Role))
	return storage.MapError(err)
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.DateJoined, &u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
