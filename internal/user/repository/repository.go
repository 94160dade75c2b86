package repository

import (
	"context"

	"github.com/dimaluz/UserService/internal/user/domain"
)

// Repository defines persistence for base employee-family records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// Update rewrites the mutable fields of the record. ID and DateJoined are
	// never touched.
	Update(ctx context.Context, u *domain.User) error
}

// ProfileRepository defines persistence for the role profiles materialized
// from base records. Profiles are keyed by their own id and unique on email.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	// FindUnmaterialized returns base records that have no profile row yet,
	// oldest first. Reconciliation hook for failed materializations.
	FindUnmaterialized(ctx context.Context, limit int) ([]*domain.User, error)
}
