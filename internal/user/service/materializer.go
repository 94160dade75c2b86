package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dimaluz/UserService/internal/storage"
	"github.com/dimaluz/UserService/internal/user/domain"
	"github.com/dimaluz/UserService/internal/user/repository"
)

// Materializer derives the role profile for a newly created base user and
// persists it. It runs synchronously right after the base insert, called
// explicitly by the service so ordering and failure handling stay visible in
// the call graph.
type Materializer struct {
	profiles repository.ProfileRepository
}

// NewMaterializer returns a Materializer over the given profile repository.
func NewMaterializer(profiles repository.ProfileRepository) *Materializer {
	return &Materializer{profiles: profiles}
}

// Materialize produces exactly one profile for the base record. Idempotent:
// if a profile already exists for the record's email (earlier call, or a
// concurrent retry that won the unique index), that profile is returned and
// nothing new is written. The profile role always matches the base role.
func (m *Materializer) Materialize(ctx context.Context, u *domain.User) (*domain.Profile, error) {
	existing, err := m.profiles.GetByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	role := u.Role
	if !role.Valid() {
		role = domain.DefaultRole
	}
	p := &domain.Profile{
		ID:        uuid.New().String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			// Lost the race to a concurrent retry; the winner's row is the one.
			return m.profiles.GetByEmail(ctx, u.Email)
		}
		return nil, err
	}
	return p, nil
}
