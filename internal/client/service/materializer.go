package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dimaluz/UserService/internal/client/domain"
	"github.com/dimaluz/UserService/internal/client/repository"
	"github.com/dimaluz/UserService/internal/storage"
)

// Materializer derives the role profile for a newly created base client and
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
func (m *Materializer) Materialize(ctx context.Context, c *domain.Client) (*domain.Profile, error) {
	existing, err := m.profiles.GetByEmail(ctx, c.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	role := c.Role
	if !role.Valid() {
		role = domain.DefaultRole
	}
	p := &domain.Profile{
		ID:           uuid.New().String(),
		Email:        c.Email,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		PhoneNumber:  c.PhoneNumber,
		CompanyName:  c.CompanyName,
		Country:      c.Country,
		City:         c.City,
		Domain:       c.Domain,
		PasswordHash: c.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			// Lost the race to a concurrent retry; the winner's row is the one.
			return m.profiles.GetByEmail(ctx, c.Email)
		}
		return nil, err
	}
	return p, nil
}
