// Package service exposes the employee-family account operations: creation
// per role, lookup, and profile updates. Creation validates and normalizes
// input, persists the base record, materializes the role profile, and emits
// a registration event.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dimaluz/UserService/internal/event"
	"github.com/dimaluz/UserService/internal/security"
	"github.com/dimaluz/UserService/internal/storage"
	"github.com/dimaluz/UserService/internal/user/domain"
	"github.com/dimaluz/UserService/internal/user/repository"
)

// ErrNotFound is returned by lookups and updates for an unknown id.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned by Authenticate when the email is
// unknown, the account is inactive, or the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateParams carries caller-supplied fields for employee-family creation.
// Password is optional for this family; when empty no hash is stored.
type CreateParams struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// registeredEvent is the payload of ChannelUserRegistered.
type registeredEvent struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// Service composes validation, hashing, persistence, materialization, and
// event emission for the employee family.
type Service struct {
	users        repository.Repository
	materializer *Materializer
	hasher       *security.Hasher
	notifier     *event.Notifier
}

// NewService returns a Service over the given repositories. notifier may be
// nil to disable event emission.
func NewService(users repository.Repository, profiles repository.ProfileRepository, hasher *security.Hasher, notifier *event.Notifier) *Service {
	return &Service{
		users:        users,
		materializer: NewMaterializer(profiles),
		hasher:       hasher,
		notifier:     notifier,
	}
}

// CreateAdmin creates an active base user with the Admin role and its profile.
func (s *Service) CreateAdmin(ctx context.Context, p CreateParams) (*domain.User, error) {
	return s.create(ctx, p, domain.RoleAdmin, false, false)
}

// CreateStaff creates an active base user with the Staff role and its profile.
func (s *Service) CreateStaff(ctx context.Context, p CreateParams) (*domain.User, error) {
	return s.create(ctx, p, domain.RoleStaff, false, false)
}

// CreateSuperuser creates an Admin with the is_staff and is_superuser flags set.
func (s *Service) CreateSuperuser(ctx context.Context, p CreateParams) (*domain.User, error) {
	return s.create(ctx, p, domain.RoleAdmin, true, true)
}

func (s *Service) create(ctx context.Context, p CreateParams, role domain.Role, isStaff, isSuperuser bool) (*domain.User, error) {
	email := normalizeEmail(p.Email)
	u := &domain.User{
		ID:          uuid.New().String(),
		Email:       email,
		FirstName:   strings.TrimSpace(p.FirstName),
		LastName:    strings.TrimSpace(p.LastName),
		DateJoined:  time.Now().UTC(),
		IsStaff:     isStaff,
		IsSuperuser: isSuperuser,
		IsActive:    true,
		Role:        role,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if p.Password != "" {
		hash, err := s.hasher.Hash([]byte(p.Password))
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	// Pre-check for a friendlier error on the common path; the unique index
	// on users.email is the authoritative guard against concurrent inserts.
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email", storage.ErrUniqueViolation)
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	if _, err := s.materializer.Materialize(ctx, u); err != nil {
		log.Printf("user: materialize %s profile for %s (%s): %v", role, u.ID, u.Email, err)
	}
	ev := registeredEvent{UserID: u.ID, Email: u.Email, Role: string(u.Role), FullName: u.FullName()}
	if err := s.notifier.Notify(ctx, event.ChannelUserRegistered, ev); err != nil {
		log.Printf("user: notify %s for %s: %v", event.ChannelUserRegistered, u.ID, err)
	}
	return u, nil
}

// GetByID returns the user for id, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// GetByEmail returns the user for the normalized email, or ErrNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// ListAdmins returns all base users carrying the Admin role.
func (s *Service) ListAdmins(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleAdmin)
}

// ListStaff returns all base users carrying the Staff role.
func (s *Service) ListStaff(ctx context.Context) ([]*domain.User, error) {
	return s.users.ListByRole(ctx, domain.RoleStaff)
}

// UpdateName updates the user's first and last name. Updates never
// re-trigger materialization; the profile created at registration stays as is.
func (s *Service) UpdateName(ctx context.Context, id, firstName, lastName string) (*domain.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.FirstName = strings.TrimSpace(firstName)
	u.LastName = strings.TrimSpace(lastName)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetActive flips the soft-lifecycle flag. Records are never hard-deleted.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.IsActive = active
	return s.users.Update(ctx, u)
}

// Authenticate verifies email/password against the stored hash and returns
// the matching active user, or ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// normalizeEmail trims whitespace and lowercases the domain part, the
// canonical form used for storage and uniqueness checks.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
