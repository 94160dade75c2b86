// Package service exposes the client-family account operations: account
// owner and account user creation, lookup, and profile updates. Unlike the
// employee family, client creation requires a password up front.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dimaluz/UserService/internal/client/domain"
	"github.com/dimaluz/UserService/internal/client/repository"
	"github.com/dimaluz/UserService/internal/event"
	"github.com/dimaluz/UserService/internal/security"
	"github.com/dimaluz/UserService/internal/storage"
)

// ErrNotFound is returned by lookups and updates for an unknown id.
var ErrNotFound = errors.New("client not found")

// ErrInvalidCredentials is returned by Authenticate when the email is
// unknown, the account is inactive, or the password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CreateParams carries caller-supplied fields for client-family creation.
// Password is required for this family. AccountID and SubaccountID are
// optional correlation ids owned by the accounts service.
type CreateParams struct {
	FirstName    string
	LastName     string
	Email        string
	PhoneNumber  string
	CompanyName  string
	Country      string
	City         string
	Domain       string
	Password     string
	AccountID    string
	SubaccountID string
}

// registeredEvent is the payload of the client-family registration channels.
type registeredEvent struct {
	ClientID    string `json:"client_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain"`
	FullName    string `json:"full_name"`
}

// Service composes validation, hashing, persistence, materialization, and
// event emission for the client family.
type Service struct {
	clients      repository.Repository
	materializer *Materializer
	hasher       *security.Hasher
	notifier     *event.Notifier
}

// NewService returns a Service over the given repositories. notifier may be
// nil to disable event emission.
func NewService(clients repository.Repository, profiles repository.ProfileRepository, hasher *security.Hasher, notifier *event.Notifier) *Service {
	return &Service{
		clients:      clients,
		materializer: NewMaterializer(profiles),
		hasher:       hasher,
		notifier:     notifier,
	}
}

// CreateAccountOwner creates an active base client with the AccountOwner role,
// its profile, and emits account_owner_registered.
func (s *Service) CreateAccountOwner(ctx context.Context, p CreateParams) (*domain.Client, error) {
	return s.create(ctx, p, domain.RoleAccountOwner, event.ChannelAccountOwnerRegistered)
}

// CreateAccountUser creates an active base client with the AccountUser role,
// its profile, and emits account_user_registered.
func (s *Service) CreateAccountUser(ctx context.Context, p CreateParams) (*domain.Client, error) {
	return s.create(ctx, p, domain.RoleAccountUser, event.ChannelAccountUserRegistered)
}

func (s *Service) create(ctx context.Context, p CreateParams, role domain.Role, channel string) (*domain.Client, error) {
	if p.Password == "" {
		return nil, domain.ErrMissingPassword
	}
	email := normalizeEmail(p.Email)
	c := &domain.Client{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    strings.TrimSpace(p.FirstName),
		LastName:     strings.TrimSpace(p.LastName),
		PhoneNumber:  strings.TrimSpace(p.PhoneNumber),
		CompanyName:  strings.TrimSpace(p.CompanyName),
		Country:      strings.TrimSpace(p.Country),
		City:         strings.TrimSpace(p.City),
		Domain:       strings.TrimSpace(strings.ToLower(p.Domain)),
		AccountID:    p.AccountID,
		SubaccountID: p.SubaccountID,
		DateJoined:   time.Now().UTC(),
		IsActive:     true,
		Role:         role,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash([]byte(p.Password))
	if err != nil {
		return nil, err
	}
	c.PasswordHash = hash

	// Pre-check for a friendlier error on the common path; the unique indexes
	// on clients.email, phone_number, and domain are the authoritative guard
	// against concurrent inserts.
	existing, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email", storage.ErrUniqueViolation)
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}

	if _, err := s.materializer.Materialize(ctx, c); err != nil {
		log.Printf("client: materialize %s profile for %s (%s): %v", role, c.ID, c.Email, err)
	}
	ev := registeredEvent{
		ClientID:    c.ID,
		Email:       c.Email,
		Role:        string(c.Role),
		CompanyName: c.CompanyName,
		Domain:      c.Domain,
		FullName:    c.FullName(),
	}
	if err := s.notifier.Notify(ctx, channel, ev); err != nil {
		log.Printf("client: notify %s for %s: %v", channel, c.ID, err)
	}
	return c, nil
}

// GetByID returns the client for id, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// GetByEmail returns the client for the normalized email, or ErrNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	c, err := s.clients.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// ListAccountOwners returns all base clients carrying the AccountOwner role.
func (s *Service) ListAccountOwners(ctx context.Context) ([]*domain.Client, error) {
	return s.clients.ListByRole(ctx, domain.RoleAccountOwner)
}

// ListAccountUsers returns all base clients carrying the AccountUser role.
func (s *Service) ListAccountUsers(ctx context.Context) ([]*domain.Client, error) {
	return s.clients.ListByRole(ctx, domain.RoleAccountUser)
}

// UpdateName updates the client's first and last name. Updates never
// re-trigger materialization; the profile created at registration stays as is.
func (s *Service) UpdateName(ctx context.Context, id, firstName, lastName string) (*domain.Client, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetActive flips the soft-lifecycle flag. Records are never hard-deleted.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	c.IsActive = active
	return s.clients.Update(ctx, c)
}

// Authenticate verifies email/password against the stored hash and returns
// the matching active client, or ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.Client, error) {
	c, err := s.clients.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsActive || c.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(c.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return c, nil
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
