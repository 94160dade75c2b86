package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dimaluz/UserService/internal/client/domain"
	"github.com/dimaluz/UserService/internal/event"
	"github.com/dimaluz/UserService/internal/security"
	"github.com/dimaluz/UserService/internal/storage"
)

type memClientRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Client
	byEmail map[string]*domain.Client
	byPhone map[string]*domain.Client
	byDom   map[string]*domain.Client
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{
		byID:    map[string]*domain.Client{},
		byEmail: map[string]*domain.Client{},
		byPhone: map[string]*domain.Client{},
		byDom:   map[string]*domain.Client{},
	}
}

func (r *memClientRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memClientRepo) GetByEmail(ctx context.Context, email string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memClientRepo) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Client
	for _, c := range r.byID {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memClientRepo) Create(ctx context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[c.Email]; ok {
		return fmt.Errorf("%w: clients_email_key", storage.ErrUniqueViolation)
	}
	if _, ok := r.byPhone[c.PhoneNumber]; ok {
		return fmt.Errorf("%w: clients_phone_number_key", storage.ErrUniqueViolation)
	}
	if _, ok := r.byDom[c.Domain]; ok {
		return fmt.Errorf("%w: clients_domain_key", storage.ErrUniqueViolation)
	}
	cp := *c
	r.byID[c.ID] = &cp
	r.byEmail[c.Email] = &cp
	r.byPhone[c.PhoneNumber] = &cp
	r.byDom[c.Domain] = &cp
	return nil
}

func (r *memClientRepo) Update(ctx context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return nil
	}
	cp := *c
	r.byID[c.ID] = &cp
	r.byEmail[c.Email] = &cp
	return nil
}

func (r *memClientRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type memClientProfileRepo struct {
	mu       sync.Mutex
	byEmail  map[string]*domain.Profile
	failWith error
	clients  *memClientRepo
}

func newMemClientProfileRepo(clients *memClientRepo) *memClientProfileRepo {
	return &memClientProfileRepo{byEmail: map[string]*domain.Profile{}, clients: clients}
}

func (r *memClientProfileRepo) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byEmail {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memClientProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byEmail[email], nil
}

func (r *memClientProfileRepo) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Profile
	for _, p := range r.byEmail {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memClientProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.byEmail[p.Email]; ok {
		return fmt.Errorf("%w: client_profiles_email_key", storage.ErrUniqueViolation)
	}
	cp := *p
	r.byEmail[p.Email] = &cp
	return nil
}

func (r *memClientProfileRepo) FindUnmaterialized(ctx context.Context, limit int) ([]*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Client
	for _, c := range r.clients.byID {
		if _, ok := r.byEmail[c.Email]; !ok && len(out) < limit {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memClientProfileRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byEmail)
}

type published struct {
	channel string
	payload []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	failWith error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.messages = append(p.messages, published{channel: channel, payload: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type testEnv struct {
	svc      *Service
	clients  *memClientRepo
	profiles *memClientProfileRepo
	pub      *fakePublisher
	hasher   *security.Hasher
}

func newTestEnv() *testEnv {
	clients := newMemClientRepo()
	profiles := newMemClientProfileRepo(clients)
	pub := &fakePublisher{}
	hasher := security.NewHasher(4)
	svc := NewService(clients, profiles, hasher, event.NewNotifier(pub, 0))
	return &testEnv{svc: svc, clients: clients, profiles: profiles, pub: pub, hasher: hasher}
}

func ownerParams() CreateParams {
	return CreateParams{
		FirstName:   "Alice",
		LastName:    "Smith",
		Email:       "alice@example.com",
		PhoneNumber: "+19876543210",
		CompanyName: "Example Corp",
		Country:     "Wonderland",
		City:        "Magic City",
		Domain:      "example.com",
		Password:    "secret123",
	}
}

func TestCreateAccountOwner_EndToEnd(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	c, err := env.svc.CreateAccountOwner(ctx, ownerParams())
	if err != nil {
		t.Fatalf("CreateAccountOwner() error = %v", err)
	}
	if c.Role != domain.RoleAccountOwner {
		t.Errorf("Role = %q, want %q", c.Role, domain.RoleAccountOwner)
	}
	if c.PasswordHash == "" || c.PasswordHash == "secret123" {
		t.Error("password must be stored as a hash, never plaintext")
	}
	if err := env.hasher.Compare(c.PasswordHash, []byte("secret123")); err != nil {
		t.Errorf("stored hash does not verify against the original password: %v", err)
	}
	if c.FullName() != "Alice Smith" {
		t.Errorf("FullName() = %q, want %q", c.FullName(), "Alice Smith")
	}

	p, err := env.profiles.GetByEmail(ctx, "alice@example.com")
	if err != nil || p == nil {
		t.Fatalf("profile not materialized: %v", err)
	}
	if p.Role != domain.RoleAccountOwner {
		t.Errorf("profile Role = %q, want %q", p.Role, domain.RoleAccountOwner)
	}
	if p.CompanyName != "Example Corp" || p.Domain != "example.com" {
		t.Errorf("profile fields not copied: %+v", p)
	}

	if len(env.pub.messages) != 1 {
		t.Fatalf("published %d events, want 1", len(env.pub.messages))
	}
	msg := env.pub.messages[0]
	if msg.channel != event.ChannelAccountOwnerRegistered {
		t.Errorf("channel = %q, want %q", msg.channel, event.ChannelAccountOwnerRegistered)
	}
	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			ClientID string `json:"client_id"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		} `json:"data"`
	}
	if err := json.Unmarshal(msg.payload, &envelope); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if envelope.Data.Email != "alice@example.com" {
		t.Errorf("event email = %q, want alice@example.com", envelope.Data.Email)
	}
	if envelope.Data.Role != "AccountOwner" || envelope.Data.ClientID != c.ID {
		t.Errorf("event data = %+v, want AccountOwner/%s", envelope.Data, c.ID)
	}
}

func TestCreateAccountOwner_MissingPassword(t *testing.T) {
	env := newTestEnv()
	p := ownerParams()
	p.Password = ""
	_, err := env.svc.CreateAccountOwner(context.Background(), p)
	if !errors.Is(err, domain.ErrMissingPassword) {
		t.Fatalf("CreateAccountOwner() error = %v, want ErrMissingPassword", err)
	}
	if env.clients.count() != 0 || env.profiles.count() != 0 || len(env.pub.messages) != 0 {
		t.Error("nothing should be persisted or emitted when password is missing")
	}
}

func TestCreateAccountOwner_InvalidPhone(t *testing.T) {
	env := newTestEnv()
	for _, phone := range []string{"", "12345", "notaphone", "+1 987 654 3210"} {
		p := ownerParams()
		p.PhoneNumber = phone
		_, err := env.svc.CreateAccountOwner(context.Background(), p)
		if !errors.Is(err, domain.ErrInvalidPhoneNumber) {
			t.Errorf("phone %q: error = %v, want ErrInvalidPhoneNumber", phone, err)
		}
	}
	if env.clients.count() != 0 {
		t.Error("nothing should be persisted for invalid phone numbers")
	}
}

func TestCreateAccountOwner_MissingCompany(t *testing.T) {
	env := newTestEnv()
	p := ownerParams()
	p.CompanyName = "  "
	_, err := env.svc.CreateAccountOwner(context.Background(), p)
	if !errors.Is(err, domain.ErrMissingField) {
		t.Fatalf("CreateAccountOwner() error = %v, want ErrMissingField", err)
	}
}

func TestCreateAccountUser_RoleForcedAndChannel(t *testing.T) {
	env := newTestEnv()
	p := ownerParams()
	p.Email = "bob@example.com"
	p.PhoneNumber = "+19876543211"
	p.Domain = "app.example.com"
	c, err := env.svc.CreateAccountUser(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateAccountUser() error = %v", err)
	}
	if c.Role != domain.RoleAccountUser {
		t.Errorf("Role = %q, want %q", c.Role, domain.RoleAccountUser)
	}
	if len(env.pub.messages) != 1 || env.pub.messages[0].channel != event.ChannelAccountUserRegistered {
		t.Errorf("want exactly one event on %q", event.ChannelAccountUserRegistered)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if _, err := env.svc.CreateAccountOwner(ctx, ownerParams()); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	p := ownerParams()
	p.PhoneNumber = "+19876543299"
	p.Domain = "other.example.com"
	_, err := env.svc.CreateAccountUser(ctx, p)
	if !errors.Is(err, storage.ErrUniqueViolation) {
		t.Fatalf("second create error = %v, want ErrUniqueViolation", err)
	}
	if got := env.clients.count(); got != 1 {
		t.Errorf("client count = %d, want exactly 1", got)
	}
}

func TestCreate_DuplicatePhone(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	if _, err := env.svc.CreateAccountOwner(ctx, ownerParams()); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	p := ownerParams()
	p.Email = "second@example.com"
	p.Domain = "other.example.com"
	_, err := env.svc.CreateAccountOwner(ctx, p)
	if !errors.Is(err, storage.ErrUniqueViolation) {
		t.Fatalf("second create error = %v, want ErrUniqueViolation", err)
	}
}

func TestMaterialize_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	c, err := env.svc.CreateAccountOwner(ctx, ownerParams())
	if err != nil {
		t.Fatalf("CreateAccountOwner() error = %v", err)
	}
	first, _ := env.profiles.GetByEmail(ctx, c.Email)

	again, err := env.svc.materializer.Materialize(ctx, c)
	if err != nil {
		t.Fatalf("second Materialize() error = %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second Materialize() returned a new profile %s, want existing %s", again.ID, first.ID)
	}
	if got := env.profiles.count(); got != 1 {
		t.Errorf("profile count = %d, want exactly 1", got)
	}
}

func TestCreate_MaterializeFailureDoesNotFailCreate(t *testing.T) {
	env := newTestEnv()
	env.profiles.failWith = errors.New("storage down")
	c, err := env.svc.CreateAccountOwner(context.Background(), ownerParams())
	if err != nil {
		t.Fatalf("CreateAccountOwner() error = %v, want nil despite materialize failure", err)
	}
	orphans, err := env.profiles.FindUnmaterialized(context.Background(), 10)
	if err != nil {
		t.Fatalf("FindUnmaterialized() error = %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != c.ID {
		t.Errorf("FindUnmaterialized() = %v, want the orphaned base record", orphans)
	}
}

func TestUpdateName_DoesNotRematerialize(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	c, err := env.svc.CreateAccountOwner(ctx, ownerParams())
	if err != nil {
		t.Fatalf("CreateAccountOwner() error = %v", err)
	}
	if _, err := env.svc.UpdateName(ctx, c.ID, "Alicia", "Smith"); err != nil {
		t.Fatalf("UpdateName() error = %v", err)
	}
	if got := env.profiles.count(); got != 1 {
		t.Errorf("profile count after update = %d, want exactly 1", got)
	}
	if len(env.pub.messages) != 1 {
		t.Errorf("event count after update = %d, want 1 (no re-emission)", len(env.pub.messages))
	}
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	c, err := env.svc.CreateAccountOwner(ctx, ownerParams())
	if err != nil {
		t.Fatalf("CreateAccountOwner() error = %v", err)
	}
	got, err := env.svc.Authenticate(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if got.ID != c.ID {
		t.Errorf("Authenticate() id = %s, want %s", got.ID, c.ID)
	}
	if _, err := env.svc.Authenticate(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Authenticate() with wrong password = %v, want ErrInvalidCredentials", err)
	}
}
