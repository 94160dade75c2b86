// Package domain holds the client-family identity entities: the base client
// record tied to a company domain, and the role profile derived from it.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Role discriminates the client-family identity types.
type Role string

const (
	RoleAccountOwner Role = "AccountOwner"
	RoleAccountUser  Role = "AccountUser"
)

// DefaultRole is assigned when a caller supplies no role.
const DefaultRole = RoleAccountUser

// Valid reports whether r is a member of the client-family role set.
func (r Role) Valid() bool {
	return r == RoleAccountOwner || r == RoleAccountUser
}

// phonePattern accepts an optional leading + followed by 10-15 digits.
var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

const maxNameLen = 100

// Validation errors. Field-specific failures wrap these sentinels with the
// field name; callers match with errors.Is.
var (
	ErrMissingField       = errors.New("required field missing")
	ErrFieldTooLong       = errors.New("field exceeds maximum length")
	ErrInvalidRole        = errors.New("invalid role")
	ErrInvalidPhoneNumber = errors.New("invalid phone number format, must be 10-15 digits")
	ErrMissingPassword    = errors.New("password must be provided")
)

// Client is the base client-family identity record. Email, phone number, and
// company domain are each unique across the family. ID and DateJoined are set
// at creation and never change.
type Client struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	CompanyName  string
	Country      string
	City         string
	Domain       string
	AccountID    string
	SubaccountID string
	PasswordHash string
	DateJoined   time.Time
	IsActive     bool
	Role         Role
}

// Validate checks the client for persistence. An empty role is defaulted to
// DefaultRole; any other non-member role is rejected.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if c.Role == "" {
		c.Role = DefaultRole
	}
	if !c.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, c.Role)
	}
	if !phonePattern.MatchString(c.PhoneNumber) {
		return ErrInvalidPhoneNumber
	}
	if strings.TrimSpace(c.CompanyName) == "" {
		return fmt.Errorf("%w: company_name", ErrMissingField)
	}
	if strings.TrimSpace(c.Country) == "" {
		return fmt.Errorf("%w: country", ErrMissingField)
	}
	if strings.TrimSpace(c.City) == "" {
		return fmt.Errorf("%w: city", ErrMissingField)
	}
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("%w: domain", ErrMissingField)
	}
	if len(c.FirstName) > maxNameLen {
		return fmt.Errorf("%w: first_name", ErrFieldTooLong)
	}
	if len(c.LastName) > maxNameLen {
		return fmt.Errorf("%w: last_name", ErrFieldTooLong)
	}
	return nil
}

// FullName returns "FirstName LastName" with outer whitespace trimmed.
func (c *Client) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// IsAccountOwner reports whether the record carries the AccountOwner role.
func (c *Client) IsAccountOwner() bool { return c.Role == RoleAccountOwner }

// IsAccountUser reports whether the record carries the AccountUser role.
func (c *Client) IsAccountUser() bool { return c.Role == RoleAccountUser }

// Profile is the role-specific record materialized from a base client on
// first creation. It is a separate row with its own id; base and profile
// correlate by email, which is unique in both tables.
type Profile struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PhoneNumber  string
	CompanyName  string
	Country      string
	City         string
	Domain       string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// FullName returns "FirstName LastName" with outer whitespace trimmed.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
