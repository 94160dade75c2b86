// Package domain holds the employee-family identity entities: the base user
// record with its role discriminator and the role profile derived from it.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role discriminates the employee-family identity types.
type Role string

const (
	RoleAdmin Role = "Admin"
	RoleStaff Role = "Staff"
)

// DefaultRole is assigned when a caller supplies no role.
const DefaultRole = RoleStaff

// Valid reports whether r is a member of the employee-family role set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// maxNameLen bounds first and last names, matching the column width.
const maxNameLen = 100

// Validation errors. Field-specific failures wrap these sentinels with the
// field name; callers match with errors.Is.
var (
	ErrMissingField = errors.New("required field missing")
	ErrFieldTooLong = errors.New("field exceeds maximum length")
	ErrInvalidRole  = errors.New("invalid role")
)

// User is the base employee-family identity record. ID and DateJoined are
// set at creation and never change.
type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	DateJoined   time.Time
	IsStaff      bool
	IsSuperuser  bool
	IsActive     bool
	Role         Role
}

// Validate checks the user for persistence. An empty role is defaulted to
// DefaultRole; any other non-member role is rejected.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: email", ErrMissingField)
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	if !u.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, u.Role)
	}
	if len(u.FirstName) > maxNameLen {
		return fmt.Errorf("%w: first_name", ErrFieldTooLong)
	}
	if len(u.LastName) > maxNameLen {
		return fmt.Errorf("%w: last_name", ErrFieldTooLong)
	}
	return nil
}

// FullName returns "FirstName LastName" with outer whitespace trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the record carries the Admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsStaffUser reports whether the record carries the Staff role.
func (u *User) IsStaffUser() bool { return u.Role == RoleStaff }

// Profile is the role-specific record materialized from a base user on first
// creation. It is a separate row with its own id; base and profile correlate
// by email, which is unique in both tables.
type Profile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Role      Role
	CreatedAt time.Time
}

// FullName returns "FirstName LastName" with outer whitespace trimmed.
func (p *Profile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
