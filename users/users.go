package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Role represents the console role an account signs in with
type Role string

const (
	RoleAdmin    Role = "admin"    // Can manage every HR resource
	RoleEmployee Role = "employee" // Can access their own personal area
)

// AtLeast reports whether r meets or exceeds target. Roles are additive:
// an admin may enter every area an employee may enter.
func (r Role) AtLeast(target Role) bool {
	return r.level() >= target.level()
}

// Valid reports whether r is a role the console knows about
func (r Role) Valid() bool {
	return r.level() > 0
}

func (r Role) level() int {
	switch r {
	case RoleAdmin:
		return 20
	case RoleEmployee:
		return 10
	default:
		return 0
	}
}

// Identity is the role-tagged account returned by the backend on login
type Identity struct {
	ID    string `json:"id"`              // Backend account identifier
	Name  string `json:"name,omitempty"`  // Display name
	Email string `json:"email,omitempty"` // Sign-in email
	Role  Role   `json:"role"`            // admin or employee
	Photo string `json:"photo,omitempty"` // Avatar URL
}

// Profile is the staff record associated with an identity that maps to an employee
type Profile struct {
	ID           string    `json:"id" yaml:"id"`
	FirstName    string    `json:"first_name,omitempty" yaml:"first_name"`
	LastName     string    `json:"last_name,omitempty" yaml:"last_name"`
	Email        string    `json:"email,omitempty" yaml:"email"`
	Phone        string    `json:"phone,omitempty" yaml:"phone"`
	Position     string    `json:"position,omitempty" yaml:"position"`
	DepartmentID string    `json:"department_id,omitempty" yaml:"department_id"`
	Department   string    `json:"department,omitempty" yaml:"department"`
	Roles        []string  `json:"roles,omitempty" yaml:"roles"`
	Photo        string    `json:"photo,omitempty" yaml:"photo"`
	HiredAt      time.Time `json:"hired_at,omitzero" yaml:"hired_at"`
}

// FullName returns the printable name of the staff member
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DisplayName returns the best name available for the identity
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Email
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
