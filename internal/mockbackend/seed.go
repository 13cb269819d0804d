package mockbackend

import (
	"fmt"
	"io"
	"os"

	"github.com/jrsteele09/go-hr-console/hr"
	"github.com/jrsteele09/go-hr-console/users"
	"gopkg.in/yaml.v3"
)

// SeedAccount is an account definition with a plain text password
type SeedAccount struct {
	Name     string         `yaml:"name"`
	Email    string         `yaml:"email"`
	Password string         `yaml:"password"`
	Role     users.Role     `yaml:"role"`
	Photo    string         `yaml:"photo"`
	Profile  *users.Profile `yaml:"profile"`
}

// Seed is the initial content of a Backend
type Seed struct {
	Accounts    []SeedAccount          `yaml:"accounts"`
	Collections map[string][]hr.Record `yaml:"collections"`
}

// LoadSeed decodes a YAML seed document
func LoadSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("[LoadSeed] decoding seed: %w", err)
	}
	for i, a := range seed.Accounts {
		if a.Email == "" || a.Password == "" {
			return nil, fmt.Errorf("[LoadSeed] account %d needs an email and a password", i)
		}
		if !a.Role.Valid() {
			return nil, fmt.Errorf("[LoadSeed] account %s has unknown role %q", a.Email, a.Role)
		}
	}
	for endpoint := range seed.Collections {
		if _, ok := hr.Lookup(endpoint); !ok {
			return nil, fmt.Errorf("[LoadSeed] unknown collection %q", endpoint)
		}
	}
	return &seed, nil
}

// LoadSeedFile reads a YAML seed from disk
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[LoadSeedFile] %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// DefaultSeed returns one admin, one employee and a few departments
func DefaultSeed() *Seed {
	return &Seed{
		Accounts: []SeedAccount{
			{Name: "Ada Admin", Email: "admin@example.com", Password: "Password123", Role: users.RoleAdmin},
			{
				Name: "Eve Employee", Email: "employee@example.com", Password: "Password123", Role: users.RoleEmployee,
				Profile: &users.Profile{
					FirstName:  "Eve",
					LastName:   "Employee",
					Email:      "employee@example.com",
					Position:   "Accountant",
					Department: "Finance",
				},
			},
		},
		Collections: map[string][]hr.Record{
			"departments": {
				{"name": "Human Resources"},
				{"name": "Finance"},
				{"name": "Engineering"},
			},
			"announcements": {
				{"title": "Welcome", "body": "The new HR console is live."},
			},
		},
	}
}
