package mockbackend

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/go-hr-console/users"
)

var errAccountNotFound = errors.New("account not found")

// Account is a backend user with its hashed password and staff record
type Account struct {
	ID           string
	Name         string
	Email        string
	Role         users.Role
	PasswordHash string
	Photo        string
	Profile      *users.Profile
}

// Identity returns the account as the console sees it after login
func (a *Account) Identity() *users.Identity {
	return &users.Identity{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Role:  a.Role,
		Photo: a.Photo,
	}
}

// accountRepo is an in-memory account store indexed by id and email
type accountRepo struct {
	lock     sync.RWMutex
	accounts map[string]*Account
	emailIDs map[string]string
	nextID   int
}

func newAccountRepo() *accountRepo {
	return &accountRepo{
		accounts: make(map[string]*Account),
		emailIDs: make(map[string]string),
		nextID:   1,
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert stores a copy of the account, assigning an id when it has none
func (r *accountRepo) Upsert(a *Account) *Account {
	r.lock.Lock()
	defer r.lock.Unlock()

	stored := *a
	stored.Email = normaliseEmail(a.Email)
	if stored.ID == "" {
		stored.ID = strconv.Itoa(r.nextID)
		r.nextID++
	}
	if stored.Profile != nil {
		profile := *stored.Profile
		profile.ID = stored.ID
		stored.Profile = &profile
	}
	r.accounts[stored.ID] = &stored
	r.emailIDs[stored.Email] = stored.ID

	out := stored
	return &out
}

// GetByEmail returns a copy of the account registered with email
func (r *accountRepo) GetByEmail(email string) (*Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.emailIDs[normaliseEmail(email)]
	if !ok {
		return nil, errAccountNotFound
	}
	out := *r.accounts[id]
	return &out, nil
}

// GetByID returns a copy of the account with id
func (r *accountRepo) GetByID(id string) (*Account, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, errAccountNotFound
	}
	out := *a
	return &out, nil
}

// Update applies fn to the stored account under the lock
func (r *accountRepo) Update(id string, fn func(*Account)) (*Account, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, errAccountNotFound
	}
	fn(a)
	out := *a
	return &out, nil
}
