// Package pool holds the in-memory account snapshot and the shared
// rotation cursor. The account list is read-mostly; the cursor is the
// only piece of state mutated by concurrent requests.
package pool

import (
	"errors"
	"sync"

	"github.com/lexavoss/gravitygate/internal/db/models"
)

// ErrNoAccounts is returned when no enabled accounts exist. The gateway
// refuses to start in that state.
var ErrNoAccounts = errors.New("no enabled accounts available")

// Account is the runtime snapshot of a stored account. The token triple
// is mutated on refresh, so it sits behind the account's own mutex.
type Account struct {
	mu sync.Mutex

	ID          string
	Email       string
	DisplayName string
	ProjectID   string

	accessToken  string
	refreshToken string
	expiresAt    int64 // epoch seconds
}

// Token returns the current token triple.
func (a *Account) Token() (access, refresh string, expiresAt int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accessToken, a.refreshToken, a.expiresAt
}

// SetToken installs a refreshed token. An empty refresh token keeps the
// existing one (Google only rotates it occasionally).
func (a *Account) SetToken(access, refresh string, expiresAt int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accessToken = access
	if refresh != "" {
		a.refreshToken = refresh
	}
	a.expiresAt = expiresAt
}

// Pool is the rotation set. The cursor lock is held only for the index
// update, never across a network call.
type Pool struct {
	mu       sync.Mutex
	accounts []*Account
	cursor   int
}

// New builds a pool from stored records, skipping disabled accounts.
func New(records []models.Account) (*Pool, error) {
	var accounts []*Account
	for _, rec := range records {
		if rec.Disabled {
			continue
		}
		accounts = append(accounts, &Account{
			ID:           rec.ID,
			Email:        rec.Email,
			DisplayName:  rec.DisplayName,
			ProjectID:    rec.ProjectID,
			accessToken:  rec.AccessToken,
			refreshToken: rec.RefreshToken,
			expiresAt:    rec.ExpiresAt,
		})
	}
	if len(accounts) == 0 {
		return nil, ErrNoAccounts
	}
	return &Pool{accounts: accounts}, nil
}

// Size reports the number of rotatable accounts.
func (p *Pool) Size() int {
	return len(p.accounts)
}

// Pick selects the account for one attempt. The first attempt of a
// request reads the cursor unchanged so a healthy account keeps serving
// consecutive requests; retries advance the cursor by one before
// selecting, forcing rotation.
func (p *Pool) Pick(advance bool) *Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	if advance {
		p.cursor = (p.cursor + 1) % len(p.accounts)
	}
	return p.accounts[p.cursor%len(p.accounts)]
}

// Accounts returns the rotation set for read-only iteration.
func (p *Pool) Accounts() []*Account {
	return p.accounts
}
