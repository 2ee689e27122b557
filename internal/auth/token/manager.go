// Package token implements the credential lifecycle: deciding when an
// account's access token needs refreshing and performing the refresh.
// It never retries; failover across accounts is the orchestrator's job.
package token

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lexavoss/gravitygate/internal/db"
	"github.com/lexavoss/gravitygate/internal/pool"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// refreshMargin is how close to expiry a token may get before it is
// refreshed instead of reused.
const refreshMargin = 300 * time.Second

// refreshTimeout bounds a single refresh-token exchange.
const refreshTimeout = 30 * time.Second

// CredentialError marks a failed refresh. The orchestrator treats it as
// a signal to rotate to the next account, never as a terminal failure.
type CredentialError struct {
	Email string
	Err   error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential refresh failed for %s: %v", e.Email, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Manager refreshes account tokens through the identity provider and
// writes refreshed tokens back to the store so concurrent requests do not
// repeat the same exchange.
type Manager struct {
	database   *gorm.DB
	oauthCfg   *oauth2.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewManager builds a manager. database may be nil in tests that do not
// exercise persistence.
func NewManager(database *gorm.DB, oauthCfg *oauth2.Config) *Manager {
	return &Manager{
		database:   database,
		oauthCfg:   oauthCfg,
		httpClient: &http.Client{Timeout: refreshTimeout},
		now:        time.Now,
	}
}

// EnsureToken returns a currently valid access token for the account.
// Tokens expiring more than the safety margin in the future are returned
// unchanged with no network call.
func (m *Manager) EnsureToken(ctx context.Context, acct *pool.Account) (string, error) {
	access, refresh, expiresAt := acct.Token()
	if expiresAt > m.now().Add(refreshMargin).Unix() {
		return access, nil
	}

	log.Printf("⚠️ Token for %s is expiring, refreshing...", acct.Email)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	source := m.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh})
	fresh, err := source.Token()
	if err != nil {
		return "", &CredentialError{Email: acct.Email, Err: err}
	}

	expiry := fresh.Expiry.Unix()
	acct.SetToken(fresh.AccessToken, fresh.RefreshToken, expiry)

	if m.database != nil {
		rotated := ""
		if fresh.RefreshToken != "" && fresh.RefreshToken != refresh {
			log.Printf("🔄 Rotating refresh token for: %s", acct.Email)
			rotated = fresh.RefreshToken
		}
		if err := db.SaveToken(m.database, acct.ID, fresh.AccessToken, rotated, expiry); err != nil {
			log.Printf("⚠️ Failed to persist refreshed token for %s: %v", acct.Email, err)
		}
	}

	log.Printf("✅ Refreshed token for: %s (expires: %s)", acct.Email, fresh.Expiry.Format(time.RFC3339))
	return fresh.AccessToken, nil
}
