package discovery

import (
	"fmt"
	"log"
	"os"

	"github.com/lexavoss/gravitygate/internal/db"
	"github.com/lexavoss/gravitygate/internal/db/models"
	"gorm.io/gorm"
)

// ScanResult reports what the scanner found and what it could not read.
type ScanResult struct {
	Credentials []Credential `json:"credentials"`
	Errors      []ScanError  `json:"errors,omitempty"`
}

type ScanError struct {
	Source string `json:"source"`
	Path   string `json:"path"`
	Error  string `json:"error"`
}

// Scan walks every known source and collects usable credentials. A
// credential needs at least a refresh token to be worth importing.
func Scan() *ScanResult {
	result := &ScanResult{}

	for _, source := range Sources {
		for _, candidate := range source.Paths {
			path := expandPath(candidate)
			if _, err := os.Stat(path); err != nil {
				continue
			}

			cred, err := source.parse(path)
			if err != nil {
				result.Errors = append(result.Errors, ScanError{
					Source: source.Name,
					Path:   path,
					Error:  err.Error(),
				})
				continue
			}
			if cred == nil || cred.RefreshToken == "" {
				continue
			}
			log.Printf("🔍 Found %s credential: %s", source.Name, path)
			result.Credentials = append(result.Credentials, *cred)
		}
	}

	return result
}

// Import writes scanned credentials into the store, deduplicating by
// email. Credentials without an email (gcloud ADC) get a synthetic one
// derived from the source name so reruns stay idempotent.
func Import(database *gorm.DB, creds []Credential) (created, updated int, err error) {
	for _, cred := range creds {
		email := cred.Email
		if email == "" {
			email = cred.Source + "@local"
		}
		_, isNew, err := db.UpsertAccount(database, models.Account{
			Email:        email,
			DisplayName:  cred.Source,
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			ExpiresAt:    cred.ExpiresAt,
			ProjectID:    cred.ProjectID,
		})
		if err != nil {
			return created, updated, fmt.Errorf("failed to import %s credential: %w", cred.Source, err)
		}
		if isNew {
			log.Printf("✅ Imported account %s (%s, token %s)", email, cred.Source, MaskToken(cred.RefreshToken))
			created++
		} else {
			updated++
		}
	}
	return created, updated, nil
}

// MaskToken shortens a token for log output.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
