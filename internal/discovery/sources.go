// Package discovery seeds the account store from Google OAuth
// credentials already present on the machine, so the gateway can start
// serving without a separate authorization step.
package discovery

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Credential is one usable Google OAuth identity found on disk.
type Credential struct {
	Source       string `json:"source"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // epoch seconds, 0 when unknown
	ProjectID    string `json:"project_id"`
	Path         string `json:"path"`
}

// Source is one known on-disk credential location.
type Source struct {
	Name  string
	Paths []string // candidate file paths, ~ expands to the home dir
	parse func(path string) (*Credential, error)
}

// Sources lists every location the scanner checks, in priority order.
var Sources = []Source{
	{
		Name: "antigravity",
		Paths: []string{
			"~/.gemini/antigravity/google_ai_credentials.json",
		},
		parse: parseAntigravity,
	},
	{
		Name: "gemini-cli",
		Paths: []string{
			"~/.gemini/oauth_creds.json",
			"~/.config/gemini-cli/credentials.json",
		},
		parse: parseGeminiCLI,
	},
	{
		Name: "gcloud",
		Paths: []string{
			"~/.config/gcloud/application_default_credentials.json",
		},
		parse: parseGcloudADC,
	},
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func parseAntigravity(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresAt    int64  `json:"expires_at"`
		Email        string `json:"email"`
		ProjectID    string `json:"project_id"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return &Credential{
		Source:       "antigravity",
		Email:        file.Email,
		AccessToken:  file.AccessToken,
		RefreshToken: file.RefreshToken,
		ExpiresAt:    file.ExpiresAt,
		ProjectID:    file.ProjectID,
		Path:         path,
	}, nil
}

func parseGeminiCLI(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiryDate   int64  `json:"expiry_date"` // milliseconds
		Email        string `json:"email"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	return &Credential{
		Source:       "gemini-cli",
		Email:        file.Email,
		AccessToken:  file.AccessToken,
		RefreshToken: file.RefreshToken,
		ExpiresAt:    file.ExpiryDate / 1000,
		Path:         path,
	}, nil
}

// parseGcloudADC reads application-default credentials. These carry no
// email or access token, only a long-lived refresh token.
func parseGcloudADC(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Type         string `json:"type"`
		RefreshToken string `json:"refresh_token"`
		QuotaProject string `json:"quota_project_id"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if file.Type != "authorized_user" {
		return nil, nil
	}

	return &Credential{
		Source:       "gcloud",
		RefreshToken: file.RefreshToken,
		ProjectID:    file.QuotaProject,
		Path:         path,
	}, nil
}
