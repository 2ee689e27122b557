package handlers

import (
	"net/http"

	"github.com/lexavoss/gravitygate/internal/pool"
)

type accountSummary struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	ProjectID   string `json:"project_id,omitempty"`
}

// AccountsHandler handles GET /api/accounts: the rotation set without
// any token material.
func AccountsHandler(p *pool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts := p.Accounts()
		summaries := make([]accountSummary, 0, len(accounts))
		for _, acct := range accounts {
			summaries = append(summaries, accountSummary{
				ID:          acct.ID,
				Email:       acct.Email,
				DisplayName: acct.DisplayName,
				ProjectID:   acct.ProjectID,
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"accounts": summaries,
		})
	}
}
