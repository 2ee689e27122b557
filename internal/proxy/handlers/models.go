package handlers

import (
	"net/http"

	"github.com/lexavoss/gravitygate/internal/proxy/mappers"
)

// ModelsHandler handles GET /v1/models with the static catalog.
func ModelsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"object": "list",
			"data":   mappers.SupportedModels(),
		})
	}
}
