package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/lexavoss/gravitygate/internal/logging"
	"github.com/lexavoss/gravitygate/internal/proxy/mappers"
)

// ClaudeMessagesHandler handles POST /v1/messages.
func ClaudeMessagesHandler(relay *Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeClaudeError(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		req, err := mappers.ParseClaudeRequest(body)
		if err != nil {
			if errors.Is(err, mappers.ErrMissingMessages) {
				writeClaudeError(w, "missing messages field", http.StatusBadRequest)
			} else {
				writeClaudeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			}
			return
		}

		requestID := requestIDFor(r)
		ctx := logging.WithRequestID(r.Context(), requestID)
		log.Printf("📥 [%s] /v1/messages model=%s turns=%d", requestID, req.Model, len(req.Turns))

		resp, err := relay.Complete(ctx, req)
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				writeClaudeError(w, gwErr.Message, gwErr.Status)
			} else {
				writeClaudeError(w, "upstream error: "+err.Error(), http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusOK, mappers.BuildClaudeResponse(resp, req.Model))
	}
}

func writeClaudeError(w http.ResponseWriter, message string, status int) {
	errType := "api_error"
	switch status {
	case http.StatusBadRequest:
		errType = "invalid_request_error"
	case http.StatusUnauthorized:
		errType = "authentication_error"
	case http.StatusTooManyRequests:
		errType = "rate_limit_error"
	}
	writeJSON(w, status, map[string]interface{}{
		"type": "error",
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	})
}
