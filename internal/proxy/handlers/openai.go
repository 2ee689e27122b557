package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/lexavoss/gravitygate/internal/logging"
	"github.com/lexavoss/gravitygate/internal/proxy/mappers"
)

// OpenAIChatHandler handles POST /v1/chat/completions.
func OpenAIChatHandler(relay *Relay) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeOpenAIError(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		req, err := mappers.ParseOpenAIRequest(body)
		if err != nil {
			if errors.Is(err, mappers.ErrMissingMessages) {
				writeOpenAIError(w, "missing messages field", http.StatusBadRequest)
			} else {
				writeOpenAIError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			}
			return
		}

		requestID := requestIDFor(r)
		ctx := logging.WithRequestID(r.Context(), requestID)
		log.Printf("📥 [%s] /v1/chat/completions model=%s turns=%d", requestID, req.Model, len(req.Turns))

		resp, err := relay.Complete(ctx, req)
		if err != nil {
			var gwErr *GatewayError
			if errors.As(err, &gwErr) {
				writeOpenAIError(w, gwErr.Message, gwErr.Status)
			} else {
				writeOpenAIError(w, "upstream error: "+err.Error(), http.StatusBadGateway)
			}
			return
		}

		writeJSON(w, http.StatusOK, mappers.BuildOpenAIResponse(resp, req.Model))
	}
}

func writeOpenAIError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": message,
			"type":    "api_error",
			"code":    status,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// requestIDFor honors a client-supplied X-Request-ID, otherwise generates
// a fresh one.
func requestIDFor(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return logging.NewRequestID()
}
