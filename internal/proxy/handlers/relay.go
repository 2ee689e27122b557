// Package handlers exposes the gateway's HTTP surface and owns the
// failover orchestration across the account pool.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/lexavoss/gravitygate/internal/auth/token"
	"github.com/lexavoss/gravitygate/internal/chat"
	"github.com/lexavoss/gravitygate/internal/logging"
	"github.com/lexavoss/gravitygate/internal/pool"
	"github.com/lexavoss/gravitygate/internal/proxy/mappers"
	"github.com/lexavoss/gravitygate/internal/upstream"
	"github.com/lexavoss/gravitygate/internal/util"
)

// TokenSource yields a valid access token for an account.
type TokenSource interface {
	EnsureToken(ctx context.Context, acct *pool.Account) (string, error)
}

// ProjectResolver maps an access token to a cloud project id. It never
// fails; lookups that go wrong resolve to the fallback id.
type ProjectResolver interface {
	ResolveProject(ctx context.Context, accessToken string) string
}

// Generator issues one aggregated generation call upstream.
type Generator interface {
	Generate(ctx context.Context, accessToken string, envelope mappers.GeminiEnvelope) (chat.Response, error)
}

// GatewayError is a terminal failure carrying the HTTP status the wire
// handler should answer with.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string { return e.Message }

// Relay runs the bounded retry loop across the account pool. It is the
// only component that touches the rotation cursor.
type Relay struct {
	pool      *pool.Pool
	tokens    TokenSource
	resolver  ProjectResolver
	generator Generator
	retryCap  int
}

// NewRelay wires the orchestrator. retryCap bounds attempts per request;
// the effective count never exceeds the pool size and is at least 1.
func NewRelay(p *pool.Pool, tokens TokenSource, resolver ProjectResolver, generator Generator, retryCap int) *Relay {
	if retryCap < 1 {
		retryCap = 1
	}
	return &Relay{pool: p, tokens: tokens, resolver: resolver, generator: generator, retryCap: retryCap}
}

// Complete serves one neutral request: select account, ensure token,
// resolve project, send, and either return the aggregated response or
// rotate to the next account.
func (rl *Relay) Complete(ctx context.Context, req chat.Request) (chat.Response, error) {
	attempts := rl.retryCap
	if size := rl.pool.Size(); attempts > size {
		attempts = size
	}

	upstreamModel := mappers.ResolveUpstreamModel(req.Model)
	requestID := logging.GetRequestID(ctx)

	var lastErr error
	lastEmail := ""

	for attempt := 0; attempt < attempts; attempt++ {
		// Attempt 0 keeps the cursor where it is; retries force rotation.
		acct := rl.pool.Pick(attempt > 0)
		lastEmail = acct.Email
		log.Printf("🎫 [%s] Attempt %d/%d using account: %s", requestID, attempt+1, attempts, acct.Email)

		access, err := rl.tokens.EnsureToken(ctx, acct)
		if err != nil {
			log.Printf("⚠️ [%s] %v, trying next account", requestID, err)
			lastErr = err
			continue
		}

		projectID := acct.ProjectID
		if projectID == "" {
			projectID = rl.resolver.ResolveProject(ctx, access)
		}

		envelope := mappers.BuildEnvelope(req, upstreamModel, projectID, envelopeRequestID(requestID))
		resp, err := rl.generator.Generate(ctx, access, envelope)
		if err == nil {
			log.Printf("✅ [%s] Response from %s (model %s)", requestID, acct.Email, upstreamModel)
			return resp, nil
		}
		lastErr = err

		switch classify(err) {
		case abortQuota:
			log.Printf("❌ [%s] Quota exhausted on %s, aborting", requestID, acct.Email)
			return chat.Response{}, &GatewayError{
				Status:  http.StatusTooManyRequests,
				Message: "quota exhausted: " + err.Error(),
			}
		case abortBadRequest:
			log.Printf("❌ [%s] Upstream rejected request: %v", requestID, err)
			return chat.Response{}, &GatewayError{
				Status:  http.StatusBadRequest,
				Message: "upstream rejected request: " + err.Error(),
			}
		default:
			log.Printf("⚠️ [%s] Attempt on %s failed: %s, trying next account",
				requestID, acct.Email, util.TruncateLog(err.Error(), util.DefaultLogMaxLen))
		}
	}

	return chat.Response{}, &GatewayError{
		Status:  http.StatusTooManyRequests,
		Message: fmt.Sprintf("all accounts exhausted (last account %s): %v", lastEmail, lastErr),
	}
}

// envelopeRequestID picks the per-request envelope id, seeded by the
// handler from X-Request-ID or generated fresh.
func envelopeRequestID(base string) string {
	if base == "" {
		return logging.NewRequestID()
	}
	return base
}

type decision int

const (
	retryNext decision = iota
	abortQuota
	abortBadRequest
)

// classify maps an attempt failure to retry-vs-abort. Checks run in
// priority order: credential, capacity/transient, quota exhaustion,
// client error; anything unrecognized is treated as transient.
func classify(err error) decision {
	var credErr *token.CredentialError
	if errors.As(err, &credErr) {
		return retryNext
	}

	code := 0
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		code = statusErr.Code
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		return retryNext
	}
	if code == http.StatusTooManyRequests || code == http.StatusInternalServerError ||
		code == http.StatusServiceUnavailable || containsMarker(err, "RESOURCE_EXHAUSTED") {
		return retryNext
	}
	if containsMarker(err, "QUOTA_EXHAUSTED") || containsMarker(err, "quota exceeded") {
		return abortQuota
	}
	if code == http.StatusBadRequest || code == http.StatusNotFound {
		return abortBadRequest
	}
	return retryNext
}

func containsMarker(err error, marker string) bool {
	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(marker))
}
