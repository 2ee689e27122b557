// Package chat defines the gateway's translator-neutral request and
// response model. Every external wire format (OpenAI, Claude) is parsed
// into these types before anything touches an account or the upstream,
// and every upstream result is reduced back into them.
package chat

import "strings"

// Turn roles. A system instruction is never a turn; it is hoisted into
// Request.System by the inbound mappers.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation entry with plain-text content.
type Turn struct {
	Role    string
	Content string
}

// Request is the neutral form of an inbound generation request.
type Request struct {
	Model       string
	System      string
	Turns       []Turn
	MaxTokens   int // 0 means unset
	Temperature *float64
}

// Response is the aggregated result of one upstream call. Segments holds
// the candidate text in arrival order; token counters are zero when the
// upstream did not report usage.
type Response struct {
	Segments     []string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	FinishReason string
}

// Text returns the full response text, the concatenation of all segments.
func (r Response) Text() string {
	return strings.Join(r.Segments, "")
}
