// Package upstream talks to the internal Gemini generation endpoint. It
// always requests a streamed response for quota efficiency and collapses
// the stream into one aggregated reply; callers never see partial output.
package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lexavoss/gravitygate/internal/chat"
	"github.com/lexavoss/gravitygate/internal/proxy/mappers"
)

const (
	// DefaultBaseURL is the production Cloud Code endpoint.
	DefaultBaseURL = "https://cloudcode-pa.googleapis.com/v1internal"

	// UserAgent must look like the Antigravity IDE build or the internal
	// endpoint rejects the call.
	UserAgent = "antigravity/1.11.9 windows/amd64"

	// requestTimeout bounds one full generation call including the
	// whole stream.
	requestTimeout = 300 * time.Second
)

var clientMetadata = map[string]string{
	"ideType":    "IDE_UNSPECIFIED",
	"platform":   "PLATFORM_UNSPECIFIED",
	"pluginType": "GEMINI",
}

// StatusError carries a non-success upstream status and the body text so
// the orchestrator can classify it.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Code, e.Body)
}

// Client issues generation calls against one base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client. An empty baseURL selects the production
// endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Generate sends the envelope to streamGenerateContent and aggregates the
// SSE stream into a single response. A non-success status surfaces as a
// *StatusError with the upstream body preserved.
func (c *Client) Generate(ctx context.Context, accessToken string, envelope mappers.GeminiEnvelope) (chat.Response, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return chat.Response{}, fmt.Errorf("failed to marshal envelope: %w", err)
	}

	url := c.baseURL + ":streamGenerateContent?alt=sse"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return chat.Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chat.Response{}, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return chat.Response{}, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return aggregateStream(resp.Body)
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	metadata, _ := json.Marshal(clientMetadata)
	req.Header.Set("Client-Metadata", string(metadata))
}

// aggregateStream reads SSE data lines, appending candidate text
// fragments in arrival order, and keeps the last usage metadata seen.
// The sentinel [DONE] line terminates the stream.
func aggregateStream(body io.Reader) (chat.Response, error) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var text strings.Builder
	resp := chat.Response{FinishReason: "stop"}

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		result, err := mappers.UnwrapChunk([]byte(data))
		if err != nil {
			continue
		}
		if usage := result.UsageMetadata; usage != nil {
			resp.InputTokens = usage.PromptTokenCount
			resp.OutputTokens = usage.CandidatesTokenCount
			resp.TotalTokens = usage.TotalTokenCount
		}
		if len(result.Candidates) == 0 {
			continue
		}
		for _, part := range result.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
	}
	if err := scanner.Err(); err != nil {
		return chat.Response{}, fmt.Errorf("stream read failed: %w", err)
	}

	// Always at least one segment, even when the candidate produced no
	// text at all.
	if text.Len() > 0 {
		resp.Segments = append(resp.Segments, text.String())
	} else {
		resp.Segments = []string{""}
	}
	return resp, nil
}
