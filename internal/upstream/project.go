package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// FallbackProjectID is returned when the lookup fails or the account has
// no associated project. It is a fixed known-good value: the endpoint
// validates project ids, so a randomly generated one would fail outright.
const FallbackProjectID = "bamboo-precept-lgxtn"

// ResolveProject maps an access token to its cloud project id via
// loadCodeAssist. Failures are never fatal; the caller always gets a
// usable id.
func (c *Client) ResolveProject(ctx context.Context, accessToken string) string {
	payload, _ := json.Marshal(map[string]interface{}{
		"metadata": map[string]string{"ideType": "ANTIGRAVITY"},
	})

	url := c.baseURL + ":loadCodeAssist"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return FallbackProjectID
	}
	c.setHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("⚠️ loadCodeAssist request failed: %v", err)
		return FallbackProjectID
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("⚠️ loadCodeAssist returned %d: %s", resp.StatusCode, string(body))
		return FallbackProjectID
	}

	var result struct {
		CloudAICompanionProject string `json:"cloudaicompanionProject"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return FallbackProjectID
	}
	if result.CloudAICompanionProject == "" {
		log.Printf("⚠️ Account has no cloudaicompanionProject, using fallback: %s", FallbackProjectID)
		return FallbackProjectID
	}
	return result.CloudAICompanionProject
}
