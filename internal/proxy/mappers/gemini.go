package mappers

import (
	"encoding/json"

	"github.com/lexavoss/gravitygate/internal/chat"
)

// Cloud Code v1internal envelope structures. The outer fields (project,
// requestId, userAgent, requestType) are routing metadata required by the
// internal endpoint; requestType "agent" is load-bearing for quota
// accounting and must not be changed.

const (
	envelopeUserAgent   = "antigravity"
	envelopeRequestType = "agent"

	defaultMaxOutputTokens = 8192
	defaultTemperature     = 1.0
)

type GeminiEnvelope struct {
	Project     string        `json:"project"`
	RequestID   string        `json:"requestId"`
	Model       string        `json:"model"`
	UserAgent   string        `json:"userAgent"`
	RequestType string        `json:"requestType"`
	Request     GeminiPayload `json:"request"`
}

type GeminiPayload struct {
	Contents          []GeminiContent         `json:"contents"`
	SystemInstruction *GeminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *GeminiGenerationConfig `json:"generationConfig,omitempty"`
	SafetySettings    []GeminiSafetySetting   `json:"safetySettings,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type GeminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// disabledSafetySettings turns off the four harm-category filters.
func disabledSafetySettings() []GeminiSafetySetting {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]GeminiSafetySetting, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, GeminiSafetySetting{Category: c, Threshold: "OFF"})
	}
	return settings
}

// BuildEnvelope encodes a neutral request into the upstream envelope.
// Assistant turns become role "model"; empty-text turns are dropped; the
// hoisted system text becomes systemInstruction.
func BuildEnvelope(req chat.Request, upstreamModel, projectID, requestID string) GeminiEnvelope {
	contents := make([]GeminiContent, 0, len(req.Turns))
	for _, turn := range req.Turns {
		if turn.Content == "" {
			continue
		}
		role := turn.Role
		if role == chat.RoleAssistant {
			role = "model"
		}
		contents = append(contents, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: turn.Content}},
		})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxOutputTokens
	}
	temperature := defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	payload := GeminiPayload{
		Contents: contents,
		GenerationConfig: &GeminiGenerationConfig{
			Temperature:     &temperature,
			MaxOutputTokens: &maxTokens,
		},
		SafetySettings: disabledSafetySettings(),
	}
	if req.System != "" {
		payload.SystemInstruction = &GeminiContent{
			Role:  chat.RoleUser,
			Parts: []GeminiPart{{Text: req.System}},
		}
	}

	return GeminiEnvelope{
		Project:     projectID,
		RequestID:   requestID,
		Model:       upstreamModel,
		UserAgent:   envelopeUserAgent,
		RequestType: envelopeRequestType,
		Request:     payload,
	}
}

// Upstream result structures. Streaming chunks arrive either bare or
// wrapped in a {response: {...}} envelope.

type GeminiResult struct {
	Candidates    []GeminiCandidate `json:"candidates"`
	UsageMetadata *GeminiUsage      `json:"usageMetadata"`
}

type GeminiCandidate struct {
	Content      GeminiCandidateContent `json:"content"`
	FinishReason string                 `json:"finishReason"`
}

type GeminiCandidateContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// UnwrapChunk decodes one upstream JSON payload, tolerating both the
// wrapped and the bare envelope shape.
func UnwrapChunk(data []byte) (GeminiResult, error) {
	var wrapped struct {
		Response *GeminiResult `json:"response"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Response != nil {
		return *wrapped.Response, nil
	}

	var bare GeminiResult
	if err := json.Unmarshal(data, &bare); err != nil {
		return GeminiResult{}, err
	}
	return bare, nil
}
