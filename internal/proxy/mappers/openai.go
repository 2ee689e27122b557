package mappers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexavoss/gravitygate/internal/chat"
)

// OpenAI chat-completions wire structures.

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON handles both string and block-array content.
func (m *OpenAIMessage) UnmarshalJSON(data []byte) error {
	var alias struct {
		Role    string    `json:"role"`
		Content BlockText `json:"content"`
	}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	m.Role = alias.Role
	if m.Role == "" {
		m.Role = chat.RoleUser
	}
	m.Content = string(alias.Content)
	return nil
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	Input       json.RawMessage `json:"input"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ParseOpenAIRequest translates an OpenAI-style body into the neutral
// model. The alternate input[] form is normalized to messages first.
// System messages are hoisted out of the turn list.
func ParseOpenAIRequest(body []byte) (chat.Request, error) {
	var raw openAIChatRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return chat.Request{}, err
	}

	rawMessages := raw.Messages
	if rawMessages == nil {
		// Factory-style clients send input[] instead of messages[].
		rawMessages = raw.Input
	}
	if rawMessages == nil {
		return chat.Request{}, ErrMissingMessages
	}

	var messages []OpenAIMessage
	if err := json.Unmarshal(rawMessages, &messages); err != nil {
		return chat.Request{}, err
	}

	req := chat.Request{
		Model:       raw.Model,
		MaxTokens:   raw.MaxTokens,
		Temperature: raw.Temperature,
	}

	var systemTexts []string
	for _, msg := range messages {
		if msg.Role == "system" {
			if msg.Content != "" {
				systemTexts = append(systemTexts, msg.Content)
			}
			continue
		}
		req.Turns = append(req.Turns, chat.Turn{Role: msg.Role, Content: msg.Content})
	}
	req.System = strings.Join(systemTexts, "\n")

	return req, nil
}

// BuildOpenAIResponse renders an aggregated response as an OpenAI
// chat.completion object. Usage counters stay zero-filled when the
// upstream did not report any.
func BuildOpenAIResponse(resp chat.Response, model string) OpenAIChatResponse {
	return OpenAIChatResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []OpenAIChoice{
			{
				Index: 0,
				Message: OpenAIMessage{
					Role:    chat.RoleAssistant,
					Content: resp.Text(),
				},
				FinishReason: "stop",
			},
		},
		Usage: OpenAIUsage{
			PromptTokens:     resp.InputTokens,
			CompletionTokens: resp.OutputTokens,
			TotalTokens:      resp.TotalTokens,
		},
	}
}
