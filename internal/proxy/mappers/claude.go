package mappers

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/lexavoss/gravitygate/internal/chat"
)

// Anthropic (Claude) messages wire structures.

type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON handles both string and {type,text} block-array content.
func (m *ClaudeMessage) UnmarshalJSON(data []byte) error {
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

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature"`
	System      BlockText       `json:"system"`
}

type ClaudeResponse struct {
	ID           string               `json:"id"`
	Type         string               `json:"type"`
	Role         string               `json:"role"`
	Model        string               `json:"model"`
	Content      []ClaudeContentBlock `json:"content"`
	StopReason   string               `json:"stop_reason"`
	StopSequence *string              `json:"stop_sequence"`
	Usage        ClaudeUsage          `json:"usage"`
}

type ClaudeContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ClaudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ParseClaudeRequest translates a Claude-style body into the neutral
// model. The top-level system field (string or block list) becomes the
// hoisted system instruction rather than a turn.
func ParseClaudeRequest(body []byte) (chat.Request, error) {
	var raw claudeRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return chat.Request{}, err
	}
	if raw.Messages == nil {
		return chat.Request{}, ErrMissingMessages
	}

	var messages []ClaudeMessage
	if err := json.Unmarshal(raw.Messages, &messages); err != nil {
		return chat.Request{}, err
	}

	req := chat.Request{
		Model:       raw.Model,
		System:      string(raw.System),
		MaxTokens:   raw.MaxTokens,
		Temperature: raw.Temperature,
	}
	for _, msg := range messages {
		req.Turns = append(req.Turns, chat.Turn{Role: msg.Role, Content: msg.Content})
	}

	return req, nil
}

// BuildClaudeResponse renders an aggregated response as a Claude message
// object: one text block per non-empty segment, and always at least one
// block even when the candidate produced no text at all.
func BuildClaudeResponse(resp chat.Response, model string) ClaudeResponse {
	var blocks []ClaudeContentBlock
	for _, segment := range resp.Segments {
		if segment == "" {
			continue
		}
		blocks = append(blocks, ClaudeContentBlock{Type: "text", Text: segment})
	}
	if len(blocks) == 0 {
		blocks = append(blocks, ClaudeContentBlock{Type: "text", Text: ""})
	}

	return ClaudeResponse{
		ID:         "msg_" + uuid.New().String(),
		Type:       "message",
		Role:       chat.RoleAssistant,
		Model:      model,
		Content:    blocks,
		StopReason: "end_turn",
		Usage: ClaudeUsage{
			InputTokens:  resp.InputTokens,
			OutputTokens: resp.OutputTokens,
		},
	}
}
