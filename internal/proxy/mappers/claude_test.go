package mappers

import (
	"errors"
	"testing"

	"github.com/lexavoss/gravitygate/internal/chat"
)

func TestParseClaudeRequest_SystemHoisted(t *testing.T) {
	body := []byte(`{
		"model": "claude-sonnet-4-5",
		"system": "Be concise",
		"messages": [{"role": "user", "content": "hi"}],
		"max_tokens": 1024
	}`)

	req, err := ParseClaudeRequest(body)
	if err != nil {
		t.Fatalf("ParseClaudeRequest failed: %v", err)
	}
	if req.System != "Be concise" {
		t.Errorf("System mismatch: %q", req.System)
	}
	if len(req.Turns) != 1 || req.Turns[0].Role != "user" || req.Turns[0].Content != "hi" {
		t.Errorf("Turns mismatch: %+v", req.Turns)
	}

	env := BuildEnvelope(req, "gemini-2.0-flash-exp", "proj", "agent-1")
	if env.Request.SystemInstruction == nil {
		t.Fatal("systemInstruction should be populated")
	}
	if env.Request.SystemInstruction.Parts[0].Text != "Be concise" {
		t.Errorf("systemInstruction text mismatch: %q", env.Request.SystemInstruction.Parts[0].Text)
	}
	if len(env.Request.Contents) != 1 {
		t.Fatalf("Expected exactly 1 content entry, got %d", len(env.Request.Contents))
	}
	if env.Request.Contents[0].Role != "user" {
		t.Errorf("Content role mismatch: %q", env.Request.Contents[0].Role)
	}
}

func TestParseClaudeRequest_SystemBlocks(t *testing.T) {
	body := []byte(`{
		"model": "claude-sonnet-4-5",
		"system": [
			{"type": "text", "text": "one"},
			{"type": "text", "text": "two"}
		],
		"messages": [{"role": "user", "content": "hi"}]
	}`)

	req, err := ParseClaudeRequest(body)
	if err != nil {
		t.Fatalf("ParseClaudeRequest failed: %v", err)
	}
	if req.System != "one\ntwo" {
		t.Errorf("System mismatch: %q", req.System)
	}
}

func TestParseClaudeRequest_BlockContent(t *testing.T) {
	body := []byte(`{
		"model": "claude-sonnet-4-5",
		"messages": [
			{"role": "assistant", "content": [
				{"type": "text", "text": "part one"},
				{"type": "tool_use", "text": "ignored"},
				{"type": "text", "text": "part two"}
			]}
		]
	}`)

	req, err := ParseClaudeRequest(body)
	if err != nil {
		t.Fatalf("ParseClaudeRequest failed: %v", err)
	}
	if req.Turns[0].Role != "assistant" {
		t.Errorf("Role mismatch: %q", req.Turns[0].Role)
	}
	if req.Turns[0].Content != "part one\npart two" {
		t.Errorf("Content mismatch: %q", req.Turns[0].Content)
	}
}

func TestParseClaudeRequest_MissingMessages(t *testing.T) {
	body := []byte(`{"model": "claude-sonnet-4-5", "system": "Be concise"}`)

	_, err := ParseClaudeRequest(body)
	if !errors.Is(err, ErrMissingMessages) {
		t.Fatalf("Expected ErrMissingMessages, got %v", err)
	}
}

func TestBuildClaudeResponse_Blocks(t *testing.T) {
	resp := BuildClaudeResponse(chat.Response{
		Segments:     []string{"answer", "", "more"},
		InputTokens:  7,
		OutputTokens: 2,
	}, "claude-sonnet-4-5")

	if resp.Type != "message" || resp.Role != "assistant" {
		t.Errorf("Envelope mismatch: type=%q role=%q", resp.Type, resp.Role)
	}
	if len(resp.Content) != 2 {
		t.Fatalf("Empty segments should be dropped, got %d blocks", len(resp.Content))
	}
	if resp.Content[0].Text != "answer" || resp.Content[1].Text != "more" {
		t.Errorf("Block texts mismatch: %+v", resp.Content)
	}
	if resp.StopReason != "end_turn" {
		t.Errorf("StopReason mismatch: %q", resp.StopReason)
	}
	if resp.Usage.InputTokens != 7 || resp.Usage.OutputTokens != 2 {
		t.Errorf("Usage mismatch: %+v", resp.Usage)
	}
}

func TestBuildClaudeResponse_AlwaysOneBlock(t *testing.T) {
	resp := BuildClaudeResponse(chat.Response{Segments: []string{""}}, "claude-sonnet-4-5")

	if len(resp.Content) != 1 {
		t.Fatalf("Expected exactly 1 block, got %d", len(resp.Content))
	}
	if resp.Content[0].Type != "text" || resp.Content[0].Text != "" {
		t.Errorf("Expected one empty text block, got %+v", resp.Content[0])
	}
}
