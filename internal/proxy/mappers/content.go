package mappers

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrMissingMessages is returned when an inbound body carries no messages
// at all. Translation never guesses; the handlers surface this as a 400.
var ErrMissingMessages = errors.New("missing messages field")

// BlockText is a field that external formats send either as a plain string
// or as an array of typed content blocks. Only text-carrying blocks are
// kept; their text is newline-joined. Everything else (images, tool use)
// is dropped.
type BlockText string

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// UnmarshalJSON handles both string and block-array content formats.
func (b *BlockText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = BlockText(s)
		return nil
	}

	var blocks []contentBlock
	if err := json.Unmarshal(data, &blocks); err == nil {
		var texts []string
		for _, block := range blocks {
			if isTextBlock(block.Type) && block.Text != "" {
				texts = append(texts, block.Text)
			}
		}
		*b = BlockText(strings.Join(texts, "\n"))
		return nil
	}

	// Unknown shape: treat as empty rather than failing the whole request.
	*b = ""
	return nil
}

func isTextBlock(blockType string) bool {
	// "text" is the Claude/OpenAI block type, "input_text" the alternate
	// input[] form.
	return blockType == "text" || blockType == "input_text"
}
