package mappers

// Static model routing: the public model ids clients ask for, and the
// internal Cloud Code names they map to.

const defaultUpstreamModel = "gemini-2.0-flash-exp"

var upstreamModels = map[string]string{
	"gemini-3-flash":              "gemini-exp-1206",
	"gemini-3-pro-high":           "gemini-exp-1206",
	"gemini-3-pro-low":            "gemini-exp-1206",
	"gemini-2.5-flash":            "gemini-2.0-flash-exp",
	"gemini-2.5-flash-lite":       "gemini-2.0-flash-exp",
	"gemini-2.5-pro":              "gemini-2.0-flash-thinking-exp-01-21",
	"gemini-2.5-flash-thinking":   "gemini-2.0-flash-thinking-exp-01-21",
	"claude-sonnet-4-5":           "gemini-2.0-flash-exp",
	"claude-sonnet-4-5-thinking":  "gemini-2.0-flash-thinking-exp-01-21",
	"claude-opus-4-5-thinking":    "gemini-2.0-flash-thinking-exp-01-21",
}

// ResolveUpstreamModel maps a requested model id to its upstream name,
// falling back to the default for anything unknown.
func ResolveUpstreamModel(model string) string {
	if upstream, ok := upstreamModels[model]; ok {
		return upstream
	}
	return defaultUpstreamModel
}

// ModelInfo is one /v1/models catalog entry.
type ModelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// SupportedModels returns the static catalog served by /v1/models.
func SupportedModels() []ModelInfo {
	created := int64(1704067200)
	return []ModelInfo{
		{ID: "gemini-3-flash", Object: "model", Created: created, OwnedBy: "google"},
		{ID: "gemini-2.5-flash", Object: "model", Created: created, OwnedBy: "google"},
		{ID: "gemini-2.5-pro", Object: "model", Created: created, OwnedBy: "google"},
		{ID: "claude-sonnet-4-5", Object: "model", Created: created, OwnedBy: "anthropic"},
	}
}
