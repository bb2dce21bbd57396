package domain

// ModelInfo is display metadata for a selectable LLM backend.
type ModelInfo struct {
	ID      string `json:"value"`
	Label   string `json:"label"`
	Default bool   `json:"-"`
}

// SupportedModels lists the LLM backends a session may select for billing.
// Selection controls which model handles the wizard conversation, not the
// generated agent's configuration.
var SupportedModels = []ModelInfo{
	{ID: "claude-opus-4.5", Label: "Claude Opus 4.5 — Most capable"},
	{ID: "claude-sonnet-4.5", Label: "Claude Sonnet 4.5 — Fast & capable"},
	{ID: "claude-sonnet-4.6", Label: "Claude Sonnet 4.6 — Latest Sonnet; 1x rates but strong", Default: true},
	{ID: "gpt-5.3", Label: "GPT-5.3 — OpenAI flagship"},
	{ID: "gpt-5.3-codex", Label: "GPT-5.3 Codex — Code-optimized"},
	{ID: "claude-haiku-3.5", Label: "Claude Haiku 3.5 — Fastest, lowest cost"},
	{ID: "gpt-4o", Label: "GPT-4o — OpenAI multi-modal"},
	{ID: "gpt-4o-mini", Label: "GPT-4o Mini — Cost-effective"},
}

// IsSupportedModel reports whether id is a selectable model.
func IsSupportedModel(id string) bool {
	for _, m := range SupportedModels {
		if m.ID == id {
			return true
		}
	}
	return false
}

// DefaultModel returns the model preselected for new sessions.
func DefaultModel() string {
	for _, m := range SupportedModels {
		if m.Default {
			return m.ID
		}
	}
	return SupportedModels[0].ID
}
