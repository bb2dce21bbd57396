package domain

import "fmt"

// OutputMode selects which artifact format the wizard generates.
type OutputMode string

const (
	// OutputFullstack generates a runnable standalone agent project.
	// Unavailable in public deployments.
	OutputFullstack OutputMode = "fullstack"
	// OutputCopilotAgent generates editor sub-agent configuration files.
	OutputCopilotAgent OutputMode = "copilot_agent"
	// OutputMarkdown generates platform-agnostic markdown files.
	OutputMarkdown OutputMode = "markdown"
)

// ParseOutputMode validates a raw mode string.
func ParseOutputMode(s string) (OutputMode, error) {
	switch OutputMode(s) {
	case OutputFullstack, OutputCopilotAgent, OutputMarkdown:
		return OutputMode(s), nil
	}
	return "", fmt.Errorf("invalid output mode %q: must be one of fullstack, copilot_agent, markdown", s)
}

// OutputModeDescription returns user-facing help text for a mode.
func OutputModeDescription(m OutputMode) string {
	switch m {
	case OutputFullstack:
		return "Full standalone agent project with CLI, web UI, code execution sandbox, and guardrails."
	case OutputCopilotAgent:
		return "Configuration files for editor custom agents and sub-agents, with shared instructions and package documentation."
	case OutputMarkdown:
		return "Platform-agnostic markdown files (system prompt, tools reference, data guide, workflow). Copy-paste into any LLM."
	}
	return ""
}

// ArtifactDescriptor describes a finished generation result. The artifact
// content itself lives in the artifact store; this is what goes over the
// channel as download_ready.
type ArtifactDescriptor struct {
	ProjectName  string            `json:"project_name"`
	OutputMode   OutputMode        `json:"output_mode"`
	ProjectDir   string            `json:"project_dir"`
	Files        []string          `json:"files"`
	Instructions map[string]string `json:"instructions"`
	DownloadURL  string            `json:"download_url"`
}
