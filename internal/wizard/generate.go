package wizard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// ArtifactSink persists a generated bundle for later download. The
// artifact store satisfies this.
type ArtifactSink interface {
	PutArtifact(ctx context.Context, id, kind, name, content string, ttl time.Duration) error
}

// ArtifactKindProject tags generated project bundles in the artifact
// store.
const ArtifactKindProject = "project"

// BundleGenerator renders the agent configuration bundle for a session
// and persists it as a single downloadable document. The bundle layout
// depends on the session's output mode.
type BundleGenerator struct {
	Artifacts ArtifactSink
	// BaseURL is the download route prefix, e.g. "/api/result".
	BaseURL string
	// TTL bounds how long an unclaimed bundle survives.
	TTL time.Duration
}

// Generate implements Generator.
func (g *BundleGenerator) Generate(ctx context.Context, s *domain.Session) (*domain.ArtifactDescriptor, error) {
	files := g.render(s)

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var bundle strings.Builder
	for _, name := range names {
		fmt.Fprintf(&bundle, "\n\n---\n\n## FILE: %s\n\n%s", name, files[name])
	}
	content := strings.TrimPrefix(bundle.String(), "\n\n---\n\n")

	desc := &domain.ArtifactDescriptor{
		ProjectName:  displayName(s),
		OutputMode:   s.OutputMode,
		ProjectDir:   projectDir(s),
		Files:        names,
		Instructions: instructions(s),
	}
	if g.Artifacts != nil {
		if err := g.Artifacts.PutArtifact(ctx, s.ID, ArtifactKindProject, desc.ProjectDir+".md", content, g.TTL); err != nil {
			return nil, fmt.Errorf("store bundle: %w", err)
		}
		desc.DownloadURL = strings.TrimSuffix(g.BaseURL, "/") + "/" + s.ID
	}
	return desc, nil
}

// render produces the per-mode file set.
func (g *BundleGenerator) render(s *domain.Session) map[string]string {
	files := map[string]string{
		"README.md": readme(s),
	}
	switch s.OutputMode {
	case domain.OutputCopilotAgent:
		files[".github/copilot-instructions.md"] = systemPrompt(s)
		files[fmt.Sprintf(".github/agents/%s.md", projectDir(s))] = agentSpec(s)
	case domain.OutputFullstack:
		files["agent.yaml"] = agentConfig(s)
		files["system-prompt.md"] = systemPrompt(s)
	default: // markdown
		files["system-prompt.md"] = systemPrompt(s)
		files["agent-spec.md"] = agentSpec(s)
	}
	for _, c := range s.Confirmed {
		if doc, ok := s.FetchedDocs[c.Name]; ok {
			files["docs/"+safeFileName(c.Name)+".md"] = doc
		}
	}
	return files
}

func readme(s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", displayName(s))
	if s.Identity.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Identity.Description)
	}
	fmt.Fprintf(&b, "Generated agent configuration (%s mode).\n\n## Packages\n\n", s.OutputMode)
	for _, c := range s.Confirmed {
		fmt.Fprintf(&b, "- **%s** — %s\n", c.Name, c.Description)
	}
	return b.String()
}

func systemPrompt(s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a research assistant", displayName(s))
	if s.DomainDescription != "" {
		fmt.Fprintf(&b, " specialized in %s", strings.TrimSpace(s.DomainDescription))
	}
	b.WriteString(".\n\n")
	if s.Identity.Description != "" {
		b.WriteString(s.Identity.Description + "\n\n")
	}
	b.WriteString("## Your toolkit\n\n")
	for _, c := range s.Confirmed {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	if len(s.AnalysisGoals) > 0 {
		b.WriteString("\n## Analysis goals\n\n")
		for _, goal := range s.AnalysisGoals {
			fmt.Fprintf(&b, "- %s\n", goal)
		}
	}
	b.WriteString("\nConsult the bundled package documentation before writing analysis code.\n")
	return b.String()
}

func agentSpec(s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s — agent specification\n\n", displayName(s))
	fmt.Fprintf(&b, "- Name: %s\n- Model: %s\n- Output mode: %s\n", s.Identity.Name, s.Model, s.OutputMode)
	if s.Identity.Emoji != "" {
		fmt.Fprintf(&b, "- Emoji: %s\n", s.Identity.Emoji)
	}
	if len(s.DataTypes) > 0 {
		fmt.Fprintf(&b, "- Data types: %s\n", strings.Join(s.DataTypes, ", "))
	}
	if len(s.FileTypes) > 0 {
		fmt.Fprintf(&b, "- File formats: %s\n", strings.Join(s.FileTypes, ", "))
	}
	b.WriteString("\n## Confirmed packages\n\n")
	for _, c := range s.Confirmed {
		fmt.Fprintf(&b, "### %s\n\n%s\n\n", c.Name, c.Description)
		if c.InstallCommand != "" {
			fmt.Fprintf(&b, "Install: `%s`\n\n", c.InstallCommand)
		}
	}
	return b.String()
}

func agentConfig(s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\ndisplay_name: %s\nmodel: %s\n", s.Identity.Name, displayName(s), s.Model)
	b.WriteString("packages:\n")
	for _, c := range s.Confirmed {
		fmt.Fprintf(&b, "  - %s\n", c.InstallName())
	}
	return b.String()
}

func instructions(s *domain.Session) map[string]string {
	switch s.OutputMode {
	case domain.OutputCopilotAgent:
		return map[string]string{
			"setup": "Unpack the files into your repository root; the .github directory holds the agent configuration.",
			"usage": fmt.Sprintf("Open your editor's agent picker and select %s.", displayName(s)),
		}
	case domain.OutputFullstack:
		return map[string]string{
			"setup": "Unpack the project, create a virtual environment, and install the packages listed in agent.yaml.",
			"usage": fmt.Sprintf("Run the agent entry point to chat with %s locally.", displayName(s)),
		}
	default:
		return map[string]string{
			"setup": "Download the bundle; each section is one file.",
			"usage": "Paste system-prompt.md into any LLM chat, with agent-spec.md and the docs/ files as reference context.",
		}
	}
}

func displayName(s *domain.Session) string {
	if s.Identity.DisplayName != "" {
		return s.Identity.DisplayName
	}
	return s.Identity.Name
}

func projectDir(s *domain.Session) string {
	dir := safeFileName(s.Identity.Name)
	if dir == "" {
		dir = "agent"
	}
	return dir
}

func safeFileName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '-', r == '.':
			return '-'
		}
		return -1
	}, name), "-")
}
