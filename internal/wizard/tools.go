package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/forgeworks/agentwizard/internal/agent"
	"github.com/forgeworks/agentwizard/internal/domain"
	"github.com/forgeworks/agentwizard/internal/protocol"
)

// maxShownCandidates bounds how many discovery results go back to the
// driver in one tool result.
const maxShownCandidates = 30

// dispatch routes a gate- and stage-checked tool call to its handler.
// Handlers return the tool result for the driver plus a short summary for
// the tool_complete event.
func (m *Machine) dispatch(ctx context.Context, name string, args map[string]any) (string, string, error) {
	switch name {
	case domain.ToolPresentQuestion:
		return m.toolPresentQuestion(args)
	case domain.ToolSearchPackages:
		return m.toolSearchPackages(ctx, args)
	case domain.ToolShowRecommended:
		return m.toolShowRecommendations()
	case domain.ToolConfirmPackages:
		return m.toolConfirmPackages(args)
	case domain.ToolFetchDocs:
		return m.toolFetchDocs(ctx)
	case domain.ToolIngestLibraryAPI:
		return m.toolIngestLibraryAPI(ctx, args)
	case domain.ToolSetIdentity:
		return m.toolSetIdentity(args)
	case domain.ToolSetOutputMode:
		return m.toolSetOutputMode(args)
	case domain.ToolSetModel:
		return m.toolSetModel(args)
	case domain.ToolGenerate:
		return m.toolGenerate(ctx)
	case domain.ToolInstallPackages:
		return m.toolInstallPackages(ctx, args)
	case domain.ToolLaunchAgent:
		return m.toolLaunchAgent(ctx)
	case domain.ToolGetState:
		return m.toolGetState()
	}
	return "", "", fmt.Errorf("unknown tool %q", name)
}

func (m *Machine) toolPresentQuestion(args map[string]any) (string, string, error) {
	text := strings.TrimSpace(argString(args, "question"))
	if text == "" {
		return "", "", fmt.Errorf("present_question requires a non-empty question")
	}
	q := &domain.Question{
		ID:            m.sess.NextQuestionID(),
		Text:          text,
		Options:       argStrings(args, "options"),
		AllowMultiple: argBool(args, "allow_multiple"),
		AllowFreetext: argBool(args, "allow_freetext"),
		MaxLength:     argInt(args, "max_length"),
	}
	if err := Ask(m.sess, q); err != nil {
		return "", "", err
	}
	return "", "", agent.ErrAwaitInput
}

func (m *Machine) toolSearchPackages(ctx context.Context, args map[string]any) (string, string, error) {
	keywords := argStrings(args, "keywords")
	if len(keywords) == 0 {
		return "", "", fmt.Errorf("search_packages requires at least one keyword")
	}
	if m.sess.Stage == domain.StageAcknowledge {
		m.sess.Stage = domain.StageDiscover
	}

	found := m.deps.Discovery.Discover(ctx, keywords)
	if len(found) == 0 {
		return "", "", fmt.Errorf("no packages found for %s; try different keywords", strings.Join(keywords, ", "))
	}
	m.sess.Keywords = keywords
	m.sess.Candidates = found
	m.sess.Stage = domain.StageRecommend

	shown := found
	if len(shown) > maxShownCandidates {
		shown = shown[:maxShownCandidates]
	}
	results := make([]map[string]any, 0, len(shown))
	for i, c := range shown {
		results = append(results, map[string]any{
			"rank":        i + 1,
			"name":        c.Name,
			"description": c.Description,
			"source":      string(c.Source),
			"relevance":   c.RelevanceScore,
			"citations":   c.Citations,
			"install":     c.InstallCommand,
		})
	}
	result := jsonResult(map[string]any{
		"total_found": len(found),
		"showing":     len(shown),
		"results":     results,
	})
	return result, fmt.Sprintf("Found %d candidate packages", len(found)), nil
}

func (m *Machine) toolShowRecommendations() (string, string, error) {
	if len(m.sess.Candidates) == 0 {
		return "", "", fmt.Errorf("no packages found yet; run search_packages first")
	}
	var b strings.Builder
	for i, c := range m.sess.Candidates {
		if i >= maxShownCandidates {
			break
		}
		fmt.Fprintf(&b, "%d. **%s** (%s)", i+1, c.Name, c.Source)
		if c.PeerReviewed {
			b.WriteString(" — peer reviewed")
		}
		b.WriteString("\n")
		if c.Description != "" {
			fmt.Fprintf(&b, "   %s\n", c.Description)
		}
	}
	return b.String(), fmt.Sprintf("Presented %d recommendations", min(len(m.sess.Candidates), maxShownCandidates)), nil
}

// toolConfirmPackages records the researcher's selection. Selected names
// are matched case-insensitively against the candidate list; anything
// unmatched, plus explicit additions, is kept as a user-supplied package
// so a researcher can always bring their own tools.
func (m *Machine) toolConfirmPackages(args map[string]any) (string, string, error) {
	selected := argStrings(args, "selected_names")
	additional := argStrings(args, "additional_packages")

	var confirmed []domain.PackageCandidate
	seen := make(map[string]struct{})
	add := func(c domain.PackageCandidate) {
		key := strings.ToLower(c.Name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		confirmed = append(confirmed, c)
	}

	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if c, ok := findCandidate(m.sess.Candidates, name); ok {
			add(c)
			continue
		}
		add(userPackage(name))
	}
	for _, name := range additional {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		add(userPackage(name))
	}

	if len(confirmed) == 0 {
		return "", "", fmt.Errorf("no packages selected; pick at least one recommendation or add your own")
	}
	m.sess.Confirmed = confirmed
	m.sess.Stage = domain.StageFetchDocs

	names := make([]string, len(confirmed))
	for i, c := range confirmed {
		names[i] = c.Name
	}
	result := jsonResult(map[string]any{"confirmed": len(confirmed), "packages": names})
	return result, fmt.Sprintf("Confirmed %d packages", len(confirmed)), nil
}

func (m *Machine) toolFetchDocs(ctx context.Context) (string, string, error) {
	docs, err := m.deps.Docs.Fetch(ctx, m.sess.Confirmed)
	if err != nil {
		return "", "", fmt.Errorf("fetch docs: %w", err)
	}
	if m.sess.FetchedDocs == nil {
		m.sess.FetchedDocs = make(map[string]string, len(m.sess.Confirmed))
	}
	fetched := 0
	for _, c := range m.sess.Confirmed {
		if content, ok := docs[c.Name]; ok && strings.TrimSpace(content) != "" {
			m.sess.FetchedDocs[c.Name] = content
			fetched++
			continue
		}
		// Explicitly marked unavailable so the stage can still complete.
		m.sess.FetchedDocs[c.Name] = fmt.Sprintf("Documentation for %s could not be fetched.", c.Name)
	}
	m.sess.Stage = domain.StageIdentity

	result := jsonResult(map[string]any{
		"packages": len(m.sess.Confirmed),
		"fetched":  fetched,
	})
	return result, fmt.Sprintf("Fetched documentation for %d of %d packages", fetched, len(m.sess.Confirmed)), nil
}

func (m *Machine) toolIngestLibraryAPI(ctx context.Context, args map[string]any) (string, string, error) {
	if m.deps.Ingestor == nil {
		return "", "", fmt.Errorf("deep API extraction is not configured in this deployment")
	}
	pkg := strings.TrimSpace(argString(args, "package_name"))
	if pkg == "" {
		return "", "", fmt.Errorf("ingest_library_api requires package_name")
	}
	repoURL := argString(args, "repository_url")
	if repoURL == "" {
		if c, ok := findCandidate(m.sess.Confirmed, pkg); ok {
			repoURL = c.RepositoryURL
		}
	}

	markdown, err := m.deps.Ingestor.Ingest(ctx, pkg, repoURL)
	if err != nil {
		return "", "", fmt.Errorf("ingest %s: %w", pkg, err)
	}
	if m.sess.FetchedDocs == nil {
		m.sess.FetchedDocs = make(map[string]string)
	}
	m.sess.FetchedDocs[pkg+"/api"] = markdown

	result := jsonResult(map[string]any{
		"package": pkg,
		"words":   len(strings.Fields(markdown)),
	})
	return result, fmt.Sprintf("Extracted API reference for %s", pkg), nil
}

func (m *Machine) toolSetIdentity(args map[string]any) (string, string, error) {
	name := strings.TrimSpace(argString(args, "name"))
	if name == "" {
		return "", "", fmt.Errorf("set_agent_identity requires a name")
	}
	display := strings.TrimSpace(argString(args, "display_name"))
	if display == "" {
		display = name
	}
	m.sess.Identity = domain.Identity{
		Name:        name,
		DisplayName: display,
		Description: argString(args, "description"),
		Emoji:       argString(args, "emoji"),
	}
	m.sess.Stage = domain.StageOutputMode

	return jsonResult(map[string]any{"name": name, "display_name": display}),
		fmt.Sprintf("Agent named %s", display), nil
}

func (m *Machine) toolSetOutputMode(args map[string]any) (string, string, error) {
	mode, err := domain.ParseOutputMode(argString(args, "mode"))
	if err != nil {
		return "", "", err
	}
	if err := m.deps.Gate.CheckOutputMode(mode); err != nil {
		return "", "", err
	}
	m.sess.OutputMode = mode
	m.sess.Stage = domain.StageGenerate

	return jsonResult(map[string]any{"mode": string(mode)}),
		fmt.Sprintf("Output mode set to %s", mode), nil
}

func (m *Machine) toolSetModel(args map[string]any) (string, string, error) {
	model := strings.TrimSpace(argString(args, "model"))
	if !domain.IsSupportedModel(model) {
		return "", "", fmt.Errorf("unsupported model %q", model)
	}
	m.sess.Model = model
	return jsonResult(map[string]any{"model": model}), "Model set to " + model, nil
}

func (m *Machine) toolGenerate(ctx context.Context) (string, string, error) {
	s := m.sess
	if s.Identity.Name == "" {
		return "", "", fmt.Errorf("agent identity is not set")
	}
	if s.OutputMode == "" {
		return "", "", fmt.Errorf("output mode is not set")
	}
	desc, err := m.deps.Generator.Generate(ctx, s)
	if err != nil {
		return "", "", fmt.Errorf("generate project: %w", err)
	}
	s.LastGenerate = desc
	s.Stage = domain.StageComplete
	m.after = append(m.after, protocol.DownloadReady(desc))

	result := jsonResult(map[string]any{
		"project_name": desc.ProjectName,
		"output_mode":  string(desc.OutputMode),
		"files":        desc.Files,
		"download_url": desc.DownloadURL,
	})
	return result, fmt.Sprintf("Generated %d files for %s", len(desc.Files), desc.ProjectName), nil
}

func (m *Machine) toolInstallPackages(ctx context.Context, args map[string]any) (string, string, error) {
	packages := argStrings(args, "packages")
	if len(packages) == 0 {
		for _, c := range m.sess.Confirmed {
			packages = append(packages, c.InstallName())
		}
	}
	if len(packages) == 0 {
		return "", "", fmt.Errorf("no packages to install")
	}
	if m.deps.Runner == nil {
		result := jsonResult(map[string]any{
			"status":  "manual",
			"command": "pip install " + strings.Join(packages, " "),
		})
		return result, "Install command prepared", nil
	}
	out, err := m.deps.Runner.Install(ctx, packages)
	if err != nil {
		return "", "", fmt.Errorf("install packages: %w", err)
	}
	return out, fmt.Sprintf("Installed %d packages", len(packages)), nil
}

func (m *Machine) toolLaunchAgent(ctx context.Context) (string, string, error) {
	if m.sess.LastGenerate == nil {
		return "", "", fmt.Errorf("generate the project before launching")
	}
	if m.deps.Runner == nil {
		result := jsonResult(map[string]any{
			"status":      "manual",
			"project_dir": m.sess.LastGenerate.ProjectDir,
		})
		return result, "Launch instructions prepared", nil
	}
	out, err := m.deps.Runner.Launch(ctx, m.sess.LastGenerate)
	if err != nil {
		return "", "", fmt.Errorf("launch agent: %w", err)
	}
	return out, "Agent launched", nil
}

func (m *Machine) toolGetState() (string, string, error) {
	return jsonResult(m.sess.Snapshot()), "Reported session state", nil
}

// findCandidate matches a selected name against the candidate list by
// display name or install identifier, so a researcher can answer with
// either form without demoting the discovered entry.
func findCandidate(candidates []domain.PackageCandidate, name string) (domain.PackageCandidate, bool) {
	name = strings.TrimSpace(name)
	for _, c := range candidates {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
		if c.PackageID != "" && strings.EqualFold(c.PackageID, name) {
			return c, true
		}
	}
	return domain.PackageCandidate{}, false
}

// userPackage wraps a name the researcher supplied that matched no
// candidate. It still gets an install command so generation and install
// can act on it.
func userPackage(name string) domain.PackageCandidate {
	return domain.PackageCandidate{
		Name:           name,
		Source:         domain.SourceUser,
		Description:    "Added by the researcher.",
		InstallCommand: "pip install " + name,
	}
}

func jsonResult(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Tool argument extraction. Drivers hand args through as decoded JSON, so
// values arrive as any-typed scalars and slices.

func argString(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func argStrings(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
