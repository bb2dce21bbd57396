package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// maxItemsPerSection keeps the distilled sections scannable.
const maxItemsPerSection = 25

var (
	classRe = regexp.MustCompile(`(?m)^\s*class\s+([A-Z][A-Za-z0-9_]*)\s*[(:\s]`)
	funcRe  = regexp.MustCompile(`(?m)^\s*def\s+([a-z_][A-Za-z0-9_]*)\s*\(([^)]*)`)
	fenceRe = regexp.MustCompile("(?s)```(?:python)?\n(.*?)```")
)

// pitfallMarkers flag prose lines that read like caveats.
var pitfallMarkers = []string{"warning", "caution", "deprecated", "pitfall", "do not", "must not", "be careful", "note that"}

// Extractor distills crawled pages into the four document sections. The
// built-in implementation is a pattern heuristic; an LLM-backed extractor
// slots in behind the same interface.
type Extractor interface {
	Extract(pages []Page) map[string]string
}

// HeuristicExtractor scans page text for class and function signatures,
// caveat prose, and fenced code examples.
type HeuristicExtractor struct{}

// Extract implements Extractor. Every section key is always present in
// the result; sections with no findings carry an explicit note so the
// job can still finalize.
func (HeuristicExtractor) Extract(pages []Page) map[string]string {
	var classes, functions, pitfalls, recipes []string
	seen := make(map[string]struct{})
	add := func(dst *[]string, item string) {
		item = strings.TrimSpace(item)
		if item == "" || len(*dst) >= maxItemsPerSection {
			return
		}
		if _, ok := seen[item]; ok {
			return
		}
		seen[item] = struct{}{}
		*dst = append(*dst, item)
	}

	for _, p := range pages {
		for _, m := range classRe.FindAllStringSubmatch(p.Content, -1) {
			add(&classes, fmt.Sprintf("- `%s` (%s)", m[1], p.Title))
		}
		for _, m := range funcRe.FindAllStringSubmatch(p.Content, -1) {
			sig := m[1] + "(" + strings.TrimSpace(m[2]) + ")"
			add(&functions, fmt.Sprintf("- `%s`", sig))
		}
		for _, line := range strings.Split(p.Content, "\n") {
			lower := strings.ToLower(line)
			for _, marker := range pitfallMarkers {
				if strings.Contains(lower, marker) {
					add(&pitfalls, "- "+strings.TrimSpace(line))
					break
				}
			}
		}
		for _, m := range fenceRe.FindAllStringSubmatch(p.Content, -1) {
			snippet := strings.TrimSpace(m[1])
			if snippet == "" || len(snippet) > 2000 {
				continue
			}
			add(&recipes, fmt.Sprintf("### From %s\n\n```python\n%s\n```", p.Title, snippet))
		}
	}

	return map[string]string{
		SectionCoreClasses:  joinOrNote(classes, "No class definitions were found in the crawled pages."),
		SectionKeyFunctions: joinOrNote(functions, "No function signatures were found in the crawled pages."),
		SectionPitfalls:     joinOrNote(pitfalls, "No caveats were found in the crawled pages."),
		SectionRecipes:      joinOrNote(recipes, "No code examples were found in the crawled pages."),
	}
}

func joinOrNote(items []string, note string) string {
	if len(items) == 0 {
		return "_" + note + "_"
	}
	return strings.Join(items, "\n")
}
