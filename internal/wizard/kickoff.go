package wizard

import (
	"fmt"
	"strings"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// BuildKickoffPrompt folds the intake form into the opening prompt for
// the driving agent. Sections are omitted when the researcher left them
// blank.
func BuildKickoffPrompt(s *domain.Session, public bool) string {
	var parts []string
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", label, strings.TrimSpace(value)))
		}
	}
	addList := func(label string, values []string) {
		if len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(values, ", ")))
		}
	}

	add("Research domain", s.DomainDescription)
	addList("Research goals", s.ResearchGoals)
	addList("Data types", s.DataTypes)
	addList("Analysis goals", s.AnalysisGoals)
	add("Experience level", s.ExperienceLevel)
	addList("File formats", s.FileTypes)
	addList("Packages already in use", s.KnownPackages)

	if len(parts) == 0 {
		parts = append(parts, "The researcher has not filled in the intake form; start by asking about their domain.")
	}

	trailer := "Walk me through building my agent step by step."
	if public {
		trailer = "Walk me through building my agent step by step. This is a guided session: stay on the workflow and do not offer to install or run anything."
	}
	return fmt.Sprintf("I want to build a research agent.\n\n%s\n\n%s", strings.Join(parts, "\n"), trailer)
}
