package wizard

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// SummaryDocFetcher builds reference notes from the metadata discovery
// already collected, without any network access. It is the fallback
// fetcher when no crawler-backed fetcher is wired in; the deep extraction
// pipeline can replace or augment its output per package.
type SummaryDocFetcher struct{}

// Fetch implements DocFetcher.
func (SummaryDocFetcher) Fetch(_ context.Context, packages []domain.PackageCandidate) (map[string]string, error) {
	out := make(map[string]string, len(packages))
	for _, c := range packages {
		out[c.Name] = summaryDoc(c)
	}
	return out, nil
}

func summaryDoc(c domain.PackageCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Name)
	if c.Description != "" {
		b.WriteString(c.Description + "\n\n")
	}
	if c.InstallCommand != "" {
		fmt.Fprintf(&b, "Install: `%s`\n\n", c.InstallCommand)
	} else if c.Source != domain.SourceUser {
		fmt.Fprintf(&b, "Install: `pip install %s`\n\n", c.InstallName())
	}
	if c.Homepage != "" {
		fmt.Fprintf(&b, "Homepage: %s\n", c.Homepage)
	}
	if c.RepositoryURL != "" {
		fmt.Fprintf(&b, "Repository: %s\n", c.RepositoryURL)
	}
	if len(c.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(c.Keywords, ", "))
	}
	if c.PeerReviewed {
		fmt.Fprintf(&b, "\nPeer reviewed; %d citations.\n", c.Citations)
	}
	return b.String()
}
