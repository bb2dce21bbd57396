package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/forgeworks/agentwizard/internal/domain"
	"gopkg.in/yaml.v3"
)

// catalogEntry is the YAML shape of one curated package.
type catalogEntry struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Install      string   `yaml:"install"`
	Homepage     string   `yaml:"homepage"`
	Repository   string   `yaml:"repository"`
	Keywords     []string `yaml:"keywords"`
	Citations    int      `yaml:"citations"`
	PeerReviewed bool     `yaml:"peer_reviewed"`
	PackageID    string   `yaml:"package_id"`
}

// CatalogSource searches a curated, locally configured package catalog.
// It serves as the built-in discovery provider when no external search
// collaborators are wired in.
type CatalogSource struct {
	entries []catalogEntry
}

// LoadCatalog reads a YAML catalog file of curated packages.
func LoadCatalog(path string) (*CatalogSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var entries []catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &CatalogSource{entries: entries}, nil
}

// NewCatalogSource builds a source from already-parsed candidates.
// Used by tests and embedding callers.
func NewCatalogSource(candidates []domain.PackageCandidate) *CatalogSource {
	entries := make([]catalogEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, catalogEntry{
			Name:         c.Name,
			Description:  c.Description,
			Install:      c.InstallCommand,
			Homepage:     c.Homepage,
			Repository:   c.RepositoryURL,
			Keywords:     c.Keywords,
			Citations:    c.Citations,
			PeerReviewed: c.PeerReviewed,
			PackageID:    c.PackageID,
		})
	}
	return &CatalogSource{entries: entries}
}

// Name implements Source.
func (s *CatalogSource) Name() string {
	return string(domain.SourceCatalog)
}

// Search scores each catalog entry by keyword overlap against its name,
// keywords, and description. Entries with no overlap are omitted.
func (s *CatalogSource) Search(_ context.Context, keywords []string) ([]domain.PackageCandidate, error) {
	var out []domain.PackageCandidate
	for _, e := range s.entries {
		score := e.score(keywords)
		if score == 0 {
			continue
		}
		out = append(out, domain.PackageCandidate{
			Name:           e.Name,
			Source:         domain.SourceCatalog,
			Description:    e.Description,
			InstallCommand: e.Install,
			Homepage:       e.Homepage,
			RepositoryURL:  e.Repository,
			Keywords:       e.Keywords,
			Citations:      e.Citations,
			PeerReviewed:   e.PeerReviewed,
			PackageID:      e.PackageID,
			RelevanceScore: score,
		})
	}
	return out, nil
}

func (e *catalogEntry) score(keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		switch {
		case strings.Contains(strings.ToLower(e.Name), kw):
			hits += 2
		case containsFold(e.Keywords, kw):
			hits += 2
		case strings.Contains(strings.ToLower(e.Description), kw):
			hits++
		}
	}
	if hits == 0 {
		return 0
	}
	score := float64(hits) / float64(2*len(keywords))
	if score > 1 {
		score = 1
	}
	return score
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
