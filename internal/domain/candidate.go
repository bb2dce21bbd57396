package domain

// DiscoverySource identifies where a package candidate was found.
type DiscoverySource string

const (
	SourcePyPI           DiscoverySource = "pypi"
	SourceBioTools       DiscoverySource = "bio.tools"
	SourcePapersWithCode DiscoverySource = "papers_with_code"
	SourcePubMed         DiscoverySource = "pubmed"
	SourceCatalog        DiscoverySource = "catalog"
	SourceUser           DiscoverySource = "user"
)

// PackageCandidate is a discovered software package that may be useful in
// the researcher's domain.
type PackageCandidate struct {
	Name            string          `json:"name"`
	Source          DiscoverySource `json:"source"`
	Description     string          `json:"description,omitempty"`
	InstallCommand  string          `json:"install,omitempty"`
	Homepage        string          `json:"homepage,omitempty"`
	RepositoryURL   string          `json:"repository_url,omitempty"`
	Citations       int             `json:"citations,omitempty"`
	Downloads       int             `json:"downloads,omitempty"`
	RelevanceScore  float64         `json:"relevance"`
	PeerReviewed    bool            `json:"peer_reviewed,omitempty"`
	PublicationDOIs []string        `json:"publication_dois,omitempty"`
	Keywords        []string        `json:"keywords,omitempty"`
	PackageID       string          `json:"package_id,omitempty"`
}

// InstallName returns the identifier to use when installing the package.
func (c PackageCandidate) InstallName() string {
	if c.PackageID != "" {
		return c.PackageID
	}
	return c.Name
}

// Merge combines another candidate describing the same package: the
// original source wins, strings take the first non-empty value, counters
// take the maximum, and list fields are unioned.
func (c PackageCandidate) Merge(other PackageCandidate) PackageCandidate {
	merged := c
	if merged.Description == "" {
		merged.Description = other.Description
	}
	if merged.InstallCommand == "" {
		merged.InstallCommand = other.InstallCommand
	}
	if merged.Homepage == "" {
		merged.Homepage = other.Homepage
	}
	if merged.RepositoryURL == "" {
		merged.RepositoryURL = other.RepositoryURL
	}
	if merged.PackageID == "" {
		merged.PackageID = other.PackageID
	}
	merged.Citations = max(merged.Citations, other.Citations)
	merged.Downloads = max(merged.Downloads, other.Downloads)
	if other.RelevanceScore > merged.RelevanceScore {
		merged.RelevanceScore = other.RelevanceScore
	}
	merged.PeerReviewed = merged.PeerReviewed || other.PeerReviewed
	merged.PublicationDOIs = unionStrings(merged.PublicationDOIs, other.PublicationDOIs)
	merged.Keywords = unionStrings(merged.Keywords, other.Keywords)
	return merged
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
