package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
)

type fakeSource struct {
	name       string
	candidates []domain.PackageCandidate
	err        error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Search(_ context.Context, _ []string) ([]domain.PackageCandidate, error) {
	return f.candidates, f.err
}

func TestDiscover_MergesDuplicatesAcrossSources(t *testing.T) {
	a := NewAggregator([]Source{
		&fakeSource{name: "pypi", candidates: []domain.PackageCandidate{
			{Name: "neo", Source: domain.SourcePyPI, Downloads: 5000, RelevanceScore: 0.6},
		}},
		&fakeSource{name: "pubmed", candidates: []domain.PackageCandidate{
			{Name: "Neo", Source: domain.SourcePubMed, Citations: 120, PeerReviewed: true, RelevanceScore: 0.9},
			{Name: "elephant", Source: domain.SourcePubMed, RelevanceScore: 0.4},
		}},
	}, time.Second)

	got := a.Discover(context.Background(), []string{"electrophysiology"})

	if len(got) != 2 {
		t.Fatalf("Expected 2 merged candidates, got %d: %v", len(got), got)
	}
	neo := got[0]
	if neo.Name != "neo" {
		t.Fatalf("Expected neo ranked first, got %q", neo.Name)
	}
	if neo.Source != domain.SourcePyPI {
		t.Errorf("Expected original source kept on merge, got %q", neo.Source)
	}
	if neo.Citations != 120 || neo.Downloads != 5000 {
		t.Errorf("Expected max counters on merge, got citations=%d downloads=%d", neo.Citations, neo.Downloads)
	}
	if !neo.PeerReviewed {
		t.Error("Expected peer_reviewed to survive merge")
	}
	if neo.RelevanceScore != 0.9 {
		t.Errorf("Expected max relevance on merge, got %v", neo.RelevanceScore)
	}
}

func TestDiscover_SkipsFailingSource(t *testing.T) {
	a := NewAggregator([]Source{
		&fakeSource{name: "broken", err: errors.New("boom")},
		&fakeSource{name: "ok", candidates: []domain.PackageCandidate{
			{Name: "mne", RelevanceScore: 0.5},
		}},
	}, time.Second)

	got := a.Discover(context.Background(), []string{"eeg"})
	if len(got) != 1 || got[0].Name != "mne" {
		t.Errorf("Expected surviving source's candidate, got %v", got)
	}
}

func TestCatalogSource_ScoresKeywordOverlap(t *testing.T) {
	src := NewCatalogSource([]domain.PackageCandidate{
		{Name: "neo", Description: "electrophysiology data objects", Keywords: []string{"spike", "ephys"}},
		{Name: "astropy", Description: "astronomy utilities", Keywords: []string{"fits"}},
	})

	got, err := src.Search(context.Background(), []string{"electrophysiology", "spike"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Expected 1 matching entry, got %d", len(got))
	}
	if got[0].Name != "neo" {
		t.Errorf("Expected neo, got %q", got[0].Name)
	}
	if got[0].RelevanceScore <= 0 || got[0].RelevanceScore > 1 {
		t.Errorf("Expected relevance in (0,1], got %v", got[0].RelevanceScore)
	}
	if got[0].Source != domain.SourceCatalog {
		t.Errorf("Expected catalog source, got %q", got[0].Source)
	}
}
