// Package discovery aggregates package candidates from pluggable
// sources. The real web/database searches live behind the Source
// interface; this package owns fan-out, de-duplication, and ranking.
package discovery

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// Source is one searchable candidate provider.
type Source interface {
	Name() string
	Search(ctx context.Context, keywords []string) ([]domain.PackageCandidate, error)
}

// Aggregator fans a query out to all sources concurrently, merges
// duplicates by name, and ranks by relevance.
type Aggregator struct {
	sources []Source
	timeout time.Duration
}

// NewAggregator bounds each search by perSourceTimeout.
func NewAggregator(sources []Source, perSourceTimeout time.Duration) *Aggregator {
	if perSourceTimeout <= 0 {
		perSourceTimeout = 15 * time.Second
	}
	return &Aggregator{sources: sources, timeout: perSourceTimeout}
}

// Discover queries every source and returns merged candidates sorted by
// descending relevance. A failing source is logged and skipped; one slow
// or broken provider must not sink the whole discovery stage.
func (a *Aggregator) Discover(ctx context.Context, keywords []string) []domain.PackageCandidate {
	var (
		mu  sync.Mutex
		all []domain.PackageCandidate
		wg  sync.WaitGroup
	)

	for _, src := range a.sources {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()
			searchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			found, err := src.Search(searchCtx, keywords)
			if err != nil {
				slog.Warn("Discovery source failed", "source", src.Name(), "error", err)
				return
			}
			mu.Lock()
			all = append(all, found...)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	return rank(merge(all))
}

// merge unions candidates that describe the same package, keyed by
// lowercased name.
func merge(candidates []domain.PackageCandidate) []domain.PackageCandidate {
	byName := make(map[string]domain.PackageCandidate)
	var order []string
	for _, c := range candidates {
		key := strings.ToLower(c.Name)
		if existing, ok := byName[key]; ok {
			byName[key] = existing.Merge(c)
			continue
		}
		byName[key] = c
		order = append(order, key)
	}
	out := make([]domain.PackageCandidate, 0, len(order))
	for _, key := range order {
		out = append(out, byName[key])
	}
	return out
}

// rank sorts by relevance, breaking ties by citations then name so the
// ordering is stable across runs.
func rank(candidates []domain.PackageCandidate) []domain.PackageCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		if candidates[i].Citations != candidates[j].Citations {
			return candidates[i].Citations > candidates[j].Citations
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates
}
