package store

import (
	"context"
	"time"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// Sink adapts a Repository to the narrow persistence hook the bundle
// generator and ingest handler write through.
type Sink struct {
	Repo Repository
}

// PutArtifact stores one artifact with an optional TTL.
func (s Sink) PutArtifact(ctx context.Context, id, kind, name, content string, ttl time.Duration) error {
	artifact := &domain.Artifact{
		ID:        id,
		Kind:      kind,
		Name:      name,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if ttl > 0 {
		artifact.ExpiresAt = artifact.CreatedAt.Add(ttl)
	}
	return s.Repo.PutArtifact(ctx, artifact)
}
