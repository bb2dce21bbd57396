// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/forgeworks/agentwizard/internal/domain"
)

// Repository defines the interface for persisting downloadable artifacts.
type Repository interface {
	// PutArtifact stores an artifact, replacing any previous one with the
	// same ID.
	PutArtifact(ctx context.Context, artifact *domain.Artifact) error

	// TakeArtifact retrieves an artifact and removes it: a result can be
	// downloaded once. Returns nil when no live artifact exists.
	TakeArtifact(ctx context.Context, id string) (*domain.Artifact, error)

	// CleanupExpired removes artifacts past their expiry.
	CleanupExpired(ctx context.Context) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
