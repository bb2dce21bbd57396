package domain

import "time"

// Artifact is one downloadable generation or extraction result. Results
// are claimed at most once: the download removes the row.
type Artifact struct {
	ID      string
	Kind    string
	Name    string
	Content string

	CreatedAt time.Time
	// ExpiresAt zero means the artifact never expires on its own.
	ExpiresAt time.Time
}

// Expired reports whether the artifact has outlived its TTL.
func (a *Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && now.After(a.ExpiresAt)
}
