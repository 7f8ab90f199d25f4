// Package diarization defines the diarization provider interface and the
// speaker-turn model consumed by the attribution engine.
package diarization

import "context"

// Provider is the interface that diarization backends must implement.
type Provider interface {
	// Name returns the backend name.
	Name() string
	// IsAvailable reports whether the backend is reachable.
	IsAvailable(ctx context.Context) bool
	// Diarize sends audio for speaker diarization and returns the result.
	Diarize(ctx context.Context, req Request) (*Result, error)
}
