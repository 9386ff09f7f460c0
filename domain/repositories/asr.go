package repositories

import "context"

// Engine is one transcription engine bound to a single recording segment's
// audio. A session owns at most one Engine at a time.
type Engine interface {
	// PushAudio appends raw little-endian 16-bit PCM samples to the segment.
	PushAudio(pcm []byte) error
	// TryPartial returns the engine's in-progress hypothesis, if it has one.
	// Non-blocking; ok is false when no hypothesis is available yet.
	TryPartial() (text string, ok bool)
	// Finalize decodes the accumulated segment and returns the transcript.
	// The segment buffer is cleared; the engine can accept a new segment or
	// be discarded. An empty segment yields an empty transcript, not an error.
	Finalize(ctx context.Context) (string, error)
	// Close releases per-session resources. Shared model state stays loaded.
	Close() error
}

// AudioConfig describes the audio a session will stream.
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language"`
}

// EngineFactory constructs engines of the configured backend.
type EngineFactory interface {
	NewEngine(ctx context.Context, config AudioConfig) (Engine, error)
}
