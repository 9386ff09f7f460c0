package asr

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/config"
)

// Factory builds transcription engines of the deployment-configured backend.
// Backend selection is per process, not per session.
type Factory struct {
	provider      string
	whisper       *WhisperModel
	vosk          *VoskModel
	initialPrompt string
	logger        *zap.Logger
}

// NewFactory wires the shared model state for the configured ASR provider.
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		provider:      cfg.ASRProvider,
		whisper:       NewWhisperModel(cfg.WhisperModelPath, cfg.WhisperFallbackPath, logger),
		vosk:          NewVoskModel(cfg.VoskModelPath, logger),
		initialPrompt: cfg.WhisperInitialPrompt,
		logger:        logger,
	}
}

// Warmup preloads the configured local model so it is ready when the first
// session connects. The cloud backend has nothing to preload.
func (f *Factory) Warmup() error {
	switch f.provider {
	case "vosk":
		return f.vosk.Load()
	case "cloud":
		return nil
	default:
		return f.whisper.Load()
	}
}

// NewEngine constructs one engine for a new recording segment.
func (f *Factory) NewEngine(ctx context.Context, ac repositories.AudioConfig) (repositories.Engine, error) {
	switch f.provider {
	case "vosk":
		return NewVoskEngine(f.vosk, ac.SampleRate)
	case "cloud":
		return NewCloudEngine(ac.SampleRate, ac.Language, f.logger), nil
	case "", "whisper":
		return NewWhisperEngine(f.whisper, ac.SampleRate, ac.Language, f.initialPrompt)
	default:
		return nil, fmt.Errorf("unknown ASR provider %q", f.provider)
	}
}
