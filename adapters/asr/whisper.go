package asr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"
)

// WhisperModel is the process-wide shared batch model. Loading is attempted
// once: the preferred model path first, then a single downgrade to the
// fallback path. The result, success or failure, is cached for the process
// lifetime.
type WhisperModel struct {
	path         string
	fallbackPath string
	logger       *zap.Logger

	once  sync.Once
	model whisper.Model
	err   error

	// whisper contexts carry no concurrency guarantee, so decodes across
	// sessions are serialized here. Buffer ingestion is not affected.
	decodeMu sync.Mutex
}

// NewWhisperModel prepares a lazily-loaded shared model.
func NewWhisperModel(path, fallbackPath string, logger *zap.Logger) *WhisperModel {
	return &WhisperModel{
		path:         path,
		fallbackPath: fallbackPath,
		logger:       logger,
	}
}

// Load loads the model, downgrading once to the fallback path on failure.
// Safe to call from multiple goroutines; only the first call does work.
func (m *WhisperModel) Load() error {
	m.once.Do(func() {
		m.logger.Info("loading whisper model", zap.String("path", m.path))
		model, err := whisper.New(m.path)
		if err == nil {
			m.model = model
			return
		}

		if m.fallbackPath == "" || m.fallbackPath == m.path {
			m.err = fmt.Errorf("load whisper model %q: %w", m.path, err)
			return
		}

		m.logger.Warn("preferred whisper model unavailable, downgrading",
			zap.String("path", m.path),
			zap.String("fallback", m.fallbackPath),
			zap.Error(err))
		model, ferr := whisper.New(m.fallbackPath)
		if ferr != nil {
			m.err = fmt.Errorf("load whisper fallback model %q: %w", m.fallbackPath, ferr)
			return
		}
		m.model = model
	})
	return m.err
}

// Transcribe decodes one whole segment and returns the concatenated text of
// all decoded sub-segments, trimmed.
func (m *WhisperModel) Transcribe(samples []float32, language, initialPrompt string) (string, error) {
	parts, err := m.transcribeParts(samples, language, initialPrompt)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, " "), nil
}

func (m *WhisperModel) transcribeParts(samples []float32, language, initialPrompt string) ([]string, error) {
	if err := m.Load(); err != nil {
		return nil, err
	}

	m.decodeMu.Lock()
	defer m.decodeMu.Unlock()

	wctx, err := m.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper context: %w", err)
	}
	if err := wctx.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("whisper language %q: %w", language, err)
	}
	wctx.SetThreads(uint(runtime.NumCPU()))
	if initialPrompt != "" {
		wctx.SetInitialPrompt(initialPrompt)
	}

	if err := wctx.Process(samples, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper decode: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("whisper segment: %w", err)
		}
		if text := strings.TrimSpace(segment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return parts, nil
}

// WhisperEngine buffers a whole segment and decodes it at finalize. Highest
// transcription quality on open vocabulary, but text only arrives at segment
// boundaries.
type WhisperEngine struct {
	shared        *WhisperModel
	sampleRate    int
	language      string
	initialPrompt string

	mu  sync.Mutex
	buf []byte
}

// NewWhisperEngine creates an engine for one session. The shared model is
// loaded up front so a broken model path fails the start message, not the
// first finalize.
func NewWhisperEngine(shared *WhisperModel, sampleRate int, language, initialPrompt string) (*WhisperEngine, error) {
	if err := shared.Load(); err != nil {
		return nil, err
	}
	return &WhisperEngine{
		shared:        shared,
		sampleRate:    sampleRate,
		language:      language,
		initialPrompt: initialPrompt,
	}, nil
}

// PushAudio appends raw PCM to the segment buffer.
func (e *WhisperEngine) PushAudio(pcm []byte) error {
	e.mu.Lock()
	e.buf = append(e.buf, pcm...)
	e.mu.Unlock()
	return nil
}

// TryPartial decodes the buffer so far and returns the last sub-segment's
// text. Skipped below ~0.8s of audio; earlier sub-segments are dropped to
// avoid hallucinated prefixes on short commands.
func (e *WhisperEngine) TryPartial() (string, bool) {
	e.mu.Lock()
	// ~0.8s of 16-bit audio, below which a decode is not worth the model call
	if len(e.buf) < e.sampleRate*2*8/10 {
		e.mu.Unlock()
		return "", false
	}
	snapshot := make([]byte, len(e.buf))
	copy(snapshot, e.buf)
	e.mu.Unlock()

	parts, err := e.shared.transcribeParts(pcmToFloat32(snapshot), e.language, e.initialPrompt)
	if err != nil || len(parts) == 0 {
		return "", false
	}
	return parts[len(parts)-1], true
}

// Finalize snapshots and clears the buffer, then decodes the whole segment.
// The lock is released before the decode so other sessions keep ingesting
// audio while this one transcribes.
func (e *WhisperEngine) Finalize(ctx context.Context) (string, error) {
	e.mu.Lock()
	snapshot := e.buf
	e.buf = nil
	e.mu.Unlock()

	if len(snapshot) == 0 {
		return "", nil
	}
	return e.shared.Transcribe(pcmToFloat32(snapshot), e.language, e.initialPrompt)
}

// Close drops the segment buffer. The shared model stays loaded.
func (e *WhisperEngine) Close() error {
	e.mu.Lock()
	e.buf = nil
	e.mu.Unlock()
	return nil
}
