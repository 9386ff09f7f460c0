package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"go.uber.org/zap"
)

// grammarTerms is the closed command lexicon the recognizer is restricted
// to. Trades vocabulary flexibility for low latency and deterministic output.
var grammarTerms = []string{
	// squads
	"alpha", "bravo", "charlie", "all", "carriers", "interceptors",
	// actions
	"flank", "pincer", "hold", "advance", "screen", "intercept", "retreat", "patrol", "rally", "escort",
	// formations
	"wall", "wedge", "sphere", "swarm", "column",
	// direction + params
	"left", "right", "center", "speed", "one", "two", "three", "four", "five", "zero",
}

// VoskModel is the process-wide shared recognizer model, loaded once.
type VoskModel struct {
	path   string
	logger *zap.Logger

	once  sync.Once
	model *vosk.VoskModel
	err   error
}

// NewVoskModel prepares a lazily-loaded shared model.
func NewVoskModel(path string, logger *zap.Logger) *VoskModel {
	return &VoskModel{path: path, logger: logger}
}

// Load loads the model directory. Safe for concurrent use.
func (m *VoskModel) Load() error {
	m.once.Do(func() {
		if m.path == "" {
			m.err = fmt.Errorf("VOSK_MODEL_PATH must point to a local model directory")
			return
		}
		m.logger.Info("loading vosk model", zap.String("path", m.path))
		model, err := vosk.NewModel(m.path)
		if err != nil {
			m.err = fmt.Errorf("load vosk model %q: %w", m.path, err)
			return
		}
		m.model = model
	})
	return m.err
}

// VoskEngine is a true streaming decoder: every pushed frame feeds the
// recognizer's incremental decode, and finalize just collects the final
// hypothesis for the segment.
type VoskEngine struct {
	mu  sync.Mutex
	rec *vosk.VoskRecognizer
	buf []byte
}

// NewVoskEngine builds a grammar-constrained recognizer for one session.
func NewVoskEngine(shared *VoskModel, sampleRate int) (*VoskEngine, error) {
	if err := shared.Load(); err != nil {
		return nil, err
	}

	grammar, err := json.Marshal(grammarTerms)
	if err != nil {
		return nil, err
	}
	rec, err := vosk.NewRecognizerGrm(shared.model, float64(sampleRate), string(grammar))
	if err != nil {
		return nil, fmt.Errorf("create vosk recognizer: %w", err)
	}
	rec.SetWords(1)

	return &VoskEngine{rec: rec}, nil
}

// PushAudio appends to the buffer and immediately advances the incremental
// decode.
func (e *VoskEngine) PushAudio(pcm []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.buf = append(e.buf, pcm...)
	e.rec.AcceptWaveform(pcm)
	return nil
}

// TryPartial returns the recognizer's in-progress hypothesis, if any.
func (e *VoskEngine) TryPartial() (string, bool) {
	e.mu.Lock()
	raw := e.rec.PartialResult()
	e.mu.Unlock()

	var result struct {
		Partial string `json:"partial"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", false
	}
	text := strings.TrimSpace(result.Partial)
	return text, text != ""
}

// Finalize extracts the final hypothesis, then resets recognizer state and
// clears the buffer so the next segment starts clean. Reset happens on the
// error path too.
func (e *VoskEngine) Finalize(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer func() {
		e.rec.Reset()
		e.buf = nil
		e.mu.Unlock()
	}()

	raw := e.rec.FinalResult()
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", fmt.Errorf("parse vosk final result: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}

// Close frees the recognizer. The shared model stays loaded.
func (e *VoskEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rec.Free()
	e.buf = nil
	return nil
}
