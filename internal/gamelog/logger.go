// Package gamelog writes an append-only, human-readable log of one game
// session: transcripts, intent requests and responses, and free-form events.
// Writes are best-effort; an unwritable log never fails the pipeline.
package gamelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Logger appends records to a numbered log file under a log directory.
type Logger struct {
	mu     sync.Mutex
	path   string
	start  time.Time
	logger *zap.Logger
}

// New creates the log directory if needed and opens the next numbered log
// file (1.log, 2.log, ...).
func New(dir string, logger *zap.Logger) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create game log dir: %w", err)
	}

	path := filepath.Join(dir, strconv.Itoa(nextLogNumber(dir))+".log")
	l := &Logger{
		path:   path,
		start:  time.Now(),
		logger: logger,
	}
	l.writeHeader()
	return l, nil
}

func nextLogNumber(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	max := 0
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".log") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".log"))
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// Path returns the current log file path.
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) writeHeader() {
	rule := strings.Repeat("=", 80)
	l.append(fmt.Sprintf("%s\nGAME SESSION LOG - %s\n%s\n\n",
		rule, l.start.Format("2006-01-02 15:04:05"), rule))
}

// Transcription records a final or partial transcript.
func (l *Logger) Transcription(text string, partial bool) {
	kind := "ASR_FINAL"
	if partial {
		kind = "ASR_PARTIAL"
	}
	l.record(kind, "  Text: "+text+"\n")
}

// IntentRequest records a command heading to the model, with a short context
// summary rather than the full world state.
func (l *Logger) IntentRequest(text string, context map[string]any) {
	var b strings.Builder
	fmt.Fprintf(&b, "  Command: %s\n", text)
	if context != nil {
		b.WriteString("  Context Summary:\n")
		if n, ok := context["enemyCount"]; ok {
			fmt.Fprintf(&b, "    Enemy Count: %v\n", n)
		}
		if n, ok := context["waveNumber"]; ok {
			fmt.Fprintf(&b, "    Wave: %v\n", n)
		}
		if squads, ok := context["squads"].(map[string]any); ok {
			fmt.Fprintf(&b, "    Squads: %d\n", len(squads))
		}
	}
	l.record("INTENT_REQUEST", b.String())
}

// IntentResponse records the validated intent, or the failure and raw payload.
func (l *Logger) IntentResponse(intent any, err error, raw []byte) {
	if err == nil {
		payload, merr := json.MarshalIndent(intent, "  ", "    ")
		if merr != nil {
			payload = []byte(fmt.Sprintf("%+v", intent))
		}
		l.record("INTENT_RESPONSE (SUCCESS)", "  Intent: "+string(payload)+"\n")
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  Error: %v\n", err)
	if len(raw) > 0 {
		fmt.Fprintf(&b, "  Raw Response: %s\n", raw)
	}
	l.record("INTENT_RESPONSE (ERROR)", b.String())
}

// Event records a free-form game event.
func (l *Logger) Event(kind string, data any) {
	var body string
	if payload, err := json.MarshalIndent(data, "  ", "    "); err == nil {
		body = "  " + string(payload) + "\n"
	} else {
		body = fmt.Sprintf("  %v\n", data)
	}
	l.record("GAME_EVENT - "+kind, body)
}

func (l *Logger) record(kind, body string) {
	ts := time.Now().Format("15:04:05.000")
	l.append(fmt.Sprintf("[%s] %s:\n%s\n", ts, kind, body))
}

func (l *Logger) append(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.logger.Warn("game log unavailable", zap.String("path", l.path), zap.Error(err))
		return
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		l.logger.Warn("game log write failed", zap.String("path", l.path), zap.Error(err))
	}
}
