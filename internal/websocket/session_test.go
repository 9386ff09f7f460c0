package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/voxgate/server/domain/repositories"
)

// fakeEngine records pushed audio and returns a canned transcript.
type fakeEngine struct {
	buf       []byte
	finalText string
	finalErr  error
	finalized int
	closed    bool
}

func (f *fakeEngine) PushAudio(frame []byte) error {
	f.buf = append(f.buf, frame...)
	return nil
}

func (f *fakeEngine) TryPartial() (string, bool) { return "", false }

func (f *fakeEngine) Finalize(context.Context) (string, error) {
	f.finalized++
	return f.finalText, f.finalErr
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

type fakeFactory struct {
	engines []*fakeEngine
	err     error
	configs []repositories.AudioConfig
}

func (f *fakeFactory) NewEngine(_ context.Context, ac repositories.AudioConfig) (repositories.Engine, error) {
	if f.err != nil {
		return nil, f.err
	}
	engine := &fakeEngine{finalText: "alpha flank left"}
	f.engines = append(f.engines, engine)
	f.configs = append(f.configs, ac)
	return engine, nil
}

func newTestSession(factory repositories.EngineFactory) *Session {
	hub := NewHub(factory, nil, nil, zap.NewNop())
	return newSession(hub, nil, "test-session", zap.NewNop())
}

// nextReply drains one outbound frame, or fails the test if none was sent.
func nextReply(t *testing.T, s *Session) map[string]string {
	t.Helper()
	select {
	case payload := <-s.send:
		var reply map[string]string
		if err := json.Unmarshal(payload, &reply); err != nil {
			t.Fatalf("reply is not JSON: %s", payload)
		}
		return reply
	default:
		t.Fatal("no reply sent")
		return nil
	}
}

func assertNoReply(t *testing.T, s *Session) {
	t.Helper()
	select {
	case payload := <-s.send:
		t.Fatalf("unexpected reply: %s", payload)
	default:
	}
}

func TestSessionStartStopCycle(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)

	s.handleControl([]byte(`{"type":"start","sample_rate":16000,"language":"en"}`))
	if reply := nextReply(t, s); reply["type"] != "ready" {
		t.Fatalf("reply = %v, want ready", reply)
	}
	if s.engine == nil {
		t.Fatal("session did not go active")
	}

	s.handleAudioFrame(make([]byte, 3200))
	s.handleAudioFrame(make([]byte, 3200))
	assertNoReply(t, s)
	if got := len(factory.engines[0].buf); got != 6400 {
		t.Errorf("engine received %d bytes, want 6400", got)
	}

	s.handleControl([]byte(`{"type":"stop"}`))
	reply := nextReply(t, s)
	if reply["type"] != "final" {
		t.Fatalf("reply = %v, want final", reply)
	}
	if reply["text"] != "alpha flank left" {
		t.Errorf("text = %q", reply["text"])
	}
	if s.engine != nil {
		t.Error("session did not return to idle after stop")
	}
	if !factory.engines[0].closed {
		t.Error("engine was not closed after stop")
	}
}

func TestSessionStopWithZeroAudio(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)

	s.handleControl([]byte(`{"type":"start"}`))
	nextReply(t, s)
	factory.engines[0].finalText = ""

	s.handleControl([]byte(`{"type":"stop"}`))
	reply := nextReply(t, s)
	if reply["type"] != "final" {
		t.Fatalf("reply = %v, want final", reply)
	}
	if text, ok := reply["text"]; !ok || text != "" {
		t.Errorf("text = %q (present=%v), want the empty string", text, ok)
	}
}

func TestSessionStopWithoutStart(t *testing.T) {
	s := newTestSession(&fakeFactory{})

	s.handleControl([]byte(`{"type":"stop"}`))
	reply := nextReply(t, s)
	if reply["type"] != "error" || reply["error"] != "no session" {
		t.Fatalf("reply = %v, want a no-session error", reply)
	}
}

func TestSessionAudioBeforeStartDropped(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)

	s.handleAudioFrame(make([]byte, 3200))
	assertNoReply(t, s)
	if len(factory.engines) != 0 {
		t.Error("no engine should exist before start")
	}
}

func TestSessionRestartDiscardsOldSegment(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)

	s.handleControl([]byte(`{"type":"start"}`))
	nextReply(t, s)
	s.handleAudioFrame(make([]byte, 3200))

	// Second start opens a fresh segment; the old engine is finalized,
	// discarded and closed, and its audio never carries over.
	s.handleControl([]byte(`{"type":"start"}`))
	if reply := nextReply(t, s); reply["type"] != "ready" {
		t.Fatalf("reply = %v, want ready", reply)
	}
	if len(factory.engines) != 2 {
		t.Fatalf("got %d engines, want 2", len(factory.engines))
	}
	if factory.engines[0].finalized != 1 || !factory.engines[0].closed {
		t.Error("old engine was not finalized and closed")
	}
	if len(factory.engines[1].buf) != 0 {
		t.Error("audio leaked into the new segment")
	}
}

func TestSessionStartDefaults(t *testing.T) {
	factory := &fakeFactory{}
	s := newTestSession(factory)

	s.handleControl([]byte(`{"type":"start"}`))
	nextReply(t, s)

	ac := factory.configs[0]
	if ac.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want default 16000", ac.SampleRate)
	}
	if ac.Language != "en" {
		t.Errorf("language = %q, want default en", ac.Language)
	}

	s.handleControl([]byte(`{"type":"stop"}`))
	nextReply(t, s)

	s.handleControl([]byte(`{"type":"start","sample_rate":44100,"language":"de"}`))
	nextReply(t, s)
	ac = factory.configs[1]
	if ac.SampleRate != 44100 || ac.Language != "de" {
		t.Errorf("audio config = %+v, want 44100/de", ac)
	}
}

func TestSessionEngineFailureReported(t *testing.T) {
	factory := &fakeFactory{err: errors.New("model file missing")}
	s := newTestSession(factory)

	s.handleControl([]byte(`{"type":"start"}`))
	reply := nextReply(t, s)
	if reply["type"] != "error" {
		t.Fatalf("reply = %v, want error", reply)
	}
	if s.engine != nil {
		t.Error("session must stay idle when the engine cannot start")
	}
}

func TestSessionControlFrameHandling(t *testing.T) {
	s := newTestSession(&fakeFactory{})

	// Malformed JSON is dropped without a reply.
	s.handleControl([]byte(`{not json`))
	assertNoReply(t, s)

	// Unknown types get an error naming the type.
	s.handleControl([]byte(`{"type":"pause"}`))
	reply := nextReply(t, s)
	if reply["type"] != "error" || reply["error"] != "unknown type: pause" {
		t.Fatalf("reply = %v", reply)
	}
}
