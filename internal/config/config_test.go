package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LLM_PROVIDER", "MODEL_ID", "JSON_ENFORCE_STRICT",
		"INTENT_VALIDATION", "ASR_PROVIDER", "KAFKA_BROKERS",
		"WHISPER_INITIAL_PROMPT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LLMProvider != "cerebras" {
		t.Errorf("LLMProvider = %q, want cerebras", cfg.LLMProvider)
	}
	if cfg.ModelID != "gpt-oss-120b" {
		t.Errorf("ModelID = %q", cfg.ModelID)
	}
	if !cfg.JSONEnforceStrict {
		t.Error("JSONEnforceStrict should default to true")
	}
	if cfg.IntentValidation != "permissive" {
		t.Errorf("IntentValidation = %q, want permissive", cfg.IntentValidation)
	}
	if cfg.ASRProvider != "whisper" {
		t.Errorf("ASRProvider = %q, want whisper", cfg.ASRProvider)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v, want nil", cfg.KafkaBrokers)
	}
	// The default initial prompt carries the command lexicon.
	if !strings.Contains(cfg.WhisperInitialPrompt, "alpha") {
		t.Error("default initial prompt lost the squad names")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JSON_ENFORCE_STRICT", "false")
	t.Setenv("INTENT_VALIDATION", "strict")
	t.Setenv("ASR_PROVIDER", "vosk")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.JSONEnforceStrict {
		t.Error("JSONEnforceStrict should be off")
	}
	if cfg.IntentValidation != "strict" {
		t.Errorf("IntentValidation = %q", cfg.IntentValidation)
	}
	if cfg.ASRProvider != "vosk" {
		t.Errorf("ASRProvider = %q", cfg.ASRProvider)
	}
	want := []string{"broker-1:9092", "broker-2:9092"}
	if len(cfg.KafkaBrokers) != len(want) {
		t.Fatalf("KafkaBrokers = %v, want %v", cfg.KafkaBrokers, want)
	}
	for i := range want {
		if cfg.KafkaBrokers[i] != want[i] {
			t.Errorf("KafkaBrokers[%d] = %q, want %q", i, cfg.KafkaBrokers[i], want[i])
		}
	}
}

func TestGetenvBoolBadValue(t *testing.T) {
	t.Setenv("JSON_ENFORCE_STRICT", "maybe")
	if cfg := Load(); !cfg.JSONEnforceStrict {
		t.Error("unparseable bool should fall back to the default")
	}
}
