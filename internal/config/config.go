package config

import (
	"os"
	"strconv"
	"strings"
)

// Default initial vocabulary hint for the batch transcription model. Biases
// decoding towards the command lexicon on short utterances.
const defaultInitialPrompt = "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike " +
	"november oscar papa quebec romeo sierra tango uniform victor whiskey xray yankee zulu " +
	"all squads deploy cycle between waypoints move help " +
	"flank pincer hold advance screen intercept retreat patrol rally escort attack defend regroup " +
	"wall wedge sphere swarm column circle triangle square " +
	"left right up down forward backward center north south east west " +
	"speed zero one two three four five six seven eight nine ten " +
	"eighteen twenty thirty forty fifty hundred"

// Config holds every environment-sourced setting, with defaults.
type Config struct {
	Port string

	// LLM generation
	LLMProvider       string // "cerebras" or "gemini"
	CerebrasAPIKey    string
	CerebrasBaseURL   string
	GeminiAPIKey      string
	ModelID           string
	JSONEnforceStrict bool
	IntentValidation  string // "permissive" or "strict"

	// ASR
	ASRProvider          string // "whisper", "vosk" or "cloud"
	WhisperModelPath     string
	WhisperFallbackPath  string
	WhisperInitialPrompt string
	VoskModelPath        string

	// Session auth: empty secret disables the token guard on the stream endpoint
	JWTSecret string

	// Session log sink
	GameLogDir string

	// Event publishing
	KafkaBrokers         []string
	KafkaTranscriptTopic string
	KafkaIntentTopic     string
}

// Load reads configuration from the environment.
func Load() *Config {
	return &Config{
		Port: getenvDefault("PORT", "8080"),

		LLMProvider:       getenvDefault("LLM_PROVIDER", "cerebras"),
		CerebrasAPIKey:    os.Getenv("CEREBRAS_API_KEY"),
		CerebrasBaseURL:   getenvDefault("CEREBRAS_BASE_URL", "https://api.cerebras.ai/v1"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		ModelID:           getenvDefault("MODEL_ID", "gpt-oss-120b"),
		JSONEnforceStrict: getenvBool("JSON_ENFORCE_STRICT", true),
		IntentValidation:  getenvDefault("INTENT_VALIDATION", "permissive"),

		ASRProvider:          getenvDefault("ASR_PROVIDER", "whisper"),
		WhisperModelPath:     getenvDefault("WHISPER_MODEL_PATH", "models/ggml-large-v3.bin"),
		WhisperFallbackPath:  getenvDefault("WHISPER_FALLBACK_MODEL_PATH", "models/ggml-base.en.bin"),
		WhisperInitialPrompt: getenvDefault("WHISPER_INITIAL_PROMPT", defaultInitialPrompt),
		VoskModelPath:        os.Getenv("VOSK_MODEL_PATH"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GameLogDir: getenvDefault("GAME_LOG_DIR", "game_logs"),

		KafkaBrokers:         getenvList("KAFKA_BROKERS"),
		KafkaTranscriptTopic: getenvDefault("KAFKA_TRANSCRIPT_TOPIC", "voxgate.transcripts"),
		KafkaIntentTopic:     getenvDefault("KAFKA_INTENT_TOPIC", "voxgate.intents"),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
