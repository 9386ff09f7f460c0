// Package events publishes transcript and intent events to Kafka. Publishing
// is best-effort: with no brokers configured the publisher degrades to
// log-only mode, and failures never propagate to the session pipeline.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/voxgate/server/internal/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TranscriptTopic string
	IntentTopic     string
}

// Publisher writes events to per-kind Kafka topics.
type Publisher struct {
	writerTranscript *kafka.Writer
	writerIntent     *kafka.Writer
	topicTranscript  string
	topicIntent      string
	enabled          bool
	logger           *zap.Logger
	metrics          *metrics.Metrics
}

// TranscriptEvent is emitted once per finalized segment.
type TranscriptEvent struct {
	SessionID  string `json:"session_id"`
	Text       string `json:"text"`
	SampleRate int    `json:"sample_rate"`
	Language   string `json:"language"`
	DurationMs int64  `json:"duration_ms"`
	Timestamp  int64  `json:"timestamp"`
}

// IntentEvent is emitted once per generated intent.
type IntentEvent struct {
	Text      string          `json:"text"`
	Source    string          `json:"source"`
	Intent    json.RawMessage `json:"intent"`
	Timestamp int64           `json:"timestamp"`
}

// New creates a publisher. Empty broker list disables Kafka output.
func New(cfg Config, logger *zap.Logger) *Publisher {
	p := &Publisher{
		topicTranscript: cfg.TranscriptTopic,
		topicIntent:     cfg.IntentTopic,
		logger:          logger,
		metrics:         metrics.Default,
	}
	if len(cfg.Brokers) == 0 {
		logger.Info("Kafka disabled, event publisher in log-only mode")
		return p
	}

	p.enabled = true
	p.writerTranscript = newWriter(cfg.Brokers, cfg.TranscriptTopic)
	p.writerIntent = newWriter(cfg.Brokers, cfg.IntentTopic)

	logger.Info("Kafka publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("transcriptTopic", cfg.TranscriptTopic),
		zap.String("intentTopic", cfg.IntentTopic))
	return p
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}
}

// PublishTranscript publishes a finalized transcript keyed by session ID.
func (p *Publisher) PublishTranscript(ctx context.Context, event TranscriptEvent) {
	p.publish(ctx, p.writerTranscript, p.topicTranscript, event.SessionID, event)
}

// PublishIntent publishes a generated intent.
func (p *Publisher) PublishIntent(ctx context.Context, key string, event IntentEvent) {
	p.publish(ctx, p.writerIntent, p.topicIntent, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}

	p.logger.Debug("publishing event",
		zap.String("topic", topic),
		zap.String("key", key),
		zap.ByteString("payload", payload))

	// Log-only mode: the debug line above is the whole delivery, and the
	// publish counter stays untouched so it only ever counts Kafka writes.
	if !p.enabled || writer == nil {
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to write to Kafka",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		p.metrics.EventErrors.WithLabelValues(topic).Inc()
		return
	}
	p.metrics.EventsPublished.WithLabelValues(topic).Inc()
}

// Close closes the Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			err = e
		}
	}
	if p.writerIntent != nil {
		if e := p.writerIntent.Close(); e != nil {
			err = e
		}
	}
	return err
}
