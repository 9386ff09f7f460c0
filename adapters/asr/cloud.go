package asr

import (
	"context"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
)

// CloudEngine recognizes a buffered segment through Google Cloud
// Speech-to-Text. Like the whisper backend it decodes only at finalize; the
// round trip replaces the local model.
type CloudEngine struct {
	sampleRate int
	language   string
	logger     *zap.Logger

	mu  sync.Mutex
	buf []byte
}

// NewCloudEngine creates an engine for one session.
func NewCloudEngine(sampleRate int, language string, logger *zap.Logger) *CloudEngine {
	return &CloudEngine{
		sampleRate: sampleRate,
		language:   language,
		logger:     logger,
	}
}

// PushAudio appends raw PCM to the segment buffer.
func (e *CloudEngine) PushAudio(pcm []byte) error {
	e.mu.Lock()
	e.buf = append(e.buf, pcm...)
	e.mu.Unlock()
	return nil
}

// TryPartial is unsupported for the cloud backend; recognition only happens
// at segment end.
func (e *CloudEngine) TryPartial() (string, bool) {
	return "", false
}

// Finalize sends the whole segment through a streaming-recognize round trip
// and returns the best final alternative.
func (e *CloudEngine) Finalize(ctx context.Context) (string, error) {
	e.mu.Lock()
	snapshot := e.buf
	e.buf = nil
	e.mu.Unlock()

	if len(snapshot) == 0 {
		return "", nil
	}
	return e.recognize(ctx, snapshot)
}

func (e *CloudEngine) recognize(ctx context.Context, audio []byte) (string, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create speech client: %w", err)
	}
	defer client.Close()

	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		return "", fmt.Errorf("open recognize stream: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(e.sampleRate),
					LanguageCode:    e.language,
				},
				InterimResults:  false,
				SingleUtterance: true,
			},
		},
	}); err != nil {
		return "", fmt.Errorf("send recognize config: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	}); err != nil {
		return "", fmt.Errorf("send audio: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return "", fmt.Errorf("close send: %w", err)
	}

	var transcript string
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("receive recognition: %w", err)
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript = result.Alternatives[0].Transcript
			}
		}
	}
	return transcript, nil
}

// Close drops the segment buffer.
func (e *CloudEngine) Close() error {
	e.mu.Lock()
	e.buf = nil
	e.mu.Unlock()
	return nil
}
