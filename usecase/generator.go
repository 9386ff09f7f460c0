// Package usecase holds the schema-constrained generation pipeline: prompt
// construction, the model round trip, parsing, and the bounded repair cycle.
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/voxgate/server/domain/entities"
	"github.com/voxgate/server/domain/repositories"
)

// Source tags where a returned intent came from.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceRepaired Source = "repaired"
	SourceFallback Source = "fallback"
	// SourceGrammar is reserved for a deterministic grammar fast path.
	SourceGrammar Source = "grammar"
)

// ErrNoJSON means the model never produced parseable JSON and schema
// enforcement (which would have triggered a repair) is off.
var ErrNoJSON = errors.New("model did not return valid JSON")

// ErrRepairFailed means the single repair round trip also produced
// unparseable output. There is no second attempt.
var ErrRepairFailed = errors.New("repair failed: non-JSON output")

// Generator turns free text plus world-state context into raw intent JSON.
// It is stateless across requests; the completer holds any shared client.
type Generator struct {
	llm           repositories.ChatCompleter
	enforceSchema bool
	logger        *zap.Logger
}

// NewGenerator creates a generator over the given completer.
func NewGenerator(llm repositories.ChatCompleter, enforceSchema bool, logger *zap.Logger) *Generator {
	return &Generator{
		llm:           llm,
		enforceSchema: enforceSchema,
		logger:        logger,
	}
}

// Generate runs the pipeline: one model call, parse + schema check, and at
// most one repair round trip on failure. It returns the raw JSON bytes and
// the source tag; final structural validation on the flexible path is the
// caller's responsibility.
func (g *Generator) Generate(ctx context.Context, text string, worldContext map[string]any, kind SchemaKind) ([]byte, Source, error) {
	schemaJSON := SchemaJSON(kind)
	conversation := []repositories.ChatMessage{
		{Role: repositories.SystemRole, Content: buildSystemPrompt(schemaJSON)},
		{Role: repositories.UserRole, Content: buildUserPrompt(text, worldContext)},
	}

	content, err := g.llm.Complete(ctx, conversation)
	if err != nil {
		return nil, "", err
	}
	content = strings.TrimSpace(content)

	raw := []byte(content)
	parseErr := checkParse(raw)
	validateErr := parseErr
	if parseErr == nil {
		validateErr = validate(raw, kind)
	}
	if validateErr == nil {
		return raw, SourceLLM, nil
	}

	if !g.enforceSchema {
		if parseErr != nil {
			return nil, "", ErrNoJSON
		}
		// Best-effort: parseable but schema-invalid output is the
		// caller's problem in permissive deployments.
		return raw, SourceLLM, nil
	}

	g.logger.Warn("model output failed validation, repairing",
		zap.Error(validateErr),
		zap.Int("outputBytes", len(content)))

	conversation = append(conversation,
		repositories.ChatMessage{Role: repositories.AssistantRole, Content: content},
		repositories.ChatMessage{Role: repositories.UserRole, Content: buildRepairPrompt(schemaJSON, content)},
	)
	repaired, err := g.llm.Complete(ctx, conversation)
	if err != nil {
		return nil, "", err
	}
	repaired = strings.TrimSpace(repaired)

	rawRepaired := []byte(repaired)
	if err := checkParse(rawRepaired); err != nil {
		return nil, "", ErrRepairFailed
	}
	// Final validation happens in the caller, like the first-pass path.
	return rawRepaired, SourceRepaired, nil
}

func checkParse(raw []byte) error {
	var v map[string]json.RawMessage
	return json.Unmarshal(raw, &v)
}

func validate(raw []byte, kind SchemaKind) error {
	intent, err := entities.DecodeIntent(raw)
	if err != nil {
		return err
	}
	if kind == SchemaStrict {
		return intent.ValidateStrict()
	}
	return nil
}
