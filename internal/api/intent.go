package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxgate/server/domain/entities"
	"github.com/voxgate/server/domain/repositories"
	"github.com/voxgate/server/internal/events"
	"github.com/voxgate/server/internal/metrics"
	"github.com/voxgate/server/usecase"
)

// postIntent turns a text command into a validated intent.
//
// Validation policy is deployment-configured: permissive mode never fails a
// request on bad model output (the empty fallback command goes back
// instead), strict mode rejects with field-level errors.
func postIntent(c echo.Context, deps Deps) error {
	m := metrics.Default

	var req IntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.Text == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_text",
			Message: "text is required",
		})
	}

	m.IntentRequests.Inc()
	if deps.GameLog != nil {
		deps.GameLog.IntentRequest(req.Text, req.Context)
	}

	strict := deps.Config.IntentValidation == "strict"
	kind := usecase.SchemaFlexible
	if strict {
		kind = usecase.SchemaStrict
	}

	// TODO: deterministic grammar fast path for plain "<squad> <action>"
	// commands, bypassing the model entirely.

	start := time.Now()
	raw, source, err := deps.Generator.Generate(c.Request().Context(), req.Text, req.Context, kind)
	m.GenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if deps.GameLog != nil {
			deps.GameLog.IntentResponse(nil, err, raw)
		}
		return generationError(c, deps, err)
	}
	if source == usecase.SourceRepaired {
		m.IntentRepairs.Inc()
	}

	intent, decodeErr := entities.DecodeIntent(raw)
	var validateErr error
	if decodeErr == nil && strict {
		validateErr = intent.ValidateStrict()
	}

	if decodeErr != nil || validateErr != nil {
		if strict {
			return strictFailure(c, deps, decodeErr, validateErr, raw)
		}
		// Permissive: swallow, log the raw payload, answer with a safe
		// no-op so the caller always gets an actionable intent.
		failure := decodeErr
		if failure == nil {
			failure = validateErr
		}
		deps.Logger.Warn("intent validation failed, using fallback",
			zap.Error(failure),
			zap.ByteString("raw", raw))
		if deps.GameLog != nil {
			deps.GameLog.IntentResponse(nil, failure, raw)
		}
		m.IntentFallbacks.Inc()
		intent = entities.FallbackIntent()
		source = usecase.SourceFallback
	}

	if deps.GameLog != nil {
		deps.GameLog.IntentResponse(intent, nil, nil)
	}
	if deps.Events != nil {
		payload, _ := json.Marshal(intent)
		go deps.Events.PublishIntent(context.Background(), req.Text, events.IntentEvent{
			Text:      req.Text,
			Source:    string(source),
			Intent:    payload,
			Timestamp: time.Now().Unix(),
		})
	}

	return c.JSON(http.StatusOK, IntentResponse{
		Intent: intent,
		Source: string(source),
	})
}

func generationError(c echo.Context, deps Deps, err error) error {
	m := metrics.Default

	if errors.Is(err, repositories.ErrRateLimited) {
		m.IntentFailures.WithLabelValues("rate_limited").Inc()
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "rate_limited",
			Message: "Model rate limit reached. Please wait a moment before trying again.",
		})
	}

	var upstream *repositories.UpstreamError
	if errors.As(err, &upstream) {
		m.IntentFailures.WithLabelValues("upstream").Inc()
		deps.Logger.Error("model call failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_failed",
			Message: upstream.Error(),
		})
	}

	m.IntentFailures.WithLabelValues("generation").Inc()
	deps.Logger.Error("generation failed", zap.Error(err))
	return c.JSON(http.StatusBadGateway, ErrorResponse{
		Error:   "generation_failed",
		Message: err.Error(),
	})
}

func strictFailure(c echo.Context, deps Deps, decodeErr, validateErr error, raw []byte) error {
	metrics.Default.IntentFailures.WithLabelValues("validation").Inc()
	if deps.GameLog != nil {
		failure := decodeErr
		if failure == nil {
			failure = validateErr
		}
		deps.GameLog.IntentResponse(nil, failure, raw)
	}

	var errs entities.ValidationErrors
	if errors.As(validateErr, &errs) {
		return c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "validation_failed",
			Fields: errs,
		})
	}
	msg := "intent did not match schema"
	if decodeErr != nil {
		msg = decodeErr.Error()
	}
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_failed",
		Message: msg,
	})
}
