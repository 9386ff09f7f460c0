package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/voxgate/server/internal/auth"
	"github.com/voxgate/server/internal/config"
	"github.com/voxgate/server/internal/events"
	"github.com/voxgate/server/internal/gamelog"
	"github.com/voxgate/server/internal/websocket"
	"github.com/voxgate/server/usecase"
)

// Deps are the collaborators the route handlers need.
type Deps struct {
	Hub       *websocket.Hub
	Generator *usecase.Generator
	Config    *config.Config
	GameLog   *gamelog.Logger
	Events    *events.Publisher
	Logger    *zap.Logger
}

// InitRoutes initializes all API routes.
func InitRoutes(e *echo.Echo, deps Deps) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "voxgate-server",
		})
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/auth/token", func(c echo.Context) error {
		return issueToken(c, deps)
	})

	e.POST("/intent", func(c echo.Context) error {
		return postIntent(c, deps)
	})

	e.GET("/asr/stream", func(c echo.Context) error {
		return streamWithAuth(c, deps)
	})
}

// issueToken signs a streaming token for clients presenting the pre-shared
// gateway secret. Disabled (404) when no secret is configured.
func issueToken(c echo.Context, deps Deps) error {
	if deps.Config.JWTSecret == "" {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "auth_disabled",
			Message: "Token auth is not configured on this gateway",
		})
	}

	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.ClientID == "" || req.Secret != deps.Config.JWTSecret {
		deps.Logger.Warn("token request rejected", zap.String("client_id", req.ClientID))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid client credentials",
		})
	}

	token, err := auth.GenerateClientToken([]byte(deps.Config.JWTSecret), req.ClientID)
	if err != nil {
		deps.Logger.Error("failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})
}

// streamWithAuth upgrades the streaming endpoint, validating a client token
// first when a secret is configured.
func streamWithAuth(c echo.Context, deps Deps) error {
	if deps.Config.JWTSecret != "" {
		token := c.QueryParam("token")
		if token == "" {
			header := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}
		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "A client token is required",
			})
		}
		claims, err := auth.ValidateToken([]byte(deps.Config.JWTSecret), token)
		if err != nil {
			deps.Logger.Warn("stream connection rejected", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired token",
			})
		}
		deps.Logger.Info("stream connection authenticated", zap.String("client_id", claims.ClientID))
	}

	return websocket.HandleStream(deps.Hub, c, deps.Logger)
}
