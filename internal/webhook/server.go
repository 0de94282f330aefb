// Package webhook exposes the feedback loop over HTTP so a call-ended hook
// or an operator can trigger a run.
package webhook

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"feedback-loop/internal/feedback"
)

// Runner runs one feedback loop.
type Runner interface {
	Run(ctx context.Context, currentPrompt string) (*feedback.Result, error)
	Last() *feedback.Result
}

type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/v1/feedback", h.RunFeedback)
	e.GET("/v1/feedback/latest", h.LatestFeedback)
	e.GET("/health", h.Health)
}

// NewServer builds an echo instance with the handler's routes.
func NewServer(runner Runner) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	NewHandler(runner).RegisterRoutes(e)
	return e
}

type runRequest struct {
	CurrentPrompt string `json:"current_prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RunFeedback runs the loop and returns the result. The body is optional.
func (h *Handler) RunFeedback(c echo.Context) error {
	var req runRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		}
	}

	res, err := h.runner.Run(c.Request().Context(), req.CurrentPrompt)
	if err != nil {
		log.Printf("❌ Webhook feedback run failed: %v", err)
		return c.JSON(statusFor(err), errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) LatestFeedback(c echo.Context) error {
	res := h.runner.Last()
	if res == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "no feedback result yet"})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func statusFor(err error) int {
	var upstream *feedback.UpstreamError
	var completion *feedback.CompletionError
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &completion), errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
