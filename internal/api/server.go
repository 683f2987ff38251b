// Package api exposes the generation engine over HTTP. One endpoint,
// one request per decode-loop call; batching across clients belongs to
// an external serving layer.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"kiln/internal/decode"
	"kiln/internal/inference"
)

// Generator is the engine surface the server needs; *inference.Engine
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, req *inference.Request) (*inference.Response, error)
}

type Server struct {
	engine  Generator
	limiter *rate.Limiter
}

// NewServer wraps engine. rps bounds accepted requests per second;
// zero or negative means unlimited.
func NewServer(engine Generator, rps float64) *Server {
	s := &Server{engine: engine}
	if rps > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/generate", s.handleGenerate)
	e.GET("/healthz", s.handleHealth)
}

func (s *Server) handleGenerate(c *echo.Context) error {
	if s.limiter != nil && !s.limiter.Allow() {
		return writeError(c, http.StatusTooManyRequests, "rate_limited", "too many requests")
	}

	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		return writeBadRequest(c, "malformed request body")
	}
	ireq, err := toEngineRequest(&req)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	resp, err := s.engine.Generate(c.Request().Context(), ireq)
	if err != nil {
		if errors.Is(err, decode.ErrConfig) || errors.Is(err, decode.ErrInputTooLong) {
			return writeBadRequest(c, err.Error())
		}
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}

	return c.JSON(http.StatusOK, GenerateResponse{
		ID:          "gen-" + uuid.NewString(),
		Sequences:   resp.Sequences,
		Texts:       resp.Texts,
		Finished:    resp.Finished,
		InputLength: resp.InputLength,
		Length:      resp.Length,
		Stats:       statsDTO(resp.Stats),
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func toEngineRequest(req *GenerateRequest) (*inference.Request, error) {
	if req.Prompt == "" && len(req.InputIDs) == 0 {
		return nil, newInvalidRequest("one of prompt or input_ids is required")
	}
	if req.Prompt != "" && len(req.InputIDs) > 0 {
		return nil, newInvalidRequest("prompt and input_ids are mutually exclusive")
	}
	for _, row := range req.InputIDs {
		if len(row) == 0 {
			return nil, newInvalidRequest("input_ids rows must be non-empty")
		}
	}

	out := &inference.Request{
		Prompt:   req.Prompt,
		InputIDs: req.InputIDs,
	}
	out.Overrides.MaxLength = req.MaxLength
	out.Overrides.MaxNewTokens = req.MaxNewTokens
	out.Overrides.MinLength = req.MinLength
	out.Overrides.MinNewTokens = req.MinNewTokens
	out.Overrides.EOSTokenID = req.EOSTokenID
	out.Overrides.PadTokenID = req.PadTokenID
	out.Overrides.DecoderStartTokenID = req.DecoderStartTokenID
	out.Overrides.ForcedBOSTokenID = req.ForcedBOSTokenID
	out.Overrides.ForcedEOSTokenID = req.ForcedEOSTokenID
	return out, nil
}

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": map[string]string{
			"type":    errType,
			"message": msg,
		},
	})
}
