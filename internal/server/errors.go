package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/infoase/internal/archive"
	"github.com/agenthands/infoase/internal/core"
	"github.com/agenthands/infoase/internal/core/chunker"
	"github.com/agenthands/infoase/internal/core/parser"
	"github.com/agenthands/infoase/internal/core/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownInstance), errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrInvalidFilename), errors.Is(err, chunker.ErrNoDocuments):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNoArchive):
		return http.StatusNotImplemented
	case errors.Is(err, store.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, store.ErrAuthentication), errors.Is(err, parser.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error(), Hint: store.Remediation(err)})
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
}
