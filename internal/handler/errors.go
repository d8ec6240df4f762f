package handler

import (
	"context"
	"errors"
	"net/http"

	"crypto-lens/internal/domain"
	"crypto-lens/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// statusFor maps the pipeline error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	timedOut := errors.Is(err, context.DeadlineExceeded)
	switch {
	case errors.Is(err, service.ErrUnknownAsset):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrClassificationUnavailable):
		if timedOut {
			return http.StatusGatewayTimeout
		}
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidLabel):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrSchemaMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSourceUnavailable):
		if timedOut {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"error": err.Error()}

	var srcErr *domain.SourceError
	if errors.As(err, &srcErr) {
		body["source"] = srcErr.Source
	}
	if errors.Is(err, service.ErrUnknownAsset) {
		body["supported_symbols"] = domain.SupportedSymbols()
	}

	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Int("status", status).Str("path", c.FullPath()).Msg("request failed")

	c.JSON(status, body)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
