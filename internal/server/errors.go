package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/muhammadolammi/jobmatch/internal/session"
)

// statusFor maps a session error to its HTTP status.
func statusFor(err error) int {
	var validationErr *session.ValidationError
	var analysisErr *session.AnalysisError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, session.ErrResumeParse), errors.Is(err, session.ErrNoResults):
		return http.StatusUnprocessableEntity
	case errors.As(err, &analysisErr):
		return http.StatusBadGateway
	case errors.Is(err, session.ErrJobNotFound), errors.Is(err, session.ErrNoResult):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"error": session.UserMessage(err)})
}
