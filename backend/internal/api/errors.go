package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "podcast-insights/backend/pkg/errors"
)

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case apperrors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsStoreUnavailable(err):
		return http.StatusServiceUnavailable
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Server-side failures are logged and
// their details withheld.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status < http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.log.Error("Request failed",
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	)
	message := "internal error"
	if status == http.StatusServiceUnavailable {
		message = "data store unavailable"
	}
	c.JSON(status, gin.H{"error": message, "retryable": apperrors.IsRetryable(err)})
}

// intQuery parses an integer query parameter, using def when it is absent
func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidArgument(name, "must be an integer")
	}
	return v, nil
}

// boolQuery parses a boolean query parameter, using def when it is absent
func boolQuery(c *gin.Context, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewInvalidArgument(name, "must be a boolean")
	}
	return v, nil
}

// listQuery splits a comma separated query parameter
func listQuery(c *gin.Context, name string) []string {
	var out []string
	for _, part := range strings.Split(c.Query(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
