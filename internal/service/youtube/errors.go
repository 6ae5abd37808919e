package youtube

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/kapu/youtube-channel-analyzer/pkg/errors"
	"google.golang.org/api/googleapi"
)

// ErrChannelNotFound is returned when channels.list has no item for the ID.
var ErrChannelNotFound = stderrors.New("channel not found")

// QuotaExceededError is returned once the daily quota is spent, either by the
// local accounting or by a 403 quotaExceeded from the API.
type QuotaExceededError struct {
	*errors.QuotaError
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

// NewQuotaExceededError builds the quota error for a request of the given cost.
func NewQuotaExceededError(used, limit, requested int, resetTime time.Time, cause error) *QuotaExceededError {
	quotaErr := errors.NewQuotaError("YouTube API quota exceeded", map[string]any{
		"used":      used,
		"limit":     limit,
		"requested": requested,
		"reset":     resetTime,
	})
	quotaErr.Cause = cause

	return &QuotaExceededError{
		QuotaError: quotaErr,
		Used:       used,
		Limit:      limit,
		Requested:  requested,
		ResetTime:  resetTime,
	}
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}

// Unwrap exposes the embedded QuotaError so errors.As matches the error kind.
func (e *QuotaExceededError) Unwrap() error {
	return e.QuotaError
}

// IsQuotaExceeded reports whether err (or anything it wraps) is a quota error.
func IsQuotaExceeded(err error) bool {
	var quotaErr *QuotaExceededError
	return stderrors.As(err, &quotaErr)
}

// isQuotaResponse reports whether an API error is the daily quota 403.
func isQuotaResponse(apiErr *googleapi.Error) bool {
	if apiErr.Code != 403 {
		return false
	}
	for _, item := range apiErr.Errors {
		if item.Reason == "quotaExceeded" || item.Reason == "dailyLimitExceeded" {
			return true
		}
	}
	return strings.Contains(apiErr.Body, "quotaExceeded") || strings.Contains(apiErr.Message, "quota")
}

func newAPIError(operation string, err error) error {
	status := 0
	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		status = apiErr.Code
	}

	wrapped := errors.NewAPIError(fmt.Sprintf("YouTube %s failed", operation), status, map[string]any{
		"operation": operation,
	})
	wrapped.Cause = err
	return wrapped
}
