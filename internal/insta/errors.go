package insta

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/Atmsamma/InstaConnect/internal/domain"
)

// ErrTwoFactorRequired is returned by Login when the account has two-factor
// authentication enabled and no code was supplied.
var ErrTwoFactorRequired = errors.New("two-factor authentication required")

// ChallengeRequiredError is returned by Login when the remote demands an
// out-of-band verification step. Methods lists the delivery channels the
// remote offered.
type ChallengeRequiredError struct {
	Methods []domain.ChallengeMethod
}

func (e *ChallengeRequiredError) Error() string {
	return fmt.Sprintf("security challenge required (%d methods offered)", len(e.Methods))
}

// APIError is a non-protocol failure reported by the remote.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
}

// IsTransient reports whether an error is worth retrying: rate limiting,
// server-side failures, timeouts, and transport-level faults. Protocol steps
// (two-factor, challenge) and client errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrTwoFactorRequired) {
		return false
	}
	var challenge *ChallengeRequiredError
	if errors.As(err, &challenge) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Unrecognized transport failures (connection refused, DNS) arrive as
	// plain wrapped errors from the HTTP client; treat them as retryable.
	return true
}
