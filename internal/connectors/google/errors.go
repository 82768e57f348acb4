package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/ariata/ariata/internal/core/domain"
)

// MapError classifies a Google API error into the domain error taxonomy.
// Nil and context errors pass through unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrReauthRequired)
	case apiErr.Code == http.StatusTooManyRequests,
		apiErr.Code == http.StatusForbidden && isRateLimitReason(apiErr):
		return fmt.Errorf("%v: %w", apiErr, domain.ErrRateLimited)
	case apiErr.Code >= 500:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrTransient)
	default:
		return fmt.Errorf("%v: %w", apiErr, domain.ErrPermanent)
	}
}

// IsGone reports whether the error is an HTTP 410, which Google APIs
// use to signal an expired sync token or history ID.
func IsGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusGone
}

// IsNotFound reports whether the error is an HTTP 404.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}

func isRateLimitReason(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		if e.Reason == "rateLimitExceeded" || e.Reason == "userRateLimitExceeded" {
			return true
		}
	}
	return false
}
