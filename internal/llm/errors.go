package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/modchat/modchat/internal/domain"
)

// ClassifyStatus translates a provider HTTP status into the shared error
// taxonomy using the vendor's message table. Provider error types stop
// here; only translated messages cross the factory boundary.
func ClassifyStatus(t ErrorTemplates, status int, providerMsg string) *domain.ChatError {
	switch status {
	case http.StatusTooManyRequests:
		return domain.Fatal(domain.ErrRateLimitExceeded, http.StatusTooManyRequests,
			t.RateLimit).WithDetail(providerMsg)
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.Fatal(domain.ErrProviderAuthFailed, http.StatusUnauthorized,
			t.Authentication).WithDetail(providerMsg)
	default:
		return domain.Fatal(domain.ErrProviderAPIError, http.StatusBadGateway,
			fmt.Sprintf(t.APIError, providerMsg))
	}
}

// ClassifyTransport translates a transport-level invocation error. Deadline
// and timeout conditions map to the vendor's timeout message; everything
// else is a provider API error.
func ClassifyTransport(t ErrorTemplates, err error) *domain.ChatError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domain.Fatal(domain.ErrProviderTimeout, http.StatusGatewayTimeout, t.Timeout)
	case errors.As(err, &netErr) && netErr.Timeout():
		return domain.Fatal(domain.ErrProviderTimeout, http.StatusGatewayTimeout, t.Timeout)
	default:
		return domain.Fatal(domain.ErrProviderAPIError, http.StatusBadGateway,
			fmt.Sprintf(t.APIError, err.Error()))
	}
}

// Templates builds the standard message table for a vendor display name.
// Every vendor uses the same sentence shapes with its own name filled in.
func Templates(displayName string) ErrorTemplates {
	return ErrorTemplates{
		APIKeyMissing:  fmt.Sprintf("%s API key not found in environment variables.", displayName),
		RateLimit:      fmt.Sprintf("%s rate limit exceeded. Please try again later.", displayName),
		Authentication: fmt.Sprintf("%s API key is invalid or expired.", displayName),
		APIError:       displayName + " API error: %s",
		Timeout:        fmt.Sprintf("%s API request timed out. Please try again.", displayName),
	}
}
