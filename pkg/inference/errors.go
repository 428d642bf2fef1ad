package inference

import (
	"errors"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
)

// Sentinel errors for common conditions.
var (
	// ErrNoAPIKey is returned when API key is required but missing.
	ErrNoAPIKey = errors.New("inference: API key required")

	// ErrNoModel is returned when model is required but missing.
	ErrNoModel = errors.New("inference: model required")

	// ErrProviderUnavailable is returned when no providers are available.
	ErrProviderUnavailable = errors.New("inference: provider unavailable")

	// ErrAllProvidersFailed is returned when all providers in a chain fail.
	ErrAllProvidersFailed = errors.New("inference: all providers failed")

	// ErrEmptyResponse is returned when the model replies with no text.
	ErrEmptyResponse = errors.New("inference: empty response")

	// ErrUnsupportedProvider is returned for an unknown provider name.
	ErrUnsupportedProvider = errors.New("inference: unsupported model provider")

	// ErrNoEnabledProvider is returned when configuration enables no provider.
	ErrNoEnabledProvider = errors.New("inference: no enabled model provider")
)

// service tags errors from this package.
const service = "inference"

// Error types shared with the other provider packages.
type (
	APIError      = apierr.Error
	ProviderError = apierr.ProviderError
	ChainError    = apierr.ChainError
)

// WrapError tags err with the provider name. A nil err stays nil.
func WrapError(provider string, err error) error {
	return apierr.Wrap(service, provider, err)
}
