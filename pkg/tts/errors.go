package tts

import (
	"errors"

	"github.com/teslashibe/go-deskpilot/internal/apierr"
)

var (
	ErrNoAPIKey            = errors.New("tts: API key required")
	ErrEmptyText           = errors.New("tts: empty text")
	ErrUnsupportedEngine   = errors.New("tts: unsupported engine")
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

const service = "tts"

type (
	APIError      = apierr.Error
	ProviderError = apierr.ProviderError
	ChainError    = apierr.ChainError
)

// WrapError tags err with the provider name. A nil err stays nil.
func WrapError(provider string, err error) error {
	return apierr.Wrap(service, provider, err)
}
