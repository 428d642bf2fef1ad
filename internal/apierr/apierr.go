// Package apierr holds the error types returned by the HTTP-backed provider
// packages (inference, stt, tts). Each package re-exports them under its own
// names and tags them with its service name.
package apierr

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBody caps how much of an error body is read.
const maxBody = 64 << 10

// Error is a non-2xx response from a provider API.
type Error struct {
	Service    string
	Provider   string
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	prefix := e.Service
	if e.Provider != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Service, e.Provider)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: API error %d (%s): %s", prefix, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: API error %d: %s", prefix, e.StatusCode, e.Message)
}

// IsRateLimited reports HTTP 429.
func (e *Error) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// IsUnauthorized reports HTTP 401.
func (e *Error) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// IsForbidden reports HTTP 403, which Gemini returns for a bad key.
func (e *Error) IsForbidden() bool { return e.StatusCode == http.StatusForbidden }

// IsServerError reports a 5xx status.
func (e *Error) IsServerError() bool { return e.StatusCode >= 500 && e.StatusCode < 600 }

// IsRetryable reports whether the same request may succeed later.
func (e *Error) IsRetryable() bool { return e.IsRateLimited() || e.IsServerError() }

// Retryable reports whether status should be retried by a request loop.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// BodyDecoder pulls the message and code out of an error body. ok is false
// when the body is not in the expected shape.
type BodyDecoder func(body []byte) (message, code string, ok bool)

// OpenAIBody decodes {"error": {"message": ..., "code": ...}}, the shape
// used by OpenAI, Groq and other compatible servers.
func OpenAIBody(body []byte) (string, string, bool) {
	var v struct {
		Error struct {
			Message string `json:"message"`
			Code    any    `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &v) != nil || v.Error.Message == "" {
		return "", "", false
	}
	code := ""
	if v.Error.Code != nil {
		code = fmt.Sprint(v.Error.Code)
	}
	return v.Error.Message, code, true
}

// FromResponse reads resp's body into an Error. When decode does not
// recognise the body, the raw body becomes the message.
func FromResponse(service, provider string, resp *http.Response, decode BodyDecoder) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	e := &Error{
		Service:    service,
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
	if decode != nil {
		if msg, code, ok := decode(body); ok {
			e.Message, e.Code = msg, code
		}
	}
	return e
}

// ProviderError tags an error with the service and provider it came from.
type ProviderError struct {
	Service  string
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Service, e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Wrap tags err with service and provider. A nil err stays nil.
func Wrap(service, provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Service: service, Provider: provider, Err: err}
}

// ChainError collects the failure of every provider in a fallback chain.
// It unwraps to the last failure.
type ChainError struct {
	Service string
	Errors  []error
}

func (e *ChainError) Error() string {
	switch len(e.Errors) {
	case 0:
		return e.Service + " chain: no errors recorded"
	case 1:
		return fmt.Sprintf("%s chain: %v", e.Service, e.Errors[0])
	}
	return fmt.Sprintf("%s chain: all %d providers failed, last error: %v",
		e.Service, len(e.Errors), e.Errors[len(e.Errors)-1])
}

func (e *ChainError) Unwrap() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}
