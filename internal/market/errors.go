package market

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized means a required local credential is not configured.
	// It is returned before any network call is attempted.
	ErrUnauthorized = errors.New("api credential not configured")

	// ErrTimeout means an outbound call exceeded its deadline.
	ErrTimeout = errors.New("provider call timed out")

	// ErrMalformedResponse means an upstream success response could not be
	// parsed into the expected shape.
	ErrMalformedResponse = errors.New("malformed provider response")

	// ErrAllProvidersUnavailable means every adapter the request needed
	// failed. Partial failures never surface this; only total outage does.
	ErrAllProvidersUnavailable = errors.New("all providers unavailable")
)

// ProviderUnavailableError reports a transport-level failure reaching a
// provider, or a non-success status that makes the provider unusable.
type ProviderUnavailableError struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s unavailable: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider %s unavailable", e.Provider)
}

func (e *ProviderUnavailableError) Unwrap() error { return e.Err }

// UpstreamError reports a non-success HTTP status from a provider.
type UpstreamError struct {
	Provider string
	Status   int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Provider, e.Status)
}

// InvalidSymbolError reports client input rejected by local validation.
// It never reaches the network.
type InvalidSymbolError struct {
	Symbol string
	Reason string
}

func (e *InvalidSymbolError) Error() string {
	return fmt.Sprintf("invalid symbol %q: %s", e.Symbol, e.Reason)
}

// QuoteNotFoundError means every lookup tier returned no data for the symbol.
type QuoteNotFoundError struct {
	Symbol string
}

func (e *QuoteNotFoundError) Error() string {
	return fmt.Sprintf("no quote found for %q", e.Symbol)
}
