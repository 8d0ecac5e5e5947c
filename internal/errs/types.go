package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

// NotFoundError is returned when a widget or other resource does not exist.
type NotFoundError struct {
	ErrorMessage
}

// ValidationError is a caller error in a request payload.
type ValidationError struct {
	ErrorMessage
}

// ConfigurationError means a provider cannot be used at all: missing
// credentials or an unsupported provider/endpoint pair. Never retried.
type ConfigurationError struct {
	ErrorMessage
}

// SymbolRequiredError is a caller error: the endpoint needs an instrument
// symbol and none was supplied. Surfaced before any network call.
type SymbolRequiredError struct {
	ErrorMessage
	Endpoint string
}

// UpstreamError covers non-2xx responses, malformed bodies and transport
// failures (including timeouts). Transient errors are eligible for retry on
// the next refresh tick.
type UpstreamError struct {
	ErrorMessage
	Provider  string
	Transient bool
}

// RateLimitedError is an explicit rate-limit signal from a provider, either
// an HTTP 429 or a soft sentinel embedded in a 200 body. Eligible for
// provider fallback.
type RateLimitedError struct {
	ErrorMessage
	Provider string
}

// StoreError wraps persistence failures with the attempted operation.
type StoreError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *StoreError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewSymbolRequiredError(endpoint string) *SymbolRequiredError {
	return &SymbolRequiredError{
		ErrorMessage: ErrorMessage{Message: "symbol is required for endpoint " + endpoint},
		Endpoint:     endpoint,
	}
}

func NewUpstreamError(provider, message string, transient bool) *UpstreamError {
	return &UpstreamError{
		ErrorMessage: ErrorMessage{Message: message},
		Provider:     provider,
		Transient:    transient,
	}
}

func NewRateLimitedError(provider, message string) *RateLimitedError {
	return &RateLimitedError{
		ErrorMessage: ErrorMessage{Message: message},
		Provider:     provider,
	}
}

func NewStoreError(operation, message string, err error) *StoreError {
	return &StoreError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}
