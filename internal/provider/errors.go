package provider

import (
	"errors"
	"fmt"
)

// Reasons a link fails to resolve. Router.Resolve logs these and reports them
// wrapped in ErrResolutionFailed; transport failures are returned as-is.
var (
	ErrNoURL               = errors.New("no URL found in input")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnexpectedStatus    = errors.New("unexpected HTTP status")
	ErrMarkerNotFound      = errors.New("embedded data marker not found")
	ErrPayloadParse        = errors.New("embedded data is not valid JSON")
	ErrSchemaMismatch      = errors.New("no recognizable media in payload")
	ErrChallenge           = errors.New("anti-bot challenge page served")
	ErrApplication         = errors.New("platform API reported an error")
	ErrUnsupportedDelivery = errors.New("only adaptive streams are offered")
	ErrShortLink           = errors.New("short link carries no video identifier")

	ErrResolutionFailed = errors.New("resolution failed")
	ErrDuplicate        = errors.New("extractor already registered for platform")
)

// APIError is a non-zero code in a platform API response body.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: code %d: %s", e.Endpoint, e.Code, e.Message)
}

// Is makes errors.Is(err, ErrApplication) hold for any APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrApplication
}

func statusError(url string, code int) error {
	return fmt.Errorf("%w %d for %s", ErrUnexpectedStatus, code, url)
}

func parseError(err error) error {
	return fmt.Errorf("%w: %v", ErrPayloadParse, err)
}

func schemaError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}
