package omada

import (
	"errors"
	"fmt"
)

// Well-known controller error codes. Classification is advisory: callers
// must treat any non-zero code as failure whether or not it is named here.
const (
	CodeSiteNotFound        = -33000
	CodeConcurrentOperation = -33004
	CodeVoucherLimitReached = -42010
	CodePortalNotConfigured = -42036
	CodeDuplicateGroupName  = -42059
	CodeInvalidGrant        = -44111
	CodeTokenExpired        = -44112
)

var operatorMessages = map[int]string{
	CodeSiteNotFound:        "Site does not exist on the controller",
	CodeConcurrentOperation: "The controller is busy with a concurrent operation, try again",
	CodeVoucherLimitReached: "The controller voucher limit has been reached for this site",
	CodePortalNotConfigured: "No portal is configured for this site on the controller",
	CodeDuplicateGroupName:  "A voucher group with this name already exists",
	CodeInvalidGrant:        "The controller rejected the credentials (invalid grant)",
	CodeTokenExpired:        "The controller access token has expired",
}

// ApiError is a logical rejection from the controller: the request reached
// it but the envelope carried a non-zero errorCode.
type ApiError struct {
	Code    int
	Message string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("omada api error %d: %s", e.Code, e.Message)
}

// OperatorMessage returns the operator-facing translation for well-known
// codes and the raw controller message otherwise.
func (e *ApiError) OperatorMessage() string {
	if msg, ok := operatorMessages[e.Code]; ok {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Controller error %d", e.Code)
}

// TransportError wraps network-level failures (DNS, TLS, timeout, non-2xx
// responses, undecodable envelopes). Always retryable by the caller.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("omada transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError means credentials are missing or every grant type failed. Fatal
// for the current operation; the operator has to fix the configuration.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("omada auth error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("omada auth error: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsTokenRejected reports whether the error is the controller telling us the
// current access token is no longer accepted.
func IsTokenRejected(err error) bool {
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == CodeTokenExpired || apiErr.Code == CodeInvalidGrant
}

// OperatorMessage translates any engine error into an operator-facing
// summary. The engine produces structured errors; this is the one place
// domain knowledge about well-known codes is rendered as text.
func OperatorMessage(err error) string {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.OperatorMessage()
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return "Controller authentication failed, check the API configuration"
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "Could not reach the controller, check the connection"
	}
	return err.Error()
}
