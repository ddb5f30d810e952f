package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoPendingChallenge = errors.New("no pending code request")
	ErrInvalidSelector    = errors.New("invalid group index")

	ErrPhoneRequired      = fmt.Errorf("%w: phone number is required", ErrInvalidInput)
	ErrCodeRequired       = fmt.Errorf("%w: verification code is required", ErrInvalidInput)
	ErrGroupIndexRequired = fmt.Errorf("%w: group index is required", ErrInvalidSelector)
)

// UpstreamError is returned when the messaging platform rejects or fails an operation.
// Message carries the platform's own error code, e.g. PHONE_CODE_INVALID, and is
// empty for transport failures.
type UpstreamError struct {
	Op      string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// platformMessager is implemented by platform errors that carry an RPC message.
type platformMessager interface {
	PlatformMessage() string
}

func upstream(op string, err error) error {
	var msg string
	var pm platformMessager
	if errors.As(err, &pm) {
		msg = pm.PlatformMessage()
	}
	return &UpstreamError{Op: op, Message: msg, Err: err}
}
