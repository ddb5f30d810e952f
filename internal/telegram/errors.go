package telegram

import "github.com/gotd/td/tgerr"

// Error wraps an RPC error returned by Telegram.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// PlatformMessage returns Telegram's error message, e.g. PHONE_CODE_INVALID.
func (e *Error) PlatformMessage() string { return e.Message }

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if rpcErr, ok := tgerr.As(err); ok {
		return &Error{Err: err, Message: rpcErr.Message}
	}
	return err
}
