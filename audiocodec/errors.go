package audiocodec

import (
	"errors"
	"fmt"
)

// Code classifies the errors reported by codecs, sessions and transports.
type Code uint8

// Error codes. The numeric values are part of the wire envelope and must
// not be reordered.
const (
	CodeOK Code = iota
	CodeInvalidLength
	CodeUninitializedSession
	CodeUnsupportedRate
	CodeBackendFailure
	CodeInvalidParameter
	CodeUnknownCommand
	CodeUnsupportedCommand
	CodeUnknownKind
	CodeSessionNotFound
	CodeSessionClosed
	CodeSessionBusy
	CodeTooManySessions
)

var codeNames = map[Code]string{
	CodeOK:                   "OK",
	CodeInvalidLength:        "InvalidLength",
	CodeUninitializedSession: "UninitializedSession",
	CodeUnsupportedRate:      "UnsupportedRate",
	CodeBackendFailure:       "BackendFailure",
	CodeInvalidParameter:     "InvalidParameter",
	CodeUnknownCommand:       "UnknownCommand",
	CodeUnsupportedCommand:   "UnsupportedCommand",
	CodeUnknownKind:          "UnknownKind",
	CodeSessionNotFound:      "SessionNotFound",
	CodeSessionClosed:        "SessionClosed",
	CodeSessionBusy:          "SessionBusy",
	CodeTooManySessions:      "TooManySessions",
}

var codeMessages = map[Code]string{
	CodeOK:                   "ok",
	CodeInvalidLength:        "invalid payload length",
	CodeUninitializedSession: "session not initialized",
	CodeUnsupportedRate:      "unsupported sample rate",
	CodeBackendFailure:       "codec backend failure",
	CodeInvalidParameter:     "invalid parameter",
	CodeUnknownCommand:       "unknown command",
	CodeUnsupportedCommand:   "command not supported by codec",
	CodeUnknownKind:          "unknown codec kind",
	CodeSessionNotFound:      "session not found",
	CodeSessionClosed:        "session closed",
	CodeSessionBusy:          "session busy",
	CodeTooManySessions:      "too many sessions",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

// ParseCode returns the Code for its name as returned by Code.String.
func ParseCode(name string) (Code, bool) {
	for c, n := range codeNames {
		if n == name {
			return c, true
		}
	}
	return CodeBackendFailure, false
}

// Error is the error type of this module. Two errors match with errors.Is
// when the target is one of the sentinel values below and carries the same
// Code.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if rm, ok := e.Err.(remoteMessage); ok && e.Op == "" {
		return string(rm)
	}
	msg, ok := codeMessages[e.Code]
	if !ok {
		msg = e.Code.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error of e's Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Code == e.Code
}

// Sentinel errors for use with errors.Is.
var (
	ErrInvalidLength        = &Error{Code: CodeInvalidLength}
	ErrUninitializedSession = &Error{Code: CodeUninitializedSession}
	ErrUnsupportedRate      = &Error{Code: CodeUnsupportedRate}
	ErrBackendFailure       = &Error{Code: CodeBackendFailure}
	ErrInvalidParameter     = &Error{Code: CodeInvalidParameter}
	ErrUnknownCommand       = &Error{Code: CodeUnknownCommand}
	ErrUnsupportedCommand   = &Error{Code: CodeUnsupportedCommand}
	ErrUnknownKind          = &Error{Code: CodeUnknownKind}
	ErrSessionNotFound      = &Error{Code: CodeSessionNotFound}
	ErrSessionClosed        = &Error{Code: CodeSessionClosed}
	ErrSessionBusy          = &Error{Code: CodeSessionBusy}
	ErrTooManySessions      = &Error{Code: CodeTooManySessions}
)

// NewError returns an *Error with a formatted detail message.
func NewError(code Code, op string, format string, args ...interface{}) error {
	return &Error{
		Code: code,
		Op:   op,
		Err:  fmt.Errorf(format, args...),
	}
}

// BackendError wraps the failure of a native library call.
func BackendError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: CodeBackendFailure, Op: op, Err: err}
}

// CodeOf extracts the Code from an error chain. Errors which do not carry
// a Code are reported as BackendFailure.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeBackendFailure
}

// remoteMessage holds the complete error text reported by a peer.
type remoteMessage string

func (m remoteMessage) Error() string { return string(m) }

// FromCode rebuilds an error received from a remote peer. msg is expected
// to be the Error() text of the original error.
func FromCode(code Code, msg string) error {
	if code == CodeOK {
		return nil
	}
	if msg == "" {
		return &Error{Code: code}
	}
	return &Error{Code: code, Err: remoteMessage(msg)}
}
