// Package result implements the Result<Ok,Err> discipline used uniformly
// across the protocol, the CLI dispatcher, and filesystem operations.
package result

import "fmt"

// ErrKind tags the category of a failure. Ordinals are stable and cross the
// wire inside Err packets; new kinds are appended, never inserted.
type ErrKind uint8

const (
	InvalidOperation ErrKind = iota
	InvalidState
	Timeout
	JsonParseError
	NotFound

	UnknownCommand
	UnknownSubCommand
	UnknownArgument

	NetSocketError
	NetConnectionTimeout
	NetBadPacket
	NetListenFailure
	NetWriteFailure
	NetReadFailure
	NetReadyFailure

	InvalidCameraConfiguration

	IOError

	ForkFailed
)

var errKindNames = [...]string{
	"InvalidOperation",
	"InvalidState",
	"Timeout",
	"JsonParseError",
	"NotFound",
	"UnknownCommand",
	"UnknownSubCommand",
	"UnknownArgument",
	"NetSocketError",
	"NetConnectionTimeout",
	"NetBadPacket",
	"NetListenFailure",
	"NetWriteFailure",
	"NetReadFailure",
	"NetReadyFailure",
	"InvalidCameraConfiguration",
	"IOError",
	"ForkFailed",
}

// String returns the canonical name of k, matching ErrKindToStr.
func (k ErrKind) String() string {
	if int(k) >= len(errKindNames) {
		return "Unknown"
	}
	return errKindNames[k]
}

// Err is the uniform error value of this codebase: a kind plus an optional
// human-readable message. It implements the standard error interface so it
// composes with the rest of Go, but its Kind is what crosses the wire.
type Err struct {
	Kind    ErrKind
	Message string
}

// NewErr builds an Err with no message.
func NewErr(kind ErrKind) Err {
	return Err{Kind: kind}
}

// NewErrMsg builds an Err carrying a literal message.
func NewErrMsg(kind ErrKind, message string) Err {
	return Err{Kind: kind, Message: message}
}

// NewErrf builds an Err with a formatted message under the given kind.
func NewErrf(kind ErrKind, format string, args ...any) Err {
	return Err{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Errf builds an Err defaulting to InvalidOperation, mirroring the
// original's default-kind formatting constructor.
func Errf(format string, args ...any) Err {
	return NewErrf(InvalidOperation, format, args...)
}

// HasMessage reports whether the error carries a non-empty message.
func (e Err) HasMessage() bool { return e.Message != "" }

// Code returns the numeric value of Kind, used as the process exit code for
// a fatal top-level error.
func (e Err) Code() uint8 { return uint8(e.Kind) }

// Error implements the standard error interface with the fixed two-line
// format used everywhere this package's errors are logged or displayed.
func (e Err) Error() string {
	if e.HasMessage() {
		return fmt.Sprintf("Error Type: %s\n\tMessage: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("Error Type: %s", e.Kind)
}
