//go:build unix

package errorx

import (
	"errors"
	"syscall"

	"golang.org/x/sys/unix"
)

// This enumeration provides a canonical name for every system-call
// error we support. Note: this list is system dependent. You're
// currently looking at the list of errors for Unix-like systems.
const (
	ECONNREFUSED  = unix.ECONNREFUSED
	ECONNRESET    = unix.ECONNRESET
	EHOSTUNREACH  = unix.EHOSTUNREACH
	ETIMEDOUT     = unix.ETIMEDOUT
	EADDRNOTAVAIL = unix.EADDRNOTAVAIL
	EINTR         = unix.EINTR
	ENETDOWN      = unix.ENETDOWN
	ENETRESET     = unix.ENETRESET
	ENETUNREACH   = unix.ENETUNREACH
	ENOBUFS       = unix.ENOBUFS
	ENOTCONN      = unix.ENOTCONN
	EACCES        = unix.EACCES
)

// classifySyscallError converts a syscall error to the proper failure
// string. Returns the failure string on success, an empty string
// otherwise.
func classifySyscallError(err error) string {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ""
	}
	switch errno {
	case unix.ECONNREFUSED:
		return FailureConnectionRefused
	case unix.ECONNRESET:
		return FailureConnectionReset
	case unix.EHOSTUNREACH:
		return FailureHostUnreachable
	case unix.ETIMEDOUT:
		return FailureTimedOut
	case unix.EADDRNOTAVAIL:
		return FailureAddressNotAvailable
	case unix.EINTR:
		return FailureInterrupted
	case unix.ENETDOWN:
		return FailureNetworkDown
	case unix.ENETRESET:
		return FailureNetworkReset
	case unix.ENETUNREACH:
		return FailureNetworkUnreachable
	case unix.ENOBUFS:
		return FailureNoBufferSpace
	case unix.ENOTCONN:
		return FailureNotConnected
	case unix.EACCES:
		return FailurePermissionDenied
	}
	return ""
}
