//go:build windows

package errorx

import (
	"errors"
	"syscall"

	"golang.org/x/sys/windows"
)

// This enumeration provides a canonical name for every system-call
// error we support. Note: this list is system dependent. You're
// currently looking at the list of errors for Windows.
const (
	ECONNREFUSED  = windows.WSAECONNREFUSED
	ECONNRESET    = windows.WSAECONNRESET
	EHOSTUNREACH  = windows.WSAEHOSTUNREACH
	ETIMEDOUT     = windows.WSAETIMEDOUT
	EADDRNOTAVAIL = windows.WSAEADDRNOTAVAIL
	EINTR         = windows.WSAEINTR
	ENETDOWN      = windows.WSAENETDOWN
	ENETRESET     = windows.WSAENETRESET
	ENETUNREACH   = windows.WSAENETUNREACH
	ENOBUFS       = windows.WSAENOBUFS
	ENOTCONN      = windows.WSAENOTCONN
	EACCES        = windows.WSAEACCES
)

// classifySyscallError converts a syscall error to the proper failure
// string. Returns the failure string on success, an empty string
// otherwise.
//
// We also classify getaddrinfo return codes here because on Windows
// GetAddrInfoW is a system call, while it's a library call on Unix,
// so more syscall errors slip through when resolving names.
func classifySyscallError(err error) string {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return ""
	}
	switch errno {
	case windows.WSAECONNREFUSED:
		return FailureConnectionRefused
	case windows.WSAECONNRESET:
		return FailureConnectionReset
	case windows.WSAEHOSTUNREACH:
		return FailureHostUnreachable
	case windows.WSAETIMEDOUT:
		return FailureTimedOut
	case windows.WSAEADDRNOTAVAIL:
		return FailureAddressNotAvailable
	case windows.WSAEINTR:
		return FailureInterrupted
	case windows.WSAENETDOWN:
		return FailureNetworkDown
	case windows.WSAENETRESET:
		return FailureNetworkReset
	case windows.WSAENETUNREACH:
		return FailureNetworkUnreachable
	case windows.WSAENOBUFS:
		return FailureNoBufferSpace
	case windows.WSAENOTCONN:
		return FailureNotConnected
	case windows.WSAEACCES:
		return FailurePermissionDenied
	case windows.WSANO_DATA:
		return FailureDNSNoAnswer
	case windows.WSANO_RECOVERY:
		return FailureDNSNonRecoverableFailure
	case windows.WSATRY_AGAIN:
		return FailureDNSTemporaryFailure
	case windows.WSAHOST_NOT_FOUND:
		return FailureDNSNXDOMAINError
	}
	return ""
}
