// Package errorx contains the error model shared by all the network
// operations we perform. Every error that crosses a package boundary
// is wrapped into an *ErrWrapper that pairs a stable failure string
// with the name of the operation that failed. Code that needs to make
// decisions based on errors (the check driver, the CLI renderer, the
// tests) matches on the failure string rather than on the error text,
// which varies across platforms and library versions.
package errorx

import (
	"encoding/json"
	"errors"
)

const (
	// FailureConnectionRefused means ECONNREFUSED.
	FailureConnectionRefused = "connection_refused"

	// FailureConnectionReset means ECONNRESET.
	FailureConnectionReset = "connection_reset"

	// FailureHostUnreachable means EHOSTUNREACH.
	FailureHostUnreachable = "host_unreachable"

	// FailureTimedOut means ETIMEDOUT.
	FailureTimedOut = "timed_out"

	// FailureNetworkUnreachable means ENETUNREACH.
	FailureNetworkUnreachable = "network_unreachable"

	// FailureNetworkDown means ENETDOWN.
	FailureNetworkDown = "network_down"

	// FailureNetworkReset means ENETRESET.
	FailureNetworkReset = "network_reset"

	// FailureAddressNotAvailable means EADDRNOTAVAIL.
	FailureAddressNotAvailable = "address_not_available"

	// FailurePermissionDenied means EACCES.
	FailurePermissionDenied = "permission_denied"

	// FailureNotConnected means ENOTCONN.
	FailureNotConnected = "not_connected"

	// FailureNoBufferSpace means ENOBUFS.
	FailureNoBufferSpace = "no_buffer_space"

	// FailureInterrupted means the user interrupted us.
	FailureInterrupted = "interrupted"

	// FailureConnectionAlreadyClosed means we operated on a
	// connection that was previously closed.
	FailureConnectionAlreadyClosed = "connection_already_closed"

	// FailureDNSNXDOMAINError means we got NXDOMAIN in a DNS reply.
	FailureDNSNXDOMAINError = "dns_nxdomain_error"

	// FailureDNSNonRecoverableFailure means the resolver failed in
	// a way that is not recoverable (Windows only).
	FailureDNSNonRecoverableFailure = "dns_non_recoverable_failure"

	// FailureDNSTemporaryFailure means the resolver failed in a way
	// that is temporary (Windows only).
	FailureDNSTemporaryFailure = "dns_temporary_failure"

	// FailureDNSNoAnswer means the DNS reply contained no usable answer.
	FailureDNSNoAnswer = "dns_no_answer"

	// FailureDNSRefusedError means the DNS server refused the query.
	FailureDNSRefusedError = "dns_refused_error"

	// FailureDNSServerMisbehaving means the DNS server is misbehaving.
	FailureDNSServerMisbehaving = "dns_server_misbehaving"

	// FailureEOFError means we got an unexpected EOF on the connection.
	FailureEOFError = "eof_error"

	// FailureGenericTimeoutError means some timer has expired.
	FailureGenericTimeoutError = "generic_timeout_error"

	// FailureSSLFailedHandshake means the TLS parameter negotiation failed.
	FailureSSLFailedHandshake = "ssl_failed_handshake"

	// FailureSSLInvalidHostname means the certificate is not valid for the SNI.
	FailureSSLInvalidHostname = "ssl_invalid_hostname"

	// FailureSSLUnknownAuthority means we cannot find a CA validating the certificate.
	FailureSSLUnknownAuthority = "ssl_unknown_authority"

	// FailureSSLInvalidCertificate means the certificate is expired or
	// otherwise invalid.
	FailureSSLInvalidCertificate = "ssl_invalid_certificate"
)

const (
	// ResolveOperation is the operation where we resolve a domain name.
	ResolveOperation = "resolve"

	// ConnectOperation is the operation where we do a TCP connect.
	ConnectOperation = "connect"

	// TLSHandshakeOperation is the TLS handshake.
	TLSHandshakeOperation = "tls_handshake"

	// ReadOperation is when we read from a connection.
	ReadOperation = "read"

	// WriteOperation is when we write to a connection.
	WriteOperation = "write"

	// CloseOperation is when we close a connection.
	CloseOperation = "close"

	// TopLevelOperation is used when the failure happens above the
	// network layer, e.g., with a cancelled context.
	TopLevelOperation = "top_level"
)

// ErrWrapper is our error wrapper for Go errors. The key objective of
// this structure is to properly set Failure, which is also returned by
// the Error() method, to be one of the failure strings defined above.
type ErrWrapper struct {
	// Failure is the failure string. This is either one of the
	// FailureXXX strings or any other string like
	// `unknown_failure: ...`. The latter represents an error that
	// we have not yet mapped to a failure.
	Failure string

	// Operation is the operation that failed.
	//
	// If possible, the Operation string SHOULD be a _major_
	// operation. Major operations are:
	//
	// - ResolveOperation: resolving a domain name failed
	// - ConnectOperation: connecting to an endpoint failed
	// - TLSHandshakeOperation: TLS handshaking failed
	//
	// Because a network connection doesn't necessarily know
	// what is the current major operation we also have the
	// following _minor_ operations:
	//
	// - CloseOperation: CLOSE failed
	// - ReadOperation: READ failed
	// - WriteOperation: WRITE failed
	//
	// If an ErrWrapper referring to a major operation is wrapping
	// another ErrWrapper and such ErrWrapper already refers to
	// a major operation, then the new ErrWrapper should use the
	// child ErrWrapper major operation. Otherwise, it should use
	// its own major operation. This way, the topmost wrapper is
	// supposed to refer to the major operation that failed.
	Operation string

	// WrappedErr is the error that we're wrapping.
	WrappedErr error
}

// Error returns the failure string for this error.
func (e *ErrWrapper) Error() string {
	return e.Failure
}

// Unwrap allows to access the underlying error.
func (e *ErrWrapper) Unwrap() error {
	return e.WrappedErr
}

// MarshalJSON converts an ErrWrapper to a JSON value.
func (e *ErrWrapper) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Failure)
}

// Classifier is the type of the function that maps a Go error
// to one of the failure strings defined by this package.
type Classifier func(err error) string

// NewErrWrapper creates a new ErrWrapper using the given
// classifier, operation name, and underlying error.
//
// This function panics if classifier is nil, or operation
// is the empty string or error is nil.
//
// If the err argument has already been classified, the returned
// error wrapper will use the same classification string and
// will determine whether to keep the major operation as documented
// in the ErrWrapper.Operation documentation.
func NewErrWrapper(c Classifier, op string, err error) *ErrWrapper {
	var wrapper *ErrWrapper
	if errors.As(err, &wrapper) {
		return &ErrWrapper{
			Failure:    wrapper.Failure,
			Operation:  classifyOperation(wrapper, op),
			WrappedErr: err,
		}
	}
	if c == nil {
		panic("nil classifier")
	}
	if op == "" {
		panic("empty op")
	}
	if err == nil {
		panic("nil err")
	}
	return &ErrWrapper{
		Failure:    c(err),
		Operation:  op,
		WrappedErr: err,
	}
}

// MaybeNewErrWrapper is like NewErrWrapper except that this
// function won't panic if passed a nil error.
func MaybeNewErrWrapper(c Classifier, op string, err error) error {
	if err != nil {
		return NewErrWrapper(c, op, err)
	}
	return nil
}

// NewTopLevelGenericErrWrapper wraps an error occurring at top
// level using ClassifyGenericError as classifier. This is the
// function you should call when you suspect a given error hasn't
// already been wrapped. This function panics if err is nil.
func NewTopLevelGenericErrWrapper(err error) *ErrWrapper {
	return NewErrWrapper(ClassifyGenericError, TopLevelOperation, err)
}

func classifyOperation(ew *ErrWrapper, operation string) string {
	// Basically, as explained in ErrWrapper docs, let's
	// keep the child major operation, if any.
	if ew.Operation == ResolveOperation {
		return ew.Operation
	}
	if ew.Operation == ConnectOperation {
		return ew.Operation
	}
	if ew.Operation == TLSHandshakeOperation {
		return ew.Operation
	}
	return operation
}
