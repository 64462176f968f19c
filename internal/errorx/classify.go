package errorx

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
)

// ClassifyGenericError maps an error occurred during an operation to
// a failure string. This specific classifier is the most generic one.
// You usually use it when wrapping I/O errors. You should check
// whether there is a specific classifier for more specific operations
// (e.g., DNS resolution, TLS handshake).
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// We put inside this classifier:
//
// - system call errors;
//
// - generic errors that can occur in multiple places;
//
// - all the errors that depend on strings.
//
// The more specific classifiers call this classifier if they
// fail to find a mapping for the input error.
//
// If everything else fails, this classifier returns a string
// like "unknown_failure: XXX" where XXX is the original error
// string, so that no error is ever silently collapsed.
func ClassifyGenericError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}

	// Classify system errors first. We could use strings for many
	// of them on Unix, but this would fail on Windows where the
	// errno values and messages differ.
	if failure := classifySyscallError(err); failure != "" {
		return failure
	}

	if errors.Is(err, context.Canceled) {
		return FailureInterrupted
	}

	if failure := classifyWithStringSuffix(err); failure != "" {
		return failure
	}

	return fmt.Sprintf("unknown_failure: %s", err.Error())
}

// classifyWithStringSuffix is a subset of ClassifyGenericError that
// performs classification by looking at error suffixes. This function
// returns an empty string if it cannot classify the error.
func classifyWithStringSuffix(err error) string {
	s := err.Error()
	if strings.HasSuffix(s, "operation was canceled") {
		return FailureInterrupted
	}
	if strings.HasSuffix(s, "EOF") {
		return FailureEOFError
	}
	if strings.HasSuffix(s, "context deadline exceeded") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, "i/o timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, "TLS handshake timeout") {
		return FailureGenericTimeoutError
	}
	if strings.HasSuffix(s, DNSNoSuchHostSuffix) {
		// The standard library uses this string for what is
		// really an NXDOMAIN condition.
		return FailureDNSNXDOMAINError
	}
	if strings.HasSuffix(s, DNSServerMisbehavingSuffix) {
		return FailureDNSServerMisbehaving
	}
	if strings.HasSuffix(s, DNSNoAnswerSuffix) {
		return FailureDNSNoAnswer
	}
	if strings.HasSuffix(s, "use of closed network connection") {
		return FailureConnectionAlreadyClosed
	}
	return "" // not found
}

// We use these strings to string-match errors in the standard library
// and map such errors to failure strings.
const (
	DNSNoSuchHostSuffix        = "no such host"
	DNSServerMisbehavingSuffix = "server misbehaving"
	DNSNoAnswerSuffix          = "no answer from DNS server"
)

// These errors are returned by custom resolvers (e.g., the UDP
// resolver). Their suffix matches the equivalent unexported errors
// used by the Go standard library.
var (
	ErrDNSNoSuchHost  = fmt.Errorf("resolver: %s", DNSNoSuchHostSuffix)
	ErrDNSRefused     = errors.New("resolver: refused")
	ErrDNSMisbehaving = fmt.Errorf("resolver: %s", DNSServerMisbehavingSuffix)
	ErrDNSNoAnswer    = fmt.Errorf("resolver: %s", DNSNoAnswerSuffix)
)

// ClassifyResolverError maps DNS resolution errors to failure strings.
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// If this classifier fails, it calls ClassifyGenericError and
// returns to the caller its return value.
func ClassifyResolverError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}

	// Implementation note: we match errors that share the same
	// string of the stdlib in the generic classifier.
	if errors.Is(err, ErrDNSRefused) {
		return FailureDNSRefusedError
	}
	return ClassifyGenericError(err)
}

// ClassifyTLSHandshakeError maps an error occurred during the TLS
// handshake to a failure string.
//
// If the input error is an *ErrWrapper we don't perform
// the classification again and we return its Failure.
//
// If this classifier fails, it calls ClassifyGenericError and
// returns to the caller its return value.
func ClassifyTLSHandshakeError(err error) string {
	var errwrapper *ErrWrapper
	if errors.As(err, &errwrapper) {
		return errwrapper.Error() // we've already wrapped it
	}

	var x509HostnameError x509.HostnameError
	if errors.As(err, &x509HostnameError) {
		// Test case: https://wrong.host.badssl.com/
		return FailureSSLInvalidHostname
	}
	var x509UnknownAuthorityError x509.UnknownAuthorityError
	if errors.As(err, &x509UnknownAuthorityError) {
		// Test case: https://self-signed.badssl.com/
		return FailureSSLUnknownAuthority
	}
	var x509CertificateInvalidError x509.CertificateInvalidError
	if errors.As(err, &x509CertificateInvalidError) {
		// Test case: https://expired.badssl.com/
		return FailureSSLInvalidCertificate
	}

	// The crypto/tls library does not define structured errors for
	// alerts sent by the peer, so we need to match strings here.
	s := err.Error()
	if strings.HasSuffix(s, "tls: unrecognized name") {
		return FailureSSLInvalidHostname
	}
	if strings.HasSuffix(s, "tls: handshake failure") {
		return FailureSSLFailedHandshake
	}
	if strings.Contains(s, "tls: server selected unsupported protocol version") {
		return FailureSSLFailedHandshake
	}
	return ClassifyGenericError(err)
}
