package netx

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/model"
)

// Dialer establishes network connections.
type Dialer interface {
	// DialContext behaves like net.Dialer.DialContext.
	DialContext(ctx context.Context, network, address string) (net.Conn, error)

	// CloseIdleConnections closes idle connections, if any.
	CloseIdleConnections()
}

// NewDialerWithResolver creates a dialer using the given logger and
// resolver. The returned dialer resolves domain names, attempts each
// resolved address until one connects, logs its progress, and wraps
// errors so that they carry a failure string and the operation that
// failed.
func NewDialerWithResolver(logger model.Logger, resolver Resolver) Dialer {
	return &dialerLogger{
		Dialer: &dialerErrWrapper{
			Dialer: &dialerResolver{
				Dialer: &dialerLogger{
					Dialer: &dialerErrWrapper{
						Dialer: &dialerSystem{},
					},
					Logger:          logger,
					operationSuffix: "_address",
				},
				Resolver: resolver,
			},
		},
		Logger: logger,
	}
}

// NewDialerWithoutResolver creates a dialer that uses the given
// logger and fails with ErrNoResolver when it is passed a domain name.
func NewDialerWithoutResolver(logger model.Logger) Dialer {
	return NewDialerWithResolver(logger, &nullResolver{})
}

// underlyingDialer is the dialer we use by default.
var underlyingDialer = &net.Dialer{
	Timeout:   15 * time.Second,
	KeepAlive: 15 * time.Second,
}

// dialerSystem dials using the Go stdlib.
type dialerSystem struct{}

var _ Dialer = &dialerSystem{}

// DialContext implements Dialer.DialContext.
func (d *dialerSystem) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return underlyingDialer.DialContext(ctx, network, address)
}

// CloseIdleConnections implements Dialer.CloseIdleConnections.
func (d *dialerSystem) CloseIdleConnections() {
	// nothing
}

// dialerResolver uses the configured Resolver to resolve a domain
// name to IP addresses and the configured Dialer to connect.
type dialerResolver struct {
	// Dialer is the underlying Dialer.
	Dialer Dialer

	// Resolver is the underlying Resolver.
	Resolver Resolver
}

var _ Dialer = &dialerResolver{}

// DialContext implements Dialer.DialContext. We try each resolved
// address in sequence. This is still a single connect attempt from
// the caller's point of view: like getaddrinfo-based connect loops,
// we stop as soon as one address connects and we return the first
// error when all addresses fail.
func (d *dialerResolver) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	onlyhost, onlyport, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	addrs, err := d.lookupHost(ctx, onlyhost)
	if err != nil {
		return nil, err
	}
	var errorslist []error
	for _, addr := range addrs {
		target := net.JoinHostPort(addr, onlyport)
		conn, err := d.Dialer.DialContext(ctx, network, target)
		if err == nil {
			return conn, nil
		}
		errorslist = append(errorslist, err)
	}
	return nil, reduceErrors(errorslist)
}

// lookupHost performs a domain name resolution.
func (d *dialerResolver) lookupHost(ctx context.Context, hostname string) ([]string, error) {
	if net.ParseIP(hostname) != nil {
		return []string{hostname}, nil
	}
	return d.Resolver.LookupHost(ctx, hostname)
}

// CloseIdleConnections implements Dialer.CloseIdleConnections.
func (d *dialerResolver) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
	d.Resolver.CloseIdleConnections()
}

// reduceErrors returns the first error in the list that has been
// classified to a known failure, or the first error otherwise. A
// classified error is more actionable for the user than, say, the
// generic failure of the address family their network lacks.
func reduceErrors(errorslist []error) error {
	if len(errorslist) == 0 {
		return nil
	}
	for _, err := range errorslist {
		var wrapper *errorx.ErrWrapper
		if errors.As(err, &wrapper) && !strings.HasPrefix(wrapper.Failure, "unknown_failure") {
			return err
		}
	}
	return errorslist[0]
}

// dialerLogger is a Dialer with logging.
type dialerLogger struct {
	// Dialer is the underlying dialer.
	Dialer Dialer

	// Logger is the underlying logger.
	Logger model.Logger

	// operationSuffix is appended to the operation name.
	//
	// We use this suffix to distinguish the output from dialing
	// with the output from dialing an IP address when we are
	// using a dialer without resolver, where otherwise both lines
	// would read something like `dial 8.8.8.8:443...`
	operationSuffix string
}

var _ Dialer = &dialerLogger{}

// DialContext implements Dialer.DialContext.
func (d *dialerLogger) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	d.Logger.Debugf("dial%s %s/%s...", d.operationSuffix, address, network)
	start := time.Now()
	conn, err := d.Dialer.DialContext(ctx, network, address)
	elapsed := time.Since(start)
	if err != nil {
		d.Logger.Debugf("dial%s %s/%s... %s in %s", d.operationSuffix,
			address, network, err, elapsed)
		return nil, err
	}
	d.Logger.Debugf("dial%s %s/%s... ok in %s", d.operationSuffix,
		address, network, elapsed)
	return conn, nil
}

// CloseIdleConnections implements Dialer.CloseIdleConnections.
func (d *dialerLogger) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}

// dialerErrWrapper is a dialer that wraps errors.
type dialerErrWrapper struct {
	// Dialer is the underlying dialer.
	Dialer Dialer
}

var _ Dialer = &dialerErrWrapper{}

// DialContext implements Dialer.DialContext.
func (d *dialerErrWrapper) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	conn, err := d.Dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, errorx.NewErrWrapper(
			errorx.ClassifyGenericError, errorx.ConnectOperation, err)
	}
	return conn, nil
}

// CloseIdleConnections implements Dialer.CloseIdleConnections.
func (d *dialerErrWrapper) CloseIdleConnections() {
	d.Dialer.CloseIdleConnections()
}
