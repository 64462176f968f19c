// Package netx contains the TCP networking building blocks: the
// Endpoint and Transport types, the dialer and resolver chains, and
// optional SOCKS5 proxy support.
//
// The Connect function ties these together: it performs a single
// connect attempt towards an endpoint and returns a Transport owning
// the connected socket. Dialers and resolvers are composable: the
// constructors in this package return decorated chains that resolve
// names, log their progress, and classify errors.
package netx

import (
	"context"
	"net/url"

	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/model"
)

// Config contains the configuration for Connect. Every field is
// optional.
type Config struct {
	// Dialer overrides the dialer used to connect. When this field
	// is set, Proxy and Resolver are ignored.
	Dialer Dialer

	// Logger is the logger to use.
	Logger model.Logger

	// Proxy is the SOCKS5 proxy URL to dial through.
	Proxy *url.URL

	// Resolver is the resolver to use. When this field is nil, we
	// use the system resolver.
	Resolver Resolver
}

// Connect dials a TCP connection to the given endpoint and returns a
// Transport owning the connected socket. This is a single connect
// attempt: no retries and no fallback endpoints. On failure the
// returned error is always an *errorx.ErrWrapper whose Operation is
// ResolveOperation or ConnectOperation.
func Connect(ctx context.Context, config *Config, endpoint *Endpoint) (*Transport, error) {
	logger := model.ValidLoggerOrDefault(config.Logger)
	dialer := config.Dialer
	if dialer == nil {
		resolver := config.Resolver
		if resolver == nil {
			resolver = NewResolverSystem(logger)
		}
		dialer = NewDialerWithResolver(logger, resolver)
		dialer = MaybeWrapWithProxyDialer(dialer, config.Proxy)
	}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint.String())
	if err != nil {
		return nil, errorx.NewErrWrapper(
			errorx.ClassifyGenericError, errorx.ConnectOperation, err)
	}
	return NewTransport(logger, conn), nil
}
