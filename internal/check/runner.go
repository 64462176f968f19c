// Package check implements the one-shot TLS check: connect to an
// endpoint, handshake, send a fixed HTTP/1.1 request, read the
// response until the peer closes the connection, and classify what
// happened.
//
// The check is strictly sequential and runs each stage exactly once.
// There are no retries: the check is a diagnostic probe and a failure
// at any stage is itself the diagnostic. Every run produces exactly
// one Result naming the failed stage, if any.
package check

import (
	"context"
	"crypto/x509"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/probekit/tlscheck/internal/model"
	"github.com/probekit/tlscheck/internal/netx"
	"github.com/probekit/tlscheck/internal/runtimex"
	"github.com/probekit/tlscheck/internal/tlsx"
)

// DefaultMaxBodySize is the default bound on the number of response
// bytes we read. Reaching the bound is not a failure: we keep the
// bytes read so far and classify them as usual.
const DefaultMaxBodySize = 10_000_000

// Config contains the configuration for a Runner. The only mandatory
// field is Endpoint.
type Config struct {
	// Endpoint is the MANDATORY endpoint to check.
	Endpoint *netx.Endpoint

	// AcceptAbruptClose OPTIONALLY tolerates servers that close the
	// connection without a close_notify after the response started.
	AcceptAbruptClose bool

	// Dialer OPTIONALLY overrides the dialer used to connect. When
	// this field is set, Proxy and Resolver are ignored.
	Dialer netx.Dialer

	// HandshakeTimeout OPTIONALLY bounds the TLS handshake.
	HandshakeTimeout time.Duration

	// InsecureSkipVerify OPTIONALLY disables certificate
	// verification. Only useful as a diagnostic escape hatch.
	InsecureSkipVerify bool

	// Logger is the OPTIONAL logger to use.
	Logger model.Logger

	// MaxBodySize OPTIONALLY overrides DefaultMaxBodySize.
	MaxBodySize int64

	// MinVersion OPTIONALLY raises the minimum acceptable TLS
	// protocol version.
	MinVersion uint16

	// Proxy is the OPTIONAL SOCKS5 proxy URL to connect through.
	Proxy *url.URL

	// Resolver is the OPTIONAL resolver to use. When this field is
	// nil, we use the system resolver.
	Resolver netx.Resolver

	// RootCAs OPTIONALLY overrides the trust anchors used to verify
	// the peer certificate.
	RootCAs *x509.CertPool

	// ServerName OPTIONALLY overrides the name sent via SNI and used
	// to verify the peer certificate. The default is Endpoint.Host.
	ServerName string
}

// Runner runs checks. The zero value is invalid; use NewRunner. A
// Runner is stateless and may run any number of checks.
type Runner struct {
	config *Config
	logger model.Logger
}

// NewRunner creates a new Runner with the given config. This function
// panics when config is nil or config.Endpoint is nil.
func NewRunner(config *Config) *Runner {
	runtimex.PanicIfTrue(config == nil, "check: NewRunner passed a nil config")
	runtimex.PanicIfTrue(config.Endpoint == nil, "check: NewRunner passed a config without an endpoint")
	return &Runner{
		config: config,
		logger: model.ValidLoggerOrDefault(config.Logger),
	}
}

// serverName returns the name we send via SNI and put into the
// request's Host header.
func (r *Runner) serverName() string {
	if r.config.ServerName != "" {
		return r.config.ServerName
	}
	return r.config.Endpoint.Host
}

// maxBodySize returns the bound on the response size.
func (r *Runner) maxBodySize() int64 {
	if r.config.MaxBodySize > 0 {
		return r.config.MaxBodySize
	}
	return DefaultMaxBodySize
}

// Run performs a single check. Run never returns a nil Result: when a
// stage fails, the Result records the stage and the failure, and the
// remaining stages do not run. The session and, transitively, the
// socket are released before returning, on every path.
func (r *Runner) Run(ctx context.Context) *Result {
	result := &Result{
		ID:         uuid.NewString(),
		Endpoint:   r.config.Endpoint.String(),
		StartTime:  time.Now().UTC(),
		TLSVersion: tlsx.VersionUnknown,
	}
	begin := time.Now()
	defer func() {
		result.Runtime = time.Since(begin).Seconds()
	}()
	r.logger.Infof("check %s {sni=%s}", result.Endpoint, r.serverName())

	transport, err := netx.Connect(ctx, &netx.Config{
		Dialer:   r.config.Dialer,
		Logger:   r.config.Logger,
		Proxy:    r.config.Proxy,
		Resolver: r.config.Resolver,
	}, r.config.Endpoint)
	if err != nil {
		result.fail(StageConnect, err)
		return result
	}

	session := tlsx.NewSession(&tlsx.Config{
		ServerName:         r.serverName(),
		InsecureSkipVerify: r.config.InsecureSkipVerify,
		RootCAs:            r.config.RootCAs,
		MinVersion:         r.config.MinVersion,
		HandshakeTimeout:   r.config.HandshakeTimeout,
		AcceptAbruptClose:  r.config.AcceptAbruptClose,
		Logger:             r.config.Logger,
	})
	defer session.Shutdown()

	handshakeBegin := time.Now()
	if err := session.Establish(ctx, transport); err != nil {
		result.fail(StageHandshake, err)
		return result
	}
	result.HandshakeTime = time.Since(handshakeBegin).Seconds()
	result.TLSVersion = session.NegotiatedVersion()
	r.logger.Infof("handshake ok {version=%s}", result.TLSVersion)

	if err := session.WriteAll(NewRequest(r.serverName())); err != nil {
		result.fail(StageWrite, err)
		return result
	}

	rawResponse, err := session.ReadToClose(r.maxBodySize())
	if err != nil {
		result.fail(StageRead, err)
		return result
	}
	result.Body = rawResponse
	result.BodyLength = len(rawResponse)

	if !acceptableResponse(rawResponse) {
		result.FailedStage = StageResponse
		result.Failure = FailureUnexpectedResponse
		result.Preview = makePreview(rawResponse)
		return result
	}
	if !looksLikeHTML(rawResponse) {
		r.logger.Warnf("check: accepted the response status but the body does not look like HTML")
	}
	result.Success = true
	return result
}
