// Package tlsx implements the TLS session used by the checker: one
// encrypted channel over a Transport with an explicit lifecycle.
//
// A Session starts unestablished, performs the handshake during
// Establish, and is then established until Shutdown closes it. A
// failure before establishment moves the session into the terminal
// failed state. Establish consumes the Transport: from that moment
// the session is the sole owner of the underlying socket and the
// only component allowed to release it.
//
// WriteAll and ReadToClose implement the loop-until-done contracts
// over the partial-transfer primitives of the underlying connection:
// WriteAll retries short writes until the whole buffer is out, and
// ReadToClose accumulates reads until the peer closes the stream or
// a size bound is reached.
package tlsx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/model"
	"github.com/probekit/tlscheck/internal/netx"
	"github.com/probekit/tlscheck/internal/runtimex"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateUnestablished is the state of a new Session.
	StateUnestablished = State(iota)

	// StateHandshaking is the state while Establish is running.
	StateHandshaking

	// StateEstablished is the state after a successful handshake.
	StateEstablished

	// StateClosed is the state after Shutdown.
	StateClosed

	// StateFailed is the terminal state of a Session whose
	// establishment failed.
	StateFailed
)

var stateNames = map[State]string{
	StateUnestablished: "unestablished",
	StateHandshaking:   "handshaking",
	StateEstablished:   "established",
	StateClosed:        "closed",
	StateFailed:        "failed",
}

// String returns the name of the state.
func (s State) String() string {
	if name, found := stateNames[s]; found {
		return name
	}
	return fmt.Sprintf("invalid_state_%d", int(s))
}

// StateError indicates that an operation was invoked with the
// Session in the wrong lifecycle state. This is a contract violation
// by the caller: the operation did not touch the network.
type StateError struct {
	// Op is the rejected operation.
	Op string

	// State is the state in which we rejected it.
	State State
}

// Error implements error.
func (e *StateError) Error() string {
	return fmt.Sprintf("session: %s invoked in state %s", e.Op, e.State)
}

// TLSConn is the connection type created by the handshake. The
// stdlib's tls.Conn implements this interface.
type TLSConn interface {
	net.Conn

	// ConnectionState returns the TLS connection state.
	ConnectionState() tls.ConnectionState

	// HandshakeContext performs the handshake using the given context.
	HandshakeContext(ctx context.Context) error
}

// Ensures that a tls.Conn implements the TLSConn interface.
var _ TLSConn = &tls.Conn{}

// Config contains the session configuration. The only mandatory
// field is ServerName.
type Config struct {
	// ServerName is the MANDATORY name we send using SNI and verify
	// the peer certificate against.
	ServerName string

	// InsecureSkipVerify OPTIONALLY disables certificate
	// verification. Only useful as a diagnostic escape hatch.
	InsecureSkipVerify bool

	// RootCAs OPTIONALLY overrides the trust anchors used to verify
	// the peer certificate. When nil, we use the system's anchors.
	RootCAs *x509.CertPool

	// MinVersion OPTIONALLY raises the minimum acceptable protocol
	// version. When zero, we accept whatever crypto/tls accepts.
	MinVersion uint16

	// HandshakeTimeout OPTIONALLY bounds the handshake. When zero
	// or negative, we use a default timeout of 10 seconds.
	HandshakeTimeout time.Duration

	// AcceptAbruptClose OPTIONALLY makes ReadToClose treat an
	// abrupt close occurring after at least one byte of response as
	// an end of stream rather than as an error.
	AcceptAbruptClose bool

	// Logger is the OPTIONAL logger to use.
	Logger model.Logger

	// NewConn is the OPTIONAL factory creating the TLS client
	// connection. When nil, we use the stdlib's tls.Client.
	NewConn func(conn net.Conn, config *tls.Config) (TLSConn, error)
}

// Session is a single TLS session over a Transport. The zero value
// is invalid; use NewSession to construct. A Session is not safe for
// concurrent use: the checker runs strictly sequential, blocking I/O
// and there is exactly one session per run.
type Session struct {
	config *Config
	conn   TLSConn
	logger model.Logger
	state  State
}

// NewSession creates a Session in the unestablished state. This
// function panics when passed a nil config.
func NewSession(config *Config) *Session {
	runtimex.PanicIfTrue(config == nil, "tlsx: NewSession passed a nil config")
	return &Session{
		config: config,
		conn:   nil,
		logger: model.ValidLoggerOrDefault(config.Logger),
		state:  StateUnestablished,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Establish consumes the transport and runs the TLS handshake over
// its socket. Consuming is a one-way ownership transfer: from here
// on the session is responsible for closing the socket, and it does
// so before returning when any step fails. On success the session
// becomes established; on failure it moves into the terminal failed
// state and the returned error is an *errorx.ErrWrapper.
func (s *Session) Establish(ctx context.Context, transport *netx.Transport) error {
	if s.state != StateUnestablished {
		return &StateError{Op: "establish", State: s.state}
	}
	conn, err := transport.Consume()
	if err != nil {
		s.state = StateFailed
		return err
	}
	s.state = StateHandshaking
	tlsconn, err := s.handshake(ctx, conn)
	if err != nil {
		conn.Close() // the socket is ours now, release it
		s.state = StateFailed
		return err
	}
	s.conn = tlsconn
	s.state = StateEstablished
	return nil
}

// handshake creates the TLS connection and runs the handshake,
// wrapping any failure.
func (s *Session) handshake(ctx context.Context, conn net.Conn) (TLSConn, error) {
	config := &tls.Config{
		ServerName:         s.config.ServerName,
		RootCAs:            s.config.RootCAs,
		InsecureSkipVerify: s.config.InsecureSkipVerify,
		MinVersion:         s.config.MinVersion,
		NextProtos:         []string{"http/1.1"},
	}
	prefix := fmt.Sprintf("tls {sni=%s next=%+v}", config.ServerName, config.NextProtos)
	s.logger.Debugf("%s...", prefix)
	start := time.Now()
	tlsconn, err := s.do(ctx, conn, config)
	elapsed := time.Since(start)
	if err != nil {
		s.logger.Debugf("%s... %s in %s", prefix, err, elapsed)
		return nil, errorx.NewErrWrapper(
			errorx.ClassifyTLSHandshakeError, errorx.TLSHandshakeOperation, err)
	}
	state := tlsconn.ConnectionState()
	s.logger.Debugf("%s... ok in %s {v=%s cipher=%s next=%s}",
		prefix, elapsed, VersionString(state.Version),
		tls.CipherSuiteName(state.CipherSuite), state.NegotiatedProtocol)
	return tlsconn, nil
}

// do creates the connection and performs the handshake proper. We
// bound the handshake with a deadline and remove the deadline before
// returning, so that established sessions use plain blocking I/O.
func (s *Session) do(ctx context.Context, conn net.Conn, config *tls.Config) (TLSConn, error) {
	timeout := s.config.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	defer conn.SetDeadline(time.Time{})
	conn.SetDeadline(time.Now().Add(timeout))
	tlsconn, err := s.newConn(conn, config)
	if err != nil {
		return nil, err
	}
	if err := tlsconn.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return tlsconn, nil
}

// newConn creates a new TLSConn.
func (s *Session) newConn(conn net.Conn, config *tls.Config) (TLSConn, error) {
	if s.config.NewConn != nil {
		return s.config.NewConn(conn, config)
	}
	return tls.Client(conn, config), nil
}

// NegotiatedVersion returns the protocol version agreed during the
// handshake (e.g., "TLSv1.3"). This method never fails: before the
// handshake, and whenever the underlying library reports a version
// we cannot map, it returns the VersionUnknown sentinel. Version
// reporting is diagnostic, not load bearing.
func (s *Session) NegotiatedVersion() string {
	if s.conn == nil {
		return VersionUnknown
	}
	return VersionString(s.conn.ConnectionState().Version)
}

// ErrWriteNoProgress indicates that Write returned zero bytes
// written together with a nil error. We treat this as fatal rather
// than spinning on a channel that claims readiness but moves no
// bytes.
var ErrWriteNoProgress = errors.New("session: write made no progress")

// WriteAll writes all of data to the session. A single Write may
// transfer fewer bytes than requested, so we loop until every byte
// has been written. The contract only succeeds when the cumulative
// number of bytes transferred equals len(data).
func (s *Session) WriteAll(data []byte) error {
	if s.state != StateEstablished {
		return &StateError{Op: "write", State: s.state}
	}
	s.logger.Debugf("session: write %d bytes...", len(data))
	for len(data) > 0 {
		count, err := s.conn.Write(data)
		if err != nil {
			s.logger.Debugf("session: write... %s", err)
			return errorx.NewErrWrapper(
				errorx.ClassifyGenericError, errorx.WriteOperation, err)
		}
		if count <= 0 {
			s.logger.Debugf("session: write... no progress")
			return errorx.NewErrWrapper(
				errorx.ClassifyGenericError, errorx.WriteOperation, ErrWriteNoProgress)
		}
		data = data[count:]
	}
	s.logger.Debugf("session: write... ok")
	return nil
}

// ReadToClose reads from the session until the peer closes the
// stream or we have accumulated maxBytes bytes. Reaching the size
// bound is not an error: we stop reading early and return the capped
// buffer. A graceful close yields whatever bytes arrived before it,
// possibly none. Any other error is fatal when it occurs before the
// first byte; after at least one byte, the AcceptAbruptClose policy
// decides whether we treat it as an end of stream.
func (s *Session) ReadToClose(maxBytes int64) ([]byte, error) {
	if s.state != StateEstablished {
		return nil, &StateError{Op: "read", State: s.state}
	}
	s.logger.Debugf("session: read until close {max=%d}...", maxBytes)
	buffer := make([]byte, 1<<13)
	var resp []byte
	for int64(len(resp)) < maxBytes {
		count, err := s.conn.Read(buffer)
		if count > 0 {
			if remain := maxBytes - int64(len(resp)); int64(count) > remain {
				count = int(remain)
			}
			resp = append(resp, buffer[:count]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break // the peer closed the stream
			}
			if len(resp) > 0 && s.config.AcceptAbruptClose {
				s.logger.Warnf(
					"session: treating %q after %d bytes as end of stream", err, len(resp))
				break
			}
			s.logger.Debugf("session: read... %s", err)
			return nil, errorx.NewErrWrapper(
				errorx.ClassifyGenericError, errorx.ReadOperation, err)
		}
	}
	s.logger.Debugf("session: read... ok {bytes=%d}", len(resp))
	return resp, nil
}

// Shutdown releases the session and, transitively, the socket bound
// by Establish. Shutdown is idempotent: the second and further calls
// do nothing. Calling Shutdown before Establish is also permitted
// and marks the session closed without touching the network, since
// there is no socket to release yet.
func (s *Session) Shutdown() {
	if s.state == StateEstablished {
		err := s.conn.Close()
		s.logger.Debugf("session: close... %s", model.ErrorToStringOrOK(err))
	}
	if s.state != StateFailed {
		s.state = StateClosed
	}
}
