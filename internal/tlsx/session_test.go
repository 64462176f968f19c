package tlsx

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/mocks"
	"github.com/probekit/tlscheck/internal/model"
	"github.com/probekit/tlscheck/internal/netx"
)

// Ensures the mock satisfies the interface used by the session.
var _ TLSConn = &mocks.TLSConn{}

// newTransportForTesting creates a Transport wrapping a mocked conn
// that counts how many times it has been closed.
func newTransportForTesting(closeCount *int) *netx.Transport {
	return netx.NewTransport(model.DiscardLogger, &mocks.Conn{
		MockSetDeadline: func(t time.Time) error {
			return nil
		},
		MockClose: func() error {
			*closeCount++
			return nil
		},
	})
}

// newEstablishedSession creates a session established over the given
// TLS conn. The handshake itself is mocked out.
func newEstablishedSession(t *testing.T, config *Config, tlsconn *mocks.TLSConn) *Session {
	t.Helper()
	tlsconn.MockHandshakeContext = func(ctx context.Context) error {
		return nil
	}
	tlsconn.MockConnectionState = func() tls.ConnectionState {
		return tls.ConnectionState{
			Version:            tls.VersionTLS13,
			CipherSuite:        tls.TLS_AES_128_GCM_SHA256,
			NegotiatedProtocol: "http/1.1",
		}
	}
	config.NewConn = func(conn net.Conn, config *tls.Config) (TLSConn, error) {
		return tlsconn, nil
	}
	if config.Logger == nil {
		config.Logger = model.DiscardLogger
	}
	session := NewSession(config)
	var closeCount int
	if err := session.Establish(context.Background(), newTransportForTesting(&closeCount)); err != nil {
		t.Fatal(err)
	}
	return session
}

func TestNewSession(t *testing.T) {
	t.Run("with a nil config", func(t *testing.T) {
		var recovered bool
		func() {
			defer func() {
				if recover() != nil {
					recovered = true
				}
			}()
			NewSession(nil)
		}()
		if !recovered {
			t.Fatal("expected a panic here")
		}
	})

	t.Run("starts in the unestablished state", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		if session.State() != StateUnestablished {
			t.Fatal("unexpected state", session.State())
		}
		if session.NegotiatedVersion() != VersionUnknown {
			t.Fatal("unexpected version", session.NegotiatedVersion())
		}
	})
}

func TestSessionEstablish(t *testing.T) {
	t.Run("on success", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return nil
			},
			MockConnectionState: func() tls.ConnectionState {
				return tls.ConnectionState{
					Version:            tls.VersionTLS13,
					CipherSuite:        tls.TLS_AES_128_GCM_SHA256,
					NegotiatedProtocol: "http/1.1",
				}
			},
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return tlsconn, nil
			},
		})
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		if err != nil {
			t.Fatal(err)
		}
		if session.State() != StateEstablished {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 0 {
			t.Fatal("the socket should still be open")
		}
		if session.NegotiatedVersion() != "TLSv1.3" {
			t.Fatal("unexpected version", session.NegotiatedVersion())
		}
	})

	t.Run("passes the server name and minimum version to the config", func(t *testing.T) {
		var seen *tls.Config
		tlsconn := &mocks.TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return nil
			},
			MockConnectionState: func() tls.ConnectionState {
				return tls.ConnectionState{Version: tls.VersionTLS12}
			},
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			MinVersion: tls.VersionTLS12,
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				seen = config
				return tlsconn, nil
			},
		})
		var closeCount int
		if err := session.Establish(context.Background(), newTransportForTesting(&closeCount)); err != nil {
			t.Fatal(err)
		}
		if seen.ServerName != "www.example.com" {
			t.Fatal("unexpected ServerName", seen.ServerName)
		}
		if seen.MinVersion != tls.VersionTLS12 {
			t.Fatal("unexpected MinVersion", seen.MinVersion)
		}
	})

	t.Run("with a handshake failure", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return errors.New("remote error: tls: handshake failure")
			},
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return tlsconn, nil
			},
		})
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper", err)
		}
		if wrapper.Failure != errorx.FailureSSLFailedHandshake {
			t.Fatal("unexpected failure", wrapper.Failure)
		}
		if wrapper.Operation != errorx.TLSHandshakeOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
		if session.State() != StateFailed {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 1 {
			t.Fatal("the socket was not released exactly once", closeCount)
		}
	})

	t.Run("with a certificate verification failure", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return x509.UnknownAuthorityError{}
			},
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return tlsconn, nil
			},
		})
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		if err == nil || err.Error() != errorx.FailureSSLUnknownAuthority {
			t.Fatal("not the error we expected", err)
		}
		if session.State() != StateFailed {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 1 {
			t.Fatal("the socket was not released exactly once", closeCount)
		}
	})

	t.Run("with a factory failure", func(t *testing.T) {
		expected := errors.New("mocked error")
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return nil, expected
			},
		})
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		if session.State() != StateFailed {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 1 {
			t.Fatal("the socket was not released exactly once", closeCount)
		}
	})

	t.Run("with an already consumed transport", func(t *testing.T) {
		var closeCount int
		transport := newTransportForTesting(&closeCount)
		if _, err := transport.Consume(); err != nil {
			t.Fatal(err)
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		err := session.Establish(context.Background(), transport)
		if !errors.Is(err, netx.ErrTransportConsumed) {
			t.Fatal("not the error we expected", err)
		}
		if session.State() != StateFailed {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 0 {
			t.Fatal("nothing should have closed the socket", closeCount)
		}
	})

	t.Run("when already established", func(t *testing.T) {
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, &mocks.TLSConn{})
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if stateErr.Op != "establish" || stateErr.State != StateEstablished {
			t.Fatal("unexpected StateError", stateErr)
		}
	})

	t.Run("after shutdown", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		session.Shutdown()
		var closeCount int
		err := session.Establish(context.Background(), newTransportForTesting(&closeCount))
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if stateErr.State != StateClosed {
			t.Fatal("unexpected StateError state", stateErr.State)
		}
	})

	t.Run("sets and then clears the handshake deadline", func(t *testing.T) {
		var deadlines []time.Time
		conn := &mocks.Conn{
			MockSetDeadline: func(t time.Time) error {
				deadlines = append(deadlines, t)
				return nil
			},
		}
		tlsconn := &mocks.TLSConn{
			MockHandshakeContext: func(ctx context.Context) error {
				return nil
			},
			MockConnectionState: func() tls.ConnectionState {
				return tls.ConnectionState{Version: tls.VersionTLS13}
			},
		}
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return tlsconn, nil
			},
		})
		transport := netx.NewTransport(model.DiscardLogger, conn)
		if err := session.Establish(context.Background(), transport); err != nil {
			t.Fatal(err)
		}
		if len(deadlines) != 2 {
			t.Fatal("unexpected number of SetDeadline calls", len(deadlines))
		}
		if deadlines[0].IsZero() {
			t.Fatal("the first deadline should not be zero")
		}
		if !deadlines[1].IsZero() {
			t.Fatal("the second deadline should be zero")
		}
	})
}

func TestSessionNegotiatedVersion(t *testing.T) {
	t.Run("with a version we can map", func(t *testing.T) {
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, &mocks.TLSConn{})
		// the helper establishes with TLSv1.3
		if v := session.NegotiatedVersion(); v != "TLSv1.3" {
			t.Fatal("unexpected version", v)
		}
	})

	t.Run("with a version we cannot map", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		tlsconn.MockConnectionState = func() tls.ConnectionState {
			return tls.ConnectionState{Version: 0x0bad}
		}
		if v := session.NegotiatedVersion(); v != VersionUnknown {
			t.Fatal("unexpected version", v)
		}
	})

	t.Run("before establishment", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		if v := session.NegotiatedVersion(); v != VersionUnknown {
			t.Fatal("unexpected version", v)
		}
	})
}

func TestSessionWriteAll(t *testing.T) {
	t.Run("with partial writes", func(t *testing.T) {
		var written []byte
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockWrite: func(b []byte) (int, error) {
					// accept at most seven bytes per call to
					// exercise the accumulation loop
					count := len(b)
					if count > 7 {
						count = 7
					}
					written = append(written, b[:count]...)
					return count, nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data := make([]byte, 100)
		for idx := range data {
			data[idx] = byte(idx)
		}
		if err := session.WriteAll(data); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(data, written); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("with a write error", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockWrite: func(b []byte) (int, error) {
					return 0, syscall.ECONNRESET
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		err := session.WriteAll([]byte("GET / HTTP/1.1\r\n"))
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper", err)
		}
		if wrapper.Failure != errorx.FailureConnectionReset {
			t.Fatal("unexpected failure", wrapper.Failure)
		}
		if wrapper.Operation != errorx.WriteOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
	})

	t.Run("with a write that makes no progress", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockWrite: func(b []byte) (int, error) {
					return 0, nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		err := session.WriteAll([]byte("antani"))
		if !errors.Is(err, ErrWriteNoProgress) {
			t.Fatal("not the error we expected", err)
		}
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper", err)
		}
		if wrapper.Operation != errorx.WriteOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
	})

	t.Run("before establishment", func(t *testing.T) {
		var called bool
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				called = true
				return nil, errors.New("we should not get here")
			},
		})
		err := session.WriteAll([]byte("antani"))
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if stateErr.Op != "write" || stateErr.State != StateUnestablished {
			t.Fatal("unexpected StateError", stateErr)
		}
		if called {
			t.Fatal("we should not have touched the network")
		}
	})

	t.Run("after shutdown", func(t *testing.T) {
		var called bool
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockWrite: func(b []byte) (int, error) {
					called = true
					return len(b), nil
				},
				MockClose: func() error {
					return nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		session.Shutdown()
		err := session.WriteAll([]byte("antani"))
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if stateErr.State != StateClosed {
			t.Fatal("unexpected StateError state", stateErr.State)
		}
		if called {
			t.Fatal("we should not have touched the network")
		}
	})
}

func TestSessionReadToClose(t *testing.T) {
	t.Run("with a graceful close", func(t *testing.T) {
		chunks := [][]byte{
			[]byte("HTTP/1.1 200 OK\r\n"),
			[]byte("Connection: close\r\n\r\n"),
			[]byte("<!doctype html>"),
		}
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					if len(chunks) <= 0 {
						return 0, io.EOF
					}
					chunk := chunks[0]
					chunks = chunks[1:]
					return copy(b, chunk), nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		if err != nil {
			t.Fatal(err)
		}
		expected := "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n<!doctype html>"
		if string(data) != expected {
			t.Fatal("not the data we expected", string(data))
		}
	})

	t.Run("with data and EOF in the same read", func(t *testing.T) {
		var done bool
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					if done {
						return 0, io.EOF
					}
					done = true
					return copy(b, []byte("antani")), io.EOF
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "antani" {
			t.Fatal("not the data we expected", string(data))
		}
	})

	t.Run("with an empty response", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					return 0, io.EOF
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != 0 {
			t.Fatal("expected no data", len(data))
		}
	})

	t.Run("with a stream larger than the size bound", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					chunk := make([]byte, 1000)
					return copy(b, chunk), nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(2500)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) != 2500 {
			t.Fatal("capping should return exactly the size bound", len(data))
		}
	})

	t.Run("with a read error before any byte", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					return 0, syscall.ECONNRESET
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper", err)
		}
		if wrapper.Failure != errorx.FailureConnectionReset {
			t.Fatal("unexpected failure", wrapper.Failure)
		}
		if wrapper.Operation != errorx.ReadOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
		if data != nil {
			t.Fatal("expected nil data")
		}
	})

	t.Run("with an abrupt close after some bytes and tolerance enabled", func(t *testing.T) {
		var done bool
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					if done {
						return 0, io.ErrUnexpectedEOF
					}
					done = true
					return copy(b, []byte("HTTP/1.1 200 OK\r\n\r\nhello")), nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName:        "www.example.com",
			AcceptAbruptClose: true,
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "HTTP/1.1 200 OK\r\n\r\nhello" {
			t.Fatal("not the data we expected", string(data))
		}
	})

	t.Run("with an abrupt close after some bytes and tolerance disabled", func(t *testing.T) {
		var done bool
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					if done {
						return 0, io.ErrUnexpectedEOF
					}
					done = true
					return copy(b, []byte("hello")), nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		data, err := session.ReadToClose(10_000_000)
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper", err)
		}
		if wrapper.Operation != errorx.ReadOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
		if data != nil {
			t.Fatal("expected nil data")
		}
	})

	t.Run("before establishment", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		data, err := session.ReadToClose(10_000_000)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if stateErr.Op != "read" || stateErr.State != StateUnestablished {
			t.Fatal("unexpected StateError", stateErr)
		}
		if data != nil {
			t.Fatal("expected nil data")
		}
	})

	t.Run("after shutdown", func(t *testing.T) {
		var called bool
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockRead: func(b []byte) (int, error) {
					called = true
					return 0, io.EOF
				},
				MockClose: func() error {
					return nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		session.Shutdown()
		data, err := session.ReadToClose(10_000_000)
		var stateErr *StateError
		if !errors.As(err, &stateErr) {
			t.Fatal("expected a StateError", err)
		}
		if data != nil {
			t.Fatal("expected nil data")
		}
		if called {
			t.Fatal("we should not have touched the network")
		}
	})
}

func TestSessionShutdown(t *testing.T) {
	t.Run("releases the session exactly once", func(t *testing.T) {
		var closeCount int
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockClose: func() error {
					closeCount++
					return nil
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		session.Shutdown()
		session.Shutdown() // the second call must be a no-op
		if closeCount != 1 {
			t.Fatal("unexpected number of closes", closeCount)
		}
		if session.State() != StateClosed {
			t.Fatal("unexpected state", session.State())
		}
	})

	t.Run("tolerates a failing close", func(t *testing.T) {
		tlsconn := &mocks.TLSConn{
			Conn: mocks.Conn{
				MockClose: func() error {
					return errors.New("mocked error")
				},
			},
		}
		session := newEstablishedSession(t, &Config{
			ServerName: "www.example.com",
		}, tlsconn)
		session.Shutdown()
		if session.State() != StateClosed {
			t.Fatal("unexpected state", session.State())
		}
	})

	t.Run("before establishment", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
		})
		session.Shutdown()
		if session.State() != StateClosed {
			t.Fatal("unexpected state", session.State())
		}
	})

	t.Run("after a failed establishment", func(t *testing.T) {
		session := NewSession(&Config{
			ServerName: "www.example.com",
			Logger:     model.DiscardLogger,
			NewConn: func(conn net.Conn, config *tls.Config) (TLSConn, error) {
				return nil, errors.New("mocked error")
			},
		})
		var closeCount int
		if err := session.Establish(context.Background(), newTransportForTesting(&closeCount)); err == nil {
			t.Fatal("expected an error here")
		}
		session.Shutdown()
		if session.State() != StateFailed {
			t.Fatal("unexpected state", session.State())
		}
		if closeCount != 1 {
			t.Fatal("the socket was not released exactly once", closeCount)
		}
	})
}

func TestStateString(t *testing.T) {
	expectations := map[State]string{
		StateUnestablished: "unestablished",
		StateHandshaking:   "handshaking",
		StateEstablished:   "established",
		StateClosed:        "closed",
		StateFailed:        "failed",
		State(44):          "invalid_state_44",
	}
	for state, expect := range expectations {
		if state.String() != expect {
			t.Fatal("unexpected name for", int(state), state.String())
		}
	}
}
