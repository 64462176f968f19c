package netx

import (
	"errors"
	"net"
	"sync"

	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/model"
)

// Transport owns a single connected socket. The zero value is
// invalid; use Connect or NewTransport to construct one.
//
// A Transport has exactly one owner at any given time. When a TLS
// session binds the Transport, ownership of the socket moves into the
// session and the Transport becomes consumed: from that point on the
// session is responsible for closing the socket and any further
// Transport operation fails with ErrTransportConsumed. A Transport
// that is never bound must be released by calling Close exactly once.
type Transport struct {
	// conn is the underlying connection.
	conn net.Conn

	// consumed indicates that ownership has moved elsewhere.
	consumed bool

	// closed indicates that Close has been called.
	closed bool

	// logger is the logger to use.
	logger model.Logger

	// mu protects consumed and closed.
	mu sync.Mutex
}

// ErrTransportConsumed indicates that the Transport's socket
// ownership has already moved into a TLS session.
var ErrTransportConsumed = errors.New("netx: transport already consumed")

// ErrTransportClosed indicates that the Transport has already
// been closed.
var ErrTransportClosed = errors.New("netx: transport already closed")

// NewTransport creates a Transport owning the given conn. This
// function panics if conn is nil.
func NewTransport(logger model.Logger, conn net.Conn) *Transport {
	if conn == nil {
		panic("netx: NewTransport passed a nil conn")
	}
	return &Transport{
		conn:   conn,
		logger: model.ValidLoggerOrDefault(logger),
	}
}

// Consume moves the socket out of the Transport and returns it. After
// this call the caller owns the socket and is responsible for closing
// it. Calling Consume or Close afterwards fails with
// ErrTransportConsumed.
func (t *Transport) Consume() (net.Conn, error) {
	defer t.mu.Unlock()
	t.mu.Lock()
	if t.consumed {
		return nil, ErrTransportConsumed
	}
	if t.closed {
		return nil, ErrTransportClosed
	}
	t.consumed = true
	return t.conn, nil
}

// Close releases the socket owned by the Transport. Closing a
// consumed Transport is a programming error that yields
// ErrTransportConsumed: the session owns the socket now. Closing
// twice yields ErrTransportClosed.
func (t *Transport) Close() error {
	defer t.mu.Unlock()
	t.mu.Lock()
	if t.consumed {
		return ErrTransportConsumed
	}
	if t.closed {
		return ErrTransportClosed
	}
	t.closed = true
	err := t.conn.Close()
	t.logger.Debugf("transport: close... %s", model.ErrorToStringOrOK(err))
	return errorx.MaybeNewErrWrapper(errorx.ClassifyGenericError, errorx.CloseOperation, err)
}

// RemoteAddr returns the string representation of the remote
// address, or an empty string after the socket has moved.
func (t *Transport) RemoteAddr() string {
	defer t.mu.Unlock()
	t.mu.Lock()
	if t.consumed || t.closed {
		return ""
	}
	return t.conn.RemoteAddr().String()
}
