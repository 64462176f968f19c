// Package testingx contains code for creating loopback test servers
// exercising the network paths of the checker. This package never
// uses other packages in this repository except runtimex, so we can
// use it to test every other package.
package testingx

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/probekit/tlscheck/internal/runtimex"
)

// TLSHandler handles TLS connections. A handler first handles the
// TLS handshake in the GetCertificate method. If GetCertificate did
// not return an error, and the handler implements [TLSConnHandler],
// its HandleTLSConn method will be called after the handshake to
// handle the lifecycle of the TLS conn itself.
type TLSHandler interface {
	// GetCertificate handles the TLS handshake.
	GetCertificate(ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error)
}

// TLSConn is the interface assumed by an established TLS conn.
type TLSConn interface {
	ConnectionState() tls.ConnectionState
	net.Conn
}

// TLSConnHandler is the interface implemented by handlers that want
// to manage the established TLS connection after the handshake.
type TLSConnHandler interface {
	HandleTLSConn(conn TLSConn)
}

// TLSServer is a TLS server useful to implement test servers.
type TLSServer struct {
	// cancel unblocks goroutines blocked on the lifecycle context.
	cancel context.CancelFunc

	// closeOnce provides "once" semantics when closing.
	closeOnce sync.Once

	// endpoint is the endpoint where we're listening.
	endpoint string

	// handler contains the TLSHandler.
	handler TLSHandler

	// listener is the listening socket controller.
	listener net.Listener

	// wg waits until the listening loop has finished running.
	wg sync.WaitGroup
}

// MustNewTLSServer creates and starts a new TLSServer listening on
// localhost that invokes the given handler during the TLS handshake.
func MustNewTLSServer(handler TLSHandler) *TLSServer {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	runtimex.PanicOnError(err, "net.Listen failed")

	ctx, cancel := context.WithCancel(context.Background())
	srv := &TLSServer{
		cancel:    cancel,
		closeOnce: sync.Once{},
		endpoint:  listener.Addr().String(),
		handler:   handler,
		listener:  listener,
		wg:        sync.WaitGroup{},
	}

	srv.wg.Add(1)
	go srv.mainloop(ctx)

	return srv
}

// Endpoint returns the endpoint where the server is listening.
func (p *TLSServer) Endpoint() string {
	return p.endpoint
}

// Close closes this server as soon as possible.
func (p *TLSServer) Close() (err error) {
	p.closeOnce.Do(func() {
		err = p.listener.Close()
		p.cancel()
		p.wg.Wait()
	})
	return
}

func (p *TLSServer) mainloop(ctx context.Context) {
	defer p.wg.Done()

	for {
		conn, err := p.listener.Accept()
		if err != nil {
			// the listener is closed, we're done
			return
		}

		// a goroutine per connection is overkill in general but
		// reasonable for a server designed for testing
		go p.handle(ctx, conn)
	}
}

func (p *TLSServer) handle(ctx context.Context, tcpConn net.Conn) {
	// eventually close the TCP connection
	defer tcpConn.Close()

	// create TLS configuration where the handler is responsible
	// for continuing the handshake
	tlsConfig := &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			return p.handler.GetCertificate(ctx, tcpConn, chi)
		},
	}

	// create TLS connection and perform the handshake
	tlsConn := tls.Server(tcpConn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		return
	}

	// eventually close the connection, which sends the close_notify
	// a well behaved client is waiting for
	defer tlsConn.Close()

	// optionally let the handler handle the connection
	if h, good := p.handler.(TLSConnHandler); good {
		h.HandleTLSConn(tlsConn)
	}
}

// TLSHandlerCertificate returns a [TLSHandler] that completes the
// handshake using the given certificate and then closes the
// connection right away without writing anything.
func TLSHandlerCertificate(cert tls.Certificate) TLSHandler {
	return &tlsHandlerCertificate{cert}
}

type tlsHandlerCertificate struct {
	cert tls.Certificate
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerCertificate) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return &thx.cert, nil
}

// TLSHandlerWriteText returns a [TLSHandler] that completes the
// handshake using the given certificate, writes the given text, and
// then closes the connection gracefully.
func TLSHandlerWriteText(cert tls.Certificate, text []byte) TLSHandler {
	return &tlsHandlerWriteText{cert: cert, text: text}
}

var _ TLSConnHandler = &tlsHandlerWriteText{}

type tlsHandlerWriteText struct {
	cert tls.Certificate
	text []byte
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerWriteText) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	return &thx.cert, nil
}

// HandleTLSConn implements TLSConnHandler.
func (thx *tlsHandlerWriteText) HandleTLSConn(conn TLSConn) {
	_, _ = conn.Write(thx.text)
	// the server closes the connection for us and that close is the
	// graceful one because we have an established TLS conn
}

// TLSHandlerAbruptCloseAfterText returns a [TLSHandler] that writes
// the given text after the handshake and then closes the underlying
// TCP connection without sending any close_notify.
func TLSHandlerAbruptCloseAfterText(cert tls.Certificate, text []byte) TLSHandler {
	return &tlsHandlerAbruptClose{cert: cert, text: text}
}

var _ TLSConnHandler = &tlsHandlerAbruptClose{}

type tlsHandlerAbruptClose struct {
	cert    tls.Certificate
	text    []byte
	tcpConn net.Conn
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerAbruptClose) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	thx.tcpConn = tcpConn
	return &thx.cert, nil
}

// HandleTLSConn implements TLSConnHandler.
func (thx *tlsHandlerAbruptClose) HandleTLSConn(conn TLSConn) {
	_, _ = conn.Write(thx.text)
	_ = thx.tcpConn.Close() // no close_notify reaches the client
}

// TLSHandlerTimeout returns a [TLSHandler] that reads data and never
// writes, eventually causing the client connection to timeout.
func TLSHandlerTimeout() TLSHandler {
	return &tlsHandlerTimeout{
		timeout: 300 * time.Second,
	}
}

type tlsHandlerTimeout struct {
	timeout time.Duration
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerTimeout) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	defer tcpConn.Close() // one way or another we want to close the TCP conn in the middle of the handshake
	select {
	case <-time.After(thx.timeout):
		return nil, errors.New("internal error")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const (
	// TLSAlertInternalError is the alert sent on internal errors.
	TLSAlertInternalError = byte(80)

	// TLSAlertUnrecognizedName is the alert sent when the name is
	// not recognized.
	TLSAlertUnrecognizedName = byte(112)
)

// TLSHandlerSendAlert returns a [TLSHandler] sending the alert given
// as argument to the client.
func TLSHandlerSendAlert(alert byte) TLSHandler {
	return &tlsHandlerSendAlert{alert}
}

type tlsHandlerSendAlert struct {
	alert byte
}

// GetCertificate implements TLSHandler.
func (thx *tlsHandlerSendAlert) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	alertdata := []byte{
		21, // alert
		3,  // version[0]
		3,  // version[1]
		0,  // length[0]
		2,  // length[1]
		2,  // fatal
		thx.alert,
	}
	_, _ = tcpConn.Write(alertdata)
	_ = tcpConn.Close() // close connection to avoid the caller trying to send another alert
	return nil, errors.New("internal error")
}

// TLSHandlerEOF returns a [TLSHandler] that closes the connection
// during the handshake.
func TLSHandlerEOF() TLSHandler {
	return &tlsHandlerEOF{}
}

type tlsHandlerEOF struct{}

// GetCertificate implements TLSHandler.
func (*tlsHandlerEOF) GetCertificate(
	ctx context.Context, tcpConn net.Conn, chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
	tcpConn.Close() // close the TCP connection to force EOF during the handshake
	return nil, errors.New("internal error")
}
