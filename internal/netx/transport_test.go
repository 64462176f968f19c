package netx

import (
	"errors"
	"net"
	"testing"

	"github.com/probekit/tlscheck/internal/errorx"
	"github.com/probekit/tlscheck/internal/mocks"
	"github.com/probekit/tlscheck/internal/model"
)

func TestNewTransport(t *testing.T) {
	t.Run("panics with a nil conn", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("did not panic")
			}
		}()
		NewTransport(model.DiscardLogger, nil)
	})
}

func TestTransportConsume(t *testing.T) {
	t.Run("returns the conn on first call", func(t *testing.T) {
		underlying := &mocks.Conn{}
		txp := NewTransport(model.DiscardLogger, underlying)
		conn, err := txp.Consume()
		if err != nil {
			t.Fatal(err)
		}
		if conn != underlying {
			t.Fatal("not the conn we expected")
		}
	})

	t.Run("fails on the second call", func(t *testing.T) {
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{})
		if _, err := txp.Consume(); err != nil {
			t.Fatal(err)
		}
		conn, err := txp.Consume()
		if !errors.Is(err, ErrTransportConsumed) {
			t.Fatal("not the error we expected", err)
		}
		if conn != nil {
			t.Fatal("expected nil conn")
		}
	})

	t.Run("fails after Close", func(t *testing.T) {
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{
			MockClose: func() error {
				return nil
			},
		})
		if err := txp.Close(); err != nil {
			t.Fatal(err)
		}
		if _, err := txp.Consume(); !errors.Is(err, ErrTransportClosed) {
			t.Fatal("not the error we expected", err)
		}
	})
}

func TestTransportClose(t *testing.T) {
	t.Run("closes the conn exactly once", func(t *testing.T) {
		var closeCount int
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{
			MockClose: func() error {
				closeCount++
				return nil
			},
		})
		if err := txp.Close(); err != nil {
			t.Fatal(err)
		}
		if err := txp.Close(); !errors.Is(err, ErrTransportClosed) {
			t.Fatal("not the error we expected", err)
		}
		if closeCount != 1 {
			t.Fatal("unexpected number of Close calls", closeCount)
		}
	})

	t.Run("fails after Consume without touching the conn", func(t *testing.T) {
		var closeCount int
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{
			MockClose: func() error {
				closeCount++
				return nil
			},
		})
		if _, err := txp.Consume(); err != nil {
			t.Fatal(err)
		}
		if err := txp.Close(); !errors.Is(err, ErrTransportConsumed) {
			t.Fatal("not the error we expected", err)
		}
		if closeCount != 0 {
			t.Fatal("Close should not touch a consumed conn")
		}
	})

	t.Run("wraps the close error", func(t *testing.T) {
		expected := errors.New("mocked error")
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{
			MockClose: func() error {
				return expected
			},
		})
		err := txp.Close()
		if !errors.Is(err, expected) {
			t.Fatal("not the error we expected", err)
		}
		var wrapper *errorx.ErrWrapper
		if !errors.As(err, &wrapper) {
			t.Fatal("expected an ErrWrapper")
		}
		if wrapper.Operation != errorx.CloseOperation {
			t.Fatal("unexpected operation", wrapper.Operation)
		}
	})
}

func TestTransportRemoteAddr(t *testing.T) {
	t.Run("with a live conn", func(t *testing.T) {
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{
			MockRemoteAddr: func() net.Addr {
				return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 443}
			},
		})
		if addr := txp.RemoteAddr(); addr != "127.0.0.1:443" {
			t.Fatal("unexpected address", addr)
		}
	})

	t.Run("after Consume", func(t *testing.T) {
		txp := NewTransport(model.DiscardLogger, &mocks.Conn{})
		if _, err := txp.Consume(); err != nil {
			t.Fatal(err)
		}
		if addr := txp.RemoteAddr(); addr != "" {
			t.Fatal("expected empty address", addr)
		}
	})
}
