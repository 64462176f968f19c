package netx

import (
	"errors"
	"net"
	"strconv"
)

// Endpoint is a remote TCP endpoint to which we connect. The Host is
// either a domain name or an IP address and the Port is the string
// representation of the port number. An Endpoint is immutable once
// constructed.
type Endpoint struct {
	// Host is the endpoint hostname or IP address.
	Host string

	// Port is the endpoint port.
	Port string
}

// ErrInvalidEndpoint indicates that we could not parse the
// given endpoint string.
var ErrInvalidEndpoint = errors.New("netx: invalid endpoint")

// ParseEndpoint parses a "host:port" string into an Endpoint. The
// port must be a valid port number. We accept both "host:port" and
// "[host]:port" for IPv6 addresses.
func ParseEndpoint(address string) (*Endpoint, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, ErrInvalidEndpoint
	}
	if host == "" {
		return nil, ErrInvalidEndpoint
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return nil, ErrInvalidEndpoint
	}
	return &Endpoint{Host: host, Port: port}, nil
}

// String returns the endpoint as a dialable "host:port" string.
func (e *Endpoint) String() string {
	return net.JoinHostPort(e.Host, e.Port)
}
