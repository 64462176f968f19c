package check

//
// Request
//

import (
	"fmt"

	"github.com/probekit/tlscheck/internal/version"
)

// requestTemplate is the request we send once the session is
// established. The only variable part is the Host header: we always
// ask for "/" over HTTP/1.1 and tell the server to close the
// connection after responding, so that reading until close yields
// exactly one response.
const requestTemplate = "GET / HTTP/1.1\r\n" +
	"Host: %s\r\n" +
	"User-Agent: tlscheck/%s\r\n" +
	"Accept: text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8\r\n" +
	"Accept-Language: en-US,en;q=0.5\r\n" +
	"Connection: close\r\n" +
	"\r\n"

// NewRequest formats the fixed diagnostic request for the given host.
func NewRequest(host string) []byte {
	return []byte(fmt.Sprintf(requestTemplate, host, version.Version))
}
