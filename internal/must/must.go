// Package must contains functions that panic on error.
package must

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"os"

	"github.com/probekit/tlscheck/internal/runtimex"
)

// Fprintf is like [fmt.Fprintf] but calls
// [runtimex.PanicOnError] on failure.
func Fprintf(w io.Writer, format string, v ...any) {
	_, err := fmt.Fprintf(w, format, v...)
	runtimex.PanicOnError(err, "fmt.Fprintf failed")
}

// ParseURL is like [url.Parse] but calls
// [runtimex.PanicOnError] on failure.
func ParseURL(URL string) *url.URL {
	parsed, err := url.Parse(URL)
	runtimex.PanicOnError(err, "url.Parse failed")
	return parsed
}

// MarshalJSON is like [json.Marshal] but calls
// [runtimex.PanicOnError] on failure.
func MarshalJSON(v any) []byte {
	data, err := json.Marshal(v)
	runtimex.PanicOnError(err, "json.Marshal failed")
	return data
}

// UnmarshalJSON is like [json.Unmarshal] but calls
// [runtimex.PanicOnError] on failure.
func UnmarshalJSON(data []byte, v any) {
	err := json.Unmarshal(data, v)
	runtimex.PanicOnError(err, "json.Unmarshal failed")
}

// Listen is like [net.Listen] but calls
// [runtimex.PanicOnError] on failure.
func Listen(network string, address string) net.Listener {
	listener, err := net.Listen(network, address)
	runtimex.PanicOnError(err, "net.Listen failed")
	return listener
}

// WriteFile is like [os.WriteFile] but calls
// [runtimex.PanicOnError] on failure.
func WriteFile(filename string, content []byte, mode fs.FileMode) {
	err := os.WriteFile(filename, content, mode)
	runtimex.PanicOnError(err, "os.WriteFile failed")
}

// ReadFile is like [os.ReadFile] but calls
// [runtimex.PanicOnError] on failure.
func ReadFile(filename string) []byte {
	data, err := os.ReadFile(filename)
	runtimex.PanicOnError(err, "os.ReadFile failed")
	return data
}

// FirstLineBytes takes in input a sequence of bytes and
// returns in output the first line. This function will
// call [runtimex.PanicOnError] on failure.
func FirstLineBytes(data []byte) []byte {
	first, _, good := bytes.Cut(data, []byte("\n"))
	runtimex.Assert(good, "could not find the first line")
	return first
}
