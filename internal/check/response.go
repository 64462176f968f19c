package check

//
// Response classification
//

import (
	"bytes"
	"strings"
)

// acceptedStatusLines contains the beginnings of the responses we
// accept. The checker asks for "/" over HTTP/1.1, so a healthy
// server answers with a 200 or with a redirect towards the
// canonical URL.
var acceptedStatusLines = [][]byte{
	[]byte("HTTP/1.1 200"),
	[]byte("HTTP/1.1 301"),
	[]byte("HTTP/1.1 302"),
}

// acceptableResponse tells whether the response starts with an
// accepted status line. Classification uses the raw bytes, before
// any decoding. An empty response or one opening with anything else
// is a failure.
func acceptableResponse(raw []byte) bool {
	for _, line := range acceptedStatusLines {
		if bytes.HasPrefix(raw, line) {
			return true
		}
	}
	return false
}

// previewBound bounds the length of the preview in bytes.
const previewBound = 200

// makePreview returns a short preview of the raw response for
// inclusion into diagnostics. Decoding is permissive: byte sequences
// that are not valid UTF-8 become replacement characters rather than
// errors, because rendering a failure must not fail in turn.
func makePreview(raw []byte) string {
	if len(raw) > previewBound {
		raw = raw[:previewBound]
	}
	return strings.ToValidUTF8(string(raw), "�")
}

// looksLikeHTML tells whether the response seems to contain an HTML
// page. This is a sanity heuristic only: endpoints legitimately
// serve other content, but a homepage without HTML markers is worth
// a warning.
func looksLikeHTML(raw []byte) bool {
	return bytes.Contains(raw, []byte("<!DOCTYPE")) ||
		bytes.Contains(raw, []byte("<html"))
}
