package main

//
// Rendering results for humans and machines
//

import (
	"io"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/probekit/tlscheck/internal/check"
	"github.com/probekit/tlscheck/internal/model"
	"github.com/probekit/tlscheck/internal/must"
)

// render prints a single result to w using the output format selected
// by the current options. When we are running several checks, the
// progress bar owns the standard output, hence we only log failures
// and let printSummary recap the outcome.
func render(w io.Writer, result *check.Result, currentOptions *Options, logger model.Logger) {
	if currentOptions.JSON {
		must.Fprintf(w, "%s\n", string(must.MarshalJSON(result)))
		return
	}
	if currentOptions.Count > 1 {
		if !result.Success {
			logger.Warnf("check failed: %s {stage=%s}", result.Failure, result.FailedStage)
		}
		return
	}
	renderHuman(w, result)
}

// renderHuman prints a single result in a format meant for humans.
func renderHuman(w io.Writer, result *check.Result) {
	if result.Success {
		must.Fprintf(w, "negotiated TLS version: %s\n", result.TLSVersion)
		must.Fprintf(w, "%s\n", decodeBody(result.Body))
		return
	}
	must.Fprintf(w, "check failed: %s {stage=%s}\n", result.Failure, result.FailedStage)
	must.Fprintf(w, "\n%s\n", wordwrap.WrapString(explainFailure(result), 72))
	if result.Preview != "" {
		must.Fprintf(w, "\nbeginning of the rejected response:\n\n%s\n", result.Preview)
	}
}

// decodeBody converts the raw response body to a string where each run
// of invalid UTF-8 bytes is replaced by the Unicode replacement
// character.
func decodeBody(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}

// explainFailure returns a short explanation of the stage in which the
// given result failed.
func explainFailure(result *check.Result) string {
	switch result.FailedStage {
	case check.StageConnect:
		return "We could not establish a TCP connection with the endpoint. " +
			"The endpoint may be down, unreachable, or blocked."
	case check.StageHandshake:
		return "We connected to the endpoint but the TLS handshake failed. " +
			"Retrying with --insecure or a different --sni may tell you more."
	case check.StageWrite:
		return "We could not send the request over the established session."
	case check.StageRead:
		return "We sent the request but the session broke before the server " +
			"closed the connection cleanly. If you trust the server to just " +
			"omit the closing alert, retry with --accept-abrupt-close."
	default:
		return "The server closed the connection after sending a response " +
			"whose status line is not among the ones we accept (200, 301, 302)."
	}
}
