package check

//
// Result
//

import (
	"errors"
	"time"

	"github.com/probekit/tlscheck/internal/errorx"
)

// The stages of a check, in the order in which they run. A failed
// check names the stage that failed; a successful check ran through
// all of them.
const (
	// StageConnect is the TCP connect stage, which includes the name
	// resolution needed by the connect itself.
	StageConnect = "connect"

	// StageHandshake is the TLS handshake stage.
	StageHandshake = "handshake"

	// StageWrite is the stage that sends the request.
	StageWrite = "write"

	// StageRead is the stage that reads the response.
	StageRead = "read"

	// StageResponse is the stage that classifies the response.
	StageResponse = "response"
)

// FailureUnexpectedResponse means that we read a response that does
// not start with any of the accepted status lines.
const FailureUnexpectedResponse = "unexpected_response"

// Result is the outcome of a single check. [Runner.Run] produces
// exactly one Result per invocation, no matter where the check
// stopped.
type Result struct {
	// ID uniquely identifies this run.
	ID string `json:"id"`

	// Endpoint is the "host:port" endpoint we checked.
	Endpoint string `json:"endpoint"`

	// StartTime is the UTC time when the run started.
	StartTime time.Time `json:"start_time"`

	// Runtime is the elapsed time of the whole run in seconds.
	Runtime float64 `json:"runtime"`

	// HandshakeTime is the elapsed time of the TLS handshake in
	// seconds. Zero when we failed before handshaking.
	HandshakeTime float64 `json:"handshake_time"`

	// TLSVersion is the negotiated TLS version, or "unknown" when
	// the handshake did not complete.
	TLSVersion string `json:"tls_version"`

	// BodyLength is the number of response bytes we read.
	BodyLength int `json:"body_length"`

	// Success tells whether the check succeeded.
	Success bool `json:"success"`

	// FailedStage is the stage where the check failed. Empty on
	// success.
	FailedStage string `json:"failed_stage,omitempty"`

	// Failure is the failure that occurred. Empty on success.
	Failure string `json:"failure,omitempty"`

	// Preview is a short, permissively decoded preview of the
	// response. We only fill it when the response itself is the
	// failure.
	Preview string `json:"preview,omitempty"`

	// Body contains the raw response bytes. The body is not part of
	// the serialized result: reports record BodyLength and, when it
	// matters, Preview.
	Body []byte `json:"-"`
}

// fail records into the result the error that stopped the check at
// the given stage. When the error carries the name of the operation
// that failed, the blamed stage comes from that name, so an error
// classified during resolution is attributed to the connect stage no
// matter which call site observed it.
func (r *Result) fail(stage string, err error) {
	r.Success = false
	r.Failure = err.Error()
	r.FailedStage = stage
	var wrapper *errorx.ErrWrapper
	if errors.As(err, &wrapper) {
		r.FailedStage = stageForOperation(wrapper.Operation, stage)
	}
}

// stageForOperation maps the name of a failed operation to the stage
// to blame, falling back to the given stage for operations that do
// not belong to the check lifecycle.
func stageForOperation(operation, fallback string) string {
	switch operation {
	case errorx.ResolveOperation, errorx.ConnectOperation:
		return StageConnect
	case errorx.TLSHandshakeOperation:
		return StageHandshake
	case errorx.WriteOperation:
		return StageWrite
	case errorx.ReadOperation:
		return StageRead
	default:
		return fallback
	}
}
