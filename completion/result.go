package completion

import "fmt"

// FailureKind classifies a completion failure.
type FailureKind string

const (
	// FailureTimeout: the round-trip deadline expired.
	FailureTimeout FailureKind = "timeout"
	// FailureHTTP: the endpoint answered with a non-200 status.
	FailureHTTP FailureKind = "http"
	// FailureProtocol: transport failure, undecodable body, or a body with
	// no generation choices.
	FailureProtocol FailureKind = "protocol"
)

// Failure describes why a completion produced no text.
type Failure struct {
	Kind    FailureKind
	Status  int    // set for FailureHTTP
	Message string // set for FailureProtocol
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureTimeout:
		return "completion: timed out waiting for the endpoint"
	case FailureHTTP:
		return fmt.Sprintf("completion: endpoint returned HTTP %d", f.Status)
	default:
		return fmt.Sprintf("completion: %s", f.Message)
	}
}

// Result is the outcome of one completion call: either generated text or a
// typed failure, never both.
type Result struct {
	Text    string
	Failure *Failure
}

// OK reports whether the call produced text.
func (r Result) OK() bool { return r.Failure == nil }

func protocolFailure(msg string) Result {
	return Result{Failure: &Failure{Kind: FailureProtocol, Message: msg}}
}

// ProtocolFailure builds a protocol-kind failure Result. Used by callers
// that must surface non-completion failures (e.g. document extraction)
// through the same result shape.
func ProtocolFailure(msg string) Result {
	return protocolFailure(msg)
}
