package llm

import "fmt"

// ErrorKind classifies extraction failures. The pipeline's skip-or-fail
// decisions key off the kind, never off error strings.
type ErrorKind int

const (
	// KindRequestFailed is a transport or timeout failure; no response body
	// was obtained.
	KindRequestFailed ErrorKind = iota + 1
	// KindServiceRejected is a non-success HTTP status from the service.
	KindServiceRejected
	// KindMalformedResponse means no parseable JSON object could be recovered
	// from the model's answer.
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequestFailed:
		return "request_failed"
	case KindServiceRejected:
		return "service_rejected"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

// PreviewLimit bounds the diagnostic excerpt attached to malformed-response
// errors; full payloads go to the artifact store, not into error messages.
const PreviewLimit = 2000

// ExtractionError is the typed failure returned by the extraction client.
type ExtractionError struct {
	Kind    ErrorKind
	Status  int    // HTTP status for KindServiceRejected, else 0
	Preview string // bounded excerpt of the offending payload
	Err     error
}

func (e *ExtractionError) Error() string {
	switch e.Kind {
	case KindServiceRejected:
		return fmt.Sprintf("extraction service rejected request: status %d", e.Status)
	case KindMalformedResponse:
		if e.Err != nil {
			return fmt.Sprintf("malformed extraction response: %v", e.Err)
		}
		return "malformed extraction response: no JSON object found"
	default:
		return fmt.Sprintf("extraction request failed: %v", e.Err)
	}
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func NewRequestFailed(err error) *ExtractionError {
	return &ExtractionError{Kind: KindRequestFailed, Err: err}
}

func NewServiceRejected(status int, body string) *ExtractionError {
	return &ExtractionError{Kind: KindServiceRejected, Status: status, Preview: Preview(body)}
}

func NewMalformedResponse(raw string, cause error) *ExtractionError {
	return &ExtractionError{Kind: KindMalformedResponse, Preview: Preview(raw), Err: cause}
}

// Preview bounds s to PreviewLimit characters for diagnostic display.
func Preview(s string) string {
	if len(s) <= PreviewLimit {
		return s
	}
	return s[:PreviewLimit]
}
