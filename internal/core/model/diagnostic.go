package model

import "fmt"

// Diagnostic codes. Diagnostics are non-fatal: the batch that produced them
// carried on.
const (
	DiagInvalidProperties   = "invalid_properties"
	DiagRepairedProperties  = "repaired_properties"
	DiagUnknownSource       = "unknown_source"
	DiagUnknownTarget       = "unknown_target"
	DiagMissingEndpoint     = "missing_endpoint"
	DiagNodeNotWritten      = "node_not_written"
	DiagInvalidNode         = "invalid_node"
	DiagInvalidRelationship = "invalid_relationship"
)

// Diagnostic is a warning returned as data alongside a result.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Subject names what the diagnostic is about: a raw row, a node id.
	Subject string `json:"subject,omitempty"`
	// Chunk is the index of the chunk the diagnostic came from, or -1.
	Chunk int `json:"chunk"`
}

func (d Diagnostic) String() string {
	if d.Subject == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Code, d.Message, d.Subject)
}

type Diagnostics []Diagnostic

// Add appends a diagnostic that is not tied to a chunk.
func (ds *Diagnostics) Add(code, subject, format string, args ...interface{}) {
	*ds = append(*ds, Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Subject: subject,
		Chunk:   -1,
	})
}

// WithChunk returns a copy with every entry tagged with the chunk index.
func (ds Diagnostics) WithChunk(chunk int) Diagnostics {
	out := make(Diagnostics, len(ds))
	for i, d := range ds {
		d.Chunk = chunk
		out[i] = d
	}
	return out
}

// Count returns how many diagnostics carry the given code.
func (ds Diagnostics) Count(code string) int {
	n := 0
	for _, d := range ds {
		if d.Code == code {
			n++
		}
	}
	return n
}
