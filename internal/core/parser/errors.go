package parser

import "errors"

// ErrMalformedResponse matches every *MalformedResponseError via errors.Is.
var ErrMalformedResponse = errors.New("malformed model response")

// SchemaHint describes the expected output. It is attached to every
// MalformedResponseError so a repair prompt can quote it back to the model.
const SchemaHint = `Expected output schema:
Nodes: [[ENTITY_ID, TYPE, PROPERTIES], ...]
Relationships: [[ENTITY_ID_1, RELATIONSHIP, ENTITY_ID_2, PROPERTIES], ...]`

// MalformedResponseError is fatal for the response it was raised on. Callers
// may re-prompt the model with it.
type MalformedResponseError struct {
	Reason string
	Hint   string
}

func (e *MalformedResponseError) Error() string {
	return e.Reason + ". " + e.Hint
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

func malformed(reason string) error {
	return &MalformedResponseError{Reason: reason, Hint: SchemaHint}
}
