package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	ErrServiceUnavailable = errors.New("graph database is unavailable")
	ErrAuthentication     = errors.New("graph database rejected the credentials")
	ErrStore              = errors.New("graph database error")
)

// Error is returned by every Store operation that reached the database and
// failed. Kind is one of the sentinels above.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error { return []error{e.Kind, e.Err} }

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if neo4j.IsConnectivityError(e) {
			return ErrServiceUnavailable
		}
	}

	var dbErr *neo4j.Neo4jError
	if errors.As(err, &dbErr) {
		switch {
		case strings.Contains(dbErr.Code, "Security.Unauthorized"),
			strings.Contains(dbErr.Code, "Security.AuthenticationRateLimit"),
			strings.Contains(dbErr.Code, "Security.CredentialsExpired"):
			return ErrAuthentication
		case strings.Contains(dbErr.Code, "DatabaseUnavailable"),
			strings.Contains(dbErr.Code, "ServiceUnavailable"):
			return ErrServiceUnavailable
		}
	}
	return ErrStore
}

// Remediation returns a short operator hint for a store error.
func Remediation(err error) string {
	switch {
	case errors.Is(err, ErrServiceUnavailable):
		return "check that the database is running and the URI is reachable"
	case errors.Is(err, ErrAuthentication):
		return "check the configured username and password"
	case errors.Is(err, ErrStore):
		return "inspect the database logs for the failing statement"
	default:
		return ""
	}
}
