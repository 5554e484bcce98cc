package resolve

import (
	"errors"
	"fmt"
	"net"
)

// ConfigError reports invalid resolver parameters. It is raised before any
// network call is made.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("resolve: invalid %s: %s", e.Field, e.Reason)
}

// UnreachableError reports that the provider could not be reached at all, so
// the run was halted rather than failing every record individually.
type UnreachableError struct {
	Attempted int // lookups attempted before the halt (including the failing one)
	Untried   int // records never attempted
	Err       error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("resolve: provider unreachable after %d attempt(s), %d record(s) untried: %v",
		e.Attempted, e.Untried, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// CanceledError reports that the caller canceled the run between records.
// Remaining records were marked skipped, not failed, since they were never
// attempted.
type CanceledError struct {
	Remaining int
	Err       error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("resolve: run canceled with %d record(s) remaining: %v", e.Remaining, e.Err)
}

func (e *CanceledError) Unwrap() error { return e.Err }

// isUnreachable reports whether err indicates the provider host itself is
// unreachable (DNS failure or refused connection) rather than a transient
// per-request problem such as a timeout or a bad response.
func isUnreachable(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	// errors.As unwraps through *url.Error, so dial failures surface here.
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" && !opErr.Timeout()
	}

	return false
}
