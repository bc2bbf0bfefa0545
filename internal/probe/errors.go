package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a probe or lookup failed.
type Kind int

const (
	// Unclassified covers failures that match no other kind.
	Unclassified Kind = iota
	// Timeout means no response arrived within the allotted window.
	Timeout
	// Transport covers connection-level failures (refused, reset,
	// DNS failure for the probe URL itself).
	Transport
	// Protocol means the endpoint answered with a non-2xx status
	// or an unusable body.
	Protocol
	// NameNotFound means a forward or reverse lookup had no result.
	NameNotFound
)

func (k Kind) String() string {
	switch k {
	case Timeout:
		return "timeout"
	case Transport:
		return "transport"
	case Protocol:
		return "protocol"
	case NameNotFound:
		return "name_not_found"
	default:
		return "unclassified"
	}
}

// Error is a classified probe failure. It records which service failed,
// why, and wraps the underlying cause.
type Error struct {
	Service string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe %s: %s: %v", e.Service, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps a transport-level error to a failure kind.
func Classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Timeout
	}
	// DNS failures here concern the probe URL itself, not a lookup the
	// caller asked for, so not-found still counts as Transport.
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return Transport
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Transport
	}
	return Unclassified
}
