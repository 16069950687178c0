package device

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for session failures. Each typed error below matches its
// sentinel with errors.Is.
var (
	ErrConnection = errors.New("connection failed")
	ErrHostkey    = errors.New("host key verification failed")
	ErrRPC        = errors.New("rpc failed")
)

// ConnectionError reports a network, authentication or transport failure.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// HostkeyError reports that the server identity could not be verified.
type HostkeyError struct {
	Host   string
	Reason string
	Err    error
}

func (e *HostkeyError) Error() string {
	return fmt.Sprintf("host key verification for %s: %s", e.Host, e.Reason)
}

func (e *HostkeyError) Unwrap() error { return e.Err }

func (e *HostkeyError) Is(target error) bool { return target == ErrHostkey }

// RPCErrorDetail is one <rpc-error> element from a device reply.
type RPCErrorDetail struct {
	Type     string
	Tag      string
	Severity string
	Path     string
	Message  string
	Info     string
}

func (d RPCErrorDetail) String() string {
	var parts []string
	if d.Severity != "" {
		parts = append(parts, d.Severity)
	}
	if d.Type != "" || d.Tag != "" {
		parts = append(parts, strings.Trim(d.Type+"/"+d.Tag, "/"))
	}
	if d.Path != "" {
		parts = append(parts, "path="+d.Path)
	}
	if d.Message != "" {
		parts = append(parts, d.Message)
	}
	if d.Info != "" {
		parts = append(parts, "info: "+d.Info)
	}
	return strings.Join(parts, " ")
}

// RPCError reports a malformed request or a device rejection.
type RPCError struct {
	Operation string
	Errors    []RPCErrorDetail
	Err       error
}

func (e *RPCError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	case len(e.Errors) > 0:
		return fmt.Sprintf("%s rejected: %s", e.Operation, formatDetails(e.Errors))
	default:
		return fmt.Sprintf("%s rejected", e.Operation)
	}
}

func (e *RPCError) Unwrap() error { return e.Err }

func (e *RPCError) Is(target error) bool { return target == ErrRPC }

func formatDetails(details []RPCErrorDetail) string {
	msgs := make([]string, len(details))
	for i, d := range details {
		msgs[i] = d.String()
	}
	return strings.Join(msgs, "; ")
}
