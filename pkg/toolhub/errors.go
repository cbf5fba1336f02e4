package toolhub

import (
	"fmt"
	"time"
)

// UnknownServerError reports an operation that referenced a server ID with no
// configuration.
type UnknownServerError struct {
	ID string
}

func (e *UnknownServerError) Error() string {
	return fmt.Sprintf("toolhub: unknown server %q", e.ID)
}

// NotConnectedError reports an operation that requires a live connection the
// server does not currently have.
type NotConnectedError struct {
	ID string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("toolhub: server %q not connected", e.ID)
}

// CallTimeoutError reports a tool call that exceeded its per-server deadline.
// The in-flight call is cancelled when the deadline expires; see Hub.CallTool.
type CallTimeoutError struct {
	// Tool is the namespaced name the caller dispatched.
	Tool string
	// Timeout is the bound that was exceeded.
	Timeout time.Duration
}

func (e *CallTimeoutError) Error() string {
	return fmt.Sprintf("toolhub: call to %q timed out after %s", e.Tool, e.Timeout)
}
