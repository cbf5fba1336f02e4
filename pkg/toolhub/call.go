package toolhub

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool dispatches a namespaced tool name to its owning server. The name
// splits at the first separator occurrence only: the server ID is everything
// before it and the literal tool name is everything after, so a tool whose
// own name contains the separator still resolves correctly.
//
// The call is bounded by the owning server's configured timeout (falling back
// to DefaultCallTimeout). When the bound expires the in-flight request is
// cancelled through its context, not merely abandoned, and the caller gets a
// *CallTimeoutError carrying the bound and the namespaced name. A call that
// settles in time returns its result or error unchanged.
//
// There is no retry or queueing here: a server without a live connection
// fails immediately and the caller owns any retry policy.
func (h *Hub) CallTool(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	serverID, toolName, ok := SplitName(name)
	if !ok {
		return nil, fmt.Errorf("toolhub: %q is not a namespaced tool name", name)
	}

	h.mu.RLock()
	state, known := h.states[serverID]
	if !known {
		h.mu.RUnlock()
		return nil, &UnknownServerError{ID: serverID}
	}
	if state.status != StatusConnected || state.session == nil {
		h.mu.RUnlock()
		return nil, &NotConnectedError{ID: serverID}
	}
	session := state.session
	timeout := state.config.base().callTimeout()
	h.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := session.CallTool(callCtx, &mcp.CallToolParams{Name: toolName, Arguments: args})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &CallTimeoutError{Tool: name, Timeout: timeout}
		}
		return nil, err
	}
	return res, nil
}
