package toolhub

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetTools returns the merged catalog across every connected server, each
// descriptor rewritten to its namespaced form: the name becomes
// "{serverID}__{name}" and the description is prefixed with the origin server
// so callers can tell entries apart. The input schema passes through
// unchanged. This is a pure cache read; it never touches a server, and
// servers that are not currently connected contribute nothing. Ordering
// across servers is by server ID and is not part of the contract.
func (h *Hub) GetTools() []*mcp.Tool {
	ids := h.ServerIDs()
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*mcp.Tool
	for _, id := range ids {
		state := h.states[id]
		if state == nil || state.status != StatusConnected {
			continue
		}
		for _, tool := range state.tools {
			out = append(out, namespacedTool(id, tool))
		}
	}
	return out
}

// GetServerTools returns the raw cached tool list for one server. It degrades
// to an empty list rather than failing: unknown IDs and servers that are not
// connected both yield nil.
func (h *Hub) GetServerTools(serverID string) []*mcp.Tool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.states[serverID]
	if !ok || state.status != StatusConnected {
		return nil
	}
	return append([]*mcp.Tool(nil), state.tools...)
}

// IsMCPTool reports whether name belongs to the hub's namespaced catalog.
func (h *Hub) IsMCPTool(name string) bool {
	return IsNamespacedName(name)
}

// RefreshServerTools re-requests the tool list from an already-connected
// server without tearing down the connection, replacing the cached catalog on
// success. It fails for unknown IDs and for servers with no live connection.
func (h *Hub) RefreshServerTools(ctx context.Context, serverID string) error {
	h.mu.RLock()
	state, ok := h.states[serverID]
	if !ok {
		h.mu.RUnlock()
		return &UnknownServerError{ID: serverID}
	}
	if state.status != StatusConnected || state.session == nil {
		h.mu.RUnlock()
		return &NotConnectedError{ID: serverID}
	}
	session := state.session
	gen := state.gen
	timeout := state.config.base().callTimeout()
	h.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}
	listCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	tools, err := listTools(listCtx, session)
	if err != nil {
		return fmt.Errorf("toolhub: refresh %q: %w", serverID, err)
	}

	h.mu.Lock()
	if state.gen != gen {
		// The connection turned over while we were listing; the new
		// connection fetched its own catalog.
		h.mu.Unlock()
		return nil
	}
	state.tools = tools
	h.mu.Unlock()

	h.emitToolsRefreshed(serverID, len(tools))
	return nil
}

// RefreshAllTools refreshes every connected server concurrently, isolating
// failures the same way ConnectAll does: logged, recorded nowhere, and never
// returned.
func (h *Hub) RefreshAllTools(ctx context.Context) {
	var wg sync.WaitGroup
	for _, id := range h.ServerIDs() {
		if !h.IsConnected(id) {
			continue
		}
		wg.Add(1)
		go func(serverID string) {
			defer wg.Done()
			if err := h.RefreshServerTools(ctx, serverID); err != nil {
				h.logger.Warn("refresh failed", "server", serverID, "error", err)
			}
		}(id)
	}
	wg.Wait()
}

func namespacedTool(serverID string, tool *mcp.Tool) *mcp.Tool {
	clone := *tool
	clone.Name = NamespacedName(serverID, tool.Name)
	clone.Description = fmt.Sprintf("[%s] %s", serverID, tool.Description)
	return &clone
}
