package toolhub

import (
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerSummary is a point-in-time snapshot of one tracked server.
type ServerSummary struct {
	ID        string
	Status    Status
	ToolCount int
	// LastError holds the message of the most recent recorded failure, empty
	// when the server has none (cleared on successful connect and on explicit
	// disconnect).
	LastError string
}

// GetStatus returns a snapshot for every tracked server, keyed by server ID.
// The key set is exactly the non-disabled configuration IDs. It reads only
// in-memory state and never performs I/O.
func (h *Hub) GetStatus() map[string]ServerSummary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]ServerSummary, len(h.states))
	for id, state := range h.states {
		summary := ServerSummary{
			ID:        id,
			Status:    state.status,
			ToolCount: len(state.tools),
		}
		if state.lastErr != nil {
			summary.LastError = state.lastErr.Error()
		}
		out[id] = summary
	}
	return out
}

// IsConnected reports whether the server currently holds a live connection.
func (h *Hub) IsConnected(serverID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	state, ok := h.states[serverID]
	return ok && state.status == StatusConnected
}

// ServerIDs returns the tracked server identifiers in sorted order.
func (h *Hub) ServerIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.states))
	for id := range h.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// HasServer reports whether a server ID is configured and tracked.
func (h *Hub) HasServer(serverID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.states[serverID]
	return ok
}

// ServerConfigOf returns the configuration for a given server, or nil for
// unknown IDs. The returned value is shared; treat it as read-only.
func (h *Hub) ServerConfigOf(serverID string) ServerConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if state, ok := h.states[serverID]; ok {
		return state.config
	}
	return nil
}

// Client exposes the underlying protocol client for advanced scenarios. The
// value is nil when the server has no live connection.
func (h *Hub) Client(serverID string) *mcp.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if state, ok := h.states[serverID]; ok {
		return state.client
	}
	return nil
}
