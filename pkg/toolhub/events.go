package toolhub

import "sync"

// Lifecycle notification handlers. Handlers run synchronously at the point
// the transition occurs, after the hub releases its state lock, so they may
// call back into the hub. They are advisory: returning, panicking, or taking
// a long time never changes hub state, though a slow handler delays the
// operation that triggered it.

// ConnectedHandler observes a successful connect with the size of the freshly
// cached tool catalog.
type ConnectedHandler func(serverID string, toolCount int)

// DisconnectedHandler observes an unexpected transport closure or failure.
type DisconnectedHandler func(serverID string, err error)

// GaveUpHandler observes a server exhausting its reconnect budget. No further
// automatic attempts occur; only an explicit ConnectServer revives the server.
type GaveUpHandler func(serverID string, err error)

// ToolsRefreshedHandler observes a tool-catalog refresh on a live connection.
type ToolsRefreshedHandler func(serverID string, toolCount int)

type hubListeners struct {
	mu             sync.RWMutex
	connected      []ConnectedHandler
	disconnected   []DisconnectedHandler
	gaveUp         []GaveUpHandler
	toolsRefreshed []ToolsRefreshedHandler
}

// OnConnected registers a handler for successful connects.
func (h *Hub) OnConnected(handler ConnectedHandler) {
	if handler == nil {
		return
	}
	h.listeners.mu.Lock()
	h.listeners.connected = append(h.listeners.connected, handler)
	h.listeners.mu.Unlock()
}

// OnDisconnected registers a handler for unexpected disconnects.
func (h *Hub) OnDisconnected(handler DisconnectedHandler) {
	if handler == nil {
		return
	}
	h.listeners.mu.Lock()
	h.listeners.disconnected = append(h.listeners.disconnected, handler)
	h.listeners.mu.Unlock()
}

// OnGaveUp registers a handler for servers abandoned after exhausting their
// reconnect budget.
func (h *Hub) OnGaveUp(handler GaveUpHandler) {
	if handler == nil {
		return
	}
	h.listeners.mu.Lock()
	h.listeners.gaveUp = append(h.listeners.gaveUp, handler)
	h.listeners.mu.Unlock()
}

// OnToolsRefreshed registers a handler for tool-catalog refreshes.
func (h *Hub) OnToolsRefreshed(handler ToolsRefreshedHandler) {
	if handler == nil {
		return
	}
	h.listeners.mu.Lock()
	h.listeners.toolsRefreshed = append(h.listeners.toolsRefreshed, handler)
	h.listeners.mu.Unlock()
}

func (h *Hub) emitConnected(serverID string, toolCount int) {
	h.listeners.mu.RLock()
	handlers := append([]ConnectedHandler(nil), h.listeners.connected...)
	h.listeners.mu.RUnlock()
	for _, handler := range handlers {
		invoke(func() { handler(serverID, toolCount) })
	}
}

func (h *Hub) emitDisconnected(serverID string, err error) {
	h.listeners.mu.RLock()
	handlers := append([]DisconnectedHandler(nil), h.listeners.disconnected...)
	h.listeners.mu.RUnlock()
	for _, handler := range handlers {
		invoke(func() { handler(serverID, err) })
	}
}

func (h *Hub) emitGaveUp(serverID string, err error) {
	h.listeners.mu.RLock()
	handlers := append([]GaveUpHandler(nil), h.listeners.gaveUp...)
	h.listeners.mu.RUnlock()
	for _, handler := range handlers {
		invoke(func() { handler(serverID, err) })
	}
}

func (h *Hub) emitToolsRefreshed(serverID string, toolCount int) {
	h.listeners.mu.RLock()
	handlers := append([]ToolsRefreshedHandler(nil), h.listeners.toolsRefreshed...)
	h.listeners.mu.RUnlock()
	for _, handler := range handlers {
		invoke(func() { handler(serverID, toolCount) })
	}
}

// invoke isolates handler panics so one listener cannot take down the others
// or the hub goroutine that emitted the event.
func invoke(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
