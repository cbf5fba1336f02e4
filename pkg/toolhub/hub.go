package toolhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Status represents the lifecycle of a managed connection.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// Hub owns one connection per enabled server configuration and serializes all
// state transitions for a given server ID internally: concurrent ConnectServer
// and DisconnectServer calls against the same ID are safe, with the later
// transition superseding the earlier one.
type Hub struct {
	mu sync.RWMutex

	options HubOptions
	logger  *slog.Logger

	states map[string]*serverState

	listeners hubListeners
}

// serverState is exclusively owned by the hub. The tool cache is only
// trustworthy while status is StatusConnected; every accessor treats any
// other status as "no tools available".
type serverState struct {
	config ServerConfig

	status  Status
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []*mcp.Tool

	reconnectAttempts int
	lastErr           error

	// reconnectTimer is the pending automatic reconnect, if any. It is owned
	// by the state so an explicit disconnect can cancel it deterministically.
	reconnectTimer *time.Timer

	// gen increments on every teardown or new connection attempt. Session
	// monitors and scheduled reconnects capture the generation they belong to
	// and stand down when it no longer matches, so a stale timer or a dead
	// session's watcher can never act on torn-down state.
	gen uint64
}

// NewHub constructs a Hub from a map of server IDs to configurations.
// Disabled entries are excluded entirely: no state is created for them.
// No connections are established until ConnectAll or ConnectServer is called.
func NewHub(cfg map[string]ServerConfig, opts *HubOptions) *Hub {
	options := opts.normalized()
	h := &Hub{
		options: options,
		logger:  options.Logger,
		states:  make(map[string]*serverState),
	}
	for id, sc := range cfg {
		if sc == nil || sc.base().Disabled {
			continue
		}
		h.states[id] = &serverState{config: sc, status: StatusDisconnected}
	}
	return h
}

// ConnectAll attempts to connect every tracked server concurrently and waits
// for all attempts to settle. Each attempt is independent: failures are
// logged and recorded in the per-server status, never returned, and one
// server's failure cannot delay or abort another's attempt.
func (h *Hub) ConnectAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, id := range h.ServerIDs() {
		wg.Add(1)
		go func(serverID string) {
			defer wg.Done()
			if err := h.ConnectServer(ctx, serverID); err != nil {
				h.logger.Warn("connect failed", "server", serverID, "error", err)
			}
		}(id)
	}
	wg.Wait()
}

// ConnectServer establishes a fresh connection to one server: it spawns the
// configured transport, performs the handshake, and caches the advertised
// tool list before returning. Any pre-existing connection for the ID is torn
// down first, so calling it on an already-connected server forces a clean
// reconnect, and calling it on an abandoned server revives it.
func (h *Hub) ConnectServer(ctx context.Context, serverID string) error {
	h.mu.Lock()
	state, ok := h.states[serverID]
	if !ok {
		h.mu.Unlock()
		return &UnknownServerError{ID: serverID}
	}
	old := h.detachLocked(state)
	state.status = StatusConnecting
	state.lastErr = nil
	gen := state.gen
	cfg := state.config
	h.mu.Unlock()

	if old != nil {
		// Forcing a reconnect must not fail on close.
		_ = old.Close()
	}

	session, client, tools, err := h.establish(ctx, serverID, cfg)
	if err != nil {
		h.mu.Lock()
		if state.gen == gen {
			state.status = StatusError
			state.lastErr = err
		}
		h.mu.Unlock()
		return fmt.Errorf("toolhub: connect %q: %w", serverID, err)
	}
	h.finishConnect(serverID, gen, session, client, tools)
	return nil
}

// DisconnectServer closes the connection for the given server ID and cancels
// any pending automatic reconnect. It is a no-op for unknown IDs or servers
// with no live state, and close-time transport errors are swallowed: a dirty
// close must not block teardown. The reconnect counter is untouched; it only
// moves on unexpected disconnects.
func (h *Hub) DisconnectServer(ctx context.Context, serverID string) error {
	h.mu.Lock()
	state, ok := h.states[serverID]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	session := h.detachLocked(state)
	state.status = StatusDisconnected
	state.lastErr = nil
	h.mu.Unlock()
	if session == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		if err := session.Close(); err != nil {
			h.logger.Debug("close error", "server", serverID, "error", err)
		}
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// DisconnectAll disconnects every tracked server. Per-server teardown
// failures are logged and swallowed so one server cannot block another's
// shutdown.
func (h *Hub) DisconnectAll(ctx context.Context) {
	for _, id := range h.ServerIDs() {
		if err := h.DisconnectServer(ctx, id); err != nil {
			h.logger.Warn("disconnect failed", "server", id, "error", err)
		}
	}
}

// detachLocked strips the live handles and tool cache from a state, cancels
// any pending reconnect, and bumps the generation so in-flight monitors and
// timers for the old connection stand down. Caller holds h.mu and closes the
// returned session, if any, outside the lock.
func (h *Hub) detachLocked(state *serverState) *mcp.ClientSession {
	state.gen++
	if state.reconnectTimer != nil {
		state.reconnectTimer.Stop()
		state.reconnectTimer = nil
	}
	session := state.session
	state.session = nil
	state.client = nil
	state.tools = nil
	return session
}

// establish spawns the transport, performs the handshake, and fetches the
// initial tool list, all bounded by the server's configured timeout. Tools
// are fetched once per connection here rather than per call; catalog reads
// afterwards are pure cache hits.
func (h *Hub) establish(ctx context.Context, serverID string, cfg ServerConfig) (*mcp.ClientSession, *mcp.Client, []*mcp.Tool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.base().callTimeout())
	defer cancel()

	transport, err := h.buildTransport(connectCtx, serverID, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	impl := &mcp.Implementation{Name: h.options.ClientName, Version: h.options.ClientVersion}
	client := mcp.NewClient(impl, &mcp.ClientOptions{
		ToolListChangedHandler: func(context.Context, *mcp.ToolListChangedRequest) {
			go func() {
				if err := h.RefreshServerTools(context.Background(), serverID); err != nil {
					h.logger.Debug("refresh after list change", "server", serverID, "error", err)
				}
			}()
		},
	})
	session, err := client.Connect(connectCtx, transport, nil)
	if err != nil {
		return nil, nil, nil, err
	}

	tools, err := listTools(connectCtx, session)
	if err != nil {
		_ = session.Close()
		return nil, nil, nil, err
	}
	return session, client, tools, nil
}

func (h *Hub) buildTransport(ctx context.Context, serverID string, cfg ServerConfig) (mcp.Transport, error) {
	switch cfg := cfg.(type) {
	case *StdioServerConfig:
		if cfg.Command == "" {
			return nil, fmt.Errorf("toolhub: command missing for %q", serverID)
		}
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Dir = cfg.Dir
		// The child's stdout carries protocol frames; anything it logs must
		// go to stderr or the framing desynchronizes.
		cmd.Stderr = os.Stderr
		if len(cfg.Env) > 0 {
			env := os.Environ()
			for k, v := range cfg.Env {
				env = append(env, fmt.Sprintf("%s=%s", k, v))
			}
			cmd.Env = env
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case *DialServerConfig:
		if cfg.Dial == nil {
			return nil, fmt.Errorf("toolhub: dial func missing for %q", serverID)
		}
		return cfg.Dial(ctx)
	default:
		return nil, fmt.Errorf("toolhub: unsupported config for %q", serverID)
	}
}

// finishConnect installs a freshly established connection unless a concurrent
// transition superseded this attempt, in which case the session is closed and
// discarded.
func (h *Hub) finishConnect(serverID string, gen uint64, session *mcp.ClientSession, client *mcp.Client, tools []*mcp.Tool) {
	h.mu.Lock()
	state, ok := h.states[serverID]
	if !ok || state.gen != gen {
		h.mu.Unlock()
		_ = session.Close()
		return
	}
	state.session = session
	state.client = client
	state.tools = tools
	state.status = StatusConnected
	state.reconnectAttempts = 0
	state.lastErr = nil
	h.mu.Unlock()

	go h.monitorSession(serverID, gen, session)
	h.logger.Info("server connected", "server", serverID, "tools", len(tools))
	h.emitConnected(serverID, len(tools))
}

// monitorSession watches a live session and routes its eventual closure into
// the unexpected-disconnect path, unless the generation shows the closure was
// caller-initiated.
func (h *Hub) monitorSession(serverID string, gen uint64, session *mcp.ClientSession) {
	err := session.Wait()
	if err == nil {
		err = errors.New("toolhub: connection closed")
	}
	h.serverDown(serverID, gen, err)
}

// serverDown handles an unexpected transport failure or closure: it clears
// the live state, records the error, bumps the reconnect counter, and either
// arms the next bounded reconnect or abandons the server.
func (h *Hub) serverDown(serverID string, gen uint64, cause error) {
	h.mu.Lock()
	state, ok := h.states[serverID]
	if !ok || state.gen != gen {
		// An explicit connect or disconnect already superseded this session.
		h.mu.Unlock()
		return
	}
	state.gen++
	state.session = nil
	state.client = nil
	state.tools = nil
	gaveUp := h.recordFailureLocked(serverID, state, cause)
	h.mu.Unlock()

	h.logger.Warn("server disconnected", "server", serverID, "error", cause)
	h.emitDisconnected(serverID, cause)
	if gaveUp {
		h.emitGaveUp(serverID, cause)
	}
}

// recordFailureLocked moves a server into StatusError, advances the reconnect
// counter, and arms the next attempt while the budget allows it. It reports
// true when the budget is spent and the server is abandoned. Caller holds
// h.mu.
func (h *Hub) recordFailureLocked(serverID string, state *serverState, cause error) (gaveUp bool) {
	state.status = StatusError
	state.lastErr = cause
	state.reconnectAttempts++
	base := state.config.base()
	if state.reconnectAttempts > base.maxReconnectAttempts() {
		h.logger.Warn("reconnect budget exhausted", "server", serverID, "attempts", state.reconnectAttempts-1)
		return true
	}
	delay := base.reconnectDelay()
	nextGen := state.gen
	state.reconnectTimer = time.AfterFunc(delay, func() {
		h.reconnect(serverID, nextGen)
	})
	h.logger.Info("reconnect scheduled", "server", serverID, "attempt", state.reconnectAttempts, "delay", delay)
	return false
}

// reconnect is the scheduled automatic attempt. A failure is logged and fed
// back through the reconnect counter; it never propagates to any caller.
func (h *Hub) reconnect(serverID string, gen uint64) {
	h.mu.Lock()
	state, ok := h.states[serverID]
	if !ok || state.gen != gen || state.status != StatusError {
		h.mu.Unlock()
		return
	}
	state.reconnectTimer = nil
	state.gen++
	attemptGen := state.gen
	state.status = StatusConnecting
	cfg := state.config
	h.mu.Unlock()

	session, client, tools, err := h.establish(context.Background(), serverID, cfg)
	if err != nil {
		h.logger.Warn("reconnect failed", "server", serverID, "error", err)
		h.mu.Lock()
		if state.gen != attemptGen {
			h.mu.Unlock()
			return
		}
		gaveUp := h.recordFailureLocked(serverID, state, err)
		h.mu.Unlock()
		if gaveUp {
			h.emitGaveUp(serverID, err)
		}
		return
	}
	h.finishConnect(serverID, attemptGen, session, client, tools)
}

// listTools fetches the advertised tool list, coercing "method not found"
// style rejections into an empty catalog so a tool-less server still counts
// as connected.
func listTools(ctx context.Context, session *mcp.ClientSession) ([]*mcp.Tool, error) {
	res, err := session.ListTools(ctx, nil)
	if err != nil {
		if isMethodUnavailableError(err, "tools/list") {
			return nil, nil
		}
		return nil, err
	}
	return res.Tools, nil
}

func isMethodUnavailableError(err error, method string) bool {
	if err == nil {
		return false
	}
	lower := strings.ToLower(err.Error())
	if !(strings.Contains(lower, "method not found") ||
		strings.Contains(lower, "not implemented") ||
		strings.Contains(lower, "unsupported") ||
		strings.Contains(lower, "does not support") ||
		strings.Contains(lower, "unimplemented")) {
		return false
	}
	method = strings.ToLower(method)
	if strings.Contains(lower, method) {
		return true
	}
	for _, part := range strings.FieldsFunc(method, func(r rune) bool {
		return r == '/' || r == ':' || r == '.' || r == '_' || r == '-'
	}) {
		if part != "" && strings.Contains(lower, part) {
			return true
		}
	}
	return true
}
