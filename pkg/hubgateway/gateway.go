package hubgateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/quillhq/toolhub/pkg/toolhub"
)

// Gateway exposes a Streamable MCP server that fronts every server a Hub
// supervises under a single HTTP endpoint. Tool names on the wire are the
// hub's namespaced names, so a downstream call routes without translation.
type Gateway struct {
	hub  *toolhub.Hub
	opts Options

	server        *mcp.Server
	streamHandler *mcp.StreamableHTTPHandler
	mux           *http.ServeMux
	httpHandler   http.Handler

	// serverMu serializes AddTool/RemoveTools bursts and guards registered.
	serverMu   sync.Mutex
	registered map[string][]string

	httpServerMu sync.Mutex
	httpServer   *http.Server
}

// NewGateway builds a Gateway over hub, subscribes to its lifecycle
// notifications, and publishes the current catalog. With AutoConnect set it
// dials every configured server first.
func NewGateway(hub *toolhub.Hub, opts *Options) (*Gateway, error) {
	if hub == nil {
		return nil, fmt.Errorf("hubgateway: hub is required")
	}
	options := opts.withDefaults()
	if options.TokenOptions != nil && options.TokenVerifier == nil {
		return nil, fmt.Errorf("hubgateway: TokenOptions requires a TokenVerifier")
	}
	g := &Gateway{
		hub:        hub,
		opts:       options,
		registered: make(map[string][]string),
	}

	g.server = mcp.NewServer(options.Implementation, &mcp.ServerOptions{
		HasTools: true,
	})
	g.streamHandler = mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return g.server
	}, &options.Streamable)
	g.mux = http.NewServeMux()
	g.httpHandler = g.mountHandler()

	hub.OnConnected(func(serverID string, _ int) {
		g.SyncServer(serverID)
	})
	hub.OnToolsRefreshed(func(serverID string, _ int) {
		g.SyncServer(serverID)
	})
	hub.OnDisconnected(func(serverID string, _ error) {
		g.removeServer(serverID)
	})
	hub.OnGaveUp(func(serverID string, _ error) {
		g.removeServer(serverID)
	})

	if options.AutoConnect {
		ctx, cancel := context.WithTimeout(context.Background(), options.SyncTimeout)
		hub.ConnectAll(ctx)
		cancel()
	}
	g.SyncAll()

	return g, nil
}

// Handler exposes the HTTP handler that serves the Streamable endpoint along
// with any custom routes added through ServeMux.
func (g *Gateway) Handler() http.Handler {
	return g.httpHandler
}

// ServeMux exposes the gateway's mux so consumers can mount custom routes
// next to the MCP endpoint, before or after serving starts.
func (g *Gateway) ServeMux() *http.ServeMux {
	return g.mux
}

// Options returns the effective (defaulted) configuration.
func (g *Gateway) Options() Options {
	return g.opts
}

// ListenAndServe runs an HTTP server until the provided context is cancelled
// or the server stops.
func (g *Gateway) ListenAndServe(ctx context.Context) error {
	g.httpServerMu.Lock()
	if g.httpServer != nil {
		srv := g.httpServer
		g.httpServerMu.Unlock()
		return fmt.Errorf("hubgateway: server already running on %s", srv.Addr)
	}
	srv := &http.Server{Addr: g.opts.Addr, Handler: g.Handler()}
	g.httpServer = srv
	g.httpServerMu.Unlock()
	defer func() {
		g.httpServerMu.Lock()
		if g.httpServer == srv {
			g.httpServer = nil
		}
		g.httpServerMu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), g.opts.SyncTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown stops the embedded HTTP server if it is running.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.httpServerMu.Lock()
	srv := g.httpServer
	g.httpServer = nil
	g.httpServerMu.Unlock()
	if srv == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return srv.Shutdown(ctx)
}

// SyncAll republishes the catalog of every configured server.
func (g *Gateway) SyncAll() {
	for _, serverID := range g.hub.ServerIDs() {
		g.SyncServer(serverID)
	}
}

// SyncServer replaces the published tool set for one server with the hub's
// current cache, under the hub's namespaced names. A server with no cached
// tools (disconnected or empty) ends up publishing nothing.
func (g *Gateway) SyncServer(serverID string) {
	var tools []*mcp.Tool
	for _, tool := range g.hub.GetTools() {
		if owner, _, ok := toolhub.SplitName(tool.Name); ok && owner == serverID {
			tools = append(tools, tool)
		}
	}

	g.serverMu.Lock()
	defer g.serverMu.Unlock()
	if old := g.registered[serverID]; len(old) > 0 {
		g.server.RemoveTools(old...)
	}
	delete(g.registered, serverID)

	if len(tools) == 0 {
		return
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		g.server.AddTool(tool, g.makeToolHandler(tool.Name))
		names = append(names, tool.Name)
	}
	g.registered[serverID] = names
	g.opts.Logger.Debug("published tools", "server", serverID, "count", len(names))
}

func (g *Gateway) removeServer(serverID string) {
	g.serverMu.Lock()
	defer g.serverMu.Unlock()
	old := g.registered[serverID]
	if len(old) == 0 {
		return
	}
	g.server.RemoveTools(old...)
	delete(g.registered, serverID)
	g.opts.Logger.Debug("withdrew tools", "server", serverID, "count", len(old))
}

func (g *Gateway) makeToolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args any
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		return g.hub.CallTool(ctx, name, args)
	}
}

func (g *Gateway) mountHandler() http.Handler {
	var endpoint http.Handler = g.streamHandler
	if g.opts.TokenVerifier != nil {
		endpoint = auth.RequireBearerToken(g.opts.TokenVerifier, g.opts.TokenOptions)(endpoint)
	}

	path := g.opts.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	g.mux.Handle(path, endpoint)
	if !strings.HasSuffix(path, "/") {
		g.mux.Handle(path+"/", endpoint)
	}
	if g.opts.AuthorizationServer != "" {
		g.mux.HandleFunc("/.well-known/oauth-protected-resource", g.serveResourceMetadata)
	}

	var handler http.Handler = g.mux
	if g.opts.CORS != nil {
		handler = cors.New(*g.opts.CORS).Handler(handler)
	}
	return handler
}

func (g *Gateway) serveResourceMetadata(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	metadata := map[string]any{
		"resource":              scheme + "://" + r.Host + g.opts.Path,
		"authorization_servers": []string{g.opts.AuthorizationServer},
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metadata); err != nil {
		g.opts.Logger.Error("write resource metadata", "error", err)
	}
}
