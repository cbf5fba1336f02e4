package hubgateway

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/quillhq/toolhub/pkg/toolhub"
)

// upstream is an in-process MCP server reachable through a dial-based hub
// config, so gateway tests never spawn subprocesses or touch the network.
type upstream struct {
	server *mcp.Server

	mu       sync.Mutex
	sessions []*mcp.ServerSession
	calls    int
}

func newUpstream(name string) *upstream {
	return &upstream{
		server: mcp.NewServer(&mcp.Implementation{Name: name, Version: "0.1.0"}, nil),
	}
}

func (u *upstream) addEchoTool(name string) {
	u.server.AddTool(&mcp.Tool{
		Name:        name,
		Description: name + " tool",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		u.mu.Lock()
		u.calls++
		u.mu.Unlock()
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "echo:" + name}},
		}, nil
	})
}

func (u *upstream) config() *toolhub.DialServerConfig {
	return &toolhub.DialServerConfig{
		// Reconnects would re-publish tools mid-test, so disable them.
		BaseServerConfig: toolhub.BaseServerConfig{MaxReconnectAttempts: -1},
		Dial: func(ctx context.Context) (mcp.Transport, error) {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()
			session, err := u.server.Connect(ctx, serverTransport, nil)
			if err != nil {
				return nil, err
			}
			u.mu.Lock()
			u.sessions = append(u.sessions, session)
			u.mu.Unlock()
			return clientTransport, nil
		},
	}
}

func (u *upstream) closeSessions() {
	u.mu.Lock()
	sessions := u.sessions
	u.sessions = nil
	u.mu.Unlock()
	for _, session := range sessions {
		_ = session.Close()
	}
}

func (u *upstream) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func TestGatewayRequiresHub(t *testing.T) {
	t.Parallel()

	if _, err := NewGateway(nil, nil); err == nil {
		t.Fatalf("expected error for nil hub")
	}
}

func TestGatewayServeMux_AllowsCustomRoutes_BeforeServe(t *testing.T) {
	t.Parallel()

	hub := toolhub.NewHub(nil, &toolhub.HubOptions{Logger: quietLogger()})
	gateway, err := NewGateway(hub, &Options{Path: "/mcp", Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	mux := gateway.ServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := httptest.NewServer(gateway.Handler())
	t.Cleanup(srv.Close)

	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		t.Fatalf("GET /healthz status = %d, want 200", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "ok" {
		t.Fatalf("GET /healthz body = %q, want \"ok\"", string(body))
	}
}

func TestGatewayServeMux_AllowsCustomRoutes_AfterServe(t *testing.T) {
	t.Parallel()

	hub := toolhub.NewHub(nil, &toolhub.HubOptions{Logger: quietLogger()})
	gateway, err := NewGateway(hub, &Options{Path: "/mcp", Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	srv := httptest.NewServer(gateway.Handler())
	t.Cleanup(srv.Close)

	// Register a route after the server has started.
	mux := gateway.ServeMux()
	mux.HandleFunc("/late", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ready"))
	})

	res, err := http.Get(srv.URL + "/late")
	if err != nil {
		t.Fatalf("GET /late: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != 200 {
		t.Fatalf("GET /late status = %d, want 200", res.StatusCode)
	}
	body, _ := io.ReadAll(res.Body)
	if string(body) != "ready" {
		t.Fatalf("GET /late body = %q, want \"ready\"", string(body))
	}
}

func TestGatewayCORSPreflight(t *testing.T) {
	t.Parallel()

	hub := toolhub.NewHub(nil, &toolhub.HubOptions{Logger: quietLogger()})
	gateway, err := NewGateway(hub, &Options{
		Path:   "/mcp",
		Logger: quietLogger(),
		CORS: &cors.Options{
			AllowedOrigins: []string{"https://app.example.com"},
			AllowedMethods: []string{http.MethodPost, http.MethodGet},
			AllowedHeaders: []string{"Content-Type", "Mcp-Session-Id"},
		},
	})
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}

	srv := httptest.NewServer(gateway.Handler())
	t.Cleanup(srv.Close)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/mcp", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want allowed origin", got)
	}

	req, err = http.NewRequest(http.MethodOptions, srv.URL+"/mcp", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err = srv.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	res.Body.Close()
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q for disallowed origin, want empty", got)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	t.Parallel()

	defaults := (*Options)(nil).withDefaults()
	if defaults.Addr != ":8700" {
		t.Fatalf("default Addr = %q", defaults.Addr)
	}
	if defaults.Path != "/mcp" {
		t.Fatalf("default Path = %q", defaults.Path)
	}
	if defaults.SyncTimeout != 30*time.Second {
		t.Fatalf("default SyncTimeout = %v", defaults.SyncTimeout)
	}
	if defaults.Implementation == nil || defaults.Implementation.Name != "toolhub-gateway" {
		t.Fatalf("default Implementation = %+v", defaults.Implementation)
	}
	if defaults.Logger == nil {
		t.Fatalf("default Logger is nil")
	}

	explicit := (&Options{Addr: ":9000", Path: "/tools", SyncTimeout: time.Second}).withDefaults()
	if explicit.Addr != ":9000" || explicit.Path != "/tools" || explicit.SyncTimeout != time.Second {
		t.Fatalf("explicit options not preserved: %+v", explicit)
	}
}
