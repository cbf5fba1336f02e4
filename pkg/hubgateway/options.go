package hubgateway

import (
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"
)

// Options configures a Gateway. The zero value is usable; NewGateway applies
// the defaults documented on each field.
type Options struct {
	// Implementation identifies the gateway to downstream MCP clients.
	// Defaults to name "toolhub-gateway", version "1.0.0".
	Implementation *mcp.Implementation

	// Addr is the listen address for ListenAndServe. Defaults to ":8700".
	Addr string

	// Path is the URL path the MCP endpoint is mounted on. Defaults to "/mcp".
	Path string

	// AutoConnect makes NewGateway connect every hub server before the
	// first catalog sync.
	AutoConnect bool

	// Streamable is passed through to the Streamable HTTP handler.
	Streamable mcp.StreamableHTTPOptions

	// Logger receives gateway diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// SyncTimeout bounds the AutoConnect pass. Defaults to 30s.
	SyncTimeout time.Duration

	// TokenVerifier, when set, wraps the MCP endpoint in bearer-token
	// authentication. TokenOptions tunes the middleware and requires a
	// verifier to be set alongside it.
	TokenVerifier auth.TokenVerifier
	TokenOptions  *auth.RequireBearerTokenOptions

	// AuthorizationServer, when set, is advertised from
	// /.well-known/oauth-protected-resource so clients can discover where
	// to obtain tokens.
	AuthorizationServer string

	// CORS, when set, wraps the whole mux in the corresponding CORS policy.
	CORS *cors.Options
}

const (
	defaultAddr        = ":8700"
	defaultPath        = "/mcp"
	defaultSyncTimeout = 30 * time.Second
)

// withDefaults returns a copy of o with unset fields replaced by defaults.
// A nil receiver yields a fully defaulted Options.
func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Implementation == nil {
		out.Implementation = &mcp.Implementation{Name: "toolhub-gateway", Version: "1.0.0"}
	}
	if out.Addr == "" {
		out.Addr = defaultAddr
	}
	if out.Path == "" {
		out.Path = defaultPath
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.SyncTimeout <= 0 {
		out.SyncTimeout = defaultSyncTimeout
	}
	return out
}
