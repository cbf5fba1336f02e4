package toolhub

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Defaults applied when a BaseServerConfig leaves the corresponding field
// unset.
const (
	DefaultCallTimeout          = 60 * time.Second
	DefaultReconnectDelay       = 5 * time.Second
	DefaultMaxReconnectAttempts = 3
)

// BaseServerConfig captures settings shared by all transport types.
// Configurations are read-only inputs: the hub never mutates them, and
// mutating one after handing it to NewHub is undefined.
type BaseServerConfig struct {
	// Timeout bounds each tool call against this server, as well as the
	// connect sequence (spawn, handshake, initial tool fetch) and explicit
	// tool refreshes. Defaults to DefaultCallTimeout.
	Timeout time.Duration
	// ReconnectDelay is the fixed wait between automatic reconnect attempts
	// after an unexpected disconnect. Defaults to DefaultReconnectDelay.
	ReconnectDelay time.Duration
	// MaxReconnectAttempts caps automatic reconnects per outage. Zero means
	// DefaultMaxReconnectAttempts; a negative value disables automatic
	// reconnection entirely.
	MaxReconnectAttempts int
	// Disabled entries are skipped at construction time: no state is created
	// for them and they never appear in GetStatus.
	Disabled bool
}

func (c *BaseServerConfig) callTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultCallTimeout
}

func (c *BaseServerConfig) reconnectDelay() time.Duration {
	if c.ReconnectDelay > 0 {
		return c.ReconnectDelay
	}
	return DefaultReconnectDelay
}

func (c *BaseServerConfig) maxReconnectAttempts() int {
	if c.MaxReconnectAttempts < 0 {
		return 0
	}
	if c.MaxReconnectAttempts == 0 {
		return DefaultMaxReconnectAttempts
	}
	return c.MaxReconnectAttempts
}

// StdioServerConfig describes a tool server launched as a subprocess speaking
// the protocol over its standard input/output.
type StdioServerConfig struct {
	BaseServerConfig
	Command string
	Args    []string
	// Env entries are appended to the inherited environment.
	Env map[string]string
	// Dir optionally sets the child's working directory.
	Dir string
}

func (c *StdioServerConfig) base() *BaseServerConfig { return &c.BaseServerConfig }

// DialServerConfig describes a tool server reached through a caller-supplied
// transport, typically an in-process server over in-memory pipes. Dial is
// invoked once per connection attempt.
type DialServerConfig struct {
	BaseServerConfig
	Dial func(ctx context.Context) (mcp.Transport, error)
}

func (c *DialServerConfig) base() *BaseServerConfig { return &c.BaseServerConfig }

// ServerConfig is implemented by all transport-specific configurations.
type ServerConfig interface {
	base() *BaseServerConfig
}

// HubOptions configure a Hub instance.
type HubOptions struct {
	// ClientName is the implementation name advertised to every server during
	// the handshake. Defaults to "toolhub".
	ClientName string
	// ClientVersion is the semantic version reported to servers.
	ClientVersion string
	// Logger receives structured diagnostics. Connection activity is never
	// written to a server's protocol stream; it all goes here. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

func (o *HubOptions) normalized() HubOptions {
	opts := HubOptions{}
	if o != nil {
		opts = *o
	}
	if opts.ClientName == "" {
		opts.ClientName = "toolhub"
	}
	if opts.ClientVersion == "" {
		opts.ClientVersion = "1.0.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}
