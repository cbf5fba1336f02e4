package toolhub

import (
	"testing"
	"time"
)

func TestBaseServerConfigDefaults(t *testing.T) {
	t.Parallel()

	var base BaseServerConfig
	if got := base.callTimeout(); got != DefaultCallTimeout {
		t.Fatalf("default call timeout = %s", got)
	}
	if got := base.reconnectDelay(); got != DefaultReconnectDelay {
		t.Fatalf("default reconnect delay = %s", got)
	}
	if got := base.maxReconnectAttempts(); got != DefaultMaxReconnectAttempts {
		t.Fatalf("default max attempts = %d", got)
	}

	base = BaseServerConfig{
		Timeout:              10 * time.Second,
		ReconnectDelay:       time.Second,
		MaxReconnectAttempts: 7,
	}
	if base.callTimeout() != 10*time.Second || base.reconnectDelay() != time.Second || base.maxReconnectAttempts() != 7 {
		t.Fatalf("explicit config not honored: %+v", base)
	}

	base.MaxReconnectAttempts = -1
	if got := base.maxReconnectAttempts(); got != 0 {
		t.Fatalf("negative max attempts should disable reconnects, got %d", got)
	}
}

func TestConfigNarrowingHelpers(t *testing.T) {
	t.Parallel()

	stdio := &StdioServerConfig{Command: "server"}
	dial := &DialServerConfig{}

	if TransportOf(stdio) != TransportStdio || TransportOf(dial) != TransportDial {
		t.Fatalf("TransportOf misclassified configs")
	}
	if !IsStdio(stdio) || IsStdio(dial) {
		t.Fatalf("IsStdio misclassified configs")
	}
	if narrowed, ok := AsStdio(stdio); !ok || narrowed.Command != "server" {
		t.Fatalf("AsStdio lost the config")
	}
	if _, ok := AsDial(stdio); ok {
		t.Fatalf("AsDial should reject stdio configs")
	}
}

func TestHubOptionsNormalized(t *testing.T) {
	t.Parallel()

	opts := (*HubOptions)(nil).normalized()
	if opts.ClientName == "" || opts.ClientVersion == "" || opts.Logger == nil {
		t.Fatalf("nil options not normalized: %+v", opts)
	}

	custom := (&HubOptions{ClientName: "assistant"}).normalized()
	if custom.ClientName != "assistant" {
		t.Fatalf("explicit client name overridden: %+v", custom)
	}
}
