package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/auth"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/cors"

	"github.com/quillhq/toolhub/pkg/hubgateway"
	"github.com/quillhq/toolhub/pkg/toolhub"
)

func main() {
	authorizationURL := os.Getenv("AUTHORIZATION_SERVER_URL")
	oauthResourceMetadataURL := os.Getenv("OAUTH_RESOURCE_METADATA_URL")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := toolhub.NewHub(map[string]toolhub.ServerConfig{
		"stdio-example": &toolhub.StdioServerConfig{
			BaseServerConfig: toolhub.BaseServerConfig{Timeout: 15 * time.Second},
			Command:          "npx",
			Args:             []string{"@modelcontextprotocol/server-everything"},
		},
	}, &toolhub.HubOptions{ClientName: "gateway-example"})

	verifier := func(ctx context.Context, token string, req *http.Request) (*auth.TokenInfo, error) {
		// Validate token with your upstream authorization server
		// Return TokenInfo with scopes, expiration, etc.
		return &auth.TokenInfo{
			Expiration: time.Now().Add(time.Hour),
		}, nil
	}

	gatewayOpts := &hubgateway.Options{
		Addr:        ":8787",
		Path:        "/mcp",
		AutoConnect: true,
		Streamable: mcp.StreamableHTTPOptions{
			Stateless:    false,
			JSONResponse: true,
		},
		CORS: &cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", "Authorization", "Mcp-Session-Id"},
		},
	}
	if authorizationURL != "" && oauthResourceMetadataURL != "" {
		gatewayOpts.TokenVerifier = verifier
		gatewayOpts.TokenOptions = &auth.RequireBearerTokenOptions{
			ResourceMetadataURL: oauthResourceMetadataURL,
		}
		gatewayOpts.AuthorizationServer = authorizationURL
	}

	gateway, err := hubgateway.NewGateway(hub, gatewayOpts)
	if err != nil {
		log.Fatalf("failed to build gateway: %v", err)
	}
	defer hub.DisconnectAll(context.Background())

	gwOptions := gateway.Options()
	log.Printf("gateway serving Streamable MCP on %s%s", gwOptions.Addr, gwOptions.Path)
	if err := gateway.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("gateway server stopped: %v", err)
	}
}
