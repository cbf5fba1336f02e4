package main

import (
	"context"
	"fmt"
	"time"

	"github.com/quillhq/toolhub/pkg/toolhub"
)

func main() {
	hub := toolhub.NewHub(map[string]toolhub.ServerConfig{
		"example-stdio": &toolhub.StdioServerConfig{
			BaseServerConfig: toolhub.BaseServerConfig{Timeout: 10 * time.Second},
			Command:          "./my-mcp-server",
			Args:             []string{"--serve"},
		},
	}, &toolhub.HubOptions{ClientName: "hub-example"})

	ctx := context.Background()
	hub.ConnectAll(ctx)

	for id, summary := range hub.GetStatus() {
		fmt.Printf("Server %s: %s (%d tools)\n", id, summary.Status, summary.ToolCount)
	}
	for _, tool := range hub.GetTools() {
		fmt.Printf("Tool: %s: %s\n", tool.Name, tool.Description)
	}

	result, err := hub.CallTool(ctx, "example-stdio__echo", map[string]any{"message": "hello"})
	if err != nil {
		fmt.Printf("call error: %v\n", err)
	} else {
		fmt.Printf("call result: %+v\n", result.Content)
	}

	hub.DisconnectAll(ctx)
}
