// Package hubgateway re-exposes a toolhub's aggregate catalog as a single
// Streamable MCP server over HTTP. Downstream clients connect to one endpoint
// and see every namespaced tool the hub currently holds; calls are proxied
// through the hub's dispatch path, so per-server timeouts and connection
// state apply unchanged. The gateway tracks hub lifecycle notifications to
// keep its advertised tool set in step with upstream connects, refreshes, and
// outages.
package hubgateway
