// Package toolhub supervises a fleet of external tool servers that speak the
// Model Context Protocol over their standard I/O streams. It spawns one
// subprocess per configured server, performs the protocol handshake, caches
// each server's advertised tool catalog, and exposes the union of every
// catalog under collision-free namespaced names so callers can dispatch any
// tool through a single entry point.
//
// # Core entry points
//
//   - Hub is the long-lived supervisor. Construct it with NewHub, then call
//     ConnectAll once at startup (or ConnectServer for a single entry).
//   - ServerConfig (and the StdioServerConfig / DialServerConfig variants)
//     declare how each tool server is launched, its per-call timeout, and its
//     reconnect budget.
//   - CallTool dispatches a namespaced tool name ("{serverID}__{tool}") to the
//     owning server, bounded by that server's configured timeout.
//
// A server whose connection drops unexpectedly is retried automatically: a
// fixed delay between attempts, a bounded attempt count, and a gave-up
// notification once the budget is spent. Its tools simply disappear from the
// aggregate catalog in the meantime; an explicit ConnectServer revives it.
// Lifecycle transitions are observable through OnConnected, OnDisconnected,
// OnGaveUp, and OnToolsRefreshed, and through the GetStatus snapshot.
package toolhub
