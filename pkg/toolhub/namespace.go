package toolhub

import "strings"

// NameSeparator joins a server ID and a tool name in the aggregate catalog.
// Server IDs must not contain it; tool names may.
const NameSeparator = "__"

// NamespacedName returns the aggregate-catalog name for a tool owned by the
// given server.
func NamespacedName(serverID, toolName string) string {
	return serverID + NameSeparator + toolName
}

// SplitName splits a namespaced name at the first separator occurrence.
// Everything after the first separator is the literal tool name, so tools
// whose own names contain the separator round-trip intact.
func SplitName(name string) (serverID, toolName string, ok bool) {
	return strings.Cut(name, NameSeparator)
}

// IsNamespacedName reports whether name carries the hub's namespace
// separator. Callers use it to tell hub-dispatched tools apart from other
// tool-naming schemes in the wider application.
func IsNamespacedName(name string) bool {
	return strings.Contains(name, NameSeparator)
}
