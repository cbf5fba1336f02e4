package toolhub

import "testing"

func TestNamespacedNameRoundTrip(t *testing.T) {
	t.Parallel()

	name := NamespacedName("alpha", "read")
	if name != "alpha__read" {
		t.Fatalf("NamespacedName = %q", name)
	}
	serverID, toolName, ok := SplitName(name)
	if !ok || serverID != "alpha" || toolName != "read" {
		t.Fatalf("SplitName(%q) = (%q, %q, %v)", name, serverID, toolName, ok)
	}
}

func TestSplitNameOnlySplitsFirstOccurrence(t *testing.T) {
	t.Parallel()

	serverID, toolName, ok := SplitName("S__a__b")
	if !ok || serverID != "S" || toolName != "a__b" {
		t.Fatalf("SplitName(S__a__b) = (%q, %q, %v)", serverID, toolName, ok)
	}
}

func TestIsNamespacedName(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil, nil)
	if !hub.IsMCPTool("alpha__read") {
		t.Fatalf("alpha__read should be recognized as a hub tool")
	}
	if hub.IsMCPTool("builtin_search") {
		t.Fatalf("builtin_search wrongly treated as a hub tool")
	}
	if _, _, ok := SplitName("plain"); ok {
		t.Fatalf("SplitName should reject names without the separator")
	}
}
