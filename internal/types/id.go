package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// idShapeRe matches "<prefix>-<hash>" with optional numeric child segments.
var idShapeRe = regexp.MustCompile(`(?i)^[a-z][a-z0-9_]*-[a-z0-9]+(?:\.\d+)*$`)

// LooksLikeID reports whether s has the shape of a tracker ID, such as
// "proj-a3f8" or "proj-a3f8.2.1".
func LooksLikeID(s string) bool {
	return idShapeRe.MatchString(s)
}

// IDDepth returns the number of hierarchical segments after the base ID.
// "proj-a3f8" is 0, "proj-a3f8.2" is 1, "proj-a3f8.2.1" is 2.
func IDDepth(id string) int {
	return strings.Count(id, ".")
}

// parseHierarchicalID splits a hierarchical ID (e.g., "proj-abc.1") into its
// parent ID and child number.
func parseHierarchicalID(id string) (parentID string, childNum int, ok bool) {
	lastDot := strings.LastIndex(id, ".")
	if lastDot == -1 {
		return "", 0, false
	}
	num, err := strconv.Atoi(id[lastDot+1:])
	if err != nil || num < 0 {
		return "", 0, false
	}
	return id[:lastDot], num, true
}

// ParentOf returns the implied parent of a hierarchical ID, or "" for a root ID.
func ParentOf(id string) string {
	parent, _, ok := parseHierarchicalID(id)
	if !ok {
		return ""
	}
	return parent
}

// ValidateHierarchicalID checks that id has the dot depth expected for kind.
// Hierarchical IDs are a display convention of the tracker; callers use this
// to flag suspicious input, not to reject it.
func ValidateHierarchicalID(id string, kind Kind) error {
	if id == "" {
		return fmt.Errorf("empty ID")
	}
	if !strings.Contains(strings.SplitN(id, ".", 2)[0], "-") {
		return fmt.Errorf("ID %q has no prefix", id)
	}
	for i, seg := range strings.Split(id, ".")[1:] {
		if _, err := strconv.Atoi(seg); err != nil {
			return fmt.Errorf("ID %q: segment %d (%q) is not numeric", id, i+1, seg)
		}
	}
	want := kind.Depth()
	if want < 0 {
		return nil
	}
	if got := IDDepth(id); got != want {
		return fmt.Errorf("%s ID %q has %d dot segment(s), want %d", kind, id, got, want)
	}
	return nil
}

// ValidateParentage checks that child extends parent by exactly one segment.
func ValidateParentage(child, parent string) error {
	p := ParentOf(child)
	if p == "" {
		return fmt.Errorf("ID %q is not hierarchical", child)
	}
	if p != parent {
		return fmt.Errorf("ID %q is not a direct child of %q", child, parent)
	}
	return nil
}
