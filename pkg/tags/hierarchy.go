package tags

import (
	"fmt"
	"sort"
	"sync"
)

// Tag is a symbolic classifier participating in the inheritance hierarchy.
// Page kinds, table styles, and cell styles are all tags.
type Tag string

// CycleError reports a Derive call that would close an inheritance cycle.
type CycleError struct {
	Tag    Tag
	Parent Tag
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("tags: deriving %q from %q would create a cycle", e.Tag, e.Parent)
}

// Hierarchy holds parent edges between tags. Multiple parents per tag are
// allowed (diamond inheritance); the graph must stay acyclic. Declarations
// happen during startup, reads happen concurrently while serving, and there
// is no deletion operation.
type Hierarchy struct {
	mu      sync.RWMutex
	parents map[Tag][]Tag
}

// NewHierarchy creates an empty hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		parents: make(map[Tag][]Tag),
	}
}

// Derive registers tag as a child of parent. Registering an existing edge is
// a no-op. An edge that would close a cycle fails with *CycleError, leaving
// the hierarchy untouched.
func (h *Hierarchy) Derive(tag, parent Tag) error {
	if tag == "" || parent == "" {
		return fmt.Errorf("tags: tag and parent are required")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, existing := range h.parents[tag] {
		if existing == parent {
			return nil
		}
	}

	// tag -> parent closes a cycle exactly when tag is already reachable
	// from parent.
	if tag == parent || h.reachableLocked(parent, tag) {
		return &CycleError{Tag: tag, Parent: parent}
	}

	h.parents[tag] = append(h.parents[tag], parent)
	if _, ok := h.parents[parent]; !ok {
		h.parents[parent] = nil
	}
	return nil
}

// MustDerive panics on registration failure. Useful for init-time wiring.
func (h *Hierarchy) MustDerive(tag, parent Tag) {
	if err := h.Derive(tag, parent); err != nil {
		panic(err)
	}
}

// IsA reports whether ancestor is tag itself or reachable through any chain
// of parent edges.
func (h *Hierarchy) IsA(tag, ancestor Tag) bool {
	if tag == ancestor {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.reachableLocked(tag, ancestor)
}

// Ancestors returns every tag reachable from tag, mapped to its minimal hop
// distance. The tag itself is included at distance zero. Diamond paths are
// explored once, keeping the shortest distance.
func (h *Hierarchy) Ancestors(tag Tag) map[Tag]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	distances := map[Tag]int{tag: 0}
	frontier := []Tag{tag}
	for depth := 1; len(frontier) > 0; depth++ {
		var next []Tag
		for _, current := range frontier {
			for _, parent := range h.parents[current] {
				if _, seen := distances[parent]; seen {
					continue
				}
				distances[parent] = depth
				next = append(next, parent)
			}
		}
		frontier = next
	}
	return distances
}

// Parents returns the direct parents of tag in declaration order.
func (h *Hierarchy) Parents(tag Tag) []Tag {
	h.mu.RLock()
	defer h.mu.RUnlock()

	parents := h.parents[tag]
	if len(parents) == 0 {
		return nil
	}
	return append([]Tag(nil), parents...)
}

// Known reports whether tag has been mentioned in any Derive call.
func (h *Hierarchy) Known(tag Tag) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.parents[tag]
	return ok
}

// Tags returns every declared tag in sorted order.
func (h *Hierarchy) Tags() []Tag {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Tag, 0, len(h.parents))
	for tag := range h.parents {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (h *Hierarchy) reachableLocked(from, to Tag) bool {
	if from == to {
		return true
	}
	seen := map[Tag]bool{from: true}
	stack := []Tag{from}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, parent := range h.parents[current] {
			if parent == to {
				return true
			}
			if !seen[parent] {
				seen[parent] = true
				stack = append(stack, parent)
			}
		}
	}
	return false
}
