// Package dispatch implements multi-key polymorphic resolution over a tag
// hierarchy. A Table holds (key tuple -> handler) entries; resolving an input
// tuple finds the most specific registered entry, walking tag axes through
// hierarchy ancestors and type axes through an exact-or-wildcard match.
//
// Each polymorphic operation owns its own Table instance: page rendering,
// action and breadcrumb listing, table styling, column order, cell style, and
// cell template/transform selection all reuse this one mechanism.
package dispatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-admingen/pkg/tags"
)

type axisKind int

const (
	axisTag axisKind = iota
	axisType
	axisAny
)

// wildcardRank orders wildcard matches after any real ancestor distance.
const wildcardRank = 1 << 30

// Value is one axis component of a dispatch key: a tag, a concrete type
// identifier, or the wildcard.
type Value struct {
	kind axisKind
	tag  tags.Tag
	name string
}

// On builds a tag axis value, matched through hierarchy ancestry.
func On(tag tags.Tag) Value {
	return Value{kind: axisTag, tag: tag}
}

// OnType builds a type axis value, matched by identifier equality.
func OnType(name string) Value {
	return Value{kind: axisType, name: name}
}

// Any builds the wildcard value, matched by everything at lowest precedence.
func Any() Value {
	return Value{kind: axisAny}
}

func (v Value) String() string {
	switch v.kind {
	case axisTag:
		return string(v.tag)
	case axisType:
		return "type:" + v.name
	default:
		return "*"
	}
}

// Key is an ordered tuple of axis values identifying a handler registration.
type Key []Value

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (k Key) equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// NoHandlerError reports a resolution with no matching entry and no default.
type NoHandlerError struct {
	Key Key
}

func (e *NoHandlerError) Error() string {
	return fmt.Sprintf("dispatch: no handler registered for %s", e.Key)
}

// AmbiguousError reports two or more equally specific matches. It indicates a
// declaration conflict; resolution never picks one arbitrarily.
type AmbiguousError struct {
	Key        Key
	Candidates []Key
}

func (e *AmbiguousError) Error() string {
	parts := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		parts[i] = c.String()
	}
	return fmt.Sprintf("dispatch: ambiguous handlers for %s: %s", e.Key, strings.Join(parts, " vs "))
}

type entry[H any] struct {
	key     Key
	handler H
}

// Table stores handler registrations for one polymorphic operation. H is the
// handler type shared by every entry; the zero Table is not usable, construct
// with NewTable.
type Table[H any] struct {
	hierarchy *tags.Hierarchy
	arity     int

	mu      sync.RWMutex
	entries []entry[H]
}

// NewTable creates a table dispatching over arity axes, using hierarchy for
// tag-axis ancestor matching.
func NewTable[H any](hierarchy *tags.Hierarchy, arity int) *Table[H] {
	if hierarchy == nil {
		hierarchy = tags.NewHierarchy()
	}
	if arity < 1 {
		arity = 1
	}
	return &Table[H]{hierarchy: hierarchy, arity: arity}
}

// Arity returns the number of dispatch axes.
func (t *Table[H]) Arity() int {
	return t.arity
}

// Register associates handler with the exact key. Duplicate keys return an
// error rather than silently replacing the earlier handler.
func (t *Table[H]) Register(key Key, handler H) error {
	if len(key) != t.arity {
		return fmt.Errorf("dispatch: key %s has %d axes, table dispatches on %d", key, len(key), t.arity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, existing := range t.entries {
		if existing.key.equal(key) {
			return fmt.Errorf("dispatch: handler already registered for %s", key)
		}
	}
	t.entries = append(t.entries, entry[H]{key: append(Key(nil), key...), handler: handler})
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (t *Table[H]) MustRegister(key Key, handler H) {
	if err := t.Register(key, handler); err != nil {
		panic(err)
	}
}

// Default registers handler under the fully wildcarded key, making it the
// fallback when nothing more specific matches.
func (t *Table[H]) Default(handler H) error {
	key := make(Key, t.arity)
	for i := range key {
		key[i] = Any()
	}
	return t.Register(key, handler)
}

// Resolve finds the most specific handler for the input tuple. Tag axes match
// the input tag and every hierarchy ancestor, closer ancestors winning; type
// axes match the concrete identifier or a wildcard. Specificity vectors are
// compared axis by axis, left to right. Equally specific entries fail with
// *AmbiguousError; no match and no wildcard default fails with
// *NoHandlerError.
//
// Resolution is a pure function of the hierarchy snapshot, the registered
// entries, and the input tuple.
func (t *Table[H]) Resolve(values ...Value) (H, error) {
	var zero H
	if len(values) != t.arity {
		return zero, fmt.Errorf("dispatch: resolving %d values against %d axes", len(values), t.arity)
	}
	for _, v := range values {
		if v.kind == axisAny {
			return zero, fmt.Errorf("dispatch: wildcard is not a resolvable input value")
		}
	}

	// Ancestor closures are computed once per tag axis, not per entry.
	closures := make([]map[tags.Tag]int, len(values))
	for i, v := range values {
		if v.kind == axisTag {
			closures[i] = t.hierarchy.Ancestors(v.tag)
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var (
		best     []entry[H]
		bestRank []int
	)
	for _, candidate := range t.entries {
		rank, ok := t.rank(candidate.key, values, closures)
		if !ok {
			continue
		}
		switch compareRanks(rank, bestRank) {
		case -1:
			best = best[:0]
			best = append(best, candidate)
			bestRank = rank
		case 0:
			best = append(best, candidate)
		}
	}

	switch len(best) {
	case 0:
		return zero, &NoHandlerError{Key: append(Key(nil), values...)}
	case 1:
		return best[0].handler, nil
	default:
		conflict := &AmbiguousError{Key: append(Key(nil), values...)}
		for _, candidate := range best {
			conflict.Candidates = append(conflict.Candidates, candidate.key)
		}
		return zero, conflict
	}
}

func (t *Table[H]) rank(key Key, values []Value, closures []map[tags.Tag]int) ([]int, bool) {
	rank := make([]int, len(key))
	for i, axis := range key {
		in := values[i]
		switch axis.kind {
		case axisAny:
			rank[i] = wildcardRank
		case axisTag:
			if in.kind != axisTag {
				return nil, false
			}
			distance, ok := closures[i][axis.tag]
			if !ok {
				return nil, false
			}
			rank[i] = distance
		case axisType:
			if in.kind != axisType || in.name != axis.name {
				return nil, false
			}
			rank[i] = 0
		}
	}
	return rank, true
}

// compareRanks orders specificity vectors lexicographically. A nil best means
// no candidate has been seen yet.
func compareRanks(rank, best []int) int {
	if best == nil {
		return -1
	}
	for i := range rank {
		switch {
		case rank[i] < best[i]:
			return -1
		case rank[i] > best[i]:
			return 1
		}
	}
	return 0
}
