package dispatch_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-admingen/pkg/dispatch"
	"github.com/goliatone/go-admingen/pkg/tags"
)

func newHierarchy(t *testing.T) *tags.Hierarchy {
	t.Helper()
	h := tags.NewHierarchy()
	edges := [][2]tags.Tag{
		{"list", "page"},
		{"detail", "page"},
		{"paginated-list", "list"},
	}
	for _, edge := range edges {
		if err := h.Derive(edge[0], edge[1]); err != nil {
			t.Fatalf("derive %s -> %s: %v", edge[0], edge[1], err)
		}
	}
	return h
}

func TestResolve_ExactBeatsAncestor(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("page")}, "page")
	mustRegister(t, table, dispatch.Key{dispatch.On("list")}, "list")

	got, err := table.Resolve(dispatch.On("list"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "list" {
		t.Fatalf("expected exact handler, got %q", got)
	}
}

func TestResolve_ClosestAncestorWins(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("page")}, "page")
	mustRegister(t, table, dispatch.Key{dispatch.On("list")}, "list")

	got, err := table.Resolve(dispatch.On("paginated-list"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "list" {
		t.Fatalf("expected closest ancestor handler, got %q", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("page")}, "page")

	first, err := table.Resolve(dispatch.On("detail"))
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := table.Resolve(dispatch.On("detail"))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first != second {
		t.Fatalf("resolution not deterministic: %q vs %q", first, second)
	}
}

func TestResolve_DiamondAmbiguity(t *testing.T) {
	h := tags.NewHierarchy()
	for _, edge := range [][2]tags.Tag{
		{"audit-list", "list"},
		{"audit-list", "audited"},
		{"list", "page"},
		{"audited", "page"},
	} {
		if err := h.Derive(edge[0], edge[1]); err != nil {
			t.Fatalf("derive: %v", err)
		}
	}

	table := dispatch.NewTable[string](h, 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("list")}, "list")
	mustRegister(t, table, dispatch.Key{dispatch.On("audited")}, "audited")

	_, err := table.Resolve(dispatch.On("audit-list"))
	var ambiguous *dispatch.AmbiguousError
	if !errors.As(err, &ambiguous) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	if len(ambiguous.Candidates) != 2 {
		t.Fatalf("expected both candidates reported, got %v", ambiguous.Candidates)
	}
}

func TestResolve_TypeAxisAndWildcard(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 2)
	mustRegister(t, table, dispatch.Key{dispatch.On("list"), dispatch.OnType("widget")}, "widget-list")
	mustRegister(t, table, dispatch.Key{dispatch.On("list"), dispatch.Any()}, "any-list")

	got, err := table.Resolve(dispatch.On("list"), dispatch.OnType("widget"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "widget-list" {
		t.Fatalf("concrete type must beat wildcard, got %q", got)
	}

	got, err = table.Resolve(dispatch.On("list"), dispatch.OnType("gadget"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "any-list" {
		t.Fatalf("unmatched type must fall back to wildcard, got %q", got)
	}
}

func TestResolve_LeftAxisDominates(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 2)
	mustRegister(t, table, dispatch.Key{dispatch.On("paginated-list"), dispatch.Any()}, "specific-left")
	mustRegister(t, table, dispatch.Key{dispatch.On("list"), dispatch.OnType("widget")}, "specific-right")

	got, err := table.Resolve(dispatch.On("paginated-list"), dispatch.OnType("widget"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "specific-left" {
		t.Fatalf("leftmost axis must dominate, got %q", got)
	}
}

func TestResolve_DefaultFallback(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	if err := table.Default("fallback"); err != nil {
		t.Fatalf("register default: %v", err)
	}

	got, err := table.Resolve(dispatch.On("unrelated"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "fallback" {
		t.Fatalf("expected wildcard default, got %q", got)
	}
}

func TestResolve_NoHandler(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("detail")}, "detail")

	_, err := table.Resolve(dispatch.On("list"))
	var missing *dispatch.NoHandlerError
	if !errors.As(err, &missing) {
		t.Fatalf("expected NoHandlerError, got %v", err)
	}
}

func TestRegister_RejectsDuplicatesAndArityMismatch(t *testing.T) {
	table := dispatch.NewTable[string](newHierarchy(t), 1)
	mustRegister(t, table, dispatch.Key{dispatch.On("list")}, "list")

	if err := table.Register(dispatch.Key{dispatch.On("list")}, "again"); err == nil {
		t.Fatalf("expected duplicate key to be rejected")
	}
	if err := table.Register(dispatch.Key{dispatch.On("a"), dispatch.On("b")}, "wide"); err == nil {
		t.Fatalf("expected arity mismatch to be rejected")
	}
	if _, err := table.Resolve(dispatch.On("a"), dispatch.On("b")); err == nil {
		t.Fatalf("expected resolve arity mismatch to be rejected")
	}
	if _, err := table.Resolve(dispatch.Any()); err == nil {
		t.Fatalf("expected wildcard input to be rejected")
	}
}

func mustRegister(t *testing.T, table *dispatch.Table[string], key dispatch.Key, handler string) {
	t.Helper()
	if err := table.Register(key, handler); err != nil {
		t.Fatalf("register %s: %v", key, err)
	}
}
