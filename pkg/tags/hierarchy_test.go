package tags_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingen/pkg/tags"
)

func TestDerive_TransitiveReachability(t *testing.T) {
	h := tags.NewHierarchy()
	mustDerive(t, h, "paginated-list", "list")
	mustDerive(t, h, "list", "page")

	if !h.IsA("paginated-list", "page") {
		t.Fatalf("expected paginated-list to reach page across two hops")
	}
	if !h.IsA("paginated-list", "paginated-list") {
		t.Fatalf("expected IsA to be reflexive")
	}
	if h.IsA("page", "paginated-list") {
		t.Fatalf("reachability must not run child-ward")
	}
}

func TestDerive_DiamondCountsAncestorsOnce(t *testing.T) {
	h := tags.NewHierarchy()
	mustDerive(t, h, "audit-list", "list")
	mustDerive(t, h, "audit-list", "audited")
	mustDerive(t, h, "list", "page")
	mustDerive(t, h, "audited", "page")

	got := h.Ancestors("audit-list")
	want := map[tags.Tag]int{
		"audit-list": 0,
		"list":       1,
		"audited":    1,
		"page":       2,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestor distances mismatch (-want +got):\n%s", diff)
	}
}

func TestDerive_Idempotent(t *testing.T) {
	h := tags.NewHierarchy()
	mustDerive(t, h, "list", "page")
	mustDerive(t, h, "list", "page")

	if got := h.Parents("list"); len(got) != 1 {
		t.Fatalf("expected a single parent edge, got %v", got)
	}
}

func TestDerive_CycleFailsWithoutPartialInsertion(t *testing.T) {
	h := tags.NewHierarchy()
	mustDerive(t, h, "b", "a")
	mustDerive(t, h, "c", "b")

	err := h.Derive("a", "c")
	var cycle *tags.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if cycle.Tag != "a" || cycle.Parent != "c" {
		t.Fatalf("unexpected cycle detail: %+v", cycle)
	}
	if h.IsA("a", "c") {
		t.Fatalf("rejected edge must leave the hierarchy unchanged")
	}

	if err := h.Derive("a", "a"); err == nil {
		t.Fatalf("expected self edge to be rejected")
	}
}

func TestDerive_RequiresTagAndParent(t *testing.T) {
	h := tags.NewHierarchy()
	if err := h.Derive("", "page"); err == nil {
		t.Fatalf("expected empty tag to be rejected")
	}
	if err := h.Derive("list", ""); err == nil {
		t.Fatalf("expected empty parent to be rejected")
	}
}

func TestTags_SortedListing(t *testing.T) {
	h := tags.NewHierarchy()
	mustDerive(t, h, "detail", "page")
	mustDerive(t, h, "list", "page")

	want := []tags.Tag{"detail", "list", "page"}
	if diff := cmp.Diff(want, h.Tags()); diff != "" {
		t.Fatalf("tag listing mismatch (-want +got):\n%s", diff)
	}
}

func mustDerive(t *testing.T, h *tags.Hierarchy, tag, parent tags.Tag) {
	t.Helper()
	if err := h.Derive(tag, parent); err != nil {
		t.Fatalf("derive %s -> %s: %v", tag, parent, err)
	}
}
