package site_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-admingen/pkg/datasource"
	"github.com/goliatone/go-admingen/pkg/datasource/memory"
	"github.com/goliatone/go-admingen/pkg/page"
	"github.com/goliatone/go-admingen/pkg/site"
	"github.com/goliatone/go-admingen/pkg/table"
	"github.com/goliatone/go-admingen/pkg/tags"
)

func newTestSite(t *testing.T, store *memory.Store, options ...site.Option) *site.Site {
	t.Helper()

	s, err := site.New(store, options...)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if err := s.DeclareModel(datasource.Model{
		Name:     "widget",
		Label:    "Widgets",
		IDColumn: "id",
		Columns:  []string{"id", "name", "status"},
	}); err != nil {
		t.Fatalf("DeclareModel() returned error: %v", err)
	}
	if err := s.DeclareDefaultViews(); err != nil {
		t.Fatalf("DeclareDefaultViews() returned error: %v", err)
	}
	return s
}

func seedWidgets(store *memory.Store, count int) {
	for i := 1; i <= count; i++ {
		store.Insert("widget", datasource.MapRecord{
			"id":     fmt.Sprintf("w-%03d", i),
			"name":   fmt.Sprintf("Widget %d", i),
			"status": "active",
		})
	}
}

func get(t *testing.T, s *site.Site, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestList_FirstPageWithNextLink(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 25)
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()

	if got := strings.Count(body, "admingen-cell--id"); got != 20 {
		t.Errorf("counted %d id cells, want 20", got)
	}
	if !strings.Contains(body, "w-001") {
		t.Errorf("body missing first record, got:\n%s", body)
	}
	if strings.Contains(body, "w-021") {
		t.Errorf("body contains record beyond the first page:\n%s", body)
	}
	if !strings.Contains(body, "/admin/widget?page=2") {
		t.Errorf("body missing next page link:\n%s", body)
	}
	if !strings.Contains(body, "<title>Widgets</title>") {
		t.Errorf("body missing model title:\n%s", body)
	}
}

func TestList_LastPageHasNoNextLink(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 25)
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget?page=2")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()

	if got := strings.Count(body, "admingen-cell--id"); got != 5 {
		t.Errorf("counted %d id cells, want 5", got)
	}
	if !strings.Contains(body, "w-025") {
		t.Errorf("body missing last record:\n%s", body)
	}
	if strings.Contains(body, "page=3") {
		t.Errorf("last page should not link to a next page:\n%s", body)
	}
}

func TestList_FiltersFromQuery(t *testing.T) {
	store := memory.New()
	store.Insert("widget",
		datasource.MapRecord{"id": "w-1", "name": "Alpha", "status": "active"},
		datasource.MapRecord{"id": "w-2", "name": "Beta", "status": "archived"},
	)
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget?status=archived")

	body := rec.Body.String()
	if !strings.Contains(body, "Beta") {
		t.Errorf("filtered list missing matching record:\n%s", body)
	}
	if strings.Contains(body, "Alpha") {
		t.Errorf("filtered list contains non-matching record:\n%s", body)
	}
}

func TestDetail_RendersFields(t *testing.T) {
	store := memory.New()
	store.Insert("widget", datasource.MapRecord{"id": "w-7", "name": "Gadget", "status": "active"})
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget/w-7")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	body := rec.Body.String()

	for _, want := range []string{
		`<dt class="admingen-dt">Id</dt>`,
		`<dt class="admingen-dt">Name</dt>`,
		`<dt class="admingen-dt">Status</dt>`,
		"Gadget",
		"<title>Widgets: w-7</title>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestDetail_MissingRecordReturnsStructured404(t *testing.T) {
	store := memory.New()
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget/nope")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not structured JSON: %v; body: %s", err, rec.Body.String())
	}
	if payload.Error.Status != http.StatusNotFound {
		t.Errorf("error status = %d, want %d", payload.Error.Status, http.StatusNotFound)
	}
	if !strings.Contains(payload.Error.Message, "nope") {
		t.Errorf("error message %q does not name the missing id", payload.Error.Message)
	}
}

func TestUnknownModelReturns404(t *testing.T) {
	store := memory.New()
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/gizmo")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusNotFound, rec.Body.String())
	}
}

func TestDeclarePageHandler_OverridesModelList(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 3)
	s := newTestSite(t, store)

	err := s.DeclarePageHandler(site.ListKind, "widget", func(_ tags.Tag, model datasource.Model, w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "custom list for %s", model.Name)
	})
	if err != nil {
		t.Fatalf("DeclarePageHandler() returned error: %v", err)
	}

	rec := get(t, s, "/admin/widget")
	if got := rec.Body.String(); got != "custom list for widget" {
		t.Errorf("body = %q, want custom handler output", got)
	}
}

func TestDeclareActions_RenderedOnList(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 1)
	s := newTestSite(t, store)

	err := s.DeclareActions(site.ListKind, "", func(model datasource.Model, _ *http.Request) []page.Action {
		return []page.Action{page.Link{Label: "New " + model.Label, URL: "/admin/widget/new"}}
	})
	if err != nil {
		t.Fatalf("DeclareActions() returned error: %v", err)
	}

	rec := get(t, s, "/admin/widget")
	body := rec.Body.String()
	if !strings.Contains(body, "New Widgets") {
		t.Errorf("body missing declared action:\n%s", body)
	}
	if !strings.Contains(body, "/admin/widget/new") {
		t.Errorf("body missing action target:\n%s", body)
	}
}

func TestDeclareCrumbs_DefaultTrail(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 1)
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget")
	body := rec.Body.String()
	if !strings.Contains(body, ">Home</a>") {
		t.Errorf("body missing default Home crumb:\n%s", body)
	}
	if !strings.Contains(body, ">Widgets</a>") {
		t.Errorf("body missing model crumb:\n%s", body)
	}
}

func TestDetail_DefaultTrailLinksRecord(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 9)
	s := newTestSite(t, store)

	rec := get(t, s, "/admin/widget/w-007")
	if rec.Code != http.StatusOK {
		t.Fatalf("detail status = %d, body: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `href="/admin/widget/w-007"`) {
		t.Errorf("body missing record crumb link:\n%s", body)
	}
	if !strings.Contains(body, ">w-007</a>") {
		t.Errorf("body missing record crumb title:\n%s", body)
	}
}

func TestWithPageSize(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 7)
	s := newTestSite(t, store, site.WithPageSize(5))

	rec := get(t, s, "/admin/widget")
	body := rec.Body.String()
	if got := strings.Count(body, "admingen-cell--id"); got != 5 {
		t.Errorf("counted %d id cells, want 5", got)
	}
	if !strings.Contains(body, "page=2") {
		t.Errorf("body missing next link with 2 rows remaining:\n%s", body)
	}
}

func TestWithBasePath_ScopesRoutesAndLinks(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 1)
	s := newTestSite(t, store, site.WithBasePath("/console"))

	if err := s.DeclareCellStyle("id-link", "", "templates/cells/link", nil); err != nil {
		t.Fatalf("DeclareCellStyle() returned error: %v", err)
	}
	if err := s.MapColumn(table.DefaultStyle, "id", "id-link"); err != nil {
		t.Fatalf("MapColumn() returned error: %v", err)
	}

	rec := get(t, s, "/console/widget")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "/console/widget/w-001") {
		t.Errorf("record link not scoped to base path:\n%s", rec.Body.String())
	}
}

func TestMount_ServesThroughServeMux(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 1)
	s := newTestSite(t, store)

	mux := http.NewServeMux()
	s.Mount(mux)

	req := httptest.NewRequest(http.MethodGet, "/admin/widget", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestDeclarePageStyle_InheritsListHandler(t *testing.T) {
	store := memory.New()
	seedWidgets(store, 2)
	s := newTestSite(t, store)

	if err := s.DeclarePageStyle("audit-list", site.ListKind); err != nil {
		t.Fatalf("DeclarePageStyle() returned error: %v", err)
	}
	if err := s.DeclareView("audit-list", http.MethodGet, "/audit", "widget"); err != nil {
		t.Fatalf("DeclareView() returned error: %v", err)
	}

	rec := get(t, s, "/admin/widget/audit")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "w-001") {
		t.Errorf("inherited list handler did not render records:\n%s", rec.Body.String())
	}
}
