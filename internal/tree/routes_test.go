package tree

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dkravets/orgview/internal/db"
	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/live"
	"github.com/dkravets/orgview/internal/position"
)

func newTestService(t *testing.T) (chi.Router, *Service) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	svc := &Service{
		Trees:     NewStore(database),
		Positions: position.NewStore(database),
		Fields:    fields.NewStore(database),
		Locale:    language.English,
		Hub:       live.NewHub(),
	}
	r := chi.NewRouter()
	RegisterRoutes(r, svc)
	return r, svc
}

func TestStoreNormalizesLevels(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	def := Definition{
		Name: "By department",
		Levels: []Level{
			{Order: 7, CustomFieldKey: "region"},
			{Order: 3, CustomFieldKey: "dept"},
		},
	}
	if err := svc.Trees.Create(ctx, &def); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Trees.Get(ctx, def.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Levels) != 2 ||
		got.Levels[0].Order != 1 || got.Levels[0].CustomFieldKey != "dept" ||
		got.Levels[1].Order != 2 || got.Levels[1].CustomFieldKey != "region" {
		t.Errorf("levels not normalized: %+v", got.Levels)
	}
}

func TestStoreDefaultExclusive(t *testing.T) {
	_, svc := newTestService(t)
	ctx := context.Background()

	first := Definition{Name: "First", IsDefault: true}
	if err := svc.Trees.Create(ctx, &first); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	second := Definition{Name: "Second", IsDefault: true}
	if err := svc.Trees.Create(ctx, &second); err != nil {
		t.Fatalf("Create second: %v", err)
	}

	defs, err := svc.Trees.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var defaults int
	for _, d := range defs {
		if d.IsDefault {
			defaults++
			if d.ID != second.ID {
				t.Errorf("wrong definition holds the default flag: %+v", d)
			}
		}
	}
	if defaults != 1 {
		t.Errorf("expected exactly one default definition, got %d", defaults)
	}
}

func TestTreeRoutesCRUD(t *testing.T) {
	router, _ := newTestService(t)

	body := `{"name":"By department","levels":[{"order":1,"custom_field_key":"dept"}]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/trees", bytes.NewReader([]byte(body))))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created Definition
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("unmarshal created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}

	// Nameless definitions are rejected.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/api/trees", bytes.NewReader([]byte(`{"levels":[]}`))))
	if w.Code != http.StatusBadRequest {
		t.Errorf("nameless: expected 400, got %d", w.Code)
	}

	// Update.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/api/trees/"+created.ID,
		bytes.NewReader([]byte(`{"name":"Renamed","levels":[]}`))))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Get.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/trees/"+created.ID, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
	var got Definition
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal get: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("update not applied: %+v", got)
	}

	// Delete, then 404.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("DELETE", "/api/trees/"+created.ID, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/trees/"+created.ID, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", w.Code)
	}
}

func TestStructureEndpoint(t *testing.T) {
	router, svc := newTestService(t)
	ctx := context.Background()

	if err := svc.Fields.Create(ctx, &fields.Definition{
		Key:   "dept",
		Label: "Department",
		AllowedValues: []fields.AllowedValue{
			{ValueID: "v1", Value: "Sales"},
			{ValueID: "v2", Value: "Engineering"},
		},
	}); err != nil {
		t.Fatalf("create field: %v", err)
	}

	for _, p := range []position.Position{
		{Name: "Rep", CustomFields: map[string]string{"dept": "v1"}},
		{Name: "Dev", CustomFields: map[string]string{"dept": "Engineering"}},
		{Name: "Floater", CustomFields: map[string]string{}},
	} {
		p := p
		if err := svc.Positions.Create(ctx, &p); err != nil {
			t.Fatalf("create position: %v", err)
		}
	}

	def := Definition{Name: "By dept", Levels: []Level{{Order: 1, CustomFieldKey: "dept"}}}
	if err := svc.Trees.Create(ctx, &def); err != nil {
		t.Fatalf("create tree: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/trees/"+def.ID+"/structure", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("structure: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var structure Structure
	if err := json.Unmarshal(w.Body.Bytes(), &structure); err != nil {
		t.Fatalf("unmarshal structure: %v", err)
	}
	if structure.TreeID != def.ID || structure.Root == nil {
		t.Fatalf("unexpected structure: %+v", structure)
	}
	// Engineering, Sales, then the fieldless leaf.
	if len(structure.Root.Children) != 3 {
		t.Fatalf("expected 3 root children, got %d", len(structure.Root.Children))
	}
	if structure.Root.Children[0].FieldValue != "Engineering" ||
		structure.Root.Children[1].FieldValue != "Sales" {
		t.Errorf("groups out of order: %+v", structure.Root.Children)
	}
	if structure.Root.Children[2].Type != NodePosition {
		t.Errorf("expected trailing leaf, got %+v", structure.Root.Children[2])
	}

	// Filtered build.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/trees/"+def.ID+"/structure?search=Sales", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("filtered structure: expected 200, got %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &structure); err != nil {
		t.Fatalf("unmarshal filtered: %v", err)
	}
	if len(structure.Root.Children) != 1 || structure.Root.Children[0].FieldValue != "Sales" {
		t.Errorf("expected only the Sales group, got %+v", structure.Root.Children)
	}

	// Unknown tree.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/trees/nope/structure", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown tree: expected 404, got %d", w.Code)
	}
}
