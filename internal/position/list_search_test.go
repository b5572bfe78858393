package position_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dkravets/orgview/internal/db"
	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/live"
	"github.com/dkravets/orgview/internal/position"
	"github.com/dkravets/orgview/internal/search"
)

// The listing's search filter is wired from the outside, exactly as the
// serve command does it, so this test lives outside the package.
func newSearchingHandler(t *testing.T) (chi.Router, *position.Handler) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	h := &position.Handler{
		Store:     position.NewStore(database),
		Fields:    fields.NewStore(database),
		Hub:       live.NewHub(),
		PageLimit: 100,
		Search: func(set fields.Set, positions []position.Position, query string) []position.Position {
			return search.NewMatcher(set).Filter(positions, query)
		},
	}
	r := chi.NewRouter()
	position.RegisterRoutes(r, h)
	return r, h
}

func TestPositionRoutesListSearchAndPaging(t *testing.T) {
	router, h := newSearchingHandler(t)
	ctx := context.Background()

	err := h.Fields.Create(ctx, &fields.Definition{
		Key:   "dept",
		Label: "Department",
		AllowedValues: []fields.AllowedValue{
			{ValueID: "v1", Value: "Sales"},
			{ValueID: "v2", Value: "Engineering"},
		},
	})
	if err != nil {
		t.Fatalf("seed field: %v", err)
	}

	for _, p := range []position.Position{
		{Name: "Sales Rep", CustomFields: map[string]string{"dept": "v1"}},
		{Name: "Engineer", CustomFields: map[string]string{"dept": "v2"}},
		{Name: "Sales Lead"},
	} {
		p := p
		if err := h.Store.Create(ctx, &p); err != nil {
			t.Fatalf("seed position: %v", err)
		}
	}

	type listResp struct {
		Positions []position.Position `json:"positions"`
		Total     int                 `json:"total"`
	}

	// Search by resolved field text: "Sales" matches the v1 position and
	// the one named "Sales Lead".
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/positions?search=Sales", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var resp listResp
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 2 || len(resp.Positions) != 2 {
		t.Fatalf("expected 2 matches, got total=%d len=%d", resp.Total, len(resp.Positions))
	}
	if len(resp.Positions[0].Entries) != 1 {
		t.Errorf("expected computed entries in the listing, got %+v", resp.Positions[0].Entries)
	}

	// Pagination applies after filtering; total stays at the filtered count.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/positions?search=Sales&offset=1&limit=1", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal page: %v", err)
	}
	if resp.Total != 2 || len(resp.Positions) != 1 {
		t.Errorf("expected page of 1 with total 2, got total=%d len=%d", resp.Total, len(resp.Positions))
	}
	if resp.Positions[0].Name != "Sales Lead" {
		t.Errorf("unexpected page content: %+v", resp.Positions[0])
	}
}

func TestPositionRoutesListWithoutFilterWired(t *testing.T) {
	router, h := newSearchingHandler(t)
	h.Search = nil

	if err := h.Store.Create(context.Background(), &position.Position{Name: "Rep"}); err != nil {
		t.Fatalf("seed position: %v", err)
	}

	// With no filter wired the search parameter is ignored, not a crash.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/positions?search=anything", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("expected the full set, got total=%d", resp.Total)
	}
}
