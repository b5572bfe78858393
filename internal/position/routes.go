package position

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/live"
)

// Handler serves the position CRUD endpoints. PageLimit caps how many
// positions a single list request returns when the client does not ask
// for a smaller page. Search is the query filter applied to the listing;
// it is injected at wiring time so this package stays below the package
// that evaluates queries over positions.
type Handler struct {
	Store     *Store
	Fields    *fields.Store
	Hub       *live.Hub
	PageLimit int
	Search    func(fields.Set, []Position, string) []Position
}

// listResponse wraps a page of positions with the total count after
// filtering, so clients can paginate.
type listResponse struct {
	Positions []Position `json:"positions"`
	Total     int        `json:"total"`
	Offset    int        `json:"offset"`
	Limit     int        `json:"limit"`
}

// RegisterRoutes mounts the position endpoints.
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/api/positions", h.handleList)
	r.Post("/api/positions", h.handleCreate)
	r.Get("/api/positions/{id}", h.handleGet)
	r.Put("/api/positions/{id}", h.handleUpdate)
	r.Delete("/api/positions/{id}", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit := h.PageLimit
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	set, err := h.Fields.LoadSet(ctx)
	if err != nil {
		log.Printf("position: loading field definitions: %v", err)
		http.Error(w, "failed to load custom fields", http.StatusInternalServerError)
		return
	}

	// Search filters the full set before pagination so the returned
	// total reflects the filtered count.
	positions, err := h.Store.List(ctx, 0, -1)
	if err != nil {
		log.Printf("position: listing: %v", err)
		http.Error(w, "failed to list positions", http.StatusInternalServerError)
		return
	}
	if query := q.Get("search"); query != "" && h.Search != nil {
		positions = h.Search(set, positions, query)
	}

	total := len(positions)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := positions[offset:end]

	codec := fields.NewCodec(set)
	for i := range page {
		page[i].Entries = codec.ToEntries(page[i].CustomFields, page[i].CustomFieldsOrder)
	}
	if page == nil {
		page = []Position{}
	}
	writeJSON(w, http.StatusOK, listResponse{
		Positions: page,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := h.decodePosition(w, r)
	if !ok {
		return
	}
	if err := h.Store.Create(ctx, p); err != nil {
		log.Printf("position: creating: %v", err)
		http.Error(w, "failed to create position", http.StatusInternalServerError)
		return
	}
	h.Hub.Broadcast(live.PositionsChanged)
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}
	p, err := h.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "position not found", http.StatusNotFound)
			return
		}
		log.Printf("position: getting: %v", err)
		http.Error(w, "failed to get position", http.StatusInternalServerError)
		return
	}
	set, err := h.Fields.LoadSet(ctx)
	if err != nil {
		log.Printf("position: loading field definitions: %v", err)
		http.Error(w, "failed to load custom fields", http.StatusInternalServerError)
		return
	}
	p.Entries = fields.NewCodec(set).ToEntries(p.CustomFields, p.CustomFieldsOrder)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}
	p, ok := h.decodePosition(w, r)
	if !ok {
		return
	}
	p.ID = id
	if err := h.Store.Update(ctx, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "position not found", http.StatusNotFound)
			return
		}
		log.Printf("position: updating: %v", err)
		http.Error(w, "failed to update position", http.StatusInternalServerError)
		return
	}
	h.Hub.Broadcast(live.PositionsChanged)
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "position not found", http.StatusNotFound)
			return
		}
		log.Printf("position: deleting: %v", err)
		http.Error(w, "failed to delete position", http.StatusInternalServerError)
		return
	}
	h.Hub.Broadcast(live.PositionsChanged)
	w.WriteHeader(http.StatusNoContent)
}

// decodePosition reads the request body and converts whichever custom field
// representation the client sent into the stored map form. Structured
// entries take precedence over the flat map when both are present.
func (h *Handler) decodePosition(w http.ResponseWriter, r *http.Request) (*Position, bool) {
	var p Position
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if p.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return nil, false
	}
	if p.EmployeeFullName == "" {
		p.EmployeeFullName = CombineName(p.EmployeeLastName, p.EmployeeFirstName, p.EmployeeMiddleName)
	}
	p.EmployeeLastName, p.EmployeeFirstName, p.EmployeeMiddleName = "", "", ""
	if len(p.Entries) > 0 {
		set, err := h.Fields.LoadSet(r.Context())
		if err != nil {
			log.Printf("position: loading field definitions: %v", err)
			http.Error(w, "failed to load custom fields", http.StatusInternalServerError)
			return nil, false
		}
		p.CustomFields, p.CustomFieldsOrder = fields.NewCodec(set).ToMap(p.Entries)
	}
	if p.CustomFields == nil {
		p.CustomFields = map[string]string{}
	}
	return &p, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("position: encoding response: %v", err)
	}
}
