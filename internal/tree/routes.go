package tree

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dkravets/orgview/internal/fields"
	"github.com/dkravets/orgview/internal/live"
	"github.com/dkravets/orgview/internal/position"
	"github.com/dkravets/orgview/internal/search"
)

// Service bundles the stores a tree request needs: the definitions being
// served, the positions to arrange, and the field catalog both lean on.
type Service struct {
	Trees     *Store
	Positions *position.Store
	Fields    *fields.Store
	Locale    language.Tag
	Hub       *live.Hub
}

// RegisterRoutes mounts the tree definition CRUD and the materialized
// structure endpoint.
func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/api/trees", svc.handleList)
	r.Post("/api/trees", svc.handleCreate)
	r.Get("/api/trees/{id}", svc.handleGet)
	r.Put("/api/trees/{id}", svc.handleUpdate)
	r.Delete("/api/trees/{id}", svc.handleDelete)
	r.Get("/api/trees/{id}/structure", svc.handleStructure)
}

func (svc *Service) handleList(w http.ResponseWriter, r *http.Request) {
	defs, err := svc.Trees.List(r.Context())
	if err != nil {
		log.Printf("tree: listing definitions: %v", err)
		http.Error(w, "failed to list trees", http.StatusInternalServerError)
		return
	}
	if defs == nil {
		defs = []Definition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (svc *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var def Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if def.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := svc.Trees.Create(r.Context(), &def); err != nil {
		log.Printf("tree: creating definition: %v", err)
		http.Error(w, "failed to create tree", http.StatusInternalServerError)
		return
	}
	svc.Hub.Broadcast(live.TreesChanged)
	writeJSON(w, http.StatusCreated, def)
}

func (svc *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	def, err := svc.Trees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}
		log.Printf("tree: getting definition: %v", err)
		http.Error(w, "failed to get tree", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

func (svc *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var def Definition
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	def.ID = chi.URLParam(r, "id")
	if def.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if err := svc.Trees.Update(r.Context(), &def); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}
		log.Printf("tree: updating definition: %v", err)
		http.Error(w, "failed to update tree", http.StatusInternalServerError)
		return
	}
	svc.Hub.Broadcast(live.TreesChanged)
	writeJSON(w, http.StatusOK, def)
}

func (svc *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := svc.Trees.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}
		log.Printf("tree: deleting definition: %v", err)
		http.Error(w, "failed to delete tree", http.StatusInternalServerError)
		return
	}
	svc.Hub.Broadcast(live.TreesChanged)
	w.WriteHeader(http.StatusNoContent)
}

// handleStructure materializes a definition against the current positions.
// An optional search parameter filters positions before grouping.
func (svc *Service) handleStructure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	def, err := svc.Trees.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "tree not found", http.StatusNotFound)
			return
		}
		log.Printf("tree: getting definition: %v", err)
		http.Error(w, "failed to get tree", http.StatusInternalServerError)
		return
	}

	set, err := svc.Fields.LoadSet(ctx)
	if err != nil {
		log.Printf("tree: loading field definitions: %v", err)
		http.Error(w, "failed to load custom fields", http.StatusInternalServerError)
		return
	}
	positions, err := svc.Positions.List(ctx, 0, -1)
	if err != nil {
		log.Printf("tree: listing positions: %v", err)
		http.Error(w, "failed to list positions", http.StatusInternalServerError)
		return
	}

	if q := r.URL.Query().Get("search"); q != "" {
		matcher := search.NewMatcher(set)
		positions = matcher.Filter(positions, q)
	}

	builder := NewBuilder(set, svc.Locale)
	structure := Structure{
		TreeID: def.ID,
		Name:   def.Name,
		Levels: def.Levels,
		Root:   builder.Build(positions, def.Levels),
	}
	writeJSON(w, http.StatusOK, structure)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("tree: encoding response: %v", err)
	}
}
