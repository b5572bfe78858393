package fields

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dkravets/orgview/internal/live"
)

// RegisterRoutes mounts custom-field definition endpoints on the given router.
func RegisterRoutes(r chi.Router, store *Store, hub *live.Hub) {
	r.Get("/api/custom-fields", listFieldsHandler(store))
	r.Post("/api/custom-fields", createFieldHandler(store, hub))
	r.Get("/api/custom-fields/{id}", getFieldHandler(store))
	r.Put("/api/custom-fields/{id}", updateFieldHandler(store, hub))
	r.Delete("/api/custom-fields/{id}", deleteFieldHandler(store, hub))
}

func listFieldsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if defs == nil {
			defs = []Definition{}
		}
		writeJSON(w, http.StatusOK, defs)
	}
}

func getFieldHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		def, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "field definition not found", http.StatusNotFound)
				return
			}
			log.Printf("fields: getting definition: %v", err)
			http.Error(w, "failed to get field definition", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, def)
	}
}

func createFieldHandler(store *Store, hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var def Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(def.Key) == "" {
			http.Error(w, "key is required", http.StatusBadRequest)
			return
		}
		if err := store.Create(r.Context(), &def); err != nil {
			if err == ErrDuplicateKey {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		hub.Broadcast(live.FieldsChanged)
		writeJSON(w, http.StatusCreated, def)
	}
}

func updateFieldHandler(store *Store, hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var def Definition
		if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		def.ID = id
		if err := store.Update(r.Context(), &def); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "field definition not found", http.StatusNotFound)
				return
			}
			log.Printf("fields: updating definition: %v", err)
			http.Error(w, "failed to update field definition", http.StatusInternalServerError)
			return
		}
		hub.Broadcast(live.FieldsChanged)
		writeJSON(w, http.StatusOK, def)
	}
}

func deleteFieldHandler(store *Store, hub *live.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := store.Delete(r.Context(), id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "field definition not found", http.StatusNotFound)
				return
			}
			log.Printf("fields: deleting definition: %v", err)
			http.Error(w, "failed to delete field definition", http.StatusInternalServerError)
			return
		}
		hub.Broadcast(live.FieldsChanged)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("fields: encoding response: %v", err)
	}
}
