package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the project API routes.
func NewRouter(store *Store) chi.Router {
	r := chi.NewRouter()

	r.Post("/", createProjectHandler(store))
	r.Get("/", listProjectsHandler(store))
	r.Get("/code/{code}", getProjectByCodeHandler(store))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", getProjectHandler(store))
		r.Put("/", updateProjectHandler(store))
		r.Delete("/", deleteProjectHandler(store))
	})

	return r
}

// createProjectHandler returns a handler that creates a project.
func createProjectHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Project
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if p.Name == "" || p.Code == "" {
			writeError(w, http.StatusBadRequest, "name and code are required")
			return
		}

		if err := store.Create(&p); err != nil {
			writeError(w, http.StatusConflict, fmt.Sprintf("failed to create project: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// getProjectHandler returns a handler that retrieves one project.
func getProjectHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		p, err := store.Get(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// getProjectByCodeHandler returns a handler that retrieves a project by code.
func getProjectByCodeHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetByCode(chi.URLParam(r, "code"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

// updateProjectHandler returns a handler that replaces a project's mutable
// fields.
func updateProjectHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var p Project
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		p.ID = id

		if err := store.Update(&p); err != nil {
			writeStoreError(w, err)
			return
		}

		updated, err := store.Get(id)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// deleteProjectHandler returns a handler that deletes a project.
func deleteProjectHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := store.Delete(id); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProjectList is the paginated list response.
type ProjectList struct {
	Items         []Project `json:"items"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// listProjectsHandler returns a handler that lists projects.
func listProjectsHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		size := 0
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				size = v
			}
		}

		items, nextToken, err := store.List(size, r.URL.Query().Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list projects: %v", err))
			return
		}
		if items == nil {
			items = []Project{}
		}
		writeJSON(w, http.StatusOK, ProjectList{Items: items, NextPageToken: nextToken})
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id: %s", raw))
		return 0, false
	}
	return uint(id), true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
