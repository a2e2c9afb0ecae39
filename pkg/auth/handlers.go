package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with the auth endpoints.
func NewRouter(store *Store, issuer *TokenIssuer) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", loginHandler(store, issuer))
	r.Post("/register", registerHandler(store))
	r.Get("/me", meHandler(store))
	return r
}

// loginHandler verifies credentials and returns a signed token.
func loginHandler(store *Store, issuer *TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		user, err := store.Authenticate(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to authenticate: %v", err))
			return
		}

		token, err := issuer.Issue(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to issue token: %v", err))
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

// registerHandler creates a new user account with the default role.
func registerHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username   string `json:"username"`
			Email      string `json:"email"`
			Password   string `json:"password"`
			RealName   string `json:"realName"`
			Department string `json:"department"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		if req.Username == "" || req.Email == "" {
			writeError(w, http.StatusBadRequest, "username and email are required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		user := &User{
			Username:   req.Username,
			Email:      req.Email,
			RealName:   req.RealName,
			Department: req.Department,
		}
		if err := store.Create(user, req.Password); err != nil {
			writeError(w, http.StatusConflict, fmt.Sprintf("failed to create user: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

// meHandler returns the authenticated user's account.
func meHandler(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		user, err := store.Get(actor.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to load user: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
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
