package requirement

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reqman/reqman/pkg/audit"
	"github.com/reqman/reqman/pkg/auth"
	"github.com/reqman/reqman/pkg/project"
	"github.com/reqman/reqman/pkg/workflow"
)

// createRequirementHandler returns a handler that creates a requirement in
// draft status.
func createRequirementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec, err := svc.Create(r.Context(), req, auth.ActorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, rec)
	}
}

// getRequirementHandler returns a handler that retrieves one requirement.
func getRequirementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		rec, err := svc.Get(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// getByCodeHandler returns a handler that retrieves a requirement by code.
func getByCodeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// RequirementList is the paginated list response.
type RequirementList struct {
	Items         []Requirement `json:"items"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
	TotalSize     int           `json:"totalSize"`
}

// listRequirementsHandler returns a handler that lists requirements with
// filters, newest first.
func listRequirementsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := ListFilter{
			Keyword:  q.Get("keyword"),
			Status:   workflow.Status(q.Get("status")),
			Type:     Type(q.Get("type")),
			Priority: Priority(q.Get("priority")),
		}
		if filter.Status != "" && !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status: %s", filter.Status))
			return
		}
		if filter.Type != "" && !filter.Type.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown type: %s", filter.Type))
			return
		}
		if filter.Priority != "" && !filter.Priority.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown priority: %s", filter.Priority))
			return
		}
		if v := q.Get("projectId"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 32); err == nil {
				filter.ProjectID = uint(id)
			}
		}
		if v := q.Get("assigneeId"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 32); err == nil {
				filter.AssigneeID = uint(id)
			}
		}
		if v := q.Get("creatorId"); v != "" {
			if id, err := strconv.ParseUint(v, 10, 32); err == nil {
				filter.CreatorID = uint(id)
			}
		}
		if v := q.Get("since"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid since: %v", err))
				return
			}
			filter.Since = &t
		}
		if v := q.Get("until"); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid until: %v", err))
				return
			}
			filter.Until = &t
		}

		items, nextToken, total, err := svc.List(r.Context(), filter, pageSize(r), q.Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list requirements: %v", err))
			return
		}
		if items == nil {
			items = []Requirement{}
		}
		writeJSON(w, http.StatusOK, RequirementList{
			Items:         items,
			NextPageToken: nextToken,
			TotalSize:     total,
		})
	}
}

// updateRequirementHandler returns a handler that applies a partial update.
// One history record is written per changed field; an unchanged payload
// writes none.
func updateRequirementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req UpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec, err := svc.Update(r.Context(), id, req, auth.ActorID(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// changeStatusHandler returns a handler that moves a requirement through
// the workflow. An illegal transition returns 409 with the structured
// transition error and the currently allowed targets.
func changeStatusHandler(svc *Service, machine *workflow.Machine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req struct {
			Status  workflow.Status `json:"status"`
			Comment string          `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		rec, err := svc.ChangeStatus(r.Context(), id, req.Status, auth.ActorID(r.Context()), req.Comment)
		if err != nil {
			var te *workflow.TransitionError
			if errors.As(err, &te) {
				writeJSON(w, http.StatusConflict, struct {
					*workflow.TransitionError
					Allowed []workflow.Status `json:"allowed"`
				}{te, machine.AllowedTargets(te.From)})
				return
			}
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// deleteRequirementHandler returns a handler that deletes a requirement and
// leaves its tombstone record behind.
func deleteRequirementHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), id, auth.ActorID(r.Context())); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HistoryList is the paginated history response.
type HistoryList struct {
	Items         []audit.Record `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
	TotalSize     int            `json:"totalSize"`
}

// historyHandler returns a handler that lists a requirement's history,
// newest first. With order=asc the full trail is returned oldest first and
// pagination parameters are ignored. The history of a deleted requirement
// remains readable, so existence is not checked here.
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()

		action := audit.Action(q.Get("action"))
		if action != "" && !action.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown action: %s", action))
			return
		}

		if q.Get("order") == "asc" {
			items, err := svc.HistoryAscending(r.Context(), id)
			if err != nil {
				writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list history: %v", err))
				return
			}
			if items == nil {
				items = []audit.Record{}
			}
			writeJSON(w, http.StatusOK, HistoryList{Items: items, TotalSize: len(items)})
			return
		}

		items, nextToken, total, err := svc.History(r.Context(), id, action, pageSize(r), q.Get("pageToken"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list history: %v", err))
			return
		}
		if items == nil {
			items = []audit.Record{}
		}
		writeJSON(w, http.StatusOK, HistoryList{
			Items:         items,
			NextPageToken: nextToken,
			TotalSize:     total,
		})
	}
}

// transitionsHandler returns a handler that reports the legal target
// statuses from a requirement's current status.
func transitionsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		current, targets, err := svc.AllowedTargets(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"current": current,
			"allowed": targets,
		})
	}
}

// addCommentHandler returns a handler that attaches a comment.
func addCommentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}

		c, err := svc.AddComment(r.Context(), id, auth.ActorID(r.Context()), req.Content)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// listCommentsHandler returns a handler that lists comments oldest first.
func listCommentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		comments, err := svc.ListComments(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if comments == nil {
			comments = []Comment{}
		}
		writeJSON(w, http.StatusOK, comments)
	}
}

// pathID parses the {id} path parameter, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid id: %s", raw))
		return 0, false
	}
	return uint(id), true
}

// pageSize reads the pageSize query parameter, 0 when absent. The service
// applies the default and the cap.
func pageSize(r *http.Request) int {
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// writeServiceError maps service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, ve)
		return
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, project.ErrNotFound) {
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
