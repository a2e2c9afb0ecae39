package requirement

import (
	"github.com/go-chi/chi/v5"

	"github.com/reqman/reqman/pkg/workflow"
)

// NewRouter creates a chi router with the requirement API routes.
func NewRouter(svc *Service, machine *workflow.Machine) chi.Router {
	r := chi.NewRouter()

	r.Post("/", createRequirementHandler(svc))
	r.Get("/", listRequirementsHandler(svc))
	r.Get("/code/{code}", getByCodeHandler(svc))

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", getRequirementHandler(svc))
		r.Patch("/", updateRequirementHandler(svc))
		r.Delete("/", deleteRequirementHandler(svc))
		r.Post("/status", changeStatusHandler(svc, machine))
		r.Get("/history", historyHandler(svc))
		r.Get("/transitions", transitionsHandler(svc))
		r.Post("/comments", addCommentHandler(svc))
		r.Get("/comments", listCommentsHandler(svc))
	})

	return r
}
