package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/claims-service/internal/api/http/handlers"
	"github.com/spec-kit/claims-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Claims *handlers.ClaimsHandler
	Areas  *handlers.AreasHandler
	Trace  *handlers.TracingHandler
	Actor  *auth.ActorMiddleware
}

// RegisterRoutes wires HTTP routes. Literal segments are registered before
// parameterized siblings.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("", cfg.Actor.Handle)

	api.Get("/statuses", cfg.Claims.Statuses)

	claims := api.Group("/claims")
	claims.Post("/", cfg.Claims.Create)
	claims.Get("/", cfg.Claims.List)
	claims.Get("/client/:clientId", cfg.Claims.ListByClient)
	claims.Get("/project/:projectId", cfg.Claims.ListByProject)
	claims.Get("/:id", cfg.Claims.Get)
	claims.Patch("/:id", cfg.Claims.Update)
	claims.Delete("/:id", cfg.Claims.Remove)
	claims.Post("/:id/status", cfg.Claims.ChangeStatus)
	claims.Post("/:id/resolve", cfg.Claims.Resolve)
	claims.Post("/:id/close", cfg.Claims.Close)
	claims.Post("/:id/reopen", cfg.Claims.Reopen)
	claims.Post("/:id/comment", cfg.Claims.AddComment)
	claims.Get("/:id/comments", cfg.Claims.ListComments)
	claims.Post("/:id/attachments", cfg.Claims.AddAttachment)
	claims.Get("/:id/attachments", cfg.Claims.ListAttachments)
	claims.Get("/:id/transitions", cfg.Claims.Transitions)
	claims.Get("/:id/validate-action/:action", cfg.Claims.ValidateAction)

	areas := api.Group("/areas")
	areas.Post("/", cfg.Areas.CreateArea)
	areas.Get("/", cfg.Areas.ListAreas)
	areas.Get("/stats", cfg.Areas.Stats)
	areas.Post("/subareas", cfg.Areas.CreateSubArea)
	areas.Post("/assign", cfg.Areas.Assign)
	areas.Post("/reassign", cfg.Areas.Reassign)
	areas.Post("/unassign", cfg.Areas.Unassign)
	areas.Get("/claims/:claimId/current", cfg.Areas.CurrentAssignment)
	areas.Get("/claims/:claimId/history", cfg.Areas.AssignmentHistory)
	areas.Get("/:id", cfg.Areas.GetArea)
	areas.Get("/:id/subareas", cfg.Areas.ListSubAreas)
	areas.Get("/:id/claims", cfg.Areas.ClaimsByArea)

	tracing := api.Group("/tracing")
	tracing.Get("/claim/:claimId", cfg.Trace.ClaimTrace)
	tracing.Get("/claim/:claimId/stats", cfg.Trace.ClaimStats)
	tracing.Get("/search", cfg.Trace.Search)
	tracing.Post("/event", cfg.Trace.RecordEvent)
}
