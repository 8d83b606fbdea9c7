package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pointflow/internal/middleware"
	"pointflow/internal/models"
	"pointflow/internal/services"
)

// PointHandler serves the per-project endpoints. Every request resolves
// the project's actor through the coordinator, which also enforces
// ownership, so all mutations of one project funnel through one mailbox.
type PointHandler struct {
	coordinator *services.ProjectCoordinator
}

// NewPointHandler creates a new point handler
func NewPointHandler(coordinator *services.ProjectCoordinator) *PointHandler {
	return &PointHandler{coordinator: coordinator}
}

// AddPointRequest is the request body for adding a point
type AddPointRequest struct {
	Content string `json:"content"`
	Topic   string `json:"topic"`
}

// SetStatusRequest is the request body for a status change
type SetStatusRequest struct {
	Status string `json:"status"`
}

// AddReactionRequest is the request body for a reaction
type AddReactionRequest struct {
	Emoji string `json:"emoji"`
}

// AddReplyRequest is the request body for a reply
type AddReplyRequest struct {
	Content string `json:"content"`
}

func (h *PointHandler) actor(c *fiber.Ctx) (*services.ProjectActor, error) {
	return h.coordinator.Actor(c.Context(), c.Params("id"), middleware.UserID(c))
}

// State returns the full project state snapshot
// GET /api/project/:id
func (h *PointHandler) State(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	state, err := actor.GetState(c.Context())
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusOK, state)
}

// AddPoint creates a new point in the project
// POST /api/project/:id/points
func (h *PointHandler) AddPoint(c *fiber.Ctx) error {
	var req AddPointRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	point, err := actor.AddPoint(c.Context(), req.Content, req.Topic)
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusCreated, point)
}

// SetStatus updates a point's status
// PUT /api/project/:id/points/:pointId/status
func (h *PointHandler) SetStatus(c *fiber.Ctx) error {
	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	point, err := actor.SetStatus(c.Context(), c.Params("pointId"), models.PointStatus(req.Status))
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusOK, point)
}

// AddReaction appends an emoji reaction to a point
// POST /api/project/:id/points/:pointId/reactions
func (h *PointHandler) AddReaction(c *fiber.Ctx) error {
	var req AddReactionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	reaction, err := actor.AddReaction(c.Context(), c.Params("pointId"), req.Emoji)
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusCreated, reaction)
}

// AddReply appends a reply to a point
// POST /api/project/:id/points/:pointId/replies
func (h *PointHandler) AddReply(c *fiber.Ctx) error {
	var req AddReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	reply, err := actor.AddReply(c.Context(), c.Params("pointId"), req.Content)
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusCreated, reply)
}

// Summarize generates a fresh summary of the project's points
// POST /api/project/:id/summary
func (h *PointHandler) Summarize(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return respondDomainErr(c, err)
	}

	summary, err := actor.GenerateSummary(c.Context())
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusCreated, summary)
}
