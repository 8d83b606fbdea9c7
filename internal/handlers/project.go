package handlers

import (
	"github.com/gofiber/fiber/v2"

	"pointflow/internal/middleware"
	"pointflow/internal/services"
)

// ProjectHandler serves the project directory endpoints.
type ProjectHandler struct {
	coordinator *services.ProjectCoordinator
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(coordinator *services.ProjectCoordinator) *ProjectHandler {
	return &ProjectHandler{coordinator: coordinator}
}

// CreateProjectRequest is the request body for project creation
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// Create makes a new project owned by the caller
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	project, err := h.coordinator.CreateProject(c.Context(), req.Name, middleware.UserID(c))
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusCreated, project)
}

// List returns the caller's projects, most recently active first
// GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.coordinator.ListProjects(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusOK, projects)
}

// Get returns one project's directory entry
// GET /api/project/:id/info
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.coordinator.GetProject(c.Context(), c.Params("id"), middleware.UserID(c))
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusOK, project)
}

// Rename changes a project's display name
// PUT /api/project/:id
func (h *ProjectHandler) Rename(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return respondErr(c, fiber.StatusBadRequest, "Invalid request body")
	}

	project, err := h.coordinator.RenameProject(c.Context(), c.Params("id"), middleware.UserID(c), req.Name)
	if err != nil {
		return respondDomainErr(c, err)
	}
	return respondOK(c, fiber.StatusOK, project)
}
