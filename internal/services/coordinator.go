package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"pointflow/internal/models"
)

// ProjectCoordinator owns the project directory: creation with quota
// enforcement, listing, lookup and renames. Creation is serialized under
// a mutex so the count-then-insert quota check never races with itself,
// even across users.
type ProjectCoordinator struct {
	mu sync.Mutex

	projects *ProjectStore
	tiers    *TierService
	registry *ActorRegistry
}

// NewProjectCoordinator creates the coordinator over the given stores.
func NewProjectCoordinator(projects *ProjectStore, tiers *TierService, registry *ActorRegistry) *ProjectCoordinator {
	return &ProjectCoordinator{
		projects: projects,
		tiers:    tiers,
		registry: registry,
	}
}

// CreateProject validates the name, checks the owner's tier quota and
// inserts the project. The new project's actor is started eagerly; since
// the directory row already committed, actor startup cannot fail the
// creation.
func (c *ProjectCoordinator) CreateProject(ctx context.Context, name, userID string) (*models.ProjectInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("project name is required")
	}

	c.mu.Lock()
	limits := c.tiers.GetLimits(ctx, userID)
	project, err := c.projects.CreateWithQuota(ctx, name, userID, limits.MaxProjects)
	c.mu.Unlock()
	if err != nil {
		return nil, mapStoreErr(err)
	}

	c.registry.Get(project.ID)
	slog.Info("project created", "project_id", project.ID, "user_id", userID)
	return project, nil
}

// ListProjects returns the user's projects, most recently active first.
func (c *ProjectCoordinator) ListProjects(ctx context.Context, userID string) ([]models.ProjectInfo, error) {
	projects, err := c.projects.List(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return projects, nil
}

// GetProject returns one project's directory entry, enforcing ownership.
func (c *ProjectCoordinator) GetProject(ctx context.Context, projectID, userID string) (*models.ProjectInfo, error) {
	project, err := c.projects.Get(ctx, projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if project.UserID != userID {
		return nil, ErrNotFound
	}
	return project, nil
}

// RenameProject updates a project's display name.
func (c *ProjectCoordinator) RenameProject(ctx context.Context, projectID, userID, name string) (*models.ProjectInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationErr("project name is required")
	}

	project, err := c.GetProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	project.Name = name
	if err := c.projects.Update(ctx, project); err != nil {
		return nil, mapStoreErr(err)
	}
	return project, nil
}

// Actor resolves the live actor for a project after verifying the caller
// owns it.
func (c *ProjectCoordinator) Actor(ctx context.Context, projectID, userID string) (*ProjectActor, error) {
	if _, err := c.GetProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return c.registry.Get(projectID), nil
}
