package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"pointflow/internal/database"
	"pointflow/internal/models"
)

// fakeCompleter records prompts and returns canned text or an error.
type fakeCompleter struct {
	text    string
	err     error
	prompts []string
	delay   time.Duration
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, prior []ChatMessage) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testEnv struct {
	db          *database.DB
	users       *UserStore
	projects    *ProjectStore
	points      *PointStore
	tiers       *TierService
	completer   *fakeCompleter
	registry    *ActorRegistry
	coordinator *ProjectCoordinator
}

func setupTestEnv(t *testing.T, limits map[string]models.TierLimits) *testEnv {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	users := NewUserStore(db)
	projects := NewProjectStore(db)
	points := NewPointStore(db)
	tiers := NewTierService(users, limits)

	completer := &fakeCompleter{text: "generated summary"}
	pipeline := NewSummaryPipeline(completer)

	registry := NewActorRegistry(projects, points, pipeline, tiers, 5*time.Second)
	t.Cleanup(registry.Shutdown)

	return &testEnv{
		db:          db,
		users:       users,
		projects:    projects,
		points:      points,
		tiers:       tiers,
		completer:   completer,
		registry:    registry,
		coordinator: NewProjectCoordinator(projects, tiers, registry),
	}
}

// createUser inserts a user with the given tier and returns its ID.
func (e *testEnv) createUser(t *testing.T, email, tier string) string {
	t.Helper()
	user, err := e.users.Create(context.Background(), email, "hash", tier)
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user.ID
}

// createProject inserts a project directly, bypassing quota.
func (e *testEnv) createProject(t *testing.T, name, userID string) *models.ProjectInfo {
	t.Helper()
	project, err := e.projects.CreateWithQuota(context.Background(), name, userID, -1)
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return project
}
