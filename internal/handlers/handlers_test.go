package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"pointflow/internal/database"
	"pointflow/internal/middleware"
	"pointflow/internal/models"
	"pointflow/internal/services"
	"pointflow/pkg/auth"
)

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string, prior []services.ChatMessage) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type testApp struct {
	app       *fiber.App
	db        *database.DB
	completer *stubCompleter
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test_handlers.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	jwtAuth, err := auth.NewJWTAuth("test-secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create JWT auth: %v", err)
	}

	users := services.NewUserStore(db)
	projects := services.NewProjectStore(db)
	points := services.NewPointStore(db)
	tiers := services.NewTierService(users, nil)

	completer := &stubCompleter{text: "summary text"}
	pipeline := services.NewSummaryPipeline(completer)

	registry := services.NewActorRegistry(projects, points, pipeline, tiers, 5*time.Second)
	t.Cleanup(registry.Shutdown)
	coordinator := services.NewProjectCoordinator(projects, tiers, registry)

	authHandler := NewAuthHandler(jwtAuth, users)
	projectHandler := NewProjectHandler(coordinator)
	pointHandler := NewPointHandler(coordinator)
	healthHandler := NewHealthHandler(db)

	app := fiber.New()
	app.Get("/health", healthHandler.Handle)
	app.Post("/api/auth/signup", authHandler.Signup)
	app.Post("/api/auth/login", authHandler.Login)

	api := app.Group("/api", middleware.AuthMiddleware(jwtAuth))
	api.Post("/projects", projectHandler.Create)
	api.Get("/projects", projectHandler.List)

	project := api.Group("/project/:id")
	project.Get("/", pointHandler.State)
	project.Post("/points", pointHandler.AddPoint)
	project.Put("/points/:pointId/status", pointHandler.SetStatus)
	project.Post("/points/:pointId/reactions", pointHandler.AddReaction)
	project.Post("/points/:pointId/replies", pointHandler.AddReply)
	project.Post("/summary", pointHandler.Summarize)

	return &testApp{app: app, db: db, completer: completer}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (ta *testApp) request(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ta.app.Test(req, 10000)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("Failed to decode envelope: %v", err)
	}
	return resp.StatusCode, env
}

func (ta *testApp) signup(t *testing.T, email string) string {
	t.Helper()

	status, env := ta.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"email": email, "password": "password123",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Signup failed with status %d: %s", status, env.Error)
	}

	var session struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &session); err != nil {
		t.Fatalf("Failed to decode session: %v", err)
	}
	return session.AccessToken
}

func TestSignupAndLogin(t *testing.T) {
	ta := setupTestApp(t)

	token := ta.signup(t, "a@b.c")
	if token == "" {
		t.Fatal("Expected access token")
	}

	// Duplicate email is rejected.
	status, env := ta.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"email": "a@b.c", "password": "password123",
	})
	if status != fiber.StatusConflict || env.Success {
		t.Errorf("Expected 409 for duplicate email, got %d", status)
	}

	// Short password is rejected.
	status, _ = ta.request(t, "POST", "/api/auth/signup", "", map[string]string{
		"email": "b@b.c", "password": "short",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for short password, got %d", status)
	}

	status, env = ta.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "a@b.c", "password": "password123",
	})
	if status != fiber.StatusOK || !env.Success {
		t.Errorf("Login failed with status %d: %s", status, env.Error)
	}

	// Wrong password and unknown email give the same answer.
	status, _ = ta.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "a@b.c", "password": "wrong-password",
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", status)
	}
	status, _ = ta.request(t, "POST", "/api/auth/login", "", map[string]string{
		"email": "nobody@b.c", "password": "password123",
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown email, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	ta := setupTestApp(t)

	status, env := ta.request(t, "GET", "/api/projects", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", status)
	}
	if env.Success {
		t.Error("Expected failure envelope")
	}

	status, _ = ta.request(t, "GET", "/api/projects", "garbage-token", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", status)
	}
}

func TestProjectLifecycle(t *testing.T) {
	ta := setupTestApp(t)
	token := ta.signup(t, "a@b.c")

	// Create.
	status, env := ta.request(t, "POST", "/api/projects", token, map[string]string{"name": "Roadmap"})
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("Create failed with status %d: %s", status, env.Error)
	}
	var project models.ProjectInfo
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}

	// Free tier quota: second project is rejected with 429.
	status, env = ta.request(t, "POST", "/api/projects", token, map[string]string{"name": "Another"})
	if status != fiber.StatusTooManyRequests || env.Success {
		t.Errorf("Expected 429 for quota, got %d (%s)", status, env.Error)
	}

	// Blank name is a 400.
	status, _ = ta.request(t, "POST", "/api/projects", token, map[string]string{"name": "  "})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", status)
	}

	// List.
	status, env = ta.request(t, "GET", "/api/projects", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("List failed with status %d", status)
	}
	var list []models.ProjectInfo
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != project.ID {
		t.Errorf("Unexpected project list: %+v", list)
	}

	// Another user cannot see it.
	otherToken := ta.signup(t, "other@b.c")
	status, _ = ta.request(t, "GET", "/api/project/"+project.ID+"/", otherToken, nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 for non-owner, got %d", status)
	}
}

func TestPointEndpoints(t *testing.T) {
	ta := setupTestApp(t)
	token := ta.signup(t, "a@b.c")

	_, env := ta.request(t, "POST", "/api/projects", token, map[string]string{"name": "Roadmap"})
	var project models.ProjectInfo
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	base := "/api/project/" + project.ID

	// Add a point.
	status, env := ta.request(t, "POST", base+"/points", token, map[string]string{
		"content": "ship the beta", "topic": "release",
	})
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("AddPoint failed with status %d: %s", status, env.Error)
	}
	var point models.Point
	if err := json.Unmarshal(env.Data, &point); err != nil {
		t.Fatalf("Failed to decode point: %v", err)
	}
	if point.Status != models.StatusOpen {
		t.Errorf("Expected Open status, got %q", point.Status)
	}

	// Missing topic is a 400.
	status, _ = ta.request(t, "POST", base+"/points", token, map[string]string{"content": "x"})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for missing topic, got %d", status)
	}

	// Status change.
	status, env = ta.request(t, "PUT", base+"/points/"+point.ID+"/status", token,
		map[string]string{"status": "Resolved"})
	if status != fiber.StatusOK {
		t.Fatalf("SetStatus failed with status %d: %s", status, env.Error)
	}

	// Invalid status value.
	status, _ = ta.request(t, "PUT", base+"/points/"+point.ID+"/status", token,
		map[string]string{"status": "Done"})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for invalid status, got %d", status)
	}

	// Unknown point.
	status, _ = ta.request(t, "PUT", base+"/points/nope/status", token,
		map[string]string{"status": "Closed"})
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 for unknown point, got %d", status)
	}

	// Reaction and reply.
	status, _ = ta.request(t, "POST", base+"/points/"+point.ID+"/reactions", token,
		map[string]string{"emoji": "🎉"})
	if status != fiber.StatusCreated {
		t.Errorf("AddReaction failed with status %d", status)
	}
	status, _ = ta.request(t, "POST", base+"/points/"+point.ID+"/replies", token,
		map[string]string{"content": "on it"})
	if status != fiber.StatusCreated {
		t.Errorf("AddReply failed with status %d", status)
	}

	// Full state.
	status, env = ta.request(t, "GET", base+"/", token, nil)
	if status != fiber.StatusOK {
		t.Fatalf("State failed with status %d", status)
	}
	var state models.ProjectState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatalf("Failed to decode state: %v", err)
	}
	if state.Name != "Roadmap" || len(state.Points) != 1 {
		t.Errorf("Unexpected state: %+v", state)
	}
	if len(state.Points[0].Reactions) != 1 || len(state.Points[0].Replies) != 1 {
		t.Errorf("Expected attached reaction and reply, got %+v", state.Points[0])
	}
}

func TestSummaryEndpoint(t *testing.T) {
	ta := setupTestApp(t)
	token := ta.signup(t, "a@b.c")

	_, env := ta.request(t, "POST", "/api/projects", token, map[string]string{"name": "Roadmap"})
	var project models.ProjectInfo
	if err := json.Unmarshal(env.Data, &project); err != nil {
		t.Fatalf("Failed to decode project: %v", err)
	}
	base := "/api/project/" + project.ID

	// Empty project: 400, no summary.
	status, env := ta.request(t, "POST", base+"/summary", token, nil)
	if status != fiber.StatusBadRequest || env.Success {
		t.Errorf("Expected 400 for empty project, got %d (%s)", status, env.Error)
	}

	ta.request(t, "POST", base+"/points", token, map[string]string{
		"content": "ship it", "topic": "release",
	})

	status, env = ta.request(t, "POST", base+"/summary", token, nil)
	if status != fiber.StatusCreated || !env.Success {
		t.Fatalf("Summary failed with status %d: %s", status, env.Error)
	}
	var summary models.Summary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("Failed to decode summary: %v", err)
	}
	if summary.Summary != "summary text" {
		t.Errorf("Unexpected summary %q", summary.Summary)
	}

	// Free tier allows one summary per period: second is 429.
	status, _ = ta.request(t, "POST", base+"/summary", token, nil)
	if status != fiber.StatusTooManyRequests {
		t.Errorf("Expected 429 for summary quota, got %d", status)
	}
}

func TestHealthHandler(t *testing.T) {
	ta := setupTestApp(t)

	req := httptest.NewRequest("GET", "/health", nil)
	resp, err := ta.app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if result["status"] != "healthy" {
		t.Errorf("Expected healthy, got %v", result["status"])
	}
}
