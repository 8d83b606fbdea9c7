// Package client is the Go client for the PointFlow API: a thin HTTP
// wrapper plus a state reconciler that applies mutations optimistically
// and rolls them back when the server rejects them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pointflow/internal/models"
)

// API calls the PointFlow HTTP endpoints. Every response arrives in the
// {success, data, error} envelope; a non-2xx status and success:false are
// treated identically.
type API struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPI creates an API client for the given server.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetToken sets the bearer token used on subsequent requests.
func (a *API) SetToken(token string) {
	a.token = token
}

// Credentials is the request body for signup and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the authenticated session returned by signup and login.
type Session struct {
	AccessToken  string              `json:"accessToken"`
	RefreshToken string              `json:"refreshToken"`
	User         models.UserResponse `json:"user"`
	ExpiresIn    int                 `json:"expiresIn"`
}

// Signup registers a new account and stores the returned token.
func (a *API) Signup(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := a.do(ctx, "POST", "/api/auth/signup", Credentials{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	a.token = session.AccessToken
	return &session, nil
}

// Login authenticates and stores the returned token.
func (a *API) Login(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := a.do(ctx, "POST", "/api/auth/login", Credentials{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	a.token = session.AccessToken
	return &session, nil
}

// CreateProject makes a new project.
func (a *API) CreateProject(ctx context.Context, name string) (*models.ProjectInfo, error) {
	var project models.ProjectInfo
	err := a.do(ctx, "POST", "/api/projects", map[string]string{"name": name}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the caller's projects.
func (a *API) ListProjects(ctx context.Context) ([]models.ProjectInfo, error) {
	var projects []models.ProjectInfo
	if err := a.do(ctx, "GET", "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ProjectState fetches the full state snapshot of a project.
func (a *API) ProjectState(ctx context.Context, projectID string) (*models.ProjectState, error) {
	var state models.ProjectState
	if err := a.do(ctx, "GET", "/api/project/"+projectID+"/", nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// CreatePoint adds a point to a project.
func (a *API) CreatePoint(ctx context.Context, projectID, content, topic string) (*models.Point, error) {
	var point models.Point
	err := a.do(ctx, "POST", "/api/project/"+projectID+"/points",
		map[string]string{"content": content, "topic": topic}, &point)
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// UpdatePointStatus changes a point's status.
func (a *API) UpdatePointStatus(ctx context.Context, projectID, pointID string, status models.PointStatus) (*models.Point, error) {
	var point models.Point
	err := a.do(ctx, "PUT", "/api/project/"+projectID+"/points/"+pointID+"/status",
		map[string]string{"status": string(status)}, &point)
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// CreateReaction adds an emoji reaction to a point.
func (a *API) CreateReaction(ctx context.Context, projectID, pointID, emoji string) (*models.Reaction, error) {
	var reaction models.Reaction
	err := a.do(ctx, "POST", "/api/project/"+projectID+"/points/"+pointID+"/reactions",
		map[string]string{"emoji": emoji}, &reaction)
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// CreateReply adds a reply to a point.
func (a *API) CreateReply(ctx context.Context, projectID, pointID, content string) (*models.Reply, error) {
	var reply models.Reply
	err := a.do(ctx, "POST", "/api/project/"+projectID+"/points/"+pointID+"/replies",
		map[string]string{"content": content}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// GenerateSummary requests a fresh AI summary of the project.
func (a *API) GenerateSummary(ctx context.Context, projectID string) (*models.Summary, error) {
	var summary models.Summary
	if err := a.do(ctx, "POST", "/api/project/"+projectID+"/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// do performs one request and unwraps the response envelope into out.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		reqJSON, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(reqJSON)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	// Non-2xx and success:false are the same failure to the caller.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &RequestError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}

// RequestError is a rejected API call: either a transport-level non-2xx
// status or an envelope with success:false.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return e.Message
}
