package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pointflow/internal/database"
	"pointflow/internal/models"
)

// ProjectStore handles project directory rows in SQLite.
type ProjectStore struct {
	db *database.DB
}

// NewProjectStore creates a new project store
func NewProjectStore(db *database.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// CreateWithQuota counts the owner's projects and inserts the new row only
// when the count is below limit, inside one transaction. The coordinator
// additionally serializes calls, so two concurrent creations for the same
// user cannot both observe the pre-insert count.
func (s *ProjectStore) CreateWithQuota(ctx context.Context, name, userID string, limit int) (*models.ProjectInfo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	if limit >= 0 && count >= limit {
		return nil, &QuotaExceededError{Limit: limit}
	}

	now := time.Now().UTC()
	project := &models.ProjectInfo{
		ID:         uuid.New().String(),
		Name:       name,
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
		SummaryUsage: models.SummaryUsage{
			Count:     0,
			ResetDate: now.Format("2006-01-02"),
		},
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, user_id, created_at, last_active, summary_usage_count, summary_usage_reset_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.UserID, project.CreatedAt,
		project.LastActive, project.SummaryUsage.Count, project.SummaryUsage.ResetDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project creation: %w", err)
	}

	return project, nil
}

// List returns a user's projects, most recently active first.
func (s *ProjectStore) List(ctx context.Context, userID string) ([]models.ProjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, user_id, created_at, last_active, summary_usage_count, summary_usage_reset_date
		FROM projects
		WHERE user_id = ?
		ORDER BY last_active DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.ProjectInfo{}
	for rows.Next() {
		var p models.ProjectInfo
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &p.CreatedAt, &p.LastActive,
			&p.SummaryUsage.Count, &p.SummaryUsage.ResetDate); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Get returns a project by ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*models.ProjectInfo, error) {
	var p models.ProjectInfo
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, user_id, created_at, last_active, summary_usage_count, summary_usage_reset_date
		FROM projects WHERE id = ?`, id).Scan(
		&p.ID, &p.Name, &p.UserID, &p.CreatedAt, &p.LastActive,
		&p.SummaryUsage.Count, &p.SummaryUsage.ResetDate,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// GetName returns just the project's display name and current summary.
func (s *ProjectStore) GetName(ctx context.Context, id string) (name string, summary *string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT name, summary FROM projects WHERE id = ?`, id).Scan(&name, &summary)
	if err == sql.ErrNoRows {
		return "", nil, ErrNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to get project name: %w", err)
	}
	return name, summary, nil
}

// Update persists mutated directory fields. Last-writer-wins: there is no
// optimistic-concurrency token, so concurrent updates can clobber each
// other silently.
func (s *ProjectStore) Update(ctx context.Context, p *models.ProjectInfo) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE projects
		SET name = ?, last_active = ?, summary_usage_count = ?, summary_usage_reset_date = ?
		WHERE id = ?`,
		p.Name, p.LastActive, p.SummaryUsage.Count, p.SummaryUsage.ResetDate, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastActive bumps last_active to now.
func (s *ProjectStore) TouchLastActive(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE projects SET last_active = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to touch project: %w", err)
	}
	return nil
}

// SaveSummary persists a generated summary in one transaction: appends it
// to the history, overwrites the project's current summary, and records
// the usage bump. Nothing is written unless every step succeeds.
func (s *ProjectStore) SaveSummary(ctx context.Context, projectID, text string, usage models.SummaryUsage) (*models.Summary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := &models.Summary{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Summary:   text,
		CreatedAt: time.Now().UTC(),
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO summaries (id, project_id, summary, created_at)
		VALUES (?, ?, ?, ?)`,
		summary.ID, summary.ProjectID, summary.Summary, summary.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert summary: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE projects
		SET summary = ?, summary_usage_count = ?, summary_usage_reset_date = ?, last_active = ?
		WHERE id = ?`,
		summary.Summary, usage.Count, usage.ResetDate, summary.CreatedAt, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update current summary: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit summary: %w", err)
	}

	return summary, nil
}
