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

// PointStore handles point, reaction, reply and summary rows in SQLite.
type PointStore struct {
	db *database.DB
}

// NewPointStore creates a new point store
func NewPointStore(db *database.DB) *PointStore {
	return &PointStore{db: db}
}

// Insert persists a new point with status Open and empty reaction/reply
// collections.
func (s *PointStore) Insert(ctx context.Context, projectID, content, topic string) (*models.Point, error) {
	point := &models.Point{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Content:   content,
		Topic:     topic,
		Status:    models.StatusOpen,
		CreatedAt: time.Now().UTC(),
		Reactions: []models.Reaction{},
		Replies:   []models.Reply{},
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO points (id, project_id, content, topic, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		point.ID, point.ProjectID, point.Content, point.Topic, point.Status, point.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert point: %w", err)
	}

	return point, nil
}

// UpdateStatus sets a point's status and returns the updated point with
// its reactions and replies attached.
func (s *PointStore) UpdateStatus(ctx context.Context, projectID, pointID string, status models.PointStatus) (*models.Point, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE points SET status = ? WHERE id = ? AND project_id = ?`,
		status, pointID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to update status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, projectID, pointID)
}

// Get returns one point with its reactions and replies.
func (s *PointStore) Get(ctx context.Context, projectID, pointID string) (*models.Point, error) {
	var p models.Point
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, content, topic, status, created_at
		FROM points WHERE id = ? AND project_id = ?`, pointID, projectID).Scan(
		&p.ID, &p.ProjectID, &p.Content, &p.Topic, &p.Status, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}

	if err := s.attachChildren(ctx, []*models.Point{&p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByProject returns all points of a project, newest first, each with
// its reactions and replies in creation order.
func (s *PointStore) ListByProject(ctx context.Context, projectID string) ([]models.Point, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, content, topic, status, created_at
		FROM points
		WHERE project_id = ?
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer rows.Close()

	points := []models.Point{}
	for rows.Next() {
		var p models.Point
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Content, &p.Topic, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read points: %w", err)
	}

	refs := make([]*models.Point, len(points))
	for i := range points {
		refs[i] = &points[i]
	}
	if err := s.attachChildren(ctx, refs); err != nil {
		return nil, err
	}
	return points, nil
}

// CountByProject returns the number of points in a project.
func (s *PointStore) CountByProject(ctx context.Context, projectID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM points WHERE project_id = ?`, projectID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// InsertReaction appends a reaction to a point. No de-duplication: the
// same identity may react repeatedly with the same emoji.
func (s *PointStore) InsertReaction(ctx context.Context, projectID, pointID, emoji, userID string) (*models.Reaction, error) {
	if err := s.pointExists(ctx, projectID, pointID); err != nil {
		return nil, err
	}

	reaction := &models.Reaction{
		ID:      uuid.New().String(),
		PointID: pointID,
		Emoji:   emoji,
		UserID:  userID,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reactions (id, point_id, emoji, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		reaction.ID, reaction.PointID, reaction.Emoji, reaction.UserID, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reaction: %w", err)
	}

	return reaction, nil
}

// InsertReply appends a reply to a point.
func (s *PointStore) InsertReply(ctx context.Context, projectID, pointID, content, userID string) (*models.Reply, error) {
	if err := s.pointExists(ctx, projectID, pointID); err != nil {
		return nil, err
	}

	reply := &models.Reply{
		ID:        uuid.New().String(),
		PointID:   pointID,
		Content:   content,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO replies (id, point_id, content, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		reply.ID, reply.PointID, reply.Content, reply.UserID, reply.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reply: %w", err)
	}

	return reply, nil
}

// ListSummaries returns a project's summary history, newest first.
func (s *PointStore) ListSummaries(ctx context.Context, projectID string) ([]models.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, summary, created_at
		FROM summaries
		WHERE project_id = ?
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var sm models.Summary
		if err := rows.Scan(&sm.ID, &sm.ProjectID, &sm.Summary, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

func (s *PointStore) pointExists(ctx context.Context, projectID, pointID string) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM points WHERE id = ? AND project_id = ?`, pointID, projectID).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check point: %w", err)
	}
	return nil
}

// attachChildren loads reactions and replies for the given points.
func (s *PointStore) attachChildren(ctx context.Context, points []*models.Point) error {
	for _, p := range points {
		p.Reactions = []models.Reaction{}
		p.Replies = []models.Reply{}

		rows, err := s.db.QueryContext(ctx, `
			SELECT id, point_id, emoji, user_id
			FROM reactions WHERE point_id = ?
			ORDER BY created_at ASC`, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load reactions: %w", err)
		}
		for rows.Next() {
			var r models.Reaction
			if err := rows.Scan(&r.ID, &r.PointID, &r.Emoji, &r.UserID); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan reaction: %w", err)
			}
			p.Reactions = append(p.Reactions, r)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to read reactions: %w", err)
		}

		rows, err = s.db.QueryContext(ctx, `
			SELECT id, point_id, content, user_id, created_at
			FROM replies WHERE point_id = ?
			ORDER BY created_at ASC`, p.ID)
		if err != nil {
			return fmt.Errorf("failed to load replies: %w", err)
		}
		for rows.Next() {
			var r models.Reply
			if err := rows.Scan(&r.ID, &r.PointID, &r.Content, &r.UserID, &r.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan reply: %w", err)
			}
			p.Replies = append(p.Replies, r)
		}
		if err := rows.Close(); err != nil {
			return fmt.Errorf("failed to read replies: %w", err)
		}
	}

	return nil
}
