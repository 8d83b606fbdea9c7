package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"pointflow/internal/logging"
	"pointflow/internal/models"
)

// Point content and topic length bounds.
const (
	maxContentLength = 500
	maxTopicLength   = 50
)

// reactionAuthor is the fixed authoring identity for reactions and
// replies until per-user attribution lands.
const reactionAuthor = "anonymous"

// ProjectActor owns every mutation of one project's points, reactions,
// replies and summaries. A single goroutine drains the mailbox, so
// operations addressed to the same project execute one at a time in
// arrival order and never interleave. An in-flight operation blocks the
// actor while it awaits the store or the completion service; it is not
// reentrant.
type ProjectActor struct {
	projectID string

	projects *ProjectStore
	points   *PointStore
	pipeline *SummaryPipeline
	tiers    *TierService

	summaryTimeout time.Duration

	mailbox chan func()
	quit    chan struct{}
	logger  *slog.Logger
}

func newProjectActor(projectID string, projects *ProjectStore, points *PointStore,
	pipeline *SummaryPipeline, tiers *TierService, summaryTimeout time.Duration) *ProjectActor {
	a := &ProjectActor{
		projectID:      projectID,
		projects:       projects,
		points:         points,
		pipeline:       pipeline,
		tiers:          tiers,
		summaryTimeout: summaryTimeout,
		mailbox:        make(chan func(), 64),
		quit:           make(chan struct{}),
		logger:         logging.WithProject(projectID),
	}
	go a.run()
	return a
}

func (a *ProjectActor) run() {
	for {
		select {
		case op := <-a.mailbox:
			op()
		case <-a.quit:
			return
		}
	}
}

func (a *ProjectActor) stop() {
	close(a.quit)
}

// submit enqueues op and waits for it to finish. The wait respects ctx,
// but a timed-out caller does not retract the operation: once enqueued it
// still runs to completion and may mutate persisted state.
func (a *ProjectActor) submit(ctx context.Context, op func()) error {
	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}

	select {
	case a.mailbox <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetState returns a full snapshot: name, current summary, points (newest
// first) and summary history.
func (a *ProjectActor) GetState(ctx context.Context) (*models.ProjectState, error) {
	var state *models.ProjectState
	var opErr error
	err := a.submit(ctx, func() {
		state, opErr = a.getState()
	})
	if err != nil {
		return nil, err
	}
	return state, opErr
}

func (a *ProjectActor) getState() (*models.ProjectState, error) {
	ctx := context.Background()

	name, summary, err := a.projects.GetName(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	points, err := a.points.ListByProject(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	history, err := a.points.ListSummaries(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	return &models.ProjectState{
		Name:           name,
		Points:         points,
		Summary:        summary,
		SummaryHistory: history,
	}, nil
}

// AddPoint validates and persists a new point with status Open.
func (a *ProjectActor) AddPoint(ctx context.Context, content, topic string) (*models.Point, error) {
	var point *models.Point
	var opErr error
	err := a.submit(ctx, func() {
		point, opErr = a.addPoint(content, topic)
	})
	if err != nil {
		return nil, err
	}
	return point, opErr
}

func (a *ProjectActor) addPoint(content, topic string) (*models.Point, error) {
	content = strings.TrimSpace(content)
	topic = strings.TrimSpace(topic)

	if content == "" || topic == "" {
		return nil, validationErr("content and topic are required")
	}
	// Limits are in characters, not bytes.
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, validationErr("content must be at most %d characters", maxContentLength)
	}
	if utf8.RuneCountInString(topic) > maxTopicLength {
		return nil, validationErr("topic must be at most %d characters", maxTopicLength)
	}

	ctx := context.Background()
	point, err := a.points.Insert(ctx, a.projectID, content, topic)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	a.touch(ctx)

	a.logger.Debug("point added", "point_id", point.ID, "topic", point.Topic)
	return point, nil
}

// SetStatus moves a point to any of the four statuses. There are no
// transition restrictions; setting the current status is a no-op update.
func (a *ProjectActor) SetStatus(ctx context.Context, pointID string, status models.PointStatus) (*models.Point, error) {
	var point *models.Point
	var opErr error
	err := a.submit(ctx, func() {
		point, opErr = a.setStatus(pointID, status)
	})
	if err != nil {
		return nil, err
	}
	return point, opErr
}

func (a *ProjectActor) setStatus(pointID string, status models.PointStatus) (*models.Point, error) {
	if !status.IsValid() {
		return nil, validationErr("invalid status %q", string(status))
	}

	ctx := context.Background()
	point, err := a.points.UpdateStatus(ctx, a.projectID, pointID, status)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	a.touch(ctx)

	return point, nil
}

// AddReaction appends an emoji reaction to a point.
func (a *ProjectActor) AddReaction(ctx context.Context, pointID, emoji string) (*models.Reaction, error) {
	var reaction *models.Reaction
	var opErr error
	err := a.submit(ctx, func() {
		reaction, opErr = a.addReaction(pointID, emoji)
	})
	if err != nil {
		return nil, err
	}
	return reaction, opErr
}

func (a *ProjectActor) addReaction(pointID, emoji string) (*models.Reaction, error) {
	if emoji == "" {
		return nil, validationErr("emoji is required")
	}

	ctx := context.Background()
	reaction, err := a.points.InsertReaction(ctx, a.projectID, pointID, emoji, reactionAuthor)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	a.touch(ctx)

	return reaction, nil
}

// AddReply appends a text reply to a point.
func (a *ProjectActor) AddReply(ctx context.Context, pointID, content string) (*models.Reply, error) {
	var reply *models.Reply
	var opErr error
	err := a.submit(ctx, func() {
		reply, opErr = a.addReply(pointID, content)
	})
	if err != nil {
		return nil, err
	}
	return reply, opErr
}

func (a *ProjectActor) addReply(pointID, content string) (*models.Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr("reply content is required")
	}

	ctx := context.Background()
	reply, err := a.points.InsertReply(ctx, a.projectID, pointID, content, reactionAuthor)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	a.touch(ctx)

	return reply, nil
}

// GenerateSummary summarizes the project's points through the completion
// service, then persists the result to the history and the project's
// current summary in one transaction. The tier summary quota is enforced
// here, not in the client, so it cannot be bypassed.
func (a *ProjectActor) GenerateSummary(ctx context.Context) (*models.Summary, error) {
	var summary *models.Summary
	var opErr error
	err := a.submit(ctx, func() {
		summary, opErr = a.generateSummary()
	})
	if err != nil {
		return nil, err
	}
	return summary, opErr
}

func (a *ProjectActor) generateSummary() (*models.Summary, error) {
	ctx := context.Background()

	count, err := a.points.CountByProject(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	if count == 0 {
		return nil, ErrEmptyProject
	}

	project, err := a.projects.Get(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	limits := a.tiers.GetLimits(ctx, project.UserID)
	usage := rolledUsage(project.SummaryUsage, limits.SummaryPeriod, time.Now().UTC())
	if limits.SummariesPerPeriod >= 0 && usage.Count >= limits.SummariesPerPeriod {
		return nil, &QuotaExceededError{Limit: limits.SummariesPerPeriod}
	}

	points, err := a.points.ListByProject(ctx, a.projectID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	genCtx, cancel := context.WithTimeout(ctx, a.summaryTimeout)
	defer cancel()

	text, err := a.pipeline.Summarize(genCtx, project.Name, points)
	if err != nil {
		return nil, err
	}

	usage.Count++
	summary, err := a.projects.SaveSummary(ctx, a.projectID, text, usage)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	logging.WithOperation(a.logger, "generate_summary").
		Info("summary generated", "summary_id", summary.ID, "points", len(points))
	return summary, nil
}

// rolledUsage resets the usage window when the period has elapsed since
// the recorded reset date.
func rolledUsage(usage models.SummaryUsage, period time.Duration, now time.Time) models.SummaryUsage {
	resetDate, err := time.Parse("2006-01-02", usage.ResetDate)
	if err != nil || now.Sub(resetDate) >= period {
		return models.SummaryUsage{Count: 0, ResetDate: now.Format("2006-01-02")}
	}
	return usage
}

// touch bumps the project's last-active timestamp. Failures are logged,
// not surfaced: the primary mutation already succeeded.
func (a *ProjectActor) touch(ctx context.Context) {
	if err := a.projects.TouchLastActive(ctx, a.projectID); err != nil {
		a.logger.Warn("failed to touch last_active", "error", err)
	}
}

// mapStoreErr converts raw store failures into the domain taxonomy,
// passing already-tagged errors through untouched.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyProject) {
		return err
	}
	var (
		v *ValidationError
		q *QuotaExceededError
		u *UpstreamError
		s *StorageError
	)
	if errors.As(err, &v) || errors.As(err, &q) || errors.As(err, &u) || errors.As(err, &s) {
		return err
	}
	return &StorageError{Err: err}
}
