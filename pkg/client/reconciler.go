package client

import (
	"context"
	"sort"
	"strings"
	"sync"

	"pointflow/internal/models"
)

// MutationState tracks a single mutation through its lifecycle.
type MutationState int

const (
	MutationIdle MutationState = iota
	MutationPending
	MutationCommitted
	MutationRolledBack
)

func (s MutationState) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationCommitted:
		return "committed"
	case MutationRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// Remote is the server surface the reconciler drives. *API satisfies it.
type Remote interface {
	ProjectState(ctx context.Context, projectID string) (*models.ProjectState, error)
	CreatePoint(ctx context.Context, projectID, content, topic string) (*models.Point, error)
	UpdatePointStatus(ctx context.Context, projectID, pointID string, status models.PointStatus) (*models.Point, error)
	CreateReaction(ctx context.Context, projectID, pointID, emoji string) (*models.Reaction, error)
	CreateReply(ctx context.Context, projectID, pointID, content string) (*models.Reply, error)
	GenerateSummary(ctx context.Context, projectID string) (*models.Summary, error)
}

// Cache is the local view state the reconciler maintains.
type Cache struct {
	Points         []models.Point
	Topics         []string
	Summary        *string
	SummaryHistory []models.Summary
	Loading        bool
}

// Reconciler keeps a local project cache in step with the server.
//
// Two deliberate, asymmetric policies:
//   - mutations to an existing entity (status changes) are optimistic:
//     the cache changes immediately and is reverted if the server rejects
//   - creations (points, reactions, replies) are pessimistic: the cache
//     only changes once the server confirms, because a failed creation
//     has no local entity to roll back cleanly
//
// Mutations against the same entity are serialized in issue order; a
// second mutation queues behind a pending one and is never applied out
// of order.
type Reconciler struct {
	remote    Remote
	projectID string

	mu    sync.Mutex
	cache Cache

	queues   map[string]*entityQueue
	queuesMu sync.Mutex

	// onNotice, when set, receives a user-visible message for every
	// rejected mutation.
	onNotice func(msg string)
}

// NewReconciler creates a reconciler for one project view.
func NewReconciler(remote Remote, projectID string) *Reconciler {
	return &Reconciler{
		remote:    remote,
		projectID: projectID,
		queues:    make(map[string]*entityQueue),
	}
}

// OnNotice registers a callback for user-visible failure notices.
func (r *Reconciler) OnNotice(fn func(msg string)) {
	r.onNotice = fn
}

func (r *Reconciler) notify(msg string) {
	if r.onNotice != nil {
		r.onNotice(msg)
	}
}

// Snapshot returns a copy of the current local cache.
func (r *Reconciler) Snapshot() Cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.cache
	out.Points = append([]models.Point(nil), r.cache.Points...)
	out.Topics = append([]string(nil), r.cache.Topics...)
	out.SummaryHistory = append([]models.Summary(nil), r.cache.SummaryHistory...)
	return out
}

// Refresh replaces the whole cache with a fresh authoritative snapshot.
// Replace, don't merge: merging a stale cache with fresh state drifts.
func (r *Reconciler) Refresh(ctx context.Context) error {
	state, err := r.remote.ProjectState(ctx, r.projectID)
	if err != nil {
		r.notify("Failed to load project")
		return err
	}

	r.mu.Lock()
	r.cache.Points = state.Points
	r.cache.Summary = state.Summary
	r.cache.SummaryHistory = state.SummaryHistory
	r.cache.Topics = collectTopics(state.Points)
	r.mu.Unlock()
	return nil
}

// SetStatus optimistically moves a point to a new status and rolls the
// cache back if the server rejects the change. Returns the final state
// the mutation reached.
func (r *Reconciler) SetStatus(ctx context.Context, pointID string, status models.PointStatus) (MutationState, error) {
	var state MutationState = MutationIdle
	var opErr error

	err := r.enqueue(ctx, "point:"+pointID, func() {
		// Optimistic apply; Pending starts here.
		state = MutationPending
		r.mu.Lock()
		prev, found := r.pointStatus(pointID)
		if found {
			r.applyStatus(pointID, status)
		}
		r.mu.Unlock()

		point, err := r.remote.UpdatePointStatus(ctx, r.projectID, pointID, status)
		if err != nil {
			if found {
				r.mu.Lock()
				r.applyStatus(pointID, prev)
				r.mu.Unlock()
			}
			state = MutationRolledBack
			opErr = err
			r.notify("Failed to update status")
			return
		}

		// Reconcile with the authoritative entity, replacing the local
		// copy wholesale.
		r.mu.Lock()
		r.replacePoint(*point)
		r.mu.Unlock()
		state = MutationCommitted
	})
	if err != nil {
		// The mutation is scheduled and will still run; only the wait
		// was abandoned.
		return MutationPending, err
	}
	return state, opErr
}

// AddPoint creates a point, rendering it only after server confirmation.
func (r *Reconciler) AddPoint(ctx context.Context, content, topic string) (*models.Point, error) {
	var point *models.Point
	var opErr error

	err := r.enqueue(ctx, "project", func() {
		p, err := r.remote.CreatePoint(ctx, r.projectID, content, topic)
		if err != nil {
			opErr = err
			r.notify("Failed to add point")
			return
		}

		r.mu.Lock()
		r.cache.Points = append([]models.Point{*p}, r.cache.Points...)
		r.cache.Topics = collectTopics(r.cache.Points)
		r.mu.Unlock()
		point = p
	})
	if err != nil {
		return nil, err
	}
	return point, opErr
}

// AddReaction creates a reaction, confirm-then-render.
func (r *Reconciler) AddReaction(ctx context.Context, pointID, emoji string) (*models.Reaction, error) {
	var reaction *models.Reaction
	var opErr error

	err := r.enqueue(ctx, "point:"+pointID, func() {
		re, err := r.remote.CreateReaction(ctx, r.projectID, pointID, emoji)
		if err != nil {
			opErr = err
			r.notify("Failed to add reaction")
			return
		}

		r.mu.Lock()
		for i := range r.cache.Points {
			if r.cache.Points[i].ID == pointID {
				r.cache.Points[i].Reactions = append(r.cache.Points[i].Reactions, *re)
				break
			}
		}
		r.mu.Unlock()
		reaction = re
	})
	if err != nil {
		return nil, err
	}
	return reaction, opErr
}

// AddReply creates a reply, confirm-then-render.
func (r *Reconciler) AddReply(ctx context.Context, pointID, content string) (*models.Reply, error) {
	var reply *models.Reply
	var opErr error

	err := r.enqueue(ctx, "point:"+pointID, func() {
		rp, err := r.remote.CreateReply(ctx, r.projectID, pointID, content)
		if err != nil {
			opErr = err
			r.notify("Failed to add reply")
			return
		}

		r.mu.Lock()
		for i := range r.cache.Points {
			if r.cache.Points[i].ID == pointID {
				r.cache.Points[i].Replies = append(r.cache.Points[i].Replies, *rp)
				break
			}
		}
		r.mu.Unlock()
		reply = rp
	})
	if err != nil {
		return nil, err
	}
	return reply, opErr
}

// GenerateSummary requests a summary and folds the result into the cache
// once the server confirms. The loading flag covers the in-flight call.
func (r *Reconciler) GenerateSummary(ctx context.Context) (*models.Summary, error) {
	var summary *models.Summary
	var opErr error

	err := r.enqueue(ctx, "project", func() {
		r.mu.Lock()
		r.cache.Loading = true
		r.mu.Unlock()

		s, err := r.remote.GenerateSummary(ctx, r.projectID)

		r.mu.Lock()
		r.cache.Loading = false
		if err == nil {
			r.cache.Summary = &s.Summary
			r.cache.SummaryHistory = append([]models.Summary{*s}, r.cache.SummaryHistory...)
		}
		r.mu.Unlock()

		if err != nil {
			opErr = err
			r.notify("Failed to generate summary")
			return
		}
		summary = s
	})
	if err != nil {
		return nil, err
	}
	return summary, opErr
}

// pointStatus must be called with r.mu held.
func (r *Reconciler) pointStatus(pointID string) (models.PointStatus, bool) {
	for i := range r.cache.Points {
		if r.cache.Points[i].ID == pointID {
			return r.cache.Points[i].Status, true
		}
	}
	return "", false
}

// applyStatus must be called with r.mu held.
func (r *Reconciler) applyStatus(pointID string, status models.PointStatus) {
	for i := range r.cache.Points {
		if r.cache.Points[i].ID == pointID {
			r.cache.Points[i].Status = status
			return
		}
	}
}

// replacePoint must be called with r.mu held.
func (r *Reconciler) replacePoint(point models.Point) {
	for i := range r.cache.Points {
		if r.cache.Points[i].ID == point.ID {
			r.cache.Points[i] = point
			return
		}
	}
}

// collectTopics dedupes case-insensitively, keeping the first-seen casing.
func collectTopics(points []models.Point) []string {
	seen := make(map[string]bool)
	topics := []string{}
	for _, p := range points {
		key := strings.ToLower(p.Topic)
		if !seen[key] {
			seen[key] = true
			topics = append(topics, p.Topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// entityQueue serializes mutations targeting one entity in issue order.
type entityQueue struct {
	mu      sync.Mutex
	pending []func()
	busy    bool
}

// enqueue schedules op on the entity's queue and waits for it to finish.
// The wait respects ctx; the queued op itself is never retracted once
// scheduled, matching the server's no-cancellation rule.
func (r *Reconciler) enqueue(ctx context.Context, entity string, op func()) error {
	r.queuesMu.Lock()
	q, ok := r.queues[entity]
	if !ok {
		q = &entityQueue{}
		r.queues[entity] = q
	}
	r.queuesMu.Unlock()

	done := make(chan struct{})
	wrapped := func() {
		op()
		close(done)
	}

	q.mu.Lock()
	if q.busy {
		q.pending = append(q.pending, wrapped)
		q.mu.Unlock()
	} else {
		q.busy = true
		q.mu.Unlock()
		go q.drain(wrapped)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *entityQueue) drain(first func()) {
	next := first
	for {
		next()

		q.mu.Lock()
		if len(q.pending) == 0 {
			q.busy = false
			q.mu.Unlock()
			return
		}
		next = q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()
	}
}
