package services

import (
	"sync"
	"time"
)

// ActorRegistry hands out the single live actor for a project, creating
// it lazily on first use. Two concurrent requests for the same project
// always receive the same actor, so the one-writer-per-project property
// holds across the whole process.
type ActorRegistry struct {
	mu     sync.Mutex
	actors map[string]*ProjectActor

	projects *ProjectStore
	points   *PointStore
	pipeline *SummaryPipeline
	tiers    *TierService

	summaryTimeout time.Duration
}

// NewActorRegistry creates an empty registry over the given stores.
func NewActorRegistry(projects *ProjectStore, points *PointStore,
	pipeline *SummaryPipeline, tiers *TierService, summaryTimeout time.Duration) *ActorRegistry {
	return &ActorRegistry{
		actors:         make(map[string]*ProjectActor),
		projects:       projects,
		points:         points,
		pipeline:       pipeline,
		tiers:          tiers,
		summaryTimeout: summaryTimeout,
	}
}

// Get returns the actor for a project, starting it if needed. Existence
// of the project is not checked here; a bad ID surfaces as ErrNotFound
// from the actor's first store call.
func (r *ActorRegistry) Get(projectID string) *ProjectActor {
	r.mu.Lock()
	defer r.mu.Unlock()

	actor, ok := r.actors[projectID]
	if !ok {
		actor = newProjectActor(projectID, r.projects, r.points, r.pipeline, r.tiers, r.summaryTimeout)
		r.actors[projectID] = actor
	}
	return actor
}

// Shutdown stops every actor goroutine. Operations already enqueued but
// not yet started are dropped; callers see their context expire.
func (r *ActorRegistry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, actor := range r.actors {
		actor.stop()
		delete(r.actors, id)
	}
}
