package models

import "time"

// PointStatus is the lifecycle status of a point.
type PointStatus string

const (
	StatusOpen       PointStatus = "Open"
	StatusInProgress PointStatus = "In Progress"
	StatusResolved   PointStatus = "Resolved"
	StatusClosed     PointStatus = "Closed"
)

// ValidStatuses lists every accepted point status.
var ValidStatuses = []PointStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// IsValid reports whether s is one of the four known statuses.
func (s PointStatus) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Reaction is an emoji reaction attached to a point. Reactions are
// append-only: no edit, no delete, no per-user de-duplication.
type Reaction struct {
	ID      string `json:"id"`
	PointID string `json:"pointId"`
	Emoji   string `json:"emoji"`
	UserID  string `json:"userId"` // "anonymous" until authorship lands
}

// Reply is a threaded text reply attached to a point. Append-only.
type Reply struct {
	ID        string    `json:"id"`
	PointID   string    `json:"pointId"`
	Content   string    `json:"content"`
	UserID    string    `json:"userId"` // "anonymous" until authorship lands
	CreatedAt time.Time `json:"createdAt"`
}

// Point is a single captured note under a project.
type Point struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Content   string      `json:"content"`
	Topic     string      `json:"topic"`
	Status    PointStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	Reactions []Reaction  `json:"reactions"`
	Replies   []Reply     `json:"replies"`
}

// Summary is one generated summary in a project's history.
type Summary struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProjectState is the full snapshot a project actor returns: the project
// name, its points (newest first), the current summary and past summaries.
type ProjectState struct {
	Name           string    `json:"name"`
	Points         []Point   `json:"points"`
	Summary        *string   `json:"summary"`
	SummaryHistory []Summary `json:"summaryHistory"`
}
