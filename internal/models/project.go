package models

import "time"

// SummaryUsage tracks how many summaries a project has generated in the
// current period. ResetDate marks the start of that period (YYYY-MM-DD).
type SummaryUsage struct {
	Count     int    `json:"count"`
	ResetDate string `json:"resetDate"`
}

// ProjectInfo is the coordinator's view of a project: directory metadata
// only, no points. Point data lives behind the project's actor.
type ProjectInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	UserID       string       `json:"userId"`
	CreatedAt    time.Time    `json:"createdAt"`
	LastActive   time.Time    `json:"lastActive"`
	SummaryUsage SummaryUsage `json:"summaryUsage"`
}
