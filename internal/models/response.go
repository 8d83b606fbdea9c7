package models

// ApiResponse is the envelope every HTTP endpoint returns. Error is set
// only when Success is false.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
