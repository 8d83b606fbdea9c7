package services

import (
	"context"
	"fmt"
	"strings"

	"pointflow/internal/models"
)

// SummaryPipeline turns a project's points into a generated summary. The
// prompt is deterministic for a fixed point order; the generated text is
// returned unmodified.
type SummaryPipeline struct {
	completions Completer
}

// NewSummaryPipeline creates a summary pipeline backed by the given
// completion service.
func NewSummaryPipeline(completions Completer) *SummaryPipeline {
	return &SummaryPipeline{completions: completions}
}

// BuildSummaryPrompt renders the summarization prompt: a project name
// header followed by one line per point, in the order supplied.
func BuildSummaryPrompt(projectName string, points []models.Point) string {
	lines := make([]string, len(points))
	for i, p := range points {
		lines[i] = fmt.Sprintf("- [%s] %s (Status: %s)", p.Topic, p.Content, p.Status)
	}
	// The name is interpolated verbatim, without Go quoting, so a name
	// containing a double quote appears as typed.
	return "Summarize these project points for \"" + projectName + "\":\n" + strings.Join(lines, "\n")
}

// Summarize builds the prompt and invokes the completion service with no
// prior conversation context. Any failure surfaces as UpstreamError.
func (p *SummaryPipeline) Summarize(ctx context.Context, projectName string, points []models.Point) (string, error) {
	prompt := BuildSummaryPrompt(projectName, points)

	text, err := p.completions.Complete(ctx, prompt, nil)
	if err != nil {
		return "", &UpstreamError{Err: err}
	}
	return text, nil
}
