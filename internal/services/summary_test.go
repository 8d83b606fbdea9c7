package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pointflow/internal/models"
)

func TestBuildSummaryPrompt(t *testing.T) {
	points := []models.Point{
		{Topic: "release", Content: "ship the beta", Status: models.StatusInProgress},
		{Topic: "bugs", Content: "login flaky", Status: models.StatusOpen},
	}

	prompt := BuildSummaryPrompt("Launch Plan", points)

	want := "Summarize these project points for \"Launch Plan\":\n" +
		"- [release] ship the beta (Status: In Progress)\n" +
		"- [bugs] login flaky (Status: Open)"
	if prompt != want {
		t.Errorf("Unexpected prompt:\n got %q\nwant %q", prompt, want)
	}

	// Deterministic for a fixed point order.
	if again := BuildSummaryPrompt("Launch Plan", points); again != prompt {
		t.Error("Prompt must be deterministic")
	}
}

func TestBuildSummaryPromptQuotedName(t *testing.T) {
	points := []models.Point{{Topic: "t", Content: "c", Status: models.StatusOpen}}

	prompt := BuildSummaryPrompt(`The "Big" Plan`, points)

	// The name goes in verbatim, not Go-escaped.
	want := "Summarize these project points for \"The \"Big\" Plan\":\n- [t] c (Status: Open)"
	if prompt != want {
		t.Errorf("Unexpected prompt:\n got %q\nwant %q", prompt, want)
	}
}

func TestBuildSummaryPromptNoPoints(t *testing.T) {
	prompt := BuildSummaryPrompt("Empty", nil)
	if !strings.HasPrefix(prompt, "Summarize these project points for \"Empty\":") {
		t.Errorf("Unexpected prompt %q", prompt)
	}
}

func TestSummarizeWrapsUpstreamFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("timeout")}
	pipeline := NewSummaryPipeline(completer)

	_, err := pipeline.Summarize(context.Background(), "P", []models.Point{{Topic: "t", Content: "c", Status: models.StatusOpen}})

	var uerr *UpstreamError
	if !errors.As(err, &uerr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "timeout") {
		t.Errorf("Expected wrapped cause in message, got %q", uerr.Error())
	}
}

func TestSummarizeReturnsTextVerbatim(t *testing.T) {
	completer := &fakeCompleter{text: "  the summary\n"}
	pipeline := NewSummaryPipeline(completer)

	text, err := pipeline.Summarize(context.Background(), "P", []models.Point{{Topic: "t", Content: "c", Status: models.StatusOpen}})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if text != "  the summary\n" {
		t.Errorf("Generated text must be returned unmodified, got %q", text)
	}
}
