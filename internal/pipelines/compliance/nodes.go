package compliance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/weave/internal/logging"
	"github.com/aretw0/weave/pkg/domain"
	"github.com/aretw0/weave/pkg/graph"
)

// State fields.
const (
	FieldDocument   = "document"
	FieldIssues     = "issues"
	FieldRisks      = "risks"
	FieldVerified   = "verified"
	FieldConfidence = "confidence"
	FieldSummary    = "summary"
	FieldReview     = "needs_review"
)

// ErrEmptyDocument is returned by Ingest for a blank document.
var ErrEmptyDocument = errors.New("document is empty")

// Ingest normalizes the document and seeds the finding fields.
func Ingest(_ context.Context, s domain.State) (domain.State, error) {
	doc, _ := s.String(FieldDocument)
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return nil, ErrEmptyDocument
	}
	s[FieldDocument] = doc
	if _, ok := s[FieldIssues]; !ok {
		s[FieldIssues] = []string{}
	}
	if _, ok := s[FieldRisks]; !ok {
		s[FieldRisks] = []string{}
	}
	s[FieldVerified] = false
	return s, nil
}

// Compliance records the compliance issues found in the document and a
// confidence score that drops with every issue.
func Compliance(r Reasoner) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		doc, _ := s.String(FieldDocument)
		reply, err := r.Complete(ctx, PromptCompliance+"\n"+doc)
		if err != nil {
			return nil, fmt.Errorf("compliance check: %w", err)
		}
		issues := lines(reply)
		s[FieldIssues] = issues
		s[FieldConfidence] = confidence(len(issues))
		logging.FromContext(ctx).Debug("compliance checked", "issues", len(issues))
		return s, nil
	}
}

// Risk records the risks found in the document.
func Risk(r Reasoner) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		doc, _ := s.String(FieldDocument)
		reply, err := r.Complete(ctx, PromptRisk+"\n"+doc)
		if err != nil {
			return nil, fmt.Errorf("risk assessment: %w", err)
		}
		s[FieldRisks] = lines(reply)
		return s, nil
	}
}

// Summary condenses issues and risks into one text.
func Summary(r Reasoner) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		issues, risks := stringList(s[FieldIssues]), stringList(s[FieldRisks])
		prompt := fmt.Sprintf("%s\n%d compliance issues: %s. %d risks: %s.",
			PromptSummary,
			len(issues), orNone(issues),
			len(risks), orNone(risks))
		reply, err := r.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("summary: %w", err)
		}
		s[FieldSummary] = strings.TrimSpace(reply)
		return s, nil
	}
}

// Verify asks the reasoner to confirm the findings.
func Verify(r Reasoner) graph.NodeFunc {
	return func(ctx context.Context, s domain.State) (domain.State, error) {
		doc, _ := s.String(FieldDocument)
		issues := stringList(s[FieldIssues])
		prompt := fmt.Sprintf("%s\n%s\nFindings:\n%s", PromptVerify, doc, strings.Join(issues, "\n"))
		reply, err := r.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("verification: %w", err)
		}
		s[FieldVerified] = strings.HasPrefix(strings.ToLower(strings.TrimSpace(reply)), "yes")
		return s, nil
	}
}

// Flag marks the run for human review.
func Flag(_ context.Context, s domain.State) (domain.State, error) {
	s[FieldReview] = true
	return s, nil
}

// RouteByConfidence returns "accept" when confidence is above 0.8, "review" otherwise.
// A missing confidence counts as 0.
func RouteByConfidence(s domain.State) string {
	if c, ok := s.Float(FieldConfidence); ok && c > 0.8 {
		return "accept"
	}
	return "review"
}

func confidence(issues int) float64 {
	return math.Max(0, 1-0.15*float64(issues))
}

func lines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// stringList reads a list field that may have been through JSON.
func stringList(v any) []string {
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, "; ")
}
