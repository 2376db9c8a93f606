package compliance

import (
	"context"
	"fmt"
	"strings"
)

// Reasoner answers a prompt with free text, one finding per line.
// Implementations wrap a language model or any other analysis service.
type Reasoner interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ReasonerFunc adapts a function to Reasoner.
type ReasonerFunc func(ctx context.Context, prompt string) (string, error)

func (f ReasonerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Prompt prefixes. The document follows on the next line.
const (
	PromptCompliance = "Check compliance issues in:"
	PromptRisk       = "Identify risks in:"
	PromptVerify     = "Verify these compliance findings are complete for:"
	PromptSummary    = "Summarize the review."
)

// StaticReasoner answers offline with keyword rules.
// It exists for the CLI demo and for tests; it never calls out.
type StaticReasoner struct {
	// Required terms whose absence is reported as a compliance issue.
	Required []string
	// RiskTerms whose presence is reported as a risk.
	RiskTerms []string
}

// NewStaticReasoner returns a reasoner with a small contract-review rule set.
func NewStaticReasoner() StaticReasoner {
	return StaticReasoner{
		Required:  []string{"signature", "effective date", "governing law"},
		RiskTerms: []string{"unlimited liability", "auto-renewal", "exclusive", "penalty"},
	}
}

func (r StaticReasoner) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	head, body, _ := strings.Cut(prompt, "\n")
	doc := strings.ToLower(body)

	var lines []string
	switch head {
	case PromptCompliance:
		for _, term := range r.Required {
			if !strings.Contains(doc, term) {
				lines = append(lines, "missing "+term)
			}
		}
	case PromptRisk:
		for _, term := range r.RiskTerms {
			if strings.Contains(doc, term) {
				lines = append(lines, term+" clause")
			}
		}
	case PromptVerify:
		lines = append(lines, "yes")
	case PromptSummary:
		lines = append(lines, strings.TrimSpace(body))
	default:
		return "", fmt.Errorf("static reasoner: unsupported prompt %q", head)
	}
	return strings.Join(lines, "\n"), nil
}
