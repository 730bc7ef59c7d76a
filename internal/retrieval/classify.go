package retrieval

import "strings"

// Classification is the coarse triage bucket for a new support thread.
type Classification string

const (
	MacroIssue Classification = "Macro Issue"
	UserError  Classification = "User Error"
)

// Classifier maps the first message of a conversation to a
// classification. Consumers hold one of these so the heuristic can be
// swapped out without touching the scoring code.
type Classifier func(firstMessage string) Classification

// crashIndicators are the defect-signaling words the default
// classifier looks for.
var crashIndicators = []string{
	"crash", "error", "broken", "freeze", "frozen", "exception", "bug", "not working",
}

// ClassifyIssue is the default Classifier: a plain keyword gate, no
// model call. Any crash-indicating word in the lower-cased text means
// Macro Issue; everything else is User Error.
func ClassifyIssue(firstMessage string) Classification {
	lowered := strings.ToLower(firstMessage)
	for _, word := range crashIndicators {
		if strings.Contains(lowered, word) {
			return MacroIssue
		}
	}
	return UserError
}
