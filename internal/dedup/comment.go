package dedup

import (
	"fmt"
	"strings"

	"github.com/netra-systems/zen-triage/internal/fingerprint"
	"github.com/netra-systems/zen-triage/internal/types"
)

// DuplicateComment formats the progress note an orchestrator caller posts on
// the matched issue after an add_comment recommendation. The engine itself
// never writes to the tracker.
func DuplicateComment(ec *types.ErrorContext, result *types.DuplicateDetectionResult) string {
	var b strings.Builder
	b.WriteString("Another occurrence of this error was reported.\n\n")
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", fingerprint.Generate(ec))
	if ec.Service != "" {
		fmt.Fprintf(&b, "- Service: %s\n", ec.Service)
	}
	if ec.Environment != "" {
		fmt.Fprintf(&b, "- Environment: %s\n", ec.Environment)
	}
	if !ec.Timestamp.IsZero() {
		fmt.Fprintf(&b, "- Observed at: %s\n", ec.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}

	if len(result.SimilarityScores) > 0 {
		best := result.SimilarityScores[0]
		fmt.Fprintf(&b, "- Similarity score: %.2f (confidence %.2f)\n", best.OverallScore, best.Confidence)
		for _, reason := range best.SimilarityReasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}
	return b.String()
}
