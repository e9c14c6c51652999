package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/categorize"
	"github.com/netra-systems/zen-triage/internal/fingerprint"
	"github.com/netra-systems/zen-triage/internal/sanitize"
	"github.com/netra-systems/zen-triage/internal/tracker"
	"github.com/netra-systems/zen-triage/internal/types"
)

var reportDBPath string

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "File an error as a new issue in the local store",
	Long: `Categorize an error and file it as a new issue in the local sqlite store.
The issue body embeds the fingerprint and stack trace in the format the
duplicate detector expects, so later occurrences match it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ec, err := errorContextFromFlags()
		if err != nil {
			return err
		}

		store, err := tracker.NewSQLiteStore(reportDBPath)
		if err != nil {
			return fmt.Errorf("opening issue store: %w", err)
		}
		defer store.Close()

		categorization := categorize.New().Categorize(ec)
		issue := buildIssue(ec, categorization)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		created, err := store.CreateIssue(ctx, issue)
		if err != nil {
			return fmt.Errorf("filing issue: %w", err)
		}
		fmt.Printf("Filed issue #%d: %s\n", created.Number, created.Title)
		return nil
	},
}

// buildIssue renders an ErrorContext as a trackable report. The sanitizer
// runs over everything before it is persisted.
func buildIssue(ec *types.ErrorContext, cat types.IssueCategorization) *types.Issue {
	s := sanitize.New()
	title := fmt.Sprintf("[AUTOMATED] [%s] %s: %s",
		strings.ToUpper(string(cat.Category)), ec.ErrorType, s.Text(ec.ErrorMessage, nil))

	var b strings.Builder
	fmt.Fprintf(&b, "Automated error report.\n\n")
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", fingerprint.Generate(ec))
	fmt.Fprintf(&b, "- Message: %s\n", s.Text(ec.ErrorMessage, nil))
	if ec.Service != "" {
		fmt.Fprintf(&b, "- Service: %s\n", ec.Service)
	}
	if ec.Environment != "" {
		fmt.Fprintf(&b, "- Environment: %s\n", ec.Environment)
	}
	fmt.Fprintf(&b, "- Severity: %s (P%d)\n", cat.Severity, cat.Priority)
	fmt.Fprintf(&b, "\nreported-by: %s\n", ec.ReporterID)
	if ec.StackTrace != "" {
		fmt.Fprintf(&b, "\n```\n%s\n```\n", s.Text(ec.StackTrace, nil))
	}

	labels := append([]string{}, cat.Labels...)
	labels = append(labels, types.ReporterLabelPrefix+ec.ReporterID)

	return &types.Issue{
		Title:  title,
		Body:   b.String(),
		State:  types.IssueStateOpen,
		Labels: labels,
	}
}

func init() {
	addErrorContextFlags(reportCmd)
	reportCmd.Flags().StringVar(&reportDBPath, "db", ".zen-triage/issues.db", "path to the local issue store")
	rootCmd.AddCommand(reportCmd)
}
