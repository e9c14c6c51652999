package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/dedup"
	"github.com/netra-systems/zen-triage/internal/tracker"
)

var (
	detectDBPath     string
	detectGitHubRepo string
	detectConfigPath string
	detectTimeout    time.Duration
	detectComment    bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Check whether an error duplicates a previously filed issue",
	Long: `Run duplicate detection for an error against the issue tracker. By default
candidates come from the local sqlite store; pass --github owner/repo (with
ZEN_GITHUB_TOKEN set) to search a GitHub repository instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ec, err := errorContextFromFlags()
		if err != nil {
			return err
		}

		cfg, err := dedup.LoadConfigFile(detectConfigPath)
		if err != nil {
			return err
		}

		var tr tracker.Tracker
		if detectGitHubRepo != "" {
			parts := strings.SplitN(detectGitHubRepo, "/", 2)
			if len(parts) != 2 {
				return fmt.Errorf("--github must be owner/repo (got %q)", detectGitHubRepo)
			}
			tr = tracker.NewGitHubClient(os.Getenv("ZEN_GITHUB_TOKEN"), parts[0], parts[1])
		} else {
			store, err := tracker.NewSQLiteStore(detectDBPath)
			if err != nil {
				return fmt.Errorf("opening issue store: %w", err)
			}
			defer store.Close()
			tr = store
		}

		detector, err := dedup.New(tr, cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), detectTimeout)
		defer cancel()

		result, err := detector.Detect(ctx, ec)
		if err != nil {
			return err
		}

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Duplicate Detection ==="))
		if result.IsDuplicate {
			fmt.Printf("  Duplicate:   %s\n", red("yes"))
		} else {
			fmt.Printf("  Duplicate:   %s\n", green("no"))
		}
		fmt.Printf("  Action:      %s\n", result.RecommendedAction)
		fmt.Printf("  Confidence:  %s\n\n", result.ConfidenceLevel)

		if len(result.SimilarIssues) == 0 {
			fmt.Printf("  %s\n\n", gray("No similar issues found"))
		}
		for i, issue := range result.SimilarIssues {
			score := result.SimilarityScores[i]
			fmt.Printf("  #%d %s (score %.2f)\n", issue.Number, issue.Title, score.OverallScore)
			for _, reason := range score.SimilarityReasons {
				fmt.Printf("     %s\n", gray(reason))
			}
		}

		if detectComment && result.IsDuplicate {
			best := result.SimilarIssues[0]
			comment, err := tr.AddComment(context.Background(), best.Number, dedup.DuplicateComment(ec, result))
			if err != nil {
				return fmt.Errorf("posting duplicate comment: %w", err)
			}
			fmt.Printf("\n  Commented on issue #%d (comment %s)\n", best.Number, comment.ID)
		}
		return nil
	},
}

func init() {
	addErrorContextFlags(detectCmd)
	detectCmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	detectCmd.Flags().StringVar(&detectDBPath, "db", ".zen-triage/issues.db", "path to the local issue store")
	detectCmd.Flags().StringVar(&detectGitHubRepo, "github", "", "search a GitHub repo (owner/repo) instead of the local store")
	detectCmd.Flags().StringVar(&detectConfigPath, "config", ".zen-triage.yaml", "path to the detection config file")
	detectCmd.Flags().DurationVar(&detectTimeout, "timeout", 60*time.Second, "overall detection deadline")
	detectCmd.Flags().BoolVar(&detectComment, "comment", false, "post a progress note on the matched issue when a duplicate is found")
	rootCmd.AddCommand(detectCmd)
}
