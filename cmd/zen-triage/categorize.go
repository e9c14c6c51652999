package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/categorize"
	"github.com/netra-systems/zen-triage/internal/fingerprint"
)

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Classify an error into category, severity, priority, and labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ec, err := errorContextFromFlags()
		if err != nil {
			return err
		}

		result := categorize.New().Categorize(ec)

		if flagJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== Categorization ==="))
		fmt.Printf("  Category:    %s\n", result.Category)
		fmt.Printf("  Severity:    %s\n", severityColor(string(result.Severity)))
		fmt.Printf("  Priority:    P%d\n", result.Priority)
		fmt.Printf("  Effort:      %s\n", result.EstimatedEffort)
		fmt.Printf("  Auto-assign: %t\n", result.ShouldAutoAssign)
		fmt.Printf("  Labels:      %s\n", yellow(strings.Join(result.Labels, ", ")))
		fmt.Printf("  Fingerprint: %s\n\n", fingerprint.Generate(ec))
		return nil
	},
}

func severityColor(severity string) string {
	switch severity {
	case "critical":
		return color.New(color.FgRed, color.Bold).Sprint(severity)
	case "high":
		return color.New(color.FgRed).Sprint(severity)
	case "medium":
		return color.New(color.FgYellow).Sprint(severity)
	default:
		return color.New(color.FgHiBlack).Sprint(severity)
	}
}

func init() {
	addErrorContextFlags(categorizeCmd)
	categorizeCmd.Flags().BoolVar(&flagJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(categorizeCmd)
}
