package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/types"
)

var rootCmd = &cobra.Command{
	Use:   "zen-triage",
	Short: "Error triage engine: fingerprint, categorize, and deduplicate error reports",
	Long: `zen-triage turns raw runtime errors into deduplicated, categorized issue
reports. It normalizes volatile noise out of error text, derives a stable
fingerprint, classifies severity and category, and checks new errors against
previously filed issues before recommending an action.`,
}

// Shared error-context flags, registered by the commands that take one
var (
	flagMessage     string
	flagType        string
	flagStack       string
	flagService     string
	flagEnvironment string
	flagReporter    string
	flagJSON        bool
)

func addErrorContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagMessage, "message", "m", "", "error message (required)")
	cmd.Flags().StringVarP(&flagType, "type", "t", "", "error type, e.g. ImportError (required)")
	cmd.Flags().StringVar(&flagStack, "stack", "", "stack trace text, or @file to read one")
	cmd.Flags().StringVar(&flagService, "service", "", "originating service name")
	cmd.Flags().StringVar(&flagEnvironment, "env", "", "environment, e.g. production")
	cmd.Flags().StringVar(&flagReporter, "reporter", "cli", "reporter user id")
	_ = cmd.MarkFlagRequired("message")
	_ = cmd.MarkFlagRequired("type")
}

// errorContextFromFlags builds the ErrorContext shared by the subcommands
func errorContextFromFlags() (*types.ErrorContext, error) {
	ec := types.NewErrorContext(flagType, flagMessage, flagReporter)
	ec.Service = flagService
	ec.Environment = flagEnvironment

	stack := flagStack
	if len(stack) > 1 && stack[0] == '@' {
		data, err := os.ReadFile(stack[1:])
		if err != nil {
			return nil, fmt.Errorf("reading stack trace file: %w", err)
		}
		stack = string(data)
	}
	ec.StackTrace = stack

	if err := ec.Validate(); err != nil {
		return nil, err
	}
	return ec, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
