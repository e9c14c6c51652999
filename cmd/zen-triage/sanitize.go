package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/sanitize"
	"github.com/netra-systems/zen-triage/internal/types"
)

var (
	sanitizeUserID    string
	sanitizeIsolation string
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [text]",
	Short: "Redact secrets and PII from text before it leaves the system",
	Long: `Redact secrets and PII from the given text (or stdin when no argument is
given). With --user and --isolation strict, identifiers belonging to other
users are masked as well.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var text string
		if len(args) == 1 {
			text = args[0]
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = string(data)
		}

		var user *types.UserContext
		if sanitizeUserID != "" {
			level := types.IsolationLevel(sanitizeIsolation)
			if !level.IsValid() {
				return fmt.Errorf("invalid isolation level: %s", sanitizeIsolation)
			}
			user = &types.UserContext{
				UserID:          sanitizeUserID,
				PermissionLevel: types.PermissionReadOnly,
				IsolationLevel:  level,
				SessionExpiry:   time.Now().Add(time.Hour),
			}
		}

		fmt.Println(sanitize.New().Text(text, user))
		return nil
	},
}

func init() {
	sanitizeCmd.Flags().StringVar(&sanitizeUserID, "user", "", "caller user id for isolation masking")
	sanitizeCmd.Flags().StringVar(&sanitizeIsolation, "isolation", "strict", "caller isolation level")
	rootCmd.AddCommand(sanitizeCmd)
}
