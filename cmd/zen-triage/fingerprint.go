package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/netra-systems/zen-triage/internal/fingerprint"
	"github.com/netra-systems/zen-triage/internal/normalize"
)

var fingerprintShowNormalized bool

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Print the stable fingerprint derived from an error",
	RunE: func(cmd *cobra.Command, args []string) error {
		ec, err := errorContextFromFlags()
		if err != nil {
			return err
		}

		fmt.Println(fingerprint.Generate(ec))
		if fingerprintShowNormalized {
			fmt.Printf("normalized message: %s\n", normalize.Message(ec.ErrorMessage))
			if sig := fingerprint.StackSignature(ec.StackTrace); sig != "" {
				fmt.Printf("stack signature:    %s\n", sig)
			}
		}
		return nil
	},
}

func init() {
	addErrorContextFlags(fingerprintCmd)
	fingerprintCmd.Flags().BoolVar(&fingerprintShowNormalized, "show-normalized", false,
		"also print the normalized message and stack signature")
	rootCmd.AddCommand(fingerprintCmd)
}
