// Package cli implements the powergram command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "powergram",
	Short: "powergram — battery and thermal monitor with a Telegram control channel",
	Long: `powergram watches a laptop's battery, CPU temperature and fan,
notifies Telegram subscribers about low-battery and charge-state
transitions, and offers an admin-gated remote shell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
