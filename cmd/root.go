package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "snackstopper",
	Short: "Daily impulse-purchase check-ins with push reminders",
	Long:  "SnackStopper records whether you resisted an impulse purchase each day, tracks your streak and savings, and reminds you by web push.",
	RunE:  runServe,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, vapidCmd)
}
