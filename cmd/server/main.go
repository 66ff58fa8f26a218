package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "speechcoach",
	Short: "Adaptive speech practice server",
	Long: `speechcoach runs guided speech practice sessions for children. It adapts
word difficulty to the child's observed emotions and scores each finished
session.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
