package main

import (
	"os"

	"github.com/spf13/cobra"
)

var serverAddr string

var rootCmd = &cobra.Command{
	Use:   "venomd",
	Short: "Multi-agent task orchestration daemon",
	Long: `Venom is the orchestration core for a multi-agent assistant.

It accepts tasks over HTTP, routes each one through a named execution
flow (direct response, council deliberation, code review loops, healing
cycles, tool forging, issue handling, autonomous campaigns), maintains
per-session conversational context with rolling summarization, and
records lessons from hard-won outcomes.

Run 'venomd serve' to start the daemon, then submit work with
'venomd submit' or over the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://127.0.0.1:8787", "Daemon address for client commands")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(lessonsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
