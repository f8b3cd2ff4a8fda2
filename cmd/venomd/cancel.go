package main

import (
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a queued or running task",
	Long: `Request cancellation of a task.

A queued task is removed immediately. A running task is signalled and
stops at its flow's next checkpoint; work completed before the signal is
discarded.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	resp, err := http.Post(serverAddr+"/tasks/"+args[0]+"/cancel", "application/json", nil)
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	color.Yellow("cancellation requested for %s", args[0])
	return nil
}
