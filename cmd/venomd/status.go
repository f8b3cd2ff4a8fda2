package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show a task's current state",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(serverAddr + "/tasks/" + args[0])
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	var task models.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	statusColor(task.Status).Printf("%s  %s\n", task.ID, task.Status)
	fmt.Printf("  session:  %s\n  priority: %s\n", task.SessionID, task.Priority)
	if task.FlowName != "" {
		fmt.Printf("  flow:     %s\n", task.FlowName)
	}
	if task.Output != "" {
		fmt.Printf("\n%s\n", task.Output)
	}
	if task.Error != nil {
		color.Red("  %s: %s (retryable: %v)", task.Error.Kind, task.Error.Message, task.Error.Retryable)
	}
	return nil
}

func statusColor(s models.TaskStatus) *color.Color {
	switch s {
	case models.TaskStatusSucceeded:
		return color.New(color.FgGreen)
	case models.TaskStatusFailed:
		return color.New(color.FgRed)
	case models.TaskStatusCancelled:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
