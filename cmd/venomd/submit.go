package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

var (
	submitSession  string
	submitPriority string
	submitMode     string
)

var submitCmd = &cobra.Command{
	Use:   "submit <text>",
	Short: "Submit a task to the daemon",
	Long: `Submit a task over the daemon's HTTP API and print the queued record.

The flow is selected automatically from the text; use --mode to force one
(council, review, heal, forge, issue, campaign).

Examples:
  venomd submit "compare the tradeoffs of sqlite and postgres here"
  venomd submit --mode review "implement a rate limiter"
  venomd submit --priority critical "cancel the rollout"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitSession, "session", "default", "Session id the task belongs to")
	submitCmd.Flags().StringVar(&submitPriority, "priority", "normal", "Queue class: low, normal, high, critical")
	submitCmd.Flags().StringVar(&submitMode, "mode", "", "Force a flow instead of automatic selection")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	payload := map[string]interface{}{
		"session_id": submitSession,
		"text":       strings.Join(args, " "),
		"priority":   submitPriority,
	}
	if submitMode != "" {
		payload["intent"] = map[string]string{"mode": submitMode}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := http.Post(serverAddr+"/tasks", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return decodeAPIError(resp)
	}

	var task models.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	color.Green("queued %s", task.ID)
	fmt.Printf("  session:  %s\n  priority: %s\n", task.SessionID, task.Priority)
	return nil
}

// decodeAPIError renders the daemon's error envelope.
func decodeAPIError(resp *http.Response) error {
	var wrapped struct {
		Error *models.ErrorEnvelope `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&wrapped); err == nil && wrapped.Error != nil {
		return fmt.Errorf("%s (%s)", wrapped.Error.Message, wrapped.Error.Kind)
	}
	return fmt.Errorf("daemon returned %s", resp.Status)
}
