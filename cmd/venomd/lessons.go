package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/pkg/models"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List recorded lessons",
	Long: `List the lesson log in chronological order.

Lessons are recorded automatically for outcomes that took effort: code
that needed multiple review rounds, tasks that succeeded only after a
healing cycle, and outcomes a flow flagged itself.`,
	RunE: runLessons,
}

func runLessons(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(serverAddr + "/lessons")
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", serverAddr, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}

	var lessons []*models.Lesson
	if err := json.NewDecoder(resp.Body).Decode(&lessons); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(lessons) == 0 {
		fmt.Println("No lessons recorded yet.")
		return nil
	}

	for _, l := range lessons {
		color.Cyan("%s  %s", l.CreatedAt.Format("2006-01-02 15:04"), l.Title)
		fmt.Printf("  %s\n", l.Summary)
		if len(l.Tags) > 0 {
			fmt.Printf("  tags: %s\n", strings.Join(l.Tags, ", "))
		}
		fmt.Println()
	}
	return nil
}
