package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Display the effective configuration after merging defaults, the user
config file, any .venom.yaml project override, and environment variables.

Configuration is stored at ~/.config/venom/config.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

func displayConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("Config file: %s\n\n", config.GetUserConfigPath())
	fmt.Println("anthropic:")
	fmt.Printf("  api_key:         %s\n", apiKeyDisplay)
	fmt.Printf("  use_aws_bedrock: %v\n", cfg.Anthropic.UseAWSBedrock)
	fmt.Println("queue:")
	fmt.Printf("  capacity: %d\n", cfg.Queue.Capacity)
	fmt.Printf("  workers:  %d\n", cfg.Queue.Workers)
	fmt.Println("session:")
	fmt.Printf("  history_threshold: %d\n", cfg.Session.HistoryThreshold)
	fmt.Printf("  trim_target:       %d\n", cfg.Session.TrimTarget)
	fmt.Printf("  context_turns:     %d\n", cfg.Session.ContextTurns)
	fmt.Println("flows:")
	fmt.Printf("  budget:                %s\n", cfg.Flows.Budget)
	fmt.Printf("  max_review_iterations: %d\n", cfg.Flows.MaxReviewIterations)
	fmt.Printf("  max_healing_retries:   %d\n", cfg.Flows.MaxHealingRetries)
	fmt.Printf("  council_size:          %d\n", cfg.Flows.CouncilSize)
	fmt.Printf("  max_campaign_steps:    %d\n", cfg.Flows.MaxCampaignSteps)
	fmt.Println("kernel:")
	fmt.Printf("  model:       %s\n", cfg.Kernel.Model)
	fmt.Printf("  temperature: %g\n", cfg.Kernel.Temperature)
	fmt.Printf("  top_p:       %g\n", cfg.Kernel.TopP)
	fmt.Printf("  max_tokens:  %d\n", cfg.Kernel.MaxTokens)
	fmt.Println("server:")
	fmt.Printf("  addr: %s\n", cfg.Server.Addr)
}
