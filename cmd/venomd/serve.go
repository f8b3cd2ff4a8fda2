package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mpieniak01/Venom-sub010/internal/config"
	"github.com/mpieniak01/Venom-sub010/internal/flow"
	"github.com/mpieniak01/Venom-sub010/internal/kernel"
	"github.com/mpieniak01/Venom-sub010/internal/learning"
	"github.com/mpieniak01/Venom-sub010/internal/middleware"
	"github.com/mpieniak01/Venom-sub010/internal/orchestrator"
	"github.com/mpieniak01/Venom-sub010/internal/server"
	"github.com/mpieniak01/Venom-sub010/internal/session"
	"github.com/mpieniak01/Venom-sub010/internal/state"
)

var (
	serveConfigPath string
	serveDBPath     string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration daemon",
	Long: `Start the orchestration daemon: the task queue and worker pool, the
reasoning kernel, session context management, and the HTTP control plane.

The kernel configuration is re-read lazily; editing the config file while
the daemon runs takes effect on the next task without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Config file path (default: XDG config search)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "State database path (default: XDG data dir)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	dbPath := serveDBPath
	if dbPath == "" {
		dbPath = state.DefaultDBPath()
	}
	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	defer db.Close()
	records := state.NewRecords(db)

	broker := middleware.NewBroker(256)

	// The kernel re-reads its configuration per acquisition; a file watch
	// just logs the drift so operators see the pending refresh.
	kernels := kernel.NewManager(kernelSource(), kernel.NewAnthropicBuilder(kernel.AnthropicOptions{
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	}), broker)

	if path := configFileInUse(); path != "" {
		watcher, err := config.Watch(path, func() {
			log.Printf("[serve] config file changed, kernel refreshes on next task")
		})
		if err != nil {
			log.Printf("[serve] config watch disabled: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	sessions := session.NewManager(
		records,
		session.NewKernelSummarizer(kernels),
		session.NewKernelTranslator(kernels),
		learning.NewLessonRetriever(records),
		cfg.Session,
	)

	core := orchestrator.NewCore(
		records, sessions, kernels, nil,
		learning.NewRecorder(records, broker), broker,
		orchestrator.WithWorkers(cfg.Queue.Workers),
		orchestrator.WithQueueCapacity(cfg.Queue.Capacity),
	)
	core.SetCoordinator(buildCoordinator(cfg, core, broker))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		core.Start(ctx)
	}()

	color.Green("venomd listening on %s (model %s, %d workers)",
		cfg.Server.Addr, cfg.Kernel.Model, cfg.Queue.Workers)

	srv := server.New(cfg.Server.Addr, core, records, kernels, broker)
	err = srv.ListenAndServe(ctx)
	stop()
	wg.Wait()
	return err
}

// buildCoordinator registers the full flow set.
func buildCoordinator(cfg *config.Config, core *orchestrator.Core, broker *middleware.Broker) *flow.Coordinator {
	coordinator := flow.NewCoordinator(flow.NewSelector(core), broker, cfg.Flows.Budget)
	coordinator.Register(flow.NewDirectFlow())
	coordinator.Register(flow.NewCouncilFlow(cfg.Flows.CouncilSize))
	coordinator.Register(flow.NewReviewFlow(cfg.Flows.MaxReviewIterations))
	coordinator.Register(flow.NewHealingFlow(coordinator, cfg.Flows.MaxHealingRetries, cfg.Flows.HealingBackoffBase))
	coordinator.Register(flow.NewForgeFlow(flow.NewToolRegistry()))
	coordinator.Register(flow.NewIssueFlow(nil))
	coordinator.Register(flow.NewCampaignFlow(cfg.Flows.RoadmapPath, nil, cfg.Flows.MaxCampaignSteps))
	return coordinator
}

// kernelSource re-reads the on-disk configuration so kernel drift is
// picked up lazily.
func kernelSource() kernel.ConfigSource {
	return kernel.ConfigSourceFunc(func() (kernel.Config, error) {
		cfg, err := loadServeConfig()
		if err != nil {
			return kernel.Config{}, err
		}
		return kernel.Config{
			Model:       cfg.Kernel.Model,
			Temperature: cfg.Kernel.Temperature,
			TopP:        cfg.Kernel.TopP,
			MaxTokens:   cfg.Kernel.MaxTokens,
		}, nil
	})
}

func loadServeConfig() (*config.Config, error) {
	if serveConfigPath != "" {
		return config.LoadFromPath(serveConfigPath)
	}
	return config.Load()
}

func configFileInUse() string {
	if serveConfigPath != "" {
		return serveConfigPath
	}
	path := config.GetUserConfigPath()
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
