package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/internal/log"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/coach"
)

func newRunCmd() *cobra.Command {
	var (
		flagEmbedded bool
		flagWeb      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline in one process",
		Long: `Run starts all three nodes (relay, generator, speaker) in a single
process. With --embedded the broker runs in-process too, so no external
services are needed beyond the generation backend.`,
		Example: `  coach run --embedded
  coach run -c coach.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("embedded") {
				cfg.Bus.Embedded = flagEmbedded
			}
			if cmd.Flags().Changed("web") {
				cfg.Web.Enabled = flagWeb
			}

			printBanner()
			return runApp(cfg, coach.AllNodes())
		},
	}

	cmd.Flags().BoolVar(&flagEmbedded, "embedded", false, "run an in-process broker")
	cmd.Flags().BoolVar(&flagWeb, "web", false, "serve the dashboard")

	return cmd
}

// runApp drives the shared lifecycle: init, run until SIGINT/SIGTERM,
// shut down.
func runApp(cfg coach.Config, nodes coach.Nodes) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := coach.New(cfg, nodes, log.L())
	if err := app.Init(ctx); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer app.Shutdown()

	err := app.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}
