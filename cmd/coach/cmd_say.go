package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/internal/log"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/bus"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/coach"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
)

func newSayCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "say <text>",
		Short:   "Publish one utterance on the input subject and exit",
		Example: `  coach say "How do I stay motivated?"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			client, err := connectBus(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			text := strings.Join(args, " ")
			msg, err := protocol.NewUtteranceMessage(text, "cli")
			if err != nil {
				return err
			}
			data, err := msg.Bytes()
			if err != nil {
				return err
			}
			if err := client.Publish(client.Topics().Input(), data); err != nil {
				return fmt.Errorf("publish: %w", err)
			}
			if err := client.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}

			fmt.Printf("sent: %s\n", text)
			return nil
		},
	}
}

// connectBus dials the configured broker for one-shot commands.
func connectBus(ctx context.Context, cfg coach.Config) (*bus.Client, error) {
	busCfg := bus.DefaultConfig()
	busCfg.URL = cfg.Bus.URL
	busCfg.Prefix = cfg.Bus.Prefix

	client, err := bus.New(busCfg, log.L())
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect %s: %w", busCfg.URL, err)
	}
	return client, nil
}
