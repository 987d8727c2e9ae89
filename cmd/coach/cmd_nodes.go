package main

import (
	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/coach"
)

// Single-node commands for multi-process runs against an external broker.

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run only the input relay (stdin to the input subject)",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			return runApp(cfg, coach.Nodes{Relay: true})
		},
	}
}

func newRespondCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "respond",
		Short: "Run only the response generator",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			return runApp(cfg, coach.Nodes{Generator: true})
		},
	}
}

func newSpeakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speak",
		Short: "Run only the speech renderer and player",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			return runApp(cfg, coach.Nodes{Speaker: true})
		},
	}
}
