// NextGen Coach - conversational coaching pipeline.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/internal/log"
)

var (
	version   = "dev"
	gitCommit string
)

var (
	flagConfig   string
	flagLogLevel string
)

func main() {
	// Missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "coach",
		Short:         "Voice coaching pipeline: text in, spoken replies out",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Init(flagLogLevel)
		},
	}

	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "config file (default coach.yaml in working dir)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newRunCmd(),
		newRelayCmd(),
		newRespondCmd(),
		newSpeakCmd(),
		newSayCmd(),
		newTailCmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)

	return cmd
}

func printBanner() {
	tpl := "{{ .Title \"COACH\" \"\" 0 }}\nVersion: " + formatVersion() + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}

func formatVersion() string {
	v := version
	if gitCommit != "" {
		v += fmt.Sprintf(" (git: %s)", gitCommit)
	}
	return v
}
