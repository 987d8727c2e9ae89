package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/M2Elsanosi/NextGen-Coach/pkg/coach"
	"github.com/M2Elsanosi/NextGen-Coach/pkg/protocol"
)

func newTailCmd() *cobra.Command {
	var flagWS string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print pipeline events as they happen",
		Long: `Tail subscribes to every pipeline subject on the broker and prints
each message. With --ws it dials the dashboard event stream instead,
which works across machines that cannot reach the broker directly.`,
		Example: `  coach tail
  coach tail --ws ws://localhost:8090/ws`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if flagWS != "" {
				return tailWebSocket(ctx, flagWS)
			}

			cfg, err := coach.LoadConfig(flagConfig)
			if err != nil {
				return err
			}
			return tailBus(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&flagWS, "ws", "", "dial a dashboard event stream instead of the broker")

	return cmd
}

func tailBus(ctx context.Context, cfg coach.Config) error {
	client, err := connectBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	for _, subject := range client.Topics().All() {
		subject := subject
		if _, err := client.Subscribe(subject, func(data []byte) {
			printEvent(subject, data)
		}); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}

	fmt.Println("tailing, ctrl-c to stop")
	<-ctx.Done()
	return nil
}

func printEvent(subject string, data []byte) {
	ts := time.Now().Format("15:04:05")

	msg, err := protocol.ParseMessage(data)
	if err != nil {
		fmt.Printf("%s %-20s %s\n", ts, subject, data)
		return
	}

	switch msg.Type {
	case protocol.TypeUtterance, protocol.TypeResponse:
		if u, err := msg.GetUtterance(); err == nil {
			fmt.Printf("%s %-20s [%s] %s\n", ts, subject, msg.Type, u.Text)
			return
		}
	case protocol.TypeSpoken:
		if s, err := msg.GetSpoken(); err == nil {
			fmt.Printf("%s %-20s [spoken] %s (%s, %dms)\n", ts, subject, s.Text, s.Engine, s.DurationMs)
			return
		}
	case protocol.TypeStatus:
		if s, err := msg.GetStatus(); err == nil {
			fmt.Printf("%s %-20s [status] %s: %s\n", ts, subject, s.Node, s.State)
			return
		}
	}
	fmt.Printf("%s %-20s [%s]\n", ts, subject, msg.Type)
}

func tailWebSocket(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	fmt.Printf("connected to %s, ctrl-c to stop\n", url)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("%s %s\n", time.Now().Format("15:04:05"), data)
	}
}
