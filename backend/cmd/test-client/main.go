package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/transport/ws"
)

var (
	url     string
	count   int
	timeout time.Duration
)

// test-client проверяет удаленный воркер: Init, Ping и Debug,
// затем печатает первые ответы
func main() {
	rootCmd := &cobra.Command{
		Use:   "test-client",
		Short: "check a remote physics worker",
		RunE:  check,
	}
	rootCmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "worker websocket url")
	rootCmd.Flags().IntVar(&count, "count", 3, "messages to print")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall timeout")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func check(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	received := make(chan ipc.Inbound, 64)
	sink := ipc.SinkFunc(func(msg ipc.Inbound) {
		select {
		case received <- msg:
		default:
		}
	})

	log.Printf("Connecting to %s", url)
	link, err := ws.Dial(ctx, url, sink, log.Default())
	if err != nil {
		return err
	}
	defer link.Close()

	start := time.Now()
	clock := func() float64 { return time.Since(start).Seconds() }

	err = link.Send([]ipc.Outbound{
		ipc.Init{Epoch: clock(), MaxFPS: 60},
		ipc.Ping{Sent: clock()},
		ipc.Debug{},
	})
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for i := 0; i < count; i++ {
		select {
		case msg := <-received:
			switch m := msg.(type) {
			case ipc.Pong:
				log.Printf("PONG: rtt %.1f ms", (clock()-m.Sent)*1000)
			case ipc.DebugStats:
				log.Printf("DEBUG: %v", m.Stats)
			default:
				log.Printf("%s", msg.Kind())
			}
		case <-link.Done():
			return fmt.Errorf("connection closed after %d messages", i)
		case <-ctx.Done():
			return fmt.Errorf("timeout after %d messages", i)
		}
	}
	return nil
}
