package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"physbridge/backend/internal/physics"
	"physbridge/backend/internal/transport/ws"
)

var (
	configFile string
	addr       string
	profile    string
	maxFPS     int
)

// worker удаленный воркер физики: один мир на каждое websocket соединение
func main() {
	rootCmd := &cobra.Command{
		Use:   "worker",
		Short: "remote physics worker over websocket",
		RunE:  serve,
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "physics config (yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.Flags().StringVar(&profile, "profile", "", "network simulation profile: lan, wifi_good, wifi_poor, high_latency")
	rootCmd.Flags().IntVar(&maxFPS, "max-fps", 0, "override simulation tick rate")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg := physics.DefaultConfig()
	if configFile != "" {
		loaded, err := physics.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if maxFPS > 0 {
		cfg.MaxFPS = maxFPS
	}
	// мир воркера шагает по своему таймеру
	cfg.Mode = physics.ModeWorker
	if err := cfg.Validate(); err != nil {
		return err
	}
	physics.SetConfig(cfg)

	logger := log.Default()
	server := ws.NewServer(cfg.SolverConfig(), logger)
	if profile != "" && !server.EnableNetworkSimulation(profile) {
		return fmt.Errorf("unknown network profile %q", profile)
	}

	mux := http.NewServeMux()
	server.Register(mux)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sessions":   server.Sessions(),
			"max_fps":    cfg.MaxFPS,
			"simulation": server.GetNetworkSimulation(),
		})
	})

	httpServer := &http.Server{Addr: addr, Handler: mux}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("[Worker] listening on %s (%d fps)", addr, cfg.MaxFPS)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Printf("[Worker] shutting down, %d sessions", server.Sessions())
	server.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
