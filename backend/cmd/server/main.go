package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"physbridge/backend/internal/collision"
	"physbridge/backend/internal/physics"
	"physbridge/backend/internal/raytest"
	"physbridge/backend/internal/scene"
	"physbridge/backend/internal/telemetry"
	"physbridge/backend/internal/world"
)

var (
	configFile string
	mode       string
	workerURL  string
	frameRate  int
	spheres    int
	height     float64
	runTime    float64
	plotTime   float64
	terrain    bool
	watch      bool
	httpAddr   string
	metric     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "physbridge",
		Short: "physics coordination demo host",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "physics config (yaml)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "override mode: fallback, worker, remote")
	rootCmd.PersistentFlags().StringVar(&workerURL, "worker-url", "", "override remote worker url")
	rootCmd.PersistentFlags().IntVar(&frameRate, "fps", 60, "render frame rate")
	rootCmd.PersistentFlags().IntVar(&spheres, "spheres", 3, "number of test spheres")
	rootCmd.PersistentFlags().Float64Var(&height, "height", 5, "drop height of the first sphere")
	rootCmd.PersistentFlags().BoolVar(&terrain, "terrain", false, "use generated terrain instead of a flat ground")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the demo scene in real time",
		RunE:  runScene,
	}
	runCmd.Flags().Float64Var(&runTime, "time", 0, "duration in seconds, 0 runs until interrupted")
	runCmd.Flags().BoolVar(&watch, "watch", false, "reload config file on change")
	runCmd.Flags().StringVar(&httpAddr, "http", "", "serve telemetry json on this address")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "simulate inline without rendering and plot a metric",
		RunE:  plotScene,
	}
	plotCmd.Flags().Float64Var(&plotTime, "time", 3, "simulated seconds")
	plotCmd.Flags().StringVar(&metric, "metric", "height", "height, velocity or fps")

	rootCmd.AddCommand(runCmd, plotCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig конфиг из файла (или по умолчанию) с учетом флагов
func loadConfig() (*physics.Config, error) {
	if frameRate <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", frameRate)
	}
	cfg := physics.DefaultConfig()
	if configFile != "" {
		loaded, err := physics.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if mode != "" {
		cfg.Mode = physics.Mode(mode)
	}
	if workerURL != "" {
		cfg.WorkerURL = workerURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	physics.SetConfig(cfg)
	return cfg, nil
}

// demo сцена с тестовыми объектами
type demo struct {
	scene   *scene.Scene
	manager *world.Manager
	spheres []*world.Object
}

func newDemo(ctx context.Context, cfg *physics.Config, clock func() float64, logger *log.Logger) (*demo, error) {
	sc, err := scene.New(ctx, "demo", cfg, physics.Dial, clock, logger)
	if err != nil {
		return nil, err
	}

	manager := world.NewManager()
	creator := world.NewTestObjectsCreator(world.NewFactory(manager, sc, logger))
	if terrain {
		_, err = creator.CreateTerrain(16, 2)
	} else {
		_, err = creator.CreateGround()
	}
	if err != nil {
		sc.Close()
		return nil, err
	}
	objs, err := creator.CreateTestSpheres(spheres, height)
	if err != nil {
		sc.Close()
		return nil, err
	}
	return &demo{scene: sc, manager: manager, spheres: objs}, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := log.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	clock := func() float64 { return time.Since(start).Seconds() }

	d, err := newDemo(ctx, cfg, clock, logger)
	if err != nil {
		return err
	}
	defer d.scene.Close()

	if watch && configFile != "" {
		watcher, err := physics.Watch(configFile, logger, func(c *physics.Config) {
			if c.Mode != cfg.Mode || c.MaxFPS != cfg.MaxFPS {
				logger.Printf("[Config] mode %s, %d fps: restart to apply", c.Mode, c.MaxFPS)
			}
		})
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	// контакты сфер с землей
	for _, s := range d.spheres {
		name := s.ID
		d.scene.AppendCollisionTest(s, world.GroundTag, true, collision.ObserverFunc(func(ev collision.Event) {
			if ev.Colliding {
				logger.Printf("[Demo] %s touched %s at %.2f", name, ev.Other.Object.Name(), ev.Contact.Pos[1])
			} else {
				logger.Printf("[Demo] %s left the ground", name)
			}
		}))
	}

	// луч вниз от первой сферы
	groundDist := -1.0
	if len(d.spheres) > 0 {
		d.scene.AppendRayTest(d.spheres[0], mgl64.Vec3{}, mgl64.Vec3{0, -10, 0}, world.GroundTag,
			raytest.ObserverFunc(func(_ raytest.ID, hit raytest.Hit) {
				groundDist = -1
				if hit.Body != nil {
					groundDist = hit.Fraction * 10
				}
			}), raytest.Options{IgnoreSourceRotation: true})
	}

	if httpAddr != "" {
		srv := serveTelemetry(httpAddr, d.scene.Telemetry(), logger)
		defer srv.Close()
	}

	var deadline <-chan time.Time
	if runTime > 0 {
		deadline = time.After(time.Duration(runTime * float64(time.Second)))
	}

	frames := time.NewTicker(time.Second / time.Duration(frameRate))
	defer frames.Stop()
	report := time.NewTicker(time.Second)
	defer report.Stop()

	logger.Printf("[Demo] running %s mode at %d fps", cfg.Mode, frameRate)
	last := clock()
	for {
		select {
		case <-ctx.Done():
			logger.Printf("[Demo] interrupted")
			return nil
		case <-deadline:
			return nil
		case <-frames.C:
			now := clock()
			d.scene.Update(now, now-last)
			last = now
		case <-report.C:
			d.scene.Ping()
			d.scene.Debug()
			for _, obj := range d.manager.GetAllObjects() {
				p := obj.Position()
				logger.Printf("[Demo] %s at (%.2f, %.2f, %.2f)", obj.ID, p[0], p[1], p[2])
			}
			if groundDist >= 0 {
				logger.Printf("[Demo] ground %.2f below %s", groundDist, d.spheres[0].ID)
			}
		}
	}
}

func serveTelemetry(addr string, tm *telemetry.TelemetryManager, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := tm.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(data))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Printf("[Demo] telemetry on http://%s/telemetry", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("[Demo] telemetry server: %v", err)
		}
	}()
	return srv
}

// plotScene гоняет сцену по виртуальным часам и строит график
func plotScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	switch metric {
	case "height", "velocity":
	case "fps":
		cfg.CalcFPS = true
	default:
		return fmt.Errorf("unknown metric %q", metric)
	}
	// виртуальные часы читаются только из этой горутины
	cfg.Mode = physics.ModeFallback

	now := 0.0
	clock := func() float64 { return now }
	d, err := newDemo(cmd.Context(), cfg, clock, log.New(os.Stderr, "", log.LstdFlags))
	if err != nil {
		return err
	}
	defer d.scene.Close()
	if len(d.spheres) == 0 {
		return fmt.Errorf("nothing to plot: no spheres")
	}
	target := d.spheres[0]

	dt := 1 / float64(frameRate)
	steps := int(plotTime * float64(frameRate))
	data := make([]float64, 0, steps)
	for i := 0; i < steps; i++ {
		now += dt
		d.scene.Update(now, dt)

		switch metric {
		case "height":
			data = append(data, target.Position()[1])
		case "velocity":
			if b, ok := d.scene.Body(target); ok {
				data = append(data, b.State.LinVel[1])
			}
		}
	}
	if metric == "fps" {
		data = d.scene.Telemetry().History(telemetry.EntryFPS)
	}
	if len(data) == 0 {
		return fmt.Errorf("no %s samples collected", metric)
	}

	caption := fmt.Sprintf("%s of %s over %.1fs", metric, target.ID, plotTime)
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}
