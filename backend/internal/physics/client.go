package physics

import (
	"context"
	"fmt"
	"log"

	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/solver"
	"physbridge/backend/internal/transport/ws"
)

// Dial создает канал до воркера физики согласно cfg.Mode. Ответы воркера
// (первым идет Loaded) попадают в sink.
func Dial(ctx context.Context, cfg *Config, sink ipc.Sink, clock solver.Clock, logger *log.Logger) (ipc.Link, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case ModeFallback:
		world := solver.NewWorld(cfg.SolverConfig(), sink, clock, logger)
		world.Start()
		logger.Printf("[PhysicsClient] fallback mode: worker runs inline")
		return ipc.NewInlineLink(world), nil

	case ModeWorker:
		world := solver.NewWorld(cfg.SolverConfig(), sink, clock, logger)
		actor := solver.NewActor(world, logger)
		actor.Start()
		return actor, nil

	case ModeRemote:
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		link, err := ws.Dial(ctx, cfg.WorkerURL, sink, logger)
		if err != nil {
			return nil, fmt.Errorf("physics worker: %w", err)
		}
		return link, nil
	}
	return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
}
