package solver

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"physbridge/backend/internal/ipc"
)

// Actor крутит World в отдельной горутине по собственному таймеру.
// Реализует ipc.Link: хост кладет пакеты в очередь, цикл применяет их
// между шагами.
type Actor struct {
	world  *World
	logger *log.Logger

	mu    sync.Mutex
	queue []ipc.Outbound
	wake  chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	// читается из Close и Ticks, пока цикл еще работает
	tickCount atomic.Uint64
}

// NewActor создает актор поверх мира
func NewActor(world *World, logger *log.Logger) *Actor {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Actor{
		world:  world,
		logger: logger,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start запускает цикл. Первым событием мир отправляет Loaded.
func (a *Actor) Start() {
	a.startOnce.Do(func() {
		a.logger.Printf("[Actor] starting world loop: %d fps", a.world.cfg.MaxFPS)
		go a.loop()
	})
}

// Send ставит пакет в очередь
func (a *Actor) Send(batch []ipc.Outbound) error {
	if a.ctx.Err() != nil {
		return ipc.ErrClosed
	}

	a.mu.Lock()
	a.queue = append(a.queue, batch...)
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close останавливает цикл и ждет его завершения
func (a *Actor) Close() error {
	a.stopOnce.Do(func() {
		a.cancel()
		// цикл мог так и не запуститься
		a.startOnce.Do(func() { close(a.done) })
		select {
		case <-a.done:
			a.logger.Printf("[Actor] stopped after %d ticks", a.tickCount.Load())
		case <-time.After(time.Second):
			a.logger.Printf("[Actor] loop did not stop in time (%d ticks)", a.tickCount.Load())
		}
	})
	return nil
}

// Ticks сколько шагов сделал цикл
func (a *Actor) Ticks() uint64 { return a.tickCount.Load() }

func (a *Actor) loop() {
	defer close(a.done)

	a.world.Start()

	tick := a.tickDuration()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return

		case <-a.wake:
			a.drain()

		case <-ticker.C:
			a.drain()
			a.world.Advance()
			a.tickCount.Add(1)
		}

		// Init может поменять частоту мира
		if d := a.tickDuration(); d != tick {
			tick = d
			ticker.Reset(tick)
		}
	}
}

func (a *Actor) drain() {
	a.mu.Lock()
	batch := a.queue
	a.queue = nil
	a.mu.Unlock()

	for _, msg := range batch {
		if a.ctx.Err() != nil {
			return
		}
		a.world.Handle(msg)
	}
}

func (a *Actor) tickDuration() time.Duration {
	return time.Duration(a.world.Tick() * float64(time.Second))
}
