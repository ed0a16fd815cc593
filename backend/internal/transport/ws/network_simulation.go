package ws

import (
	"errors"
	"math/rand"
	"sync/atomic"
	"time"
)

// NetworkSimulation - настройки для имитации сетевых условий между воркером и хостом
type NetworkSimulation struct {
	Enabled         bool          // Включена ли имитация
	BaseLatency     time.Duration // Базовая задержка
	LatencyVariance time.Duration // Вариация задержки (jitter)
	PacketLoss      float64       // Доля потерянных кадров (0.0 - 1.0)
}

var simulationProfiles = map[string]NetworkSimulation{
	"lan": {
		Enabled:         true,
		BaseLatency:     2 * time.Millisecond,
		LatencyVariance: 1 * time.Millisecond,
	},
	"wifi_good": {
		Enabled:         true,
		BaseLatency:     20 * time.Millisecond,
		LatencyVariance: 10 * time.Millisecond,
	},
	"wifi_poor": {
		Enabled:         true,
		BaseLatency:     80 * time.Millisecond,
		LatencyVariance: 40 * time.Millisecond,
		PacketLoss:      0.03,
	},
	"high_latency": {
		Enabled:         true,
		BaseLatency:     200 * time.Millisecond,
		LatencyVariance: 100 * time.Millisecond,
	},
}

// SetNetworkSimulation устанавливает параметры имитации сети
func (s *Server) SetNetworkSimulation(sim NetworkSimulation) {
	s.simMu.Lock()
	s.networkSim = sim
	s.simMu.Unlock()
	s.logger.Printf("[NetworkSim] enabled=%v latency=%v jitter=%v loss=%.1f%%",
		sim.Enabled, sim.BaseLatency, sim.LatencyVariance, sim.PacketLoss*100)
}

// GetNetworkSimulation возвращает текущие настройки имитации
func (s *Server) GetNetworkSimulation() NetworkSimulation {
	s.simMu.RLock()
	defer s.simMu.RUnlock()
	return s.networkSim
}

// EnableNetworkSimulation включает предустановленный профиль. Неизвестный
// профиль выключает имитацию.
func (s *Server) EnableNetworkSimulation(profile string) bool {
	sim, ok := simulationProfiles[profile]
	s.SetNetworkSimulation(sim)
	return ok
}

var errWriterClosed = errors.New("writer closed")

type delayedFrame struct {
	data   []byte
	sendAt time.Time
}

// delayedWriter пишет кадры с задержкой, сохраняя их порядок
type delayedWriter struct {
	conn    *SafeWriter
	frames  chan delayedFrame
	pending atomic.Int64
	last    time.Time
	done    chan struct{}
	onError func(error)
}

func newDelayedWriter(conn *SafeWriter, onError func(error)) *delayedWriter {
	d := &delayedWriter{
		conn:    conn,
		frames:  make(chan delayedFrame, 1024),
		done:    make(chan struct{}),
		onError: onError,
	}
	go d.run()
	return d
}

// write вызывается из одной горутины (цикл мира). Потеря имитируется только
// для lossy кадров: события вроде конца контакта или снятия луча не повторяются.
func (d *delayedWriter) write(data []byte, lossy bool, sim NetworkSimulation) error {
	if !sim.Enabled {
		if d.pending.Load() == 0 {
			return d.conn.WriteBinary(data)
		}
		return d.enqueue(data, time.Now())
	}

	if lossy && sim.PacketLoss > 0 && rand.Float64() < sim.PacketLoss {
		return nil
	}

	delay := sim.BaseLatency
	if sim.LatencyVariance > 0 {
		variance := time.Duration(rand.Float64() * float64(sim.LatencyVariance))
		if rand.Float64() < 0.5 {
			variance = -variance
		}
		delay += variance
	}
	return d.enqueue(data, time.Now().Add(delay))
}

func (d *delayedWriter) enqueue(data []byte, sendAt time.Time) error {
	// jitter не должен переставлять кадры
	if sendAt.Before(d.last) {
		sendAt = d.last
	}
	d.last = sendAt

	d.pending.Add(1)
	select {
	case d.frames <- delayedFrame{data: data, sendAt: sendAt}:
		return nil
	case <-d.done:
		d.pending.Add(-1)
		return errWriterClosed
	}
}

func (d *delayedWriter) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		select {
		case <-d.done:
			return
		case f := <-d.frames:
			if wait := time.Until(f.sendAt); wait > 0 {
				timer.Reset(wait)
				select {
				case <-d.done:
					return
				case <-timer.C:
				}
			}
			if err := d.conn.WriteBinary(f.data); err != nil && d.onError != nil {
				d.onError(err)
			}
			d.pending.Add(-1)
		}
	}
}

func (d *delayedWriter) close() {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
}
