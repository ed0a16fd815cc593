package ws

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/solver"
)

// Server WebSocket сервер воркера физики. На каждое соединение
// поднимается отдельный мир со своим актором.
type Server struct {
	upgrader websocket.Upgrader
	config   solver.Config
	logger   *log.Logger

	mu       sync.Mutex
	sessions map[*SafeWriter]*solver.Actor

	// Имитация сетевых условий
	networkSim NetworkSimulation
	simMu      sync.RWMutex
}

// NewServer создает сервер с параметрами мира по умолчанию
func NewServer(config solver.Config, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		config:   config,
		logger:   logger,
		sessions: make(map[*SafeWriter]*solver.Actor),
	}
}

// Register вешает обработчик на /ws
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleWS)
}

// HandleWS обрабатывает входящие WebSocket соединения
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("[WSServer] upgrade error: %v", err)
		return
	}

	safeConn := NewSafeWriter(conn)
	s.logger.Printf("[WSServer] new connection from %s", conn.RemoteAddr())

	start := time.Now()
	clock := func() float64 { return time.Since(start).Seconds() }
	var failed atomic.Bool
	out := newDelayedWriter(safeConn, func(err error) {
		if !failed.Swap(true) {
			s.logger.Printf("[WSServer] write error, dropping events: %v", err)
		}
	})
	world := solver.NewWorld(s.config, s.frameSink(out, &failed), clock, s.logger)
	actor := solver.NewActor(world, s.logger)

	s.mu.Lock()
	s.sessions[safeConn] = actor
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, safeConn)
		s.mu.Unlock()
		actor.Close()
		out.close()
		safeConn.Close()
		s.logger.Printf("[WSServer] connection closed: %s", conn.RemoteAddr())
	}()

	actor.Start()

	for {
		_, data, err := safeConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("[WSServer] read error: %v", err)
			}
			return
		}

		batch, err := ipc.DecodeOutbound(data)
		if err != nil {
			s.logger.Printf("[WSServer] bad frame: %v", err)
			continue
		}
		if err := actor.Send(batch); err != nil {
			return
		}
	}
}

// Sessions число активных соединений
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close останавливает все миры
func (s *Server) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[*SafeWriter]*solver.Actor)
	s.mu.Unlock()

	for conn, actor := range sessions {
		actor.Close()
		conn.Close()
	}
}

// frameSink отправляет каждое событие мира отдельным кадром
func (s *Server) frameSink(out *delayedWriter, failed *atomic.Bool) ipc.Sink {
	return ipc.SinkFunc(func(msg ipc.Inbound) {
		if failed.Load() {
			return
		}
		data, err := ipc.Encode([]ipc.Inbound{msg})
		if err == nil {
			// потерянный трансформ перекроет следующий тик
			_, lossy := msg.(ipc.Transform)
			err = out.write(data, lossy, s.GetNetworkSimulation())
		}
		if err != nil && err != errWriterClosed && !failed.Swap(true) {
			s.logger.Printf("[WSServer] write error, dropping events: %v", err)
		}
	})
}
