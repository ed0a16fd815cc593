package ws

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"physbridge/backend/internal/ipc"
)

// Link канал до удаленного воркера физики. Каждый пакет исходящих
// сообщений уходит одним бинарным кадром msgpack.
type Link struct {
	writer *SafeWriter
	sink   ipc.Sink
	logger *log.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Dial подключается к воркеру. Входящие кадры передаются в sink из
// отдельной горутины.
func Dial(ctx context.Context, url string, sink ipc.Sink, logger *log.Logger) (*Link, error) {
	if logger == nil {
		logger = log.Default()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	l := &Link{
		writer: NewSafeWriter(conn),
		sink:   sink,
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.readLoop()

	logger.Printf("[WSLink] connected to %s", url)
	return l, nil
}

// Send кодирует пакет и отправляет его
func (l *Link) Send(batch []ipc.Outbound) error {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return ipc.ErrClosed
	}

	data, err := ipc.Encode(batch)
	if err != nil {
		return err
	}
	return l.writer.WriteBinary(data)
}

// Close закрывает соединение и ждет завершения чтения
func (l *Link) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	err := l.writer.Close()
	<-l.done
	return err
}

// Done закрывается, когда соединение разорвано
func (l *Link) Done() <-chan struct{} {
	return l.done
}

func (l *Link) readLoop() {
	defer close(l.done)

	for {
		_, data, err := l.writer.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Printf("[WSLink] read error: %v", err)
			}
			return
		}

		batch, err := ipc.DecodeInbound(data)
		if err != nil {
			l.logger.Printf("[WSLink] bad frame: %v", err)
			continue
		}
		for _, msg := range batch {
			l.sink.Receive(msg)
		}
	}
}
