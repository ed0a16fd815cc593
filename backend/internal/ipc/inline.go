package ipc

import "sync"

// Worker сторона симуляции, принимающая команды
type Worker interface {
	Handle(msg Outbound)
}

// InlineLink запасной режим: симуляция работает в том же потоке и
// обрабатывает пачку синхронно внутри Flush. Ответы уходят в Sink,
// который сам ставит их в очередь, так что повторного входа нет.
type InlineLink struct {
	mu     sync.Mutex
	worker Worker
	closed bool
}

// NewInlineLink создает синхронный транспорт до worker
func NewInlineLink(worker Worker) *InlineLink {
	return &InlineLink{worker: worker}
}

// Send передает команды воркеру по порядку
func (l *InlineLink) Send(batch []Outbound) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	for _, msg := range batch {
		l.worker.Handle(msg)
	}
	return nil
}

// Close отключает воркер
func (l *InlineLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
