package ipc

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrClosed канал уже закрыт
var ErrClosed = errors.New("ipc: channel closed")

// Link транспорт до симуляции: inline, горутина-актор или удаленный воркер
type Link interface {
	Send(batch []Outbound) error
	Close() error
}

// Sink принимает входящие сообщения от транспорта. Вызывается из любой горутины.
type Sink interface {
	Receive(msg Inbound)
}

// SinkFunc адаптер функции к Sink
type SinkFunc func(msg Inbound)

func (f SinkFunc) Receive(msg Inbound) { f(msg) }

// Channel канал сообщений одной сцены.
// Исходящие копятся и отправляются пачкой раз в кадр (Flush),
// входящие копятся и разбираются в порядке поступления (Drain) на потоке хоста.
type Channel struct {
	name   string
	logger *log.Logger

	mu       sync.Mutex
	link     Link
	outbox   []Outbound
	inbox    []Inbound
	closed   bool
	draining bool

	sent     uint64
	received uint64
	dropped  uint64
}

// NewChannel создает канал без транспорта; транспорт подключается через Attach
func NewChannel(name string, logger *log.Logger) *Channel {
	if logger == nil {
		logger = log.Default()
	}
	return &Channel{
		name:   name,
		logger: logger,
	}
}

// Name имя канала (обычно имя сцены)
func (c *Channel) Name() string {
	return c.name
}

// Attach подключает транспорт. Накопленные исходящие уйдут при следующем Flush.
func (c *Channel) Attach(link Link) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.link = link
}

// Post ставит команду в очередь. Никогда не блокирует; после Close сообщение теряется.
func (c *Channel) Post(msg Outbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.dropped++
		return
	}
	c.outbox = append(c.outbox, msg)
}

// Flush отправляет накопленную пачку в транспорт
func (c *Channel) Flush() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if c.link == nil || len(c.outbox) == 0 {
		c.mu.Unlock()
		return nil
	}
	batch := c.outbox
	c.outbox = nil
	link := c.link
	c.sent += uint64(len(batch))
	c.mu.Unlock()

	// Inline-транспорт может синхронно вызвать Receive, поэтому отправка идет без блокировки
	if err := link.Send(batch); err != nil {
		return fmt.Errorf("channel %s: send %d messages: %w", c.name, len(batch), err)
	}
	return nil
}

// Receive принимает входящее сообщение от транспорта
func (c *Channel) Receive(msg Inbound) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.dropped++
		return
	}
	c.inbox = append(c.inbox, msg)
	c.received++
}

// Drain разбирает накопленные входящие сообщения по одному, в порядке поступления.
// Перед каждым сообщением проверяется, что канал жив: обработчик может закрыть
// сцену посреди пачки. Повторный вход из обработчика ничего не делает.
func (c *Channel) Drain(h Handler) int {
	c.mu.Lock()
	if c.closed || c.draining {
		c.mu.Unlock()
		return 0
	}
	batch := c.inbox
	c.inbox = nil
	c.draining = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.draining = false
		c.mu.Unlock()
	}()

	n := 0
	for _, msg := range batch {
		if !c.Alive() {
			break
		}
		Dispatch(h, msg)
		n++
	}
	return n
}

// Alive false после Close
func (c *Channel) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Pending количество неотправленных исходящих и неразобранных входящих
func (c *Channel) Pending() (outbound, inbound int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.outbox), len(c.inbox)
}

// Stats счетчики канала
func (c *Channel) Stats() (sent, received, dropped uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent, c.received, c.dropped
}

// Close закрывает канал и транспорт. Повторный вызов безопасен.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.outbox = nil
	c.inbox = nil
	link := c.link
	c.link = nil
	c.mu.Unlock()

	c.logger.Printf("[Channel] %s closed", c.name)

	if link != nil {
		return link.Close()
	}
	return nil
}
