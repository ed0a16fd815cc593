package physics

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher перечитывает файл конфигурации при изменении
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(*Config)
	logger   *log.Logger
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Watch следит за файлом. Некорректная конфигурация логируется и пропускается.
// Валидная устанавливается глобально и передается в onChange.
func Watch(path string, logger *log.Logger, onChange func(*Config)) (*Watcher, error) {
	if logger == nil {
		logger = log.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// редакторы часто пишут через rename, поэтому следим за каталогом
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		onChange: onChange,
		logger:   logger,
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// Close останавливает наблюдение
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	// перечитываем после паузы в записи, а не на каждое событие
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			debounce.Reset(100 * time.Millisecond)

		case <-debounce.C:
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("[Config] watch error: %v", err)

		case <-w.closeCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Printf("[Config] reload skipped: %v", err)
		return
	}
	SetConfig(cfg)
	w.logger.Printf("[Config] reloaded %s (mode=%s, max_fps=%d)", w.path, cfg.Mode, cfg.MaxFPS)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
