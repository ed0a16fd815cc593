package telemetry

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"
)

// EntryKind тип записи телеметрии
type EntryKind string

const (
	EntryLog   EntryKind = "log"
	EntryError EntryKind = "error"
	EntryFPS   EntryKind = "fps"
	EntryPing  EntryKind = "ping"
	EntryStats EntryKind = "stats"
)

// TelemetryData одна запись диагностики воркера
type TelemetryData struct {
	Timestamp int64              `json:"timestamp"`       // Время в миллисекундах
	Scene     string             `json:"scene"`           // Имя сцены
	Kind      EntryKind          `json:"kind"`            // Тип записи
	Text      string             `json:"text,omitempty"`  // Текст лога или ошибки
	Value     float64            `json:"value,omitempty"` // FPS или время отклика в секундах
	Stats     map[string]float64 `json:"stats,omitempty"` // Отладочная статистика воркера
}

// TelemetryManager собирает диагностику воркера физики одной сцены
type TelemetryManager struct {
	scene      string
	enabled    bool
	data       []TelemetryData
	mutex      sync.RWMutex
	maxEntries int
	logger     *log.Logger

	// Счетчики для статистики
	counters      map[EntryKind]int
	lastPrint     time.Time
	printInterval time.Duration

	// Последние значения
	fps   float64
	rtt   float64
	stats map[string]float64
}

// NewTelemetryManager создает новый менеджер телеметрии
func NewTelemetryManager(scene string, logger *log.Logger) *TelemetryManager {
	if logger == nil {
		logger = log.Default()
	}
	return &TelemetryManager{
		scene:         scene,
		enabled:       true,
		data:          make([]TelemetryData, 0),
		maxEntries:    200, // Храним последние 200 записей
		logger:        logger,
		counters:      make(map[EntryKind]int),
		lastPrint:     time.Now(),
		printInterval: 2 * time.Second,
	}
}

// LogMessage записывает лог воркера и дублирует его в логгер
func (tm *TelemetryManager) LogMessage(text string) {
	tm.logger.Printf("[Physics] %s: %s", tm.scene, text)
	tm.record(TelemetryData{Kind: EntryLog, Text: text})
}

// LogError записывает ошибку воркера
func (tm *TelemetryManager) LogError(text string) {
	tm.logger.Printf("[Physics] %s error: %s", tm.scene, text)
	tm.record(TelemetryData{Kind: EntryError, Text: text})
}

// LogFPS записывает частоту шагов воркера
func (tm *TelemetryManager) LogFPS(fps float64) {
	tm.mutex.Lock()
	tm.fps = fps
	tm.mutex.Unlock()
	tm.record(TelemetryData{Kind: EntryFPS, Value: fps})
}

// LogPong записывает время отклика по паре Ping/Pong
func (tm *TelemetryManager) LogPong(sent, now float64) {
	rtt := now - sent
	tm.mutex.Lock()
	tm.rtt = rtt
	tm.mutex.Unlock()
	tm.record(TelemetryData{Kind: EntryPing, Value: rtt})
}

// LogStats записывает отладочную статистику воркера
func (tm *TelemetryManager) LogStats(stats map[string]float64) {
	copied := make(map[string]float64, len(stats))
	for k, v := range stats {
		copied[k] = v
	}
	tm.mutex.Lock()
	tm.stats = copied
	tm.mutex.Unlock()
	tm.record(TelemetryData{Kind: EntryStats, Stats: copied})
}

func (tm *TelemetryManager) record(entry TelemetryData) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	entry.Timestamp = time.Now().UnixMilli()
	entry.Scene = tm.scene
	tm.data = append(tm.data, entry)

	// Ограничиваем размер буфера
	if len(tm.data) > tm.maxEntries {
		tm.data = tm.data[1:]
	}
	tm.counters[entry.Kind]++
}

// FPS последнее значение частоты воркера
func (tm *TelemetryManager) FPS() float64 {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.fps
}

// RTT последнее время отклика в секундах
func (tm *TelemetryManager) RTT() float64 {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.rtt
}

// Stats последняя статистика воркера
func (tm *TelemetryManager) Stats() map[string]float64 {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.stats
}

// History значения записей указанного типа, от старых к новым
func (tm *TelemetryManager) History(kind EntryKind) []float64 {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	var out []float64
	for _, entry := range tm.data {
		if entry.Kind == kind {
			out = append(out, entry.Value)
		}
	}
	return out
}

// Count число записей типа с последней сводки
func (tm *TelemetryManager) Count(kind EntryKind) int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	return tm.counters[kind]
}

// PrintSummary выводит сводку телеметрии не чаще printInterval
func (tm *TelemetryManager) PrintSummary() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}
	now := time.Now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return
	}

	tm.logger.Printf("[Telemetry] %s: %d entries, fps=%.1f rtt=%.1fms",
		tm.scene, len(tm.data), tm.fps, tm.rtt*1000)

	kinds := make([]string, 0, len(tm.counters))
	for kind := range tm.counters {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		tm.logger.Printf("[Telemetry] %s: %d", kind, tm.counters[EntryKind(kind)])
	}

	// Сброс счетчиков
	tm.counters = make(map[EntryKind]int)
	tm.lastPrint = now
}

// GetTelemetryJSON возвращает телеметрию в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(tm.data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

// SetEnabled включает/выключает запись
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.enabled = enabled
}

// Clear очищает все данные телеметрии
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]TelemetryData, 0)
	tm.counters = make(map[EntryKind]int)
}
