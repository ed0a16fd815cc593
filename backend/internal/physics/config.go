package physics

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"physbridge/backend/internal/solver"
)

// ErrInvalidConfig ошибка проверки конфигурации
var ErrInvalidConfig = errors.New("invalid physics config")

// Mode способ подключения воркера физики
type Mode string

const (
	// ModeFallback воркер вызывается синхронно в потоке хоста
	ModeFallback Mode = "fallback"
	// ModeWorker воркер крутится в отдельной горутине со своим таймером
	ModeWorker Mode = "worker"
	// ModeRemote воркер в другом процессе, связь по WebSocket
	ModeRemote Mode = "remote"
)

// Config содержит настройки физики сцены
type Config struct {
	// MaxFPS - частота шага симуляции, передается воркеру в Init
	MaxFPS int `yaml:"max_fps"`

	// MaxSubsteps - сколько шагов воркер может сделать за один UpdateWorld
	MaxSubsteps int `yaml:"max_substeps"`

	Mode        Mode          `yaml:"mode"`
	WorkerURL   string        `yaml:"worker_url"`
	DialTimeout time.Duration `yaml:"dial_timeout"`

	// NoInterpHack - отключить задержку интерполяции (рисовать последнее состояние)
	NoInterpHack bool `yaml:"no_interp_hack"`

	// CalcFPS - просить воркер присылать FPS каждые FPSInterval секунд
	CalcFPS     bool    `yaml:"calc_fps"`
	FPSInterval float64 `yaml:"fps_interval"`

	Gravity float64 `yaml:"gravity"`

	// Water - вода сцены, nil если воды нет
	Water *WaterConfig `yaml:"water,omitempty"`
}

// WaterConfig уровень и волны воды
type WaterConfig struct {
	Level       float64 `yaml:"level"`
	WavesHeight float64 `yaml:"waves_height"`
	WavesLength float64 `yaml:"waves_length"`
	// Wind - множитель времени волн
	Wind float64 `yaml:"wind"`
}

// GlobalConfig - глобальная конфигурация физики
var GlobalConfig *Config
var configMutex sync.RWMutex

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		MaxFPS:      60,
		MaxSubsteps: 10,
		Mode:        ModeFallback,
		DialTimeout: 5 * time.Second,
		FPSInterval: 1,
		Gravity:     9.8,
	}
}

// Load читает yaml поверх значений по умолчанию
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save записывает конфигурацию в yaml
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate проверяет значения
func (c *Config) Validate() error {
	if c.MaxFPS <= 0 || c.MaxFPS > 1000 {
		return fmt.Errorf("%w: max_fps %d out of range", ErrInvalidConfig, c.MaxFPS)
	}
	if c.MaxSubsteps <= 0 {
		return fmt.Errorf("%w: max_substeps must be positive", ErrInvalidConfig)
	}
	if c.FPSInterval < 0 {
		return fmt.Errorf("%w: negative fps_interval", ErrInvalidConfig)
	}
	if w := c.Water; w != nil {
		if w.WavesHeight < 0 {
			return fmt.Errorf("%w: negative water waves_height", ErrInvalidConfig)
		}
		if w.WavesHeight > 0 && w.WavesLength <= 0 {
			return fmt.Errorf("%w: water waves_length must be positive with waves", ErrInvalidConfig)
		}
	}
	switch c.Mode {
	case ModeFallback, ModeWorker:
	case ModeRemote:
		if c.WorkerURL == "" {
			return fmt.Errorf("%w: remote mode requires worker_url", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// ReportInterval интервал отчета FPS для Init, 0 если отчет выключен
func (c *Config) ReportInterval() float64 {
	if !c.CalcFPS {
		return 0
	}
	return c.FPSInterval
}

// SolverConfig параметры локального мира
func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		MaxFPS:       c.MaxFPS,
		MaxSubsteps:  c.MaxSubsteps,
		Gravity:      c.Gravity,
		StepOnUpdate: c.Mode == ModeFallback,
	}
}

// GetConfig возвращает копию текущей конфигурации
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if GlobalConfig == nil {
		return DefaultConfig()
	}
	config := *GlobalConfig
	return &config
}

// SetConfig устанавливает новую конфигурацию
func SetConfig(config *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	// Создаем копию для предотвращения гонок данных
	newConfig := *config
	GlobalConfig = &newConfig
}
