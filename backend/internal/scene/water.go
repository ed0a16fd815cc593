package scene

import (
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/physics"
)

// Shoremap карта расстояний до берега поверх прямоугольника воды
type Shoremap struct {
	SizeX        float64
	SizeY        float64
	CenterX      float64
	CenterY      float64
	MaxShoreDist float64
	ArrayWidth   int
	Distances    []float32
}

// Water вода сцены: уровень и волны. Wind ускоряет время волн.
type Water struct {
	Level       float64
	WavesHeight float64
	WavesLength float64
	Wind        float64
	Dynamics    ipc.WaterDynamics
	// Shore может быть nil, тогда волны одинаковы по всей поверхности
	Shore *Shoremap
}

// WaterFromConfig вода из секции конфига, nil если секции нет
func WaterFromConfig(c *physics.WaterConfig) *Water {
	if c == nil {
		return nil
	}
	return &Water{
		Level:       c.Level,
		WavesHeight: c.WavesHeight,
		WavesLength: c.WavesLength,
		Wind:        c.Wind,
	}
}

func (w *Water) waves() bool { return w.WavesHeight > 0 }

func (w *Water) wrapper() ipc.AddWaterWrapper {
	msg := ipc.AddWaterWrapper{
		Dynamics:    w.Dynamics,
		WavesHeight: w.WavesHeight,
		WavesLength: w.WavesLength,
	}
	if sh := w.Shore; sh != nil {
		msg.SizeX = sh.SizeX
		msg.SizeY = sh.SizeY
		msg.CenterX = sh.CenterX
		msg.CenterY = sh.CenterY
		msg.MaxShoreDist = sh.MaxShoreDist
		msg.ArrayWidth = sh.ArrayWidth
		msg.ShoreDistances = sh.Distances
	}
	return msg
}

// SetWater задает воду сцены. Вода ставится один раз: повторный вызов
// игнорируется. До Loaded сообщения откладываются до Init.
func (s *Scene) SetWater(w Water) bool {
	if s.water != nil {
		s.logger.Printf("[Scene] %s: water already set, ignoring", s.name)
		return false
	}
	s.water = &w
	if s.loaded {
		s.postWater()
	}
	return true
}

// Water текущая вода сцены или nil
func (s *Scene) Water() *Water { return s.water }

func (s *Scene) postWater() {
	s.channel.Post(ipc.AppendWater{Level: s.water.Level})
	if s.water.waves() {
		s.channel.Post(s.water.wrapper())
	}
	s.logger.Printf("[Scene] %s: water at %.2f", s.name, s.water.Level)
}
