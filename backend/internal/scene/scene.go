package scene

import (
	"context"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/collision"
	"physbridge/backend/internal/control"
	"physbridge/backend/internal/interp"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/physics"
	"physbridge/backend/internal/raytest"
	"physbridge/backend/internal/solver"
	"physbridge/backend/internal/telemetry"
)

// BoundingProvider объект сам описывает свой ограничивающий объем
type BoundingProvider interface {
	Bounding() body.Bounding
}

// LinkFactory поднимает канал до воркера, physics.Dial подходит
type LinkFactory func(ctx context.Context, cfg *physics.Config, sink ipc.Sink, clock solver.Clock, logger *log.Logger) (ipc.Link, error)

// ObjectSpec физические параметры объекта сцены
type ObjectSpec struct {
	Kind  body.Kind
	Mass  float64
	Ghost bool
	Tag   string
	// Bounding если пуст, берется у объекта через BoundingProvider
	Bounding body.Bounding

	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	Group          uint16
	Mask           uint16
	Margin         float64
	DisableSleep   bool
}

// Scene физический контекст одной сцены: канал до воркера и все реестры.
// Все методы вызываются из потока хоста.
type Scene struct {
	name   string
	cfg    *physics.Config
	clock  solver.Clock
	logger *log.Logger

	channel    *ipc.Channel
	bodies     *body.Registry
	collisions *collision.Manager
	rays       *raytest.Registry
	interp     *interp.Interpolator
	control    *control.Controller
	telemetry  *telemetry.TelemetryManager

	water  *Water
	loaded bool
	paused bool
	frames uint64
}

// New создает сцену и подключает воркер через dial
func New(ctx context.Context, name string, cfg *physics.Config, dial LinkFactory, clock solver.Clock, logger *log.Logger) (*Scene, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scene{
		name:      name,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
		channel:   ipc.NewChannel(name, logger),
		bodies:    body.NewRegistry(logger),
		interp:    interp.New(cfg.MaxFPS, cfg.NoInterpHack),
		telemetry: telemetry.NewTelemetryManager(name, logger),
	}

	// сцена подписывается первой: AppendBody уходит раньше пар, RemoveBody последним
	s.bodies.Subscribe(s)
	s.collisions = collision.NewManager(s.bodies, s.channel, logger)
	s.rays = raytest.NewRegistry(s.bodies, s.channel, logger)
	s.control = control.New(s.bodies, s.channel, logger)

	link, err := dial(ctx, cfg, s.channel, clock, logger)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	s.channel.Attach(link)
	if w := WaterFromConfig(cfg.Water); w != nil {
		s.SetWater(*w)
	}

	logger.Printf("[Scene] %s: physics started (%s, %d fps)", name, cfg.Mode, cfg.MaxFPS)
	return s, nil
}

// Name имя сцены
func (s *Scene) Name() string { return s.name }

// Loaded воркер прислал Loaded и получил Init
func (s *Scene) Loaded() bool { return s.loaded }

// Bodies реестр тел сцены
func (s *Scene) Bodies() *body.Registry { return s.bodies }

// Controller контроллеры транспорта, персонажей и связей
func (s *Scene) Controller() *control.Controller { return s.control }

// Telemetry диагностика воркера
func (s *Scene) Telemetry() *telemetry.TelemetryManager { return s.telemetry }

// Channel канал до воркера
func (s *Scene) Channel() *ipc.Channel { return s.channel }

// AppendObject добавляет объекту физику. Объект с некорректным объемом
// не участвует в столкновениях: возвращается body.None, false.
func (s *Scene) AppendObject(obj body.Object, spec ObjectSpec) (body.ID, bool) {
	if _, ok := s.bodies.ByObject(obj); ok {
		panic(fmt.Sprintf("object %s already has physics", obj.Name()))
	}

	bounding := spec.Bounding
	if bounding.Type == "" {
		if bp, ok := obj.(BoundingProvider); ok {
			bounding = bp.Bounding()
		}
	}
	shape, err := bounding.Shape()
	if err != nil {
		s.logger.Printf("[Scene] %s: object %s: %v", s.name, obj.Name(), err)
		return body.None, false
	}

	b := s.bodies.Create(body.Descriptor{
		Kind:           spec.Kind,
		Mass:           spec.Mass,
		Ghost:          spec.Ghost,
		Tag:            spec.Tag,
		Shape:          shape,
		Friction:       spec.Friction,
		Restitution:    spec.Restitution,
		LinearDamping:  spec.LinearDamping,
		AngularDamping: spec.AngularDamping,
		Group:          spec.Group,
		Mask:           spec.Mask,
		Margin:         spec.Margin,
		DisableSleep:   spec.DisableSleep,
	}, obj)
	return b.ID, true
}

// RemoveObject убирает физику объекта. Объект без физики игнорируется.
func (s *Scene) RemoveObject(obj body.Object) bool {
	b, ok := s.bodies.ByObject(obj)
	if !ok {
		return false
	}
	return s.bodies.Remove(b.ID)
}

// Body тело объекта
func (s *Scene) Body(obj body.Object) (*body.Body, bool) {
	return s.bodies.ByObject(obj)
}

// MustBody тело объекта, паника если физики нет
func (s *Scene) MustBody(obj body.Object) *body.Body {
	b, ok := s.bodies.ByObject(obj)
	if !ok {
		panic(fmt.Sprintf("object %s has no physics", obj.Name()))
	}
	return b
}

// BodyAdded отправляет тело в симуляцию
func (s *Scene) BodyAdded(b *body.Body) {
	d := b.Desc
	s.channel.Post(ipc.AppendBody{
		Body:           uint32(b.ID),
		BodyKind:       uint8(b.Kind),
		Mass:           b.Mass,
		Ghost:          b.Ghost,
		TagNum:         b.TagNum,
		Transform:      b.State.Transform,
		Shape:          d.Shape,
		Friction:       d.Friction,
		Restitution:    d.Restitution,
		LinearDamping:  d.LinearDamping,
		AngularDamping: d.AngularDamping,
		Group:          d.Group,
		Mask:           d.Mask,
		Margin:         d.Margin,
		DisableSleep:   d.DisableSleep,
	})
	// начальный трансформ уже ушел в AppendBody
	b.MarkPushed(b.State.Transform)
}

// BodyRemoved удаляет тело из симуляции
func (s *Scene) BodyRemoved(b *body.Body) {
	s.channel.Post(ipc.RemoveBody{Body: uint32(b.ID)})
}

// AppendCollisionTest подписывает obj на столкновения с телами тега tag
func (s *Scene) AppendCollisionTest(obj body.Object, tag string, calcPosNorm bool, obs collision.Observer) collision.TestID {
	return s.collisions.Append(s.MustBody(obj), tag, calcPosNorm, obs)
}

// RemoveCollisionTest снимает подписку
func (s *Scene) RemoveCollisionTest(id collision.TestID) bool {
	return s.collisions.Remove(id)
}

// CollisionTestColliding агрегированный результат подписки
func (s *Scene) CollisionTestColliding(id collision.TestID) bool {
	return s.collisions.Colliding(id)
}

// ApplyCollisionImpulseTest включает отчет об импульсах столкновений тела
func (s *Scene) ApplyCollisionImpulseTest(obj body.Object, obs collision.ImpulseObserver) {
	s.collisions.ApplyImpulseTest(s.MustBody(obj), obs)
}

// ClearCollisionImpulseTest выключает отчет
func (s *Scene) ClearCollisionImpulseTest(obj body.Object) {
	s.collisions.ClearImpulseTest(s.MustBody(obj))
}

// AppendRayTest регистрирует луч. source может быть nil: from/to тогда мировые.
func (s *Scene) AppendRayTest(source body.Object, from, to mgl64.Vec3, tag string, obs raytest.Observer, opts raytest.Options) raytest.ID {
	var b *body.Body
	if source != nil {
		b = s.MustBody(source)
	}
	return s.rays.Append(b, from, to, tag, obs, opts)
}

// RemoveRayTest снимает луч
func (s *Scene) RemoveRayTest(id raytest.ID) { s.rays.Remove(id) }

// ChangeRayTestFromTo двигает концы луча
func (s *Scene) ChangeRayTestFromTo(id raytest.ID, from, to mgl64.Vec3) {
	s.rays.ChangeFromTo(id, from, to)
}

// IsRayTestActive жив ли луч
func (s *Scene) IsRayTestActive(id raytest.ID) bool { return s.rays.IsActive(id) }

// Update шаг кадра. timeline время хоста в секундах в том же отсчете, что и clock.
// Разбирает входящие, переносит трансформы, просит воркер догнать время
// и отправляет накопленный пакет.
func (s *Scene) Update(timeline, delta float64) {
	if !s.channel.Alive() {
		return
	}

	s.channel.Drain(s)
	s.interp.Update(s.bodies.Bodies(), timeline, s.channel, s.control)
	if s.loaded && s.water != nil && s.water.waves() {
		s.channel.Post(ipc.SetWaterTime{Time: timeline * s.water.Wind})
	}
	if !s.paused {
		s.channel.Post(ipc.UpdateWorld{Time: timeline, Delta: delta})
	}

	if err := s.channel.Flush(); err != nil {
		s.logger.Printf("[Scene] %s: %v", s.name, err)
	}
	s.frames++
	s.telemetry.PrintSummary()
}

// Pause останавливает симуляцию
func (s *Scene) Pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.channel.Post(ipc.Pause{})
}

// Resume продолжает симуляцию без догоняния пропущенного времени
func (s *Scene) Resume() {
	if !s.paused {
		return
	}
	s.paused = false
	s.channel.Post(ipc.Resume{})
}

// Ping замер времени отклика, ответ попадет в телеметрию
func (s *Scene) Ping() {
	s.channel.Post(ipc.Ping{Sent: s.clock()})
}

// Debug запрос статистики воркера
func (s *Scene) Debug() {
	s.channel.Post(ipc.Debug{})
}

// Close закрывает канал. Опоздавшие сообщения воркера отбрасываются.
func (s *Scene) Close() error {
	s.logger.Printf("[Scene] %s: closing after %d frames", s.name, s.frames)
	return s.channel.Close()
}
