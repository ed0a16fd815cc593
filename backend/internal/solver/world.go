package solver

import (
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// Clock источник времени в секундах
type Clock func() float64

// Config параметры мира
type Config struct {
	MaxFPS      int
	MaxSubsteps int
	Gravity     float64
	// StepOnUpdate мир шагает по UpdateWorld (синхронный режим),
	// иначе шаги делает Actor по своему таймеру
	StepOnUpdate bool
}

type simBody struct {
	id        uint32
	kind      body.Kind
	mass      float64
	ghost     bool
	tagNum    int
	shape     ipc.Shape
	simulated bool

	trans  mgl64.Vec3
	quat   mgl64.Quat
	linVel mgl64.Vec3
	angVel mgl64.Vec3
	force  mgl64.Vec3
	torque mgl64.Vec3

	gravity     float64
	restitution float64
	linDamping  float64
	angDamping  float64
}

func (b *simBody) dynamic() bool {
	if !b.simulated || b.ghost || b.mass <= 0 {
		return false
	}
	switch b.kind {
	case body.Rigid, body.Dynamic, body.Vehicle, body.Floater, body.Character:
		return true
	}
	return false
}

func (b *simBody) volume() (volume, bool) {
	return worldVolume(b.shape, b.trans, b.quat)
}

type pairState struct {
	calcPosNorm bool
	result      bool
}

type rayTest struct {
	msg ipc.AppendRayTest
}

type constraint struct {
	msg ipc.AppendConstraint
}

// water поверхность воды с волнами
type water struct {
	level    float64
	wrappers []ipc.AddWaterWrapper
	time     float64
}

// levelAt высота воды в точке с учетом волн
func (wt *water) levelAt(p mgl64.Vec3) float64 {
	h := wt.level
	for _, wr := range wt.wrappers {
		if wr.WavesLength <= 0 {
			continue
		}
		phase := 2*math.Pi*(p[0]+p[2])/wr.WavesLength + wt.time
		h += wr.WavesHeight * math.Sin(phase)
	}
	return h
}

// World упрощенная эталонная симуляция, говорящая на протоколе ipc.
// Не потокобезопасна: доступ сериализует InlineLink или Actor.
type World struct {
	cfg    Config
	sink   ipc.Sink
	clock  Clock
	logger *log.Logger

	bodies      map[uint32]*simBody
	pairs       map[ipc.Pair]*pairState
	rays        map[uint32]*rayTest
	vehicles    map[uint32]*vehicle
	characters  map[uint32]*character
	floaters    map[uint32]*floater
	constraints map[string]*constraint
	impulse     map[uint32]bool
	water       *water

	started     bool
	paused      bool
	offset      float64
	simTime     float64
	hostTime    float64
	fpsInterval float64
	fpsFrames   int
	fpsStart    float64
	steps       uint64
}

// NewWorld создает мир. Ответы уходят в sink.
func NewWorld(cfg Config, sink ipc.Sink, clock Clock, logger *log.Logger) *World {
	if cfg.MaxFPS <= 0 {
		cfg.MaxFPS = 60
	}
	if cfg.MaxSubsteps <= 0 {
		cfg.MaxSubsteps = 10
	}
	if logger == nil {
		logger = log.Default()
	}
	return &World{
		cfg:         cfg,
		sink:        sink,
		clock:       clock,
		logger:      logger,
		bodies:      make(map[uint32]*simBody),
		pairs:       make(map[ipc.Pair]*pairState),
		rays:        make(map[uint32]*rayTest),
		vehicles:    make(map[uint32]*vehicle),
		characters:  make(map[uint32]*character),
		floaters:    make(map[uint32]*floater),
		constraints: make(map[string]*constraint),
		impulse:     make(map[uint32]bool),
	}
}

// Start сообщает хосту, что мир загружен
func (w *World) Start() {
	w.sink.Receive(ipc.Loaded{})
}

// Tick длительность шага
func (w *World) Tick() float64 {
	return 1 / float64(w.cfg.MaxFPS)
}

// now время хоста
func (w *World) now() float64 {
	return w.clock() + w.offset
}

// Handle применяет команду хоста
func (w *World) Handle(msg ipc.Outbound) {
	switch m := msg.(type) {
	case ipc.Init:
		w.offset = m.Epoch - w.clock()
		if m.MaxFPS > 0 {
			w.cfg.MaxFPS = m.MaxFPS
		}
		w.fpsInterval = m.FPSInterval
		w.simTime = w.now()
		w.fpsStart = w.simTime
		w.started = true
		w.logger.Printf("[World] init: %d fps", w.cfg.MaxFPS)

	case ipc.AppendBody:
		w.bodies[m.Body] = &simBody{
			id:          m.Body,
			kind:        body.Kind(m.BodyKind),
			mass:        m.Mass,
			ghost:       m.Ghost,
			tagNum:      m.TagNum,
			shape:       m.Shape,
			simulated:   true,
			trans:       m.Transform.Trans,
			quat:        m.Transform.Quat,
			gravity:     w.cfg.Gravity,
			restitution: m.Restitution,
			linDamping:  m.LinearDamping,
			angDamping:  m.AngularDamping,
		}
	case ipc.RemoveBody:
		w.removeBody(m.Body)

	case ipc.AppendCar:
		w.vehicles[m.Body] = &vehicle{car: true, forceMax: m.ForceMax, brakeMax: m.BrakeMax}
	case ipc.AddCarWheel:
		if v, ok := w.vehicles[m.Body]; ok {
			v.props = append(v.props, prop{pos: m.Pos, radius: m.Radius})
		}
	case ipc.AppendBoat:
		w.vehicles[m.Body] = &vehicle{floatFactor: m.FloatFactor}
		w.floaters[m.Body] = &floater{factor: m.FloatFactor, linDamp: m.WaterLinDamp, rotDamp: m.WaterRotDamp}
	case ipc.AddBoatBob:
		if v, ok := w.vehicles[m.Body]; ok {
			v.props = append(v.props, prop{pos: m.Pos, radius: 1})
		}
	case ipc.AppendFloater:
		w.floaters[m.Body] = &floater{factor: m.FloatFactor, linDamp: m.WaterLinDamp, rotDamp: m.WaterRotDamp, report: true}
	case ipc.AddFloaterBob:
		if f, ok := w.floaters[m.Body]; ok {
			f.bobs = append(f.bobs, m.Pos)
		}
	case ipc.AppendCharacter:
		w.characters[m.Body] = &character{params: m, speed: m.WalkSpeed}

	case ipc.AppendConstraint:
		w.constraints[m.ID] = &constraint{msg: m}
	case ipc.RemoveConstraint:
		delete(w.constraints, m.ID)

	case ipc.UpdateWorld:
		w.hostTime = m.Time
		if w.cfg.StepOnUpdate {
			w.catchUp(m.Time)
		}

	case ipc.SetTransform:
		if b, ok := w.bodies[m.Body]; ok {
			b.trans = m.Trans
			b.quat = m.Quat
		}
	case ipc.EnableSimulation:
		if b, ok := w.bodies[m.Body]; ok {
			b.simulated = true
		}
	case ipc.DisableSimulation:
		if b, ok := w.bodies[m.Body]; ok {
			b.simulated = false
			b.linVel = mgl64.Vec3{}
			b.angVel = mgl64.Vec3{}
		}
	case ipc.Activate:
		// тела в эталонном мире не засыпают

	case ipc.AppendCollisionTest:
		for _, p := range m.Pairs {
			if st, ok := w.pairs[p]; ok {
				st.calcPosNorm = st.calcPosNorm || m.CalcPosNorm
				continue
			}
			w.pairs[p] = &pairState{calcPosNorm: m.CalcPosNorm}
		}
	case ipc.RemoveCollisionTest:
		for _, p := range m.Pairs {
			delete(w.pairs, p)
		}

	case ipc.AppendRayTest:
		w.rays[m.Test] = &rayTest{msg: m}
	case ipc.RemoveRayTest:
		delete(w.rays, m.Test)
	case ipc.ChangeRayTestFromTo:
		if r, ok := w.rays[m.Test]; ok {
			r.msg.From = m.From
			r.msg.To = m.To
		}

	case ipc.ApplyCentralForce:
		if b, ok := w.bodies[m.Body]; ok {
			b.force = b.force.Add(m.Force)
		}
	case ipc.ApplyTorque:
		if b, ok := w.bodies[m.Body]; ok {
			b.torque = b.torque.Add(m.Torque)
		}
	case ipc.SetLinearVelocity:
		if b, ok := w.bodies[m.Body]; ok {
			b.linVel = m.Velocity
		}
	case ipc.SetGravity:
		if b, ok := w.bodies[m.Body]; ok {
			b.gravity = m.Gravity
		}

	case ipc.UpdateCarControls:
		if v, ok := w.vehicles[m.Body]; ok {
			v.engine, v.brake, v.steering = m.Engine, m.Brake, m.Steering
		}
	case ipc.UpdateBoatControls:
		if v, ok := w.vehicles[m.Body]; ok {
			v.engine, v.brake, v.steering = m.Engine, m.Brake, m.Steering
		}

	case ipc.CharacterMoveDir:
		if c, ok := w.characters[m.Body]; ok {
			c.forward, c.side = m.Forward, m.Side
		}
	case ipc.CharacterMoveType:
		if c, ok := w.characters[m.Body]; ok {
			c.setMoveType(m.Type)
		}
	case ipc.CharacterVelocity:
		if c, ok := w.characters[m.Body]; ok {
			c.setVelocity(m.Mode, m.Velocity)
		}
	case ipc.CharacterJump:
		if c, ok := w.characters[m.Body]; ok {
			c.jump = true
		}
	case ipc.CharacterRotationInc:
		if c, ok := w.characters[m.Body]; ok {
			c.h += m.H
			c.v += m.V
		}
	case ipc.CharacterRotation:
		if c, ok := w.characters[m.Body]; ok {
			c.h, c.v = m.H, m.V
		}

	case ipc.ApplyCollisionImpulseTest:
		w.impulse[m.Body] = true
	case ipc.ClearCollisionImpulseTest:
		delete(w.impulse, m.Body)

	case ipc.Pause:
		w.paused = true
	case ipc.Resume:
		w.paused = false
		// после паузы не догоняем пропущенное время
		w.simTime = w.now()

	case ipc.AppendWater:
		if w.water == nil {
			w.water = &water{level: m.Level}
		}
	case ipc.AddWaterWrapper:
		if w.water != nil {
			w.water.wrappers = append(w.water.wrappers, m)
		}
	case ipc.SetWaterTime:
		if w.water == nil {
			w.sink.Receive(ipc.Error{Text: "no water added for physics world"})
			break
		}
		w.water.time = m.Time

	case ipc.Ping:
		w.sink.Receive(ipc.Pong{Sent: m.Sent, Handled: w.now()})
	case ipc.Debug:
		w.sink.Receive(ipc.DebugStats{Stats: w.stats()})

	default:
		w.sink.Receive(ipc.Error{Text: "unsupported message " + msg.Kind().String()})
	}
}

// catchUp шагает фиксированными тиками до времени хоста
func (w *World) catchUp(target float64) {
	if !w.started || w.paused {
		return
	}
	tick := w.Tick()
	n := 0
	for w.simTime+tick <= target {
		if n == w.cfg.MaxSubsteps {
			// отстали слишком сильно: пропускаем время
			w.simTime = target
			break
		}
		w.simTime += tick
		w.Step(tick)
		n++
	}
}

// Advance шаг по таймеру актора
func (w *World) Advance() {
	if !w.started || w.paused {
		return
	}
	tick := w.Tick()
	w.simTime += tick
	w.Step(tick)
}

func (w *World) removeBody(id uint32) {
	delete(w.bodies, id)
	delete(w.vehicles, id)
	delete(w.characters, id)
	delete(w.floaters, id)
	delete(w.impulse, id)
	for p := range w.pairs {
		if p.A == id || p.B == id {
			delete(w.pairs, p)
		}
	}
	for rid, r := range w.rays {
		if r.msg.Body == id {
			delete(w.rays, rid)
		}
	}
	for cid, c := range w.constraints {
		if c.msg.BodyA == id || c.msg.BodyB == id {
			delete(w.constraints, cid)
		}
	}
}

func (w *World) stats() map[string]float64 {
	return map[string]float64{
		"bodies":      float64(len(w.bodies)),
		"pairs":       float64(len(w.pairs)),
		"rays":        float64(len(w.rays)),
		"constraints": float64(len(w.constraints)),
		"steps":       float64(w.steps),
		"water":       boolStat(w.water != nil),
	}
}

func boolStat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

// sortedBodies тела по id для детерминированного порядка событий
func (w *World) sortedBodies() []*simBody {
	out := make([]*simBody, 0, len(w.bodies))
	for _, b := range w.bodies {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (b *simBody) transform() tsr.Transform {
	return tsr.FromTransQuat(b.trans, b.quat)
}
