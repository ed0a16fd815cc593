package body

import (
	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// ID идентификатор тела внутри сцены. 0 означает "нет тела".
type ID uint32

// None отсутствие тела
const None ID = 0

// AnyTag фильтр, которому соответствует любое тело
const AnyTag = "ANY"

// Kind тип физического тела
type Kind uint8

const (
	Static Kind = iota
	Dynamic
	Rigid
	Ghost
	Character
	Vehicle
	Floater
	Navmesh
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case Rigid:
		return "rigid"
	case Ghost:
		return "ghost"
	case Character:
		return "character"
	case Vehicle:
		return "vehicle"
	case Floater:
		return "floater"
	case Navmesh:
		return "navmesh"
	}
	return "unknown"
}

// Object объект сцены, которому принадлежит тело
type Object interface {
	Name() string
	Transform() tsr.Transform
	SetTransform(tsr.Transform)
}

// State последнее авторитетное состояние, полученное от симуляции
type State struct {
	Transform tsr.Transform
	LinVel    mgl64.Vec3
	AngVel    mgl64.Vec3
	Time      float64
}

// Descriptor параметры создания тела
type Descriptor struct {
	Kind           Kind
	Mass           float64
	Ghost          bool
	Tag            string
	Shape          ipc.Shape
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	Group          uint16
	Mask           uint16
	Margin         float64
	DisableSleep   bool
}

// Body запись о теле в реестре сцены
type Body struct {
	ID        ID
	Kind      Kind
	Mass      float64
	Ghost     bool
	Simulated bool
	Tag       string
	TagNum    int
	Object    Object

	// State обновляется только входящими сообщениями Transform
	State State

	// последний трансформ, отправленный в симуляцию
	pushed      tsr.Transform
	pushedValid bool

	ConstraintID string

	// Desc параметры, с которыми тело создано
	Desc Descriptor
}

// HasDynamicPhysics тело двигается симуляцией
func (b *Body) HasDynamicPhysics() bool {
	return b.Simulated && b.Mass > 0 && !b.Ghost &&
		(b.Kind == Rigid || b.Kind == Dynamic)
}

// HasSimulatedPhysics тело участвует в симуляции
func (b *Body) HasSimulatedPhysics() bool {
	return b.Simulated
}

// AllowsTransform трансформ тела задает движок, а не симуляция
func (b *Body) AllowsTransform() bool {
	return b.Mass == 0 || b.Ghost || !b.Simulated ||
		(b.Kind != Rigid && b.Kind != Dynamic)
}

// Pushed последний отправленный в симуляцию трансформ
func (b *Body) Pushed() (tsr.Transform, bool) {
	return b.pushed, b.pushedValid
}

// MarkPushed запоминает отправленный трансформ
func (b *Body) MarkPushed(t tsr.Transform) {
	b.pushed = t
	b.pushedValid = true
}

// Matches проверяет фильтр по тегу
func (b *Body) Matches(tag string) bool {
	return tag == AnyTag || b.Tag == tag
}
