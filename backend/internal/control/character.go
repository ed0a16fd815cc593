package control

import (
	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// MoveType режим передвижения персонажа
type MoveType uint8

const (
	MoveWalk MoveType = iota
	MoveRun
	MoveFly
)

// CharacterParams параметры капсулы персонажа
type CharacterParams struct {
	Angle        float64
	Height       float64
	WalkSpeed    float64
	RunSpeed     float64
	FlySpeed     float64
	StepHeight   float64
	JumpStrength float64
	WaterLevel   float64
}

// Character команды персонажу. Кинематикой владеет симуляция,
// поэтому все команды отправляются как есть, без локального состояния.
type Character struct {
	Body   *body.Body
	Params CharacterParams
	post   Poster
}

// AppendCharacter регистрирует персонажа
func (c *Controller) AppendCharacter(b *body.Body, params CharacterParams) *Character {
	ch := &Character{Body: b, Params: params, post: c.post}
	c.characters[b.ID] = ch

	c.post.Post(ipc.AppendCharacter{
		Body:         uint32(b.ID),
		Angle:        params.Angle,
		Height:       params.Height,
		WalkSpeed:    params.WalkSpeed,
		RunSpeed:     params.RunSpeed,
		FlySpeed:     params.FlySpeed,
		StepHeight:   params.StepHeight,
		JumpStrength: params.JumpStrength,
		WaterLevel:   params.WaterLevel,
	})
	return ch
}

// Character контроллер персонажа тела
func (c *Controller) Character(id body.ID) (*Character, bool) {
	ch, ok := c.characters[id]
	return ch, ok
}

// SetMoveDir направление движения: -1, 0, 1 по каждой оси
func (ch *Character) SetMoveDir(forward, side int) {
	ch.post.Post(ipc.CharacterMoveDir{Body: ch.id(), Forward: forward, Side: side})
}

func (ch *Character) SetMoveType(t MoveType) {
	ch.post.Post(ipc.CharacterMoveType{Body: ch.id(), Type: uint8(t)})
}

func (ch *Character) SetWalkVelocity(v float64) {
	ch.post.Post(ipc.CharacterVelocity{Body: ch.id(), Mode: ipc.VelocityWalk, Velocity: v})
}

func (ch *Character) SetRunVelocity(v float64) {
	ch.post.Post(ipc.CharacterVelocity{Body: ch.id(), Mode: ipc.VelocityRun, Velocity: v})
}

func (ch *Character) SetFlyVelocity(v float64) {
	ch.post.Post(ipc.CharacterVelocity{Body: ch.id(), Mode: ipc.VelocityFly, Velocity: v})
}

func (ch *Character) Jump() {
	ch.post.Post(ipc.CharacterJump{Body: ch.id()})
}

// RotationInc поворачивает персонажа на приращение по горизонтали и вертикали
func (ch *Character) RotationInc(h, v float64) {
	ch.post.Post(ipc.CharacterRotationInc{Body: ch.id(), H: h, V: v})
}

// SetRotation задает абсолютные углы
func (ch *Character) SetRotation(h, v float64) {
	ch.post.Post(ipc.CharacterRotation{Body: ch.id(), H: h, V: v})
}

func (ch *Character) id() uint32 {
	return uint32(ch.Body.ID)
}
