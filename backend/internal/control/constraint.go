package control

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// Limits пределы по осям. Нижний предел больше верхнего означает свободную ось.
type Limits struct {
	LinearLower  mgl64.Vec3
	LinearUpper  mgl64.Vec3
	AngularLower mgl64.Vec3
	AngularUpper mgl64.Vec3
}

func (l Limits) flat() []float64 {
	out := make([]float64, 0, 12)
	for _, v := range []mgl64.Vec3{l.LinearLower, l.LinearUpper, l.AngularLower, l.AngularUpper} {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

// Constraint связь тела A с телом B (или с миром, если BodyB == body.None)
type Constraint struct {
	ID     string
	Type   string
	BodyA  body.ID
	BodyB  body.ID
	LocalA tsr.Transform
	LocalB tsr.Transform
	Limits Limits
}

// ApplyConstraint связывает a с target по точке localA, заданной в системе a.
// Точка пересчитывается в систему target по текущим мировым трансформам,
// команда отправляется один раз. Старая связь a снимается.
func (c *Controller) ApplyConstraint(typ string, a *body.Body, localA tsr.Transform, target *body.Body,
	limits Limits, stiffness, damping []float64) *Constraint {

	if a.ConstraintID != "" {
		c.ClearConstraint(a)
	}

	worldA := mustObject(a).Transform()
	pivotWorld := worldA.Multiply(localA)

	cons := &Constraint{
		Type:   typ,
		BodyA:  a.ID,
		LocalA: localA,
		LocalB: pivotWorld,
		Limits: limits,
	}
	if target != nil {
		cons.BodyB = target.ID
		cons.LocalB = mustObject(target).Transform().Invert().Multiply(pivotWorld)
	}

	c.lastConstraint++
	cons.ID = fmt.Sprintf("%x", c.lastConstraint)
	c.constraints[cons.ID] = cons
	a.ConstraintID = cons.ID

	c.post.Post(ipc.AppendConstraint{
		ID:        cons.ID,
		Type:      typ,
		BodyA:     uint32(cons.BodyA),
		LocalA:    cons.LocalA,
		BodyB:     uint32(cons.BodyB),
		LocalB:    cons.LocalB,
		Limits:    limits.flat(),
		Stiffness: stiffness,
		Damping:   damping,
	})
	return cons
}

// ClearConstraint снимает связь тела, если она есть
func (c *Controller) ClearConstraint(a *body.Body) {
	if a.ConstraintID == "" {
		return
	}
	id := a.ConstraintID
	a.ConstraintID = ""
	delete(c.constraints, id)
	c.post.Post(ipc.RemoveConstraint{ID: id})
}

// Constraint связь тела
func (c *Controller) Constraint(a *body.Body) (*Constraint, bool) {
	cons, ok := c.constraints[a.ConstraintID]
	return cons, ok
}

// PullToPivot переносит a так, чтобы его точка связи совпала с точкой на теле B:
// world(A) = world(B) * localB * inv(localA). Новый трансформ уходит в симуляцию
// и заменяет кэш авторитетного состояния, иначе следующий кадр вернет тело назад.
func (c *Controller) PullToPivot(a *body.Body) bool {
	cons, ok := c.constraints[a.ConstraintID]
	if !ok {
		return false
	}

	chain := cons.LocalB.Multiply(cons.LocalA.Invert())
	if cons.BodyB != body.None {
		b, ok := c.bodies.Get(cons.BodyB)
		if !ok {
			return false
		}
		chain = mustObject(b).Transform().Multiply(chain)
	}

	obj := mustObject(a)
	world := tsr.New(chain.Trans, obj.Transform().Scale, chain.Quat)
	obj.SetTransform(world)
	a.State.Transform = world
	c.post.Post(ipc.SetTransform{Body: uint32(a.ID), Trans: world.Trans, Quat: world.Quat})
	return true
}

func mustObject(b *body.Body) body.Object {
	if b.Object == nil {
		panic(fmt.Sprintf("control: body %d has no scene object", b.ID))
	}
	return b.Object
}
