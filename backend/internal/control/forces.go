package control

import (
	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// ApplyForce прикладывает силу к центру масс. Вектор задан в системе объекта.
func (c *Controller) ApplyForce(b *body.Body, local mgl64.Vec3) {
	c.post.Post(ipc.ApplyCentralForce{Body: uint32(b.ID), Force: c.toWorld(b, local)})
}

// ApplyTorque момент в системе объекта
func (c *Controller) ApplyTorque(b *body.Body, local mgl64.Vec3) {
	c.post.Post(ipc.ApplyTorque{Body: uint32(b.ID), Torque: c.toWorld(b, local)})
}

// ApplyVelocity линейная скорость в системе объекта
func (c *Controller) ApplyVelocity(b *body.Body, local mgl64.Vec3) {
	c.ApplyVelocityWorld(b, c.toWorld(b, local))
}

// ApplyVelocityWorld линейная скорость в мировой системе
func (c *Controller) ApplyVelocityWorld(b *body.Body, world mgl64.Vec3) {
	c.post.Post(ipc.SetLinearVelocity{Body: uint32(b.ID), Velocity: world})
}

// SetGravity ускорение свободного падения для тела
func (c *Controller) SetGravity(b *body.Body, gravity float64) {
	c.post.Post(ipc.SetGravity{Body: uint32(b.ID), Gravity: gravity})
}

// EnableSimulation возвращает тело в симуляцию. Повторный вызов ничего не делает.
func (c *Controller) EnableSimulation(b *body.Body) {
	if b.Simulated {
		return
	}
	b.Simulated = true
	c.post.Post(ipc.EnableSimulation{Body: uint32(b.ID)})
}

// DisableSimulation выводит тело из симуляции. Трансформ начинает задавать движок.
func (c *Controller) DisableSimulation(b *body.Body) {
	if !b.Simulated {
		return
	}
	b.Simulated = false
	c.post.Post(ipc.DisableSimulation{Body: uint32(b.ID)})
}

func (c *Controller) toWorld(b *body.Body, local mgl64.Vec3) mgl64.Vec3 {
	return mustObject(b).Transform().TransformDir(local)
}
