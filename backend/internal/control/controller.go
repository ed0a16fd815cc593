package control

import (
	"log"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// Poster очередь исходящих команд
type Poster interface {
	Post(msg ipc.Outbound)
}

// Controller обертки команд для машин, лодок, персонажей, поплавков и связей.
// Локальное состояние меняется сразу, симуляции уходит полный снимок.
type Controller struct {
	bodies *body.Registry
	post   Poster
	logger *log.Logger

	vehicles    map[body.ID]*Vehicle
	characters  map[body.ID]*Character
	floaters    map[body.ID]*Floater
	constraints map[string]*Constraint

	lastConstraint uint64
}

// New создает контроллер и подписывает его на изменения реестра
func New(bodies *body.Registry, post Poster, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	c := &Controller{
		bodies:      bodies,
		post:        post,
		logger:      logger,
		vehicles:    make(map[body.ID]*Vehicle),
		characters:  make(map[body.ID]*Character),
		floaters:    make(map[body.ID]*Floater),
		constraints: make(map[string]*Constraint),
	}
	bodies.Subscribe(c)
	return c
}

// BodyAdded ничего не делает: контроллеры регистрируются явно
func (c *Controller) BodyAdded(*body.Body) {}

// BodyRemoved снимает контроллеры тела и связи, в которых оно участвует
func (c *Controller) BodyRemoved(b *body.Body) {
	delete(c.vehicles, b.ID)
	delete(c.characters, b.ID)
	delete(c.floaters, b.ID)

	for id, cons := range c.constraints {
		if cons.BodyA != b.ID && cons.BodyB != b.ID {
			continue
		}
		delete(c.constraints, id)
		if owner, ok := c.bodies.Get(cons.BodyA); ok {
			owner.ConstraintID = ""
		}
		if cons.BodyA != b.ID {
			c.post.Post(ipc.RemoveConstraint{ID: id})
		}
	}
}

// UpdateDerived пересчитывает зависимые трансформы тела в том же кадре
func (c *Controller) UpdateDerived(b *body.Body) {
	if v, ok := c.vehicles[b.ID]; ok {
		v.updateDerived()
	}
}
