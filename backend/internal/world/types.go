package world

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/scene"
	"physbridge/backend/internal/tsr"
)

// Object объект демонстрационного мира. Реализует body.Object и
// scene.BoundingProvider.
type Object struct {
	ID       string
	Spec     scene.ObjectSpec
	bounding body.Bounding

	mu sync.RWMutex
	t  tsr.Transform
}

// NewObject создает объект в точке pos без поворота
func NewObject(id string, pos mgl64.Vec3, bounding body.Bounding, spec scene.ObjectSpec) *Object {
	return &Object{
		ID:       id,
		Spec:     spec,
		bounding: bounding,
		t:        tsr.FromTransQuat(pos, mgl64.QuatIdent()),
	}
}

func (o *Object) Name() string            { return o.ID }
func (o *Object) Bounding() body.Bounding { return o.bounding }

func (o *Object) Transform() tsr.Transform {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.t
}

func (o *Object) SetTransform(t tsr.Transform) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.t = t
}

// Position текущая позиция объекта
func (o *Object) Position() mgl64.Vec3 {
	return o.Transform().Trans
}
