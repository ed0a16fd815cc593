package body

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/ipc"
)

// ErrUnsupportedBounding объект нельзя превратить в форму для симуляции
var ErrUnsupportedBounding = errors.New("unsupported bounding")

// Bounding ограничивающий объем объекта сцены в локальных координатах
type Bounding struct {
	Type   string // box, sphere, cylinder, cone, capsule, mesh, empty
	Center mgl64.Vec3
	// полуразмеры для box
	HalfExtents mgl64.Vec3
	Radius      float64
	Height      float64

	Positions []float32
	Indices   []uint32
}

// Shape проверяет объем и переводит его в форму протокола
func (bd Bounding) Shape() (ipc.Shape, error) {
	shape := ipc.Shape{Center: bd.Center}

	switch bd.Type {
	case "", "empty":
		shape.Type = ipc.ShapeEmpty
		return shape, nil

	case "box":
		for i := 0; i < 3; i++ {
			if !positive(bd.HalfExtents[i]) {
				return ipc.Shape{}, fmt.Errorf("%w: box extents %v", ErrUnsupportedBounding, bd.HalfExtents)
			}
		}
		shape.Type = ipc.ShapeBox
		shape.Extents = bd.HalfExtents

	case "sphere":
		if !positive(bd.Radius) {
			return ipc.Shape{}, fmt.Errorf("%w: sphere radius %v", ErrUnsupportedBounding, bd.Radius)
		}
		shape.Type = ipc.ShapeSphere
		shape.Radius = bd.Radius

	case "cylinder", "cone", "capsule":
		if !positive(bd.Radius) || !positive(bd.Height) {
			return ipc.Shape{}, fmt.Errorf("%w: %s radius %v height %v",
				ErrUnsupportedBounding, bd.Type, bd.Radius, bd.Height)
		}
		shape.Type = map[string]ipc.ShapeType{
			"cylinder": ipc.ShapeCylinder,
			"cone":     ipc.ShapeCone,
			"capsule":  ipc.ShapeCapsule,
		}[bd.Type]
		shape.Radius = bd.Radius
		shape.Height = bd.Height

	case "mesh":
		if len(bd.Positions) < 9 || len(bd.Positions)%3 != 0 || len(bd.Indices)%3 != 0 {
			return ipc.Shape{}, fmt.Errorf("%w: mesh with %d positions", ErrUnsupportedBounding, len(bd.Positions))
		}
		for _, idx := range bd.Indices {
			if int(idx) >= len(bd.Positions)/3 {
				return ipc.Shape{}, fmt.Errorf("%w: mesh index %d out of range", ErrUnsupportedBounding, idx)
			}
		}
		shape.Type = ipc.ShapeMesh
		shape.Positions = bd.Positions
		shape.Indices = bd.Indices

	default:
		return ipc.Shape{}, fmt.Errorf("%w: %q", ErrUnsupportedBounding, bd.Type)
	}
	return shape, nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
