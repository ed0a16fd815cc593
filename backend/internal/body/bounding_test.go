package body

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/ipc"
)

func TestBounding_Shape(t *testing.T) {
	tests := []struct {
		name    string
		bd      Bounding
		want    ipc.ShapeType
		wantErr bool
	}{
		{"empty", Bounding{}, ipc.ShapeEmpty, false},
		{"box", Bounding{Type: "box", HalfExtents: mgl64.Vec3{1, 2, 3}}, ipc.ShapeBox, false},
		{"flat box", Bounding{Type: "box", HalfExtents: mgl64.Vec3{1, 0, 3}}, 0, true},
		{"sphere", Bounding{Type: "sphere", Radius: 0.5}, ipc.ShapeSphere, false},
		{"nan sphere", Bounding{Type: "sphere", Radius: math.NaN()}, 0, true},
		{"capsule", Bounding{Type: "capsule", Radius: 0.3, Height: 1.8}, ipc.ShapeCapsule, false},
		{"cone without height", Bounding{Type: "cone", Radius: 1}, 0, true},
		{"mesh", Bounding{Type: "mesh", Positions: make([]float32, 9), Indices: []uint32{0, 1, 2}}, ipc.ShapeMesh, false},
		{"mesh bad index", Bounding{Type: "mesh", Positions: make([]float32, 9), Indices: []uint32{0, 1, 5}}, 0, true},
		{"torus", Bounding{Type: "torus"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := tt.bd.Shape()
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedBounding) {
					t.Errorf("Expected ErrUnsupportedBounding, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if shape.Type != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, shape.Type)
			}
		})
	}
}
