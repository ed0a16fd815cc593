package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/scene"
)

// Тег поверхностей, на которые падают тестовые объекты
const GroundTag = "GROUND"

// TestObjectsCreator создает тестовые объекты для демонстрации
type TestObjectsCreator struct {
	factory *Factory
}

// NewTestObjectsCreator создает новый экземпляр TestObjectsCreator
func NewTestObjectsCreator(factory *Factory) *TestObjectsCreator {
	return &TestObjectsCreator{
		factory: factory,
	}
}

// CreateAll создает землю и count сфер, первая на высоте height
func (t *TestObjectsCreator) CreateAll(count int, height float64) ([]*Object, error) {
	if _, err := t.CreateGround(); err != nil {
		return nil, err
	}
	return t.CreateTestSpheres(count, height)
}

// CreateGround статическая плита 40x2x40, верхняя грань на y=1
func (t *TestObjectsCreator) CreateGround() (*Object, error) {
	ground := NewObject("ground", mgl64.Vec3{},
		body.Bounding{Type: "box", HalfExtents: mgl64.Vec3{20, 1, 20}},
		scene.ObjectSpec{Kind: body.Static, Tag: GroundTag})
	return ground, t.factory.Create(ground)
}

// CreateTerrain статический рельеф из карты высот grid*grid.
// Рельеф опущен так, что его верх на y=0.
func (t *TestObjectsCreator) CreateTerrain(grid int, step float64) (*Object, error) {
	const minHeight, maxHeight = -3.0, 0.0
	data := GenerateTerrainData(grid, grid, minHeight, maxHeight)
	terrain := NewObject("terrain", mgl64.Vec3{},
		TerrainBounding(data, grid, grid, step),
		scene.ObjectSpec{Kind: body.Static, Tag: GroundTag})
	return terrain, t.factory.Create(terrain)
}

// CreateTestSpheres создает ряд сфер вдоль X, каждая следующая на метр выше
func (t *TestObjectsCreator) CreateTestSpheres(count int, height float64) ([]*Object, error) {
	spheres := make([]*Object, 0, count)
	for i := 0; i < count; i++ {
		pos := mgl64.Vec3{float64(i)*2 - float64(count-1), height + float64(i), 0}
		sphere := NewObject(fmt.Sprintf("sphere_%d", i), pos,
			body.Bounding{Type: "sphere", Radius: 0.5},
			scene.ObjectSpec{Kind: body.Rigid, Mass: 1, Restitution: 0.2, LinearDamping: 0.05})
		if err := t.factory.Create(sphere); err != nil {
			return spheres, err
		}
		spheres = append(spheres, sphere)
	}
	return spheres, nil
}
