package world

import (
	"errors"
	"fmt"
	"log"

	"physbridge/backend/internal/scene"
)

// ErrRejected сцена не приняла объем объекта
var ErrRejected = errors.New("object rejected by scene")

// Factory создает объекты сразу в менеджере и в физике сцены
type Factory struct {
	manager *Manager
	scene   *scene.Scene
	logger  *log.Logger
}

// NewFactory создает новый экземпляр Factory
func NewFactory(manager *Manager, sc *scene.Scene, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{
		manager: manager,
		scene:   sc,
		logger:  logger,
	}
}

// Create добавляет объект в мир и в физику сцены
func (f *Factory) Create(obj *Object) error {
	if _, exists := f.manager.GetObject(obj.ID); exists {
		return fmt.Errorf("object %s already exists", obj.ID)
	}
	if _, ok := f.scene.AppendObject(obj, obj.Spec); !ok {
		return fmt.Errorf("%s: %w", obj.ID, ErrRejected)
	}
	f.manager.AddObject(obj)

	pos := obj.Position()
	f.logger.Printf("[World] created %s (%s) at (%.2f, %.2f, %.2f)",
		obj.ID, obj.Spec.Kind, pos[0], pos[1], pos[2])
	return nil
}

// Remove убирает объект из мира вместе с физикой
func (f *Factory) Remove(id string) bool {
	obj, exists := f.manager.RemoveObject(id)
	if !exists {
		return false
	}
	f.scene.RemoveObject(obj)
	f.logger.Printf("[World] removed %s", id)
	return true
}
