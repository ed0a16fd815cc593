package world

import (
	"sort"
	"sync"
)

type Manager struct {
	objects map[string]*Object
	mu      sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		objects: make(map[string]*Object),
	}
}

// AddObject добавляет объект, объект с тем же ID заменяется
func (m *Manager) AddObject(obj *Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[obj.ID] = obj
}

func (m *Manager) GetObject(id string) (*Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, exists := m.objects[id]
	return obj, exists
}

// RemoveObject убирает объект из менеджера
func (m *Manager) RemoveObject(id string) (*Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, exists := m.objects[id]
	if exists {
		delete(m.objects, id)
	}
	return obj, exists
}

// GetAllObjects возвращает все объекты, упорядоченные по ID
func (m *Manager) GetAllObjects() []*Object {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Object, 0, len(m.objects))
	for _, obj := range m.objects {
		result = append(result, obj)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
