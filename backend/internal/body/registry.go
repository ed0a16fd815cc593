package body

import (
	"log"
)

// Listener получает уведомления о составе тел
type Listener interface {
	BodyAdded(b *Body)
	BodyRemoved(b *Body)
}

// Registry арена тел одной сцены.
// Изменяется только потоком хоста, поэтому без блокировок.
type Registry struct {
	lastID    ID
	bodies    map[ID]*Body
	order     []*Body
	byObject  map[Object]*Body
	tags      map[string]int
	listeners []Listener
	logger    *log.Logger
}

// NewRegistry создает пустой реестр
func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		bodies:   make(map[ID]*Body),
		byObject: make(map[Object]*Body),
		tags:     map[string]int{AnyTag: 0},
		logger:   logger,
	}
}

// Subscribe добавляет слушателя. BodyAdded вызывается в порядке подписки,
// BodyRemoved в обратном.
func (r *Registry) Subscribe(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Create выделяет следующий id и регистрирует тело
func (r *Registry) Create(desc Descriptor, obj Object) *Body {
	r.lastID++

	tag := desc.Tag
	if tag == "" {
		tag = AnyTag
	}

	b := &Body{
		ID:        r.lastID,
		Kind:      desc.Kind,
		Mass:      desc.Mass,
		Ghost:     desc.Ghost || desc.Kind == Ghost,
		Simulated: true,
		Tag:       tag,
		TagNum:    r.TagNum(tag),
		Object:    obj,
		Desc:      desc,
	}
	if obj != nil {
		b.State.Transform = obj.Transform()
	}

	r.bodies[b.ID] = b
	r.order = append(r.order, b)
	if obj != nil {
		r.byObject[obj] = b
	}

	for _, l := range r.listeners {
		l.BodyAdded(b)
	}
	return b
}

// Remove удаляет тело и оповещает слушателей. Неизвестный id игнорируется.
func (r *Registry) Remove(id ID) bool {
	b, ok := r.bodies[id]
	if !ok {
		return false
	}

	delete(r.bodies, id)
	if b.Object != nil {
		delete(r.byObject, b.Object)
	}
	for i, ob := range r.order {
		if ob == b {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	// в обратном порядке: зависимые подписчики чистятся раньше владельца
	for i := len(r.listeners) - 1; i >= 0; i-- {
		r.listeners[i].BodyRemoved(b)
	}
	return true
}

// Get тело по id
func (r *Registry) Get(id ID) (*Body, bool) {
	b, ok := r.bodies[id]
	return b, ok
}

// ByObject тело объекта сцены
func (r *Registry) ByObject(obj Object) (*Body, bool) {
	b, ok := r.byObject[obj]
	return b, ok
}

// ObjectOf объект сцены для id или nil
func (r *Registry) ObjectOf(id ID) Object {
	if b, ok := r.bodies[id]; ok {
		return b.Object
	}
	return nil
}

// Bodies тела в порядке создания. Срез нельзя изменять.
func (r *Registry) Bodies() []*Body {
	return r.order
}

// Len количество живых тел
func (r *Registry) Len() int {
	return len(r.order)
}

// TagNum номер тега для протокола. ANY всегда 0, остальные нумеруются по первому появлению.
func (r *Registry) TagNum(tag string) int {
	if tag == "" {
		tag = AnyTag
	}
	if n, ok := r.tags[tag]; ok {
		return n
	}
	n := len(r.tags)
	r.tags[tag] = n
	return n
}
