package collision

import (
	"log"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// Poster очередь исходящих команд
type Poster interface {
	Post(msg ipc.Outbound)
}

// ImpulseObserver получает импульс столкновения тела
type ImpulseObserver interface {
	OnCollisionImpulse(b *body.Body, impulse float64)
}

// Manager ведет тесты столкновений сцены и кэш пар на стороне симуляции
type Manager struct {
	bodies *body.Registry
	post   Poster
	logger *log.Logger

	lastID TestID
	tests  map[TestID]*test
	order  []*test

	impulse map[body.ID]ImpulseObserver
}

// NewManager создает менеджер и подписывает его на изменения реестра
func NewManager(bodies *body.Registry, post Poster, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		bodies:  bodies,
		post:    post,
		logger:  logger,
		tests:   make(map[TestID]*test),
		impulse: make(map[body.ID]ImpulseObserver),
	}
	bodies.Subscribe(m)
	return m
}

// Append регистрирует тест source против тел с тегом tag (или ANY).
// Сразу добавляет пары со всеми подходящими телами.
func (m *Manager) Append(source *body.Body, tag string, calcPosNorm bool, obs Observer) TestID {
	if tag == "" {
		tag = body.AnyTag
	}

	m.lastID++
	t := newTest(m.lastID, source.ID, tag, calcPosNorm, obs)
	m.tests[t.id] = t
	m.order = append(m.order, t)

	for _, b := range m.bodies.Bodies() {
		if !b.Matches(tag) {
			continue
		}
		if p, ok := MakePair(source.ID, b.ID); ok {
			t.add(p)
		}
	}

	m.post.Post(ipc.Activate{Body: uint32(source.ID)})
	m.post.Post(ipc.AppendCollisionTest{Pairs: toWire(t.pairs), CalcPosNorm: calcPosNorm})
	return t.id
}

// Remove удаляет тест. Если тест фиксировал контакт, наблюдатель получает
// завершающее событие. В симуляцию уходят только пары, не нужные другим тестам.
func (m *Manager) Remove(id TestID) bool {
	t, ok := m.tests[id]
	if !ok {
		return false
	}
	m.drop(t)

	if t.colliding() {
		t.observer.OnCollision(t.ended())
	}

	if unused := m.unused(t.pairs); len(unused) > 0 {
		m.post.Post(ipc.RemoveCollisionTest{Pairs: toWire(unused)})
	}
	return true
}

// Colliding агрегированный результат теста
func (m *Manager) Colliding(id TestID) bool {
	t, ok := m.tests[id]
	return ok && t.colliding()
}

// Pairs копия списка пар теста
func (m *Manager) Pairs(id TestID) []Pair {
	t, ok := m.tests[id]
	if !ok {
		return nil
	}
	return append([]Pair(nil), t.pairs...)
}

// Has проверяет, жив ли тест
func (m *Manager) Has(id TestID) bool {
	_, ok := m.tests[id]
	return ok
}

// Len количество тестов
func (m *Manager) Len() int {
	return len(m.order)
}

// HandleCollision применяет результат пары ко всем тестам, которые ее отслеживают.
// Пары, которых уже нет (тело или тест удалены), игнорируются.
func (m *Manager) HandleCollision(msg ipc.Collision) {
	pair, ok := MakePair(body.ID(msg.A), body.ID(msg.B))
	if !ok {
		return
	}

	for _, t := range m.snapshot() {
		if _, alive := m.tests[t.id]; !alive {
			continue
		}
		idx := t.index(pair)
		if idx < 0 {
			continue
		}
		t.results.SetTo(uint(idx), msg.Result)

		ev := Event{Test: t.id, Colliding: t.colliding()}
		if msg.Contact != nil {
			ev.Contact = *msg.Contact
			ev.HasContact = true
			// геометрия приходит относительно A; для второй стороны сдвигаем точку и разворачиваем нормаль
			if t.source != pair.A {
				ev.Contact.Pos = ev.Contact.Pos.Add(ev.Contact.Norm.Mul(ev.Contact.Dist))
				ev.Contact.Norm = ev.Contact.Norm.Mul(-1)
			}
		}
		if ev.Colliding {
			ev.Other, _ = m.bodies.Get(pair.Other(t.source))
		}
		t.observer.OnCollision(ev)
	}
}

// BodyAdded дописывает новое тело во все тесты, чей фильтр ему подходит
func (m *Manager) BodyAdded(b *body.Body) {
	for _, t := range m.order {
		if !b.Matches(t.tag) {
			continue
		}
		p, ok := MakePair(t.source, b.ID)
		if !ok || !t.add(p) {
			continue
		}
		m.post.Post(ipc.Activate{Body: uint32(t.source)})
		m.post.Post(ipc.AppendCollisionTest{Pairs: toWire([]Pair{p}), CalcPosNorm: t.calcPosNorm})
	}
}

// BodyRemoved вычищает пары с телом. Каждый затронутый тест получает
// не больше одного завершающего события. Тесты самого тела удаляются.
func (m *Manager) BodyRemoved(b *body.Body) {
	var removed []Pair
	seen := make(map[Pair]struct{})

	for _, t := range m.snapshot() {
		if _, alive := m.tests[t.id]; !alive {
			continue
		}
		was := t.colliding()
		for _, p := range t.dropBody(b.ID) {
			if _, dup := seen[p]; !dup {
				seen[p] = struct{}{}
				removed = append(removed, p)
			}
		}
		if t.source == b.ID {
			m.drop(t)
		}
		if was && !t.colliding() {
			t.observer.OnCollision(t.ended())
		}
	}

	delete(m.impulse, b.ID)

	if len(removed) > 0 {
		m.post.Post(ipc.RemoveCollisionTest{Pairs: toWire(removed)})
	}
}

// ApplyImpulseTest включает отчет об импульсах столкновений тела.
// Предыдущая подписка того же тела заменяется.
func (m *Manager) ApplyImpulseTest(b *body.Body, obs ImpulseObserver) {
	if _, ok := m.impulse[b.ID]; ok {
		m.ClearImpulseTest(b)
	}
	m.impulse[b.ID] = obs
	m.post.Post(ipc.ApplyCollisionImpulseTest{Body: uint32(b.ID)})
}

// ClearImpulseTest выключает отчет об импульсах
func (m *Manager) ClearImpulseTest(b *body.Body) {
	if _, ok := m.impulse[b.ID]; !ok {
		return
	}
	delete(m.impulse, b.ID)
	m.post.Post(ipc.ClearCollisionImpulseTest{Body: uint32(b.ID)})
}

// HandleImpulse доставляет импульс наблюдателю тела
func (m *Manager) HandleImpulse(msg ipc.CollisionImpulse) {
	obs, ok := m.impulse[body.ID(msg.Body)]
	if !ok {
		return
	}
	b, ok := m.bodies.Get(body.ID(msg.Body))
	if !ok {
		return
	}
	obs.OnCollisionImpulse(b, msg.Impulse)
}

func (m *Manager) drop(t *test) {
	delete(m.tests, t.id)
	for i, ot := range m.order {
		if ot == t {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Manager) snapshot() []*test {
	return append([]*test(nil), m.order...)
}

// unused вычитает из pairs пары, которые используют оставшиеся тесты
func (m *Manager) unused(pairs []Pair) []Pair {
	used := make(map[Pair]struct{})
	for _, t := range m.order {
		for _, p := range t.pairs {
			used[p] = struct{}{}
		}
	}

	var out []Pair
	for _, p := range pairs {
		if _, ok := used[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
