package raytest

import (
	"log"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// ID идентификатор теста луча. Уникален в пределах процесса, между сценами тоже.
type ID uint32

var lastID atomic.Uint32

func nextID() ID {
	return ID(lastID.Add(1))
}

// Hit результат луча. Pos/Norm заполнены только при HasPosNorm.
type Hit struct {
	Fraction   float64
	Body       *body.Body
	Time       float64
	HasPosNorm bool
	Pos        mgl64.Vec3
	Norm       mgl64.Vec3
}

// Observer получает попадания одного теста
type Observer interface {
	OnRayHit(id ID, hit Hit)
}

// ObserverFunc адаптер функции к Observer
type ObserverFunc func(id ID, hit Hit)

func (f ObserverFunc) OnRayHit(id ID, hit Hit) { f(id, hit) }

// Options флаги теста
type Options struct {
	// Autoremove тест срабатывает один раз и удаляется
	Autoremove  bool
	CalcAllHits bool
	CalcPosNorm bool
	// IgnoreSourceRotation from/to задаются без учета поворота источника
	IgnoreSourceRotation bool
}

// Poster очередь исходящих команд
type Poster interface {
	Post(msg ipc.Outbound)
}

type test struct {
	id       ID
	source   body.ID
	from, to mgl64.Vec3
	tag      string
	opts     Options
	observer Observer
}

// Registry тесты лучей одной сцены
type Registry struct {
	bodies *body.Registry
	post   Poster
	logger *log.Logger
	tests  map[ID]*test
}

// NewRegistry создает реестр и подписывает его на удаление тел
func NewRegistry(bodies *body.Registry, post Poster, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		bodies: bodies,
		post:   post,
		logger: logger,
		tests:  make(map[ID]*test),
	}
	bodies.Subscribe(r)
	return r
}

// Append регистрирует тест. source может быть nil: тогда from/to в мировых координатах.
func (r *Registry) Append(source *body.Body, from, to mgl64.Vec3, tag string, obs Observer, opts Options) ID {
	if tag == "" {
		tag = body.AnyTag
	}

	t := &test{
		id:       nextID(),
		from:     from,
		to:       to,
		tag:      tag,
		opts:     opts,
		observer: obs,
	}
	if source != nil {
		t.source = source.ID
	}
	r.tests[t.id] = t

	r.post.Post(ipc.AppendRayTest{
		Test:               uint32(t.id),
		Body:               uint32(t.source),
		From:               from,
		To:                 to,
		TagNum:             r.bodies.TagNum(tag),
		Autoremove:         opts.Autoremove,
		CalcAllHits:        opts.CalcAllHits,
		CalcPosNorm:        opts.CalcPosNorm,
		IgnoreSourceRotate: opts.IgnoreSourceRotation,
	})
	return t.id
}

// Remove удаляет тест. Неизвестный id (например, уже удаленный autoremove) игнорируется.
func (r *Registry) Remove(id ID) {
	if _, ok := r.tests[id]; !ok {
		return
	}
	delete(r.tests, id)
	r.post.Post(ipc.RemoveRayTest{Test: uint32(id)})
}

// ChangeFromTo перенаправляет луч. Неизвестные и autoremove тесты игнорируются.
func (r *Registry) ChangeFromTo(id ID, from, to mgl64.Vec3) {
	t, ok := r.tests[id]
	if !ok || t.opts.Autoremove {
		return
	}
	t.from = from
	t.to = to
	r.post.Post(ipc.ChangeRayTestFromTo{Test: uint32(id), From: from, To: to})
}

// IsActive проверяет, жив ли тест
func (r *Registry) IsActive(id ID) bool {
	_, ok := r.tests[id]
	return ok
}

// Len количество живых тестов
func (r *Registry) Len() int {
	return len(r.tests)
}

// HandleHit доставляет попадание наблюдателю теста
func (r *Registry) HandleHit(msg ipc.RayHit) {
	id := ID(msg.Test)
	t, ok := r.tests[id]
	if !ok {
		return
	}

	hit := Hit{Fraction: msg.Fraction, Time: msg.Time}
	if b, ok := r.bodies.Get(body.ID(msg.Body)); ok {
		hit.Body = b
	}
	if msg.PosNorm != nil {
		hit.HasPosNorm = true
		hit.Pos = msg.PosNorm.Pos
		hit.Norm = msg.PosNorm.Norm
	}

	t.observer.OnRayHit(id, hit)

	// симуляция удаляет autoremove тест сама
	if t.opts.Autoremove {
		delete(r.tests, id)
	}
}

// HandleRemoved симуляция сообщила об удалении теста
func (r *Registry) HandleRemoved(msg ipc.RayTestRemoved) {
	delete(r.tests, ID(msg.Test))
}

// BodyAdded ничего не делает: лучи фильтруют тела на стороне симуляции
func (r *Registry) BodyAdded(*body.Body) {}

// BodyRemoved отменяет тесты, привязанные к телу
func (r *Registry) BodyRemoved(b *body.Body) {
	for id, t := range r.tests {
		if t.source == b.ID {
			r.Remove(id)
		}
	}
}
