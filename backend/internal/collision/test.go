package collision

import (
	"github.com/bits-and-blooms/bitset"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// TestID идентификатор теста столкновений
type TestID uint32

// Event результат теста, передаваемый наблюдателю.
// Other == nil, когда тест больше не фиксирует контакт.
type Event struct {
	Test       TestID
	Colliding  bool
	Other      *body.Body
	Contact    ipc.Contact
	HasContact bool
}

// Observer получает события одного теста
type Observer interface {
	OnCollision(ev Event)
}

// ObserverFunc адаптер функции к Observer
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnCollision(ev Event) { f(ev) }

// test подписка тела на контакты с телами по тегу
type test struct {
	id          TestID
	source      body.ID
	tag         string
	calcPosNorm bool
	observer    Observer

	pairs   []Pair
	results *bitset.BitSet
}

func newTest(id TestID, source body.ID, tag string, calcPosNorm bool, obs Observer) *test {
	return &test{
		id:          id,
		source:      source,
		tag:         tag,
		calcPosNorm: calcPosNorm,
		observer:    obs,
		results:     bitset.New(0),
	}
}

func (t *test) index(p Pair) int {
	for i, tp := range t.pairs {
		if tp == p {
			return i
		}
	}
	return -1
}

// add добавляет пару, если ее еще нет. Результат новой пары false.
func (t *test) add(p Pair) bool {
	if t.index(p) >= 0 {
		return false
	}
	t.pairs = append(t.pairs, p)
	t.results.SetTo(uint(len(t.pairs)-1), false)
	return true
}

func (t *test) colliding() bool {
	return t.results.Any()
}

// dropBody удаляет все пары с телом и перестраивает битсет
func (t *test) dropBody(id body.ID) []Pair {
	var removed []Pair
	kept := t.pairs[:0]
	results := bitset.New(uint(len(t.pairs)))
	for i, p := range t.pairs {
		if p.Has(id) {
			removed = append(removed, p)
			continue
		}
		if t.results.Test(uint(i)) {
			results.Set(uint(len(kept)))
		}
		kept = append(kept, p)
	}
	t.pairs = kept
	t.results = results
	return removed
}

func (t *test) ended() Event {
	return Event{Test: t.id}
}
