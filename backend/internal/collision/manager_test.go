package collision

import (
	"log"
	"math/rand"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

type mockPoster struct {
	msgs []ipc.Outbound
}

func (p *mockPoster) Post(msg ipc.Outbound) { p.msgs = append(p.msgs, msg) }

func (p *mockPoster) removed() [][]ipc.Pair {
	var out [][]ipc.Pair
	for _, m := range p.msgs {
		if r, ok := m.(ipc.RemoveCollisionTest); ok {
			out = append(out, r.Pairs)
		}
	}
	return out
}

type recordingObserver struct {
	events []Event
}

func (o *recordingObserver) OnCollision(ev Event) { o.events = append(o.events, ev) }

func (o *recordingObserver) endedCount() int {
	n := 0
	for _, ev := range o.events {
		if !ev.Colliding {
			n++
		}
	}
	return n
}

func newTestManager() (*body.Registry, *Manager, *mockPoster) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	reg := body.NewRegistry(logger)
	post := &mockPoster{}
	return reg, NewManager(reg, post, logger), post
}

func TestManager_GroundScenario(t *testing.T) {
	reg, m, _ := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	b := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)

	obs := &recordingObserver{}
	id := m.Append(a, "GROUND", false, obs)

	m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(b.ID), Result: true})
	m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(b.ID), Result: false})

	if len(obs.events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(obs.events))
	}
	if !obs.events[0].Colliding || obs.events[0].Other != b {
		t.Errorf("Expected (true, B), got %+v", obs.events[0])
	}
	if obs.events[1].Colliding || obs.events[1].Other != nil {
		t.Errorf("Expected (false, nil), got %+v", obs.events[1])
	}
	if m.Colliding(id) {
		t.Error("Expected aggregate false")
	}
}

func TestManager_AppendPostsActivateThenPairs(t *testing.T) {
	reg, m, post := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)
	reg.Create(body.Descriptor{Kind: body.Static, Tag: "WALL"}, nil)

	m.Append(a, body.AnyTag, true, &recordingObserver{})

	if len(post.msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(post.msgs))
	}
	if act, ok := post.msgs[0].(ipc.Activate); !ok || act.Body != uint32(a.ID) {
		t.Errorf("Expected Activate first, got %+v", post.msgs[0])
	}
	test, ok := post.msgs[1].(ipc.AppendCollisionTest)
	if !ok || !test.CalcPosNorm || len(test.Pairs) != 2 {
		t.Fatalf("Expected ANY test over 2 pairs, got %+v", post.msgs[1])
	}
	for _, p := range test.Pairs {
		if p.A >= p.B {
			t.Errorf("Pair not canonical: %+v", p)
		}
	}
}

func TestManager_RewalkOnBodyAdded(t *testing.T) {
	reg, m, post := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)

	id := m.Append(a, "GROUND", false, &recordingObserver{})
	if len(m.Pairs(id)) != 0 {
		t.Fatalf("Expected no pairs yet, got %v", m.Pairs(id))
	}
	post.msgs = nil

	reg.Create(body.Descriptor{Kind: body.Static, Tag: "WALL"}, nil)
	if len(post.msgs) != 0 {
		t.Errorf("Non-matching body must not touch the test, got %d messages", len(post.msgs))
	}

	g := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)
	pairs := m.Pairs(id)
	if len(pairs) != 1 || pairs[0] != (Pair{A: a.ID, B: g.ID}) {
		t.Fatalf("Expected pair with new ground, got %v", pairs)
	}
	if len(post.msgs) != 2 {
		t.Fatalf("Expected Activate + AppendCollisionTest, got %d", len(post.msgs))
	}
	if test := post.msgs[1].(ipc.AppendCollisionTest); len(test.Pairs) != 1 || test.Pairs[0].B != uint32(g.ID) {
		t.Errorf("Expected only the new pair, got %+v", test.Pairs)
	}
}

func TestManager_AggregateIsOR(t *testing.T) {
	reg, m, _ := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	g1 := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)
	g2 := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)

	obs := &recordingObserver{}
	id := m.Append(a, "GROUND", false, obs)

	steps := []struct {
		other  *body.Body
		result bool
		want   bool
	}{
		{g1, true, true},
		{g2, true, true},
		{g1, false, true},
		{g2, false, false},
		{g2, true, true},
	}
	for i, s := range steps {
		m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(s.other.ID), Result: s.result})
		if got := m.Colliding(id); got != s.want {
			t.Errorf("step %d: aggregate %v, want %v", i, got, s.want)
		}
		if ev := obs.events[len(obs.events)-1]; ev.Colliding != s.want {
			t.Errorf("step %d: event colliding %v, want %v", i, ev.Colliding, s.want)
		}
	}
}

func TestManager_SingleEndedOnBulkTeardown(t *testing.T) {
	reg, m, post := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	var grounds []*body.Body
	for i := 0; i < 5; i++ {
		grounds = append(grounds, reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil))
	}

	obs := &recordingObserver{}
	m.Append(a, "GROUND", false, obs)
	for _, g := range grounds {
		m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(g.ID), Result: true})
	}
	obs.events = nil
	post.msgs = nil

	for _, g := range grounds {
		reg.Remove(g.ID)
	}

	if obs.endedCount() != 1 || len(obs.events) != 1 {
		t.Fatalf("Expected exactly one ended event, got %+v", obs.events)
	}
	if ev := obs.events[0]; ev.Other != nil || ev.Contact.Pos != (mgl64.Vec3{}) || ev.Contact.Dist != 0 {
		t.Errorf("Ended event must carry nil body and zero contact, got %+v", ev)
	}
	if len(post.removed()) != 5 {
		t.Errorf("Expected one removal per body, got %d", len(post.removed()))
	}
}

func TestManager_RemoveSubtractsSharedPairs(t *testing.T) {
	reg, m, post := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)
	w := reg.Create(body.Descriptor{Kind: body.Static, Tag: "WALL"}, nil)

	anyObs := &recordingObserver{}
	anyTest := m.Append(a, body.AnyTag, false, anyObs)
	m.Append(a, "GROUND", false, &recordingObserver{})

	m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(w.ID), Result: true})
	anyObs.events = nil
	post.msgs = nil

	if !m.Remove(anyTest) {
		t.Fatal("Expected Remove to succeed")
	}
	if anyObs.endedCount() != 1 {
		t.Errorf("Expected ended on removal of colliding test, got %+v", anyObs.events)
	}

	removed := post.removed()
	if len(removed) != 1 || len(removed[0]) != 1 || removed[0][0].B != uint32(w.ID) {
		t.Fatalf("Expected only (A,WALL) removed, got %+v", removed)
	}
	if m.Remove(anyTest) {
		t.Error("Second Remove must be a no-op")
	}
}

func TestManager_ContactCorrection(t *testing.T) {
	reg, m, _ := newTestManager()
	g := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1, Tag: "BALL"}, nil)

	fromGround := &recordingObserver{}
	fromBall := &recordingObserver{}
	m.Append(g, "BALL", true, fromGround)
	m.Append(a, "GROUND", true, fromBall)

	contact := &ipc.Contact{Pos: mgl64.Vec3{0, 1, 0}, Norm: mgl64.Vec3{0, 1, 0}, Dist: 0.5}
	m.HandleCollision(ipc.Collision{A: uint32(g.ID), B: uint32(a.ID), Result: true, Contact: contact})

	evG := fromGround.events[0]
	if evG.Contact.Pos != (mgl64.Vec3{0, 1, 0}) || evG.Contact.Norm != (mgl64.Vec3{0, 1, 0}) {
		t.Errorf("Source side must get contact as is, got %+v", evG.Contact)
	}
	evA := fromBall.events[0]
	if evA.Contact.Pos != (mgl64.Vec3{0, 1.5, 0}) || evA.Contact.Norm != (mgl64.Vec3{0, -1, 0}) {
		t.Errorf("Other side must get corrected contact, got %+v", evA.Contact)
	}
	if !evA.HasContact || evA.Other != g {
		t.Errorf("Unexpected event %+v", evA)
	}
	if contact.Norm != (mgl64.Vec3{0, 1, 0}) {
		t.Error("Inbound contact must not be mutated")
	}
}

func TestManager_LateEventsIgnored(t *testing.T) {
	reg, m, _ := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)
	g := reg.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)

	obs := &recordingObserver{}
	id := m.Append(a, "GROUND", false, obs)
	m.Remove(id)

	m.HandleCollision(ipc.Collision{A: uint32(a.ID), B: uint32(g.ID), Result: true})
	m.HandleCollision(ipc.Collision{A: 99, B: 100, Result: true})
	m.HandleCollision(ipc.Collision{A: 3, B: 3, Result: true})

	if len(obs.events) != 0 {
		t.Errorf("Expected late events to be dropped, got %+v", obs.events)
	}
}

func TestManager_RandomPopulation(t *testing.T) {
	reg, m, _ := newTestManager()
	rng := rand.New(rand.NewSource(42))
	tags := []string{"GROUND", "WALL", "BALL"}

	var alive []*body.Body
	for i := 0; i < 400; i++ {
		switch op := rng.Intn(4); {
		case op <= 1 || len(alive) == 0:
			b := reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1, Tag: tags[rng.Intn(len(tags))]}, nil)
			alive = append(alive, b)
		case op == 2:
			k := rng.Intn(len(alive))
			reg.Remove(alive[k].ID)
			alive = append(alive[:k], alive[k+1:]...)
		default:
			src := alive[rng.Intn(len(alive))]
			m.Append(src, tags[rng.Intn(len(tags))], false, &recordingObserver{})
		}

		if len(alive) > 1 {
			x, y := alive[rng.Intn(len(alive))], alive[rng.Intn(len(alive))]
			m.HandleCollision(ipc.Collision{A: uint32(x.ID), B: uint32(y.ID), Result: rng.Intn(2) == 0})
		}

		for _, t2 := range m.order {
			agg := false
			seen := map[Pair]bool{}
			for k, p := range t2.pairs {
				if _, ok := reg.Get(p.A); !ok {
					t.Fatalf("iteration %d: pair %v references removed body", i, p)
				}
				if _, ok := reg.Get(p.B); !ok {
					t.Fatalf("iteration %d: pair %v references removed body", i, p)
				}
				if seen[p] {
					t.Fatalf("iteration %d: duplicate pair %v", i, p)
				}
				seen[p] = true
				agg = agg || t2.results.Test(uint(k))
			}
			if agg != m.Colliding(t2.id) {
				t.Fatalf("iteration %d: aggregate does not match OR of pair results", i)
			}
		}
	}
}

type recordingImpulse struct {
	got []float64
}

func (r *recordingImpulse) OnCollisionImpulse(_ *body.Body, impulse float64) {
	r.got = append(r.got, impulse)
}

func TestManager_ImpulseTest(t *testing.T) {
	reg, m, post := newTestManager()
	a := reg.Create(body.Descriptor{Kind: body.Dynamic, Mass: 1}, nil)

	obs := &recordingImpulse{}
	m.ApplyImpulseTest(a, obs)
	m.HandleImpulse(ipc.CollisionImpulse{Body: uint32(a.ID), Impulse: 4})
	m.ClearImpulseTest(a)
	m.ClearImpulseTest(a)
	m.HandleImpulse(ipc.CollisionImpulse{Body: uint32(a.ID), Impulse: 5})

	if len(obs.got) != 1 || obs.got[0] != 4 {
		t.Errorf("Expected single impulse 4, got %v", obs.got)
	}
	if len(post.msgs) != 2 {
		t.Errorf("Expected apply + clear, got %d messages", len(post.msgs))
	}
}
