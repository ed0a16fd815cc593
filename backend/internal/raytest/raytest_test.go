package raytest

import (
	"log"
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

type hitRecord struct {
	id  ID
	hit Hit
}

type recordingObserver struct {
	hits []hitRecord
}

func (o *recordingObserver) OnRayHit(id ID, hit Hit) {
	o.hits = append(o.hits, hitRecord{id, hit})
}

func newTestRegistry() (*body.Registry, *Registry, *mockPoster) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	bodies := body.NewRegistry(logger)
	post := &mockPoster{}
	return bodies, NewRegistry(bodies, post, logger), post
}

func TestRegistry_IDsUniqueAcrossScenes(t *testing.T) {
	_, r1, _ := newTestRegistry()
	_, r2, _ := newTestRegistry()

	seen := make(map[ID]bool)
	for i := 0; i < 50; i++ {
		for _, r := range []*Registry{r1, r2} {
			id := r.Append(nil, mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, "", &recordingObserver{}, Options{})
			if seen[id] {
				t.Fatalf("Ray test id %d reused", id)
			}
			seen[id] = true
			r.Remove(id)
		}
	}
}

func TestRegistry_AutoremoveScenario(t *testing.T) {
	bodies, r, post := newTestRegistry()
	ground := bodies.Create(body.Descriptor{Kind: body.Static, Tag: "GROUND"}, nil)

	obs := &recordingObserver{}
	id := r.Append(nil, mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -10, 0}, "GROUND", obs, Options{Autoremove: true})

	msg := post.msgs[len(post.msgs)-1].(ipc.AppendRayTest)
	if msg.TagNum == 0 || !msg.Autoremove || msg.Body != 0 {
		t.Errorf("Unexpected AppendRayTest: %+v", msg)
	}

	r.HandleHit(ipc.RayHit{Test: uint32(id), Body: uint32(ground.ID), Fraction: 0.5, Time: 1.25})
	if len(obs.hits) != 1 || obs.hits[0].hit.Body != ground || obs.hits[0].hit.Fraction != 0.5 {
		t.Fatalf("Expected one hit on ground, got %+v", obs.hits)
	}
	if obs.hits[0].hit.HasPosNorm {
		t.Error("Pos/norm must be absent when not requested")
	}

	if r.IsActive(id) {
		t.Error("Autoremove test must be gone after first hit")
	}

	post.msgs = nil
	r.Remove(id)
	r.ChangeFromTo(id, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	r.HandleHit(ipc.RayHit{Test: uint32(id)})
	if len(post.msgs) != 0 || len(obs.hits) != 1 {
		t.Errorf("Expected no-ops on removed test, got %d messages, %d hits", len(post.msgs), len(obs.hits))
	}
}

func TestRegistry_ChangeFromTo(t *testing.T) {
	_, r, post := newTestRegistry()

	cont := r.Append(nil, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, "", &recordingObserver{}, Options{})
	once := r.Append(nil, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, "", &recordingObserver{}, Options{Autoremove: true})
	post.msgs = nil

	r.ChangeFromTo(cont, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 1})
	r.ChangeFromTo(once, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 1})
	r.ChangeFromTo(ID(0), mgl64.Vec3{}, mgl64.Vec3{})

	if len(post.msgs) != 1 {
		t.Fatalf("Expected a single redirect, got %d", len(post.msgs))
	}
	if c := post.msgs[0].(ipc.ChangeRayTestFromTo); c.Test != uint32(cont) || c.From != (mgl64.Vec3{1, 0, 0}) {
		t.Errorf("Unexpected redirect %+v", c)
	}
}

func TestRegistry_PosNormAndMisses(t *testing.T) {
	_, r, _ := newTestRegistry()
	obs := &recordingObserver{}
	id := r.Append(nil, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, "", obs, Options{CalcPosNorm: true})

	r.HandleHit(ipc.RayHit{Test: uint32(id), Body: 0, Fraction: 1})
	r.HandleHit(ipc.RayHit{Test: uint32(id), Body: 0, Fraction: 0.2,
		PosNorm: &ipc.PosNorm{Pos: mgl64.Vec3{0, 0, 0.2}, Norm: mgl64.Vec3{0, 0, -1}}})

	if len(obs.hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(obs.hits))
	}
	if obs.hits[0].hit.Body != nil {
		t.Error("Miss must report nil body")
	}
	if h := obs.hits[1].hit; !h.HasPosNorm || h.Norm != (mgl64.Vec3{0, 0, -1}) {
		t.Errorf("Expected pos/norm, got %+v", h)
	}
	if !r.IsActive(id) {
		t.Error("Continuous test must survive hits")
	}
}

func TestRegistry_SourceRemovalCancelsTests(t *testing.T) {
	bodies, r, post := newTestRegistry()
	src := bodies.Create(body.Descriptor{Kind: body.Character, Mass: 1}, nil)

	owned := r.Append(src, mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, "", &recordingObserver{}, Options{})
	free := r.Append(nil, mgl64.Vec3{}, mgl64.Vec3{0, -1, 0}, "", &recordingObserver{}, Options{})
	post.msgs = nil

	bodies.Remove(src.ID)

	if r.IsActive(owned) || !r.IsActive(free) {
		t.Error("Expected only the owned test to be cancelled")
	}
	if len(post.msgs) != 1 {
		t.Fatalf("Expected one RemoveRayTest, got %d", len(post.msgs))
	}

	r.HandleRemoved(ipc.RayTestRemoved{Test: uint32(free)})
	if r.IsActive(free) {
		t.Error("Expected solver removal to drop the test")
	}
}
