package body

import (
	"log"
	"os"
	"testing"

	"physbridge/backend/internal/tsr"
)

type testObject struct {
	name string
	t    tsr.Transform
}

func (o *testObject) Name() string                 { return o.name }
func (o *testObject) Transform() tsr.Transform     { return o.t }
func (o *testObject) SetTransform(t tsr.Transform) { o.t = t }

type recordingListener struct {
	added   []ID
	removed []ID
}

func (l *recordingListener) BodyAdded(b *Body)   { l.added = append(l.added, b.ID) }
func (l *recordingListener) BodyRemoved(b *Body) { l.removed = append(l.removed, b.ID) }

func newTestRegistry() *Registry {
	return NewRegistry(log.New(os.Stdout, "[TEST] ", log.LstdFlags))
}

func TestRegistry_SequentialIDsNeverReused(t *testing.T) {
	r := newTestRegistry()
	l := &recordingListener{}
	r.Subscribe(l)

	a := r.Create(Descriptor{Kind: Dynamic, Mass: 1}, &testObject{name: "a"})
	b := r.Create(Descriptor{Kind: Static}, &testObject{name: "b"})
	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("Expected ids 1,2, got %d,%d", a.ID, b.ID)
	}

	if !r.Remove(a.ID) {
		t.Fatal("Expected Remove to succeed")
	}
	if r.Remove(a.ID) {
		t.Error("Expected second Remove to report false")
	}

	c := r.Create(Descriptor{Kind: Static}, &testObject{name: "c"})
	if c.ID != 3 {
		t.Errorf("Expected id 3 after removal, got %d", c.ID)
	}

	if len(l.added) != 3 || len(l.removed) != 1 || l.removed[0] != 1 {
		t.Errorf("Unexpected notifications: added %v removed %v", l.added, l.removed)
	}
	if _, ok := r.Get(a.ID); ok {
		t.Error("Removed body still resolvable")
	}
	if got := r.Bodies(); len(got) != 2 || got[0] != b || got[1] != c {
		t.Errorf("Unexpected order: %v", got)
	}
}

func TestRegistry_ObjectLookup(t *testing.T) {
	r := newTestRegistry()
	obj := &testObject{name: "crate", t: tsr.Identity()}
	b := r.Create(Descriptor{Kind: Rigid, Mass: 2}, obj)

	got, ok := r.ByObject(obj)
	if !ok || got != b {
		t.Fatal("Expected lookup by object")
	}
	if r.ObjectOf(b.ID) != obj {
		t.Error("Expected reverse lookup by id")
	}

	r.Remove(b.ID)
	if _, ok := r.ByObject(obj); ok {
		t.Error("Expected mapping purged")
	}
	if r.ObjectOf(b.ID) != nil {
		t.Error("Expected nil object for removed id")
	}
}

func TestRegistry_TagNumbers(t *testing.T) {
	r := newTestRegistry()

	if n := r.TagNum(AnyTag); n != 0 {
		t.Errorf("ANY must be 0, got %d", n)
	}
	ground := r.TagNum("GROUND")
	wall := r.TagNum("WALL")
	if ground == 0 || wall == 0 || ground == wall {
		t.Errorf("Unexpected numbers: GROUND=%d WALL=%d", ground, wall)
	}
	if r.TagNum("GROUND") != ground {
		t.Error("Tag number must be stable")
	}

	b := r.Create(Descriptor{Kind: Static}, nil)
	if b.Tag != AnyTag || b.TagNum != 0 {
		t.Errorf("Untagged body must get ANY, got %q/%d", b.Tag, b.TagNum)
	}
}

func TestBody_Predicates(t *testing.T) {
	tests := []struct {
		name      string
		body      Body
		dynamic   bool
		allowsTsr bool
	}{
		{"rigid", Body{Kind: Rigid, Mass: 1, Simulated: true}, true, false},
		{"dynamic", Body{Kind: Dynamic, Mass: 1, Simulated: true}, true, false},
		{"massless", Body{Kind: Rigid, Mass: 0, Simulated: true}, false, true},
		{"ghost", Body{Kind: Rigid, Mass: 1, Ghost: true, Simulated: true}, false, true},
		{"disabled", Body{Kind: Rigid, Mass: 1}, false, true},
		{"static", Body{Kind: Static, Mass: 1, Simulated: true}, false, true},
		{"character", Body{Kind: Character, Mass: 1, Simulated: true}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.body.HasDynamicPhysics(); got != tt.dynamic {
				t.Errorf("HasDynamicPhysics = %v, want %v", got, tt.dynamic)
			}
			if got := tt.body.AllowsTransform(); got != tt.allowsTsr {
				t.Errorf("AllowsTransform = %v, want %v", got, tt.allowsTsr)
			}
			if tt.body.HasSimulatedPhysics() != tt.body.Simulated {
				t.Error("HasSimulatedPhysics must mirror Simulated")
			}
		})
	}
}
