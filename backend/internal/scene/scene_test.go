package scene

import (
	"context"
	"log"
	"math"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/collision"
	"physbridge/backend/internal/physics"
	"physbridge/backend/internal/raytest"
	"physbridge/backend/internal/telemetry"
	"physbridge/backend/internal/tsr"
)

// testObject объект сцены с собственным объемом
type testObject struct {
	name     string
	t        tsr.Transform
	bounding body.Bounding
}

func (o *testObject) Name() string                 { return o.name }
func (o *testObject) Transform() tsr.Transform     { return o.t }
func (o *testObject) SetTransform(t tsr.Transform) { o.t = t }
func (o *testObject) Bounding() body.Bounding      { return o.bounding }

func newObject(name string, y float64, bd body.Bounding) *testObject {
	return &testObject{
		name:     name,
		t:        tsr.FromTransQuat(mgl64.Vec3{0, y, 0}, mgl64.QuatIdent()),
		bounding: bd,
	}
}

// harness крутит кадры сцены с искусственными часами
type harness struct {
	now   float64
	scene *Scene
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, physics.DefaultConfig())
}

func newHarnessWith(t *testing.T, cfg *physics.Config) *harness {
	t.Helper()
	h := &harness{}
	cfg.Mode = physics.ModeFallback

	s, err := New(context.Background(), "test", cfg, physics.Dial,
		func() float64 { return h.now }, log.New(os.Stdout, "[TEST] ", log.LstdFlags))
	if err != nil {
		t.Fatalf("Failed to create scene: %v", err)
	}
	h.scene = s
	return h
}

func (h *harness) frames(n int) {
	for i := 0; i < n; i++ {
		h.now += 1.0 / 60
		h.scene.Update(h.now, 1.0/60)
	}
}

func addGround(t *testing.T, s *Scene) *testObject {
	t.Helper()
	ground := newObject("ground", 0, body.Bounding{Type: "box", HalfExtents: mgl64.Vec3{10, 1, 10}})
	if _, ok := s.AppendObject(ground, ObjectSpec{Kind: body.Static, Tag: "GROUND"}); !ok {
		t.Fatal("Failed to add ground")
	}
	return ground
}

func addBall(t *testing.T, s *Scene, y float64) *testObject {
	t.Helper()
	ball := newObject("ball", y, body.Bounding{Type: "sphere", Radius: 0.5})
	if _, ok := s.AppendObject(ball, ObjectSpec{Kind: body.Rigid, Mass: 1}); !ok {
		t.Fatal("Failed to add ball")
	}
	return ball
}

func TestScene_GroundScenario(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	ground := addGround(t, h.scene)
	ball := addBall(t, h.scene, 3)

	var events []collision.Event
	id := h.scene.AppendCollisionTest(ball, "GROUND", true, collision.ObserverFunc(func(ev collision.Event) {
		events = append(events, ev)
	}))

	h.frames(120)

	if !h.scene.Loaded() {
		t.Fatal("Expected scene to be loaded")
	}
	if len(events) != 1 {
		t.Fatalf("Expected one collision event, got %d", len(events))
	}
	ev := events[0]
	groundBody := h.scene.MustBody(ground)
	if !ev.Colliding || ev.Other != groundBody || !ev.HasContact {
		t.Errorf("Expected contact with ground, got %+v", ev)
	}
	if !h.scene.CollisionTestColliding(id) {
		t.Error("Expected aggregate result true")
	}
	if y := ball.Transform().Trans[1]; math.Abs(y-1.5) > 0.1 {
		t.Errorf("Expected ball resting near 1.5, got %v", y)
	}

	// удаление земли завершает контакт
	h.scene.RemoveObject(ground)
	if len(events) != 2 {
		t.Fatalf("Expected ended event, got %d events", len(events))
	}
	if events[1].Colliding || events[1].Other != nil {
		t.Errorf("Expected ended event with nil other, got %+v", events[1])
	}
	if h.scene.CollisionTestColliding(id) {
		t.Error("Expected aggregate result false after removal")
	}

	// мяч снова падает
	h.frames(30)
	if y := ball.Transform().Trans[1]; y >= 1.4 {
		t.Errorf("Expected ball falling after ground removal, got %v", y)
	}
}

func TestScene_RayTest(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	ground := addGround(t, h.scene)

	var hits []raytest.Hit
	id := h.scene.AppendRayTest(nil, mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, -10, 0}, "GROUND",
		raytest.ObserverFunc(func(_ raytest.ID, hit raytest.Hit) { hits = append(hits, hit) }),
		raytest.Options{Autoremove: true, CalcPosNorm: true})

	h.frames(3)

	if len(hits) != 1 {
		t.Fatalf("Expected one hit, got %d", len(hits))
	}
	if hits[0].Body != h.scene.MustBody(ground) {
		t.Errorf("Expected ground hit, got %+v", hits[0].Body)
	}
	if !hits[0].HasPosNorm || !hits[0].Norm.ApproxEqual(mgl64.Vec3{0, 1, 0}) {
		t.Errorf("Expected up normal, got %+v", hits[0])
	}
	if h.scene.IsRayTestActive(id) {
		t.Error("Expected autoremove ray to be gone")
	}
}

func TestScene_StaticPush(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	addGround(t, h.scene)
	ball := addBall(t, h.scene, 5)
	platform := newObject("platform", 2, body.Bounding{Type: "box", HalfExtents: mgl64.Vec3{1, 0.1, 1}})
	if _, ok := h.scene.AppendObject(platform, ObjectSpec{Kind: body.Static}); !ok {
		t.Fatal("Failed to add platform")
	}

	h.frames(60)
	if y := ball.Transform().Trans[1]; math.Abs(y-2.6) > 0.1 {
		t.Fatalf("Expected ball resting on platform near 2.6, got %v", y)
	}

	// платформа уезжает из-под мяча, движок двигает ее сам
	platform.SetTransform(tsr.FromTransQuat(mgl64.Vec3{50, 2, 0}, mgl64.QuatIdent()))
	h.frames(120)

	if y := ball.Transform().Trans[1]; math.Abs(y-1.5) > 0.1 {
		t.Errorf("Expected ball on the ground after platform moved, got %v", y)
	}
}

func TestScene_ContentErrors(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	bad := newObject("bad", 0, body.Bounding{Type: "torus"})
	id, ok := h.scene.AppendObject(bad, ObjectSpec{Kind: body.Static})
	if ok || id != body.None {
		t.Errorf("Expected object to be rejected, got %d %v", id, ok)
	}
	if h.scene.RemoveObject(bad) {
		t.Error("Expected RemoveObject to ignore object without physics")
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected MustBody to panic")
		}
	}()
	h.scene.MustBody(bad)
}

func TestScene_PingAndDebug(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	h.frames(1)
	h.scene.Ping()
	h.scene.Debug()
	h.frames(2)

	tm := h.scene.Telemetry()
	if tm.Count(telemetry.EntryPing) != 1 {
		t.Errorf("Expected one pong, got %d", tm.Count(telemetry.EntryPing))
	}
	if tm.RTT() < 0 {
		t.Errorf("Expected non-negative rtt, got %v", tm.RTT())
	}
	if _, ok := tm.Stats()["bodies"]; !ok {
		t.Error("Expected debug stats from worker")
	}
}

func TestScene_PauseResume(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	ball := addBall(t, h.scene, 10)
	h.frames(5)

	// экстраполяция упирается в предел задержки и дальше не двигает тело
	h.scene.Pause()
	h.frames(15)
	y := ball.Transform().Trans[1]
	h.frames(30)
	if got := ball.Transform().Trans[1]; got != y {
		t.Errorf("Expected ball frozen while paused, moved from %v to %v", y, got)
	}

	h.scene.Resume()
	h.frames(30)
	if got := ball.Transform().Trans[1]; got >= y {
		t.Errorf("Expected ball to fall after resume, got %v", got)
	}
}

func TestScene_CloseDropsLateEvents(t *testing.T) {
	h := newHarness(t)
	ball := addBall(t, h.scene, 10)
	h.frames(5)

	if err := h.scene.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	y := ball.Transform().Trans[1]
	h.frames(5)
	if ball.Transform().Trans[1] != y {
		t.Error("Expected no updates after Close")
	}
}

func TestScene_WaterFromConfig(t *testing.T) {
	cfg := physics.DefaultConfig()
	cfg.Water = &physics.WaterConfig{Level: 0.5, WavesHeight: 0.2, WavesLength: 5, Wind: 2}
	h := newHarnessWith(t, cfg)
	defer h.scene.Close()

	if h.scene.Water() == nil || h.scene.Water().Level != 0.5 {
		t.Fatalf("Expected water from config, got %+v", h.scene.Water())
	}
	// до Loaded вода ждет Init
	h.frames(5)
	h.scene.Debug()
	h.frames(2)

	tm := h.scene.Telemetry()
	if tm.Stats()["water"] != 1 {
		t.Errorf("Expected worker to have water, got stats %v", tm.Stats())
	}
	if tm.Count(telemetry.EntryError) != 0 {
		t.Errorf("Expected no worker errors, got %d", tm.Count(telemetry.EntryError))
	}
	if h.scene.SetWater(Water{Level: 3}) {
		t.Error("Expected second water to be rejected")
	}
	if h.scene.Water().Level != 0.5 {
		t.Errorf("Expected water level kept, got %v", h.scene.Water().Level)
	}
}

func TestScene_SetWaterAfterLoad(t *testing.T) {
	h := newHarness(t)
	defer h.scene.Close()

	h.frames(2)
	h.scene.Debug()
	h.frames(2)
	if h.scene.Telemetry().Stats()["water"] != 0 {
		t.Fatal("Expected no water before SetWater")
	}

	shore := &Shoremap{SizeX: 10, SizeY: 10, MaxShoreDist: 5, ArrayWidth: 2, Distances: []float32{1, 2, 3, 4}}
	if !h.scene.SetWater(Water{Level: 1, WavesHeight: 0.1, WavesLength: 3, Wind: 1, Shore: shore}) {
		t.Fatal("Expected water to be accepted")
	}
	h.frames(2)
	h.scene.Debug()
	h.frames(2)

	tm := h.scene.Telemetry()
	if tm.Stats()["water"] != 1 {
		t.Errorf("Expected worker to have water, got stats %v", tm.Stats())
	}
	if tm.Count(telemetry.EntryError) != 0 {
		t.Errorf("Expected no worker errors, got %d", tm.Count(telemetry.EntryError))
	}
}
