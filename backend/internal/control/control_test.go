package control

import (
	"log"
	"math"
	"os"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/interp"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

type testObject struct {
	name string
	t    tsr.Transform
}

func (o *testObject) Name() string                 { return o.name }
func (o *testObject) Transform() tsr.Transform     { return o.t }
func (o *testObject) SetTransform(t tsr.Transform) { o.t = t }

type mockPoster struct {
	msgs []ipc.Outbound
}

func (p *mockPoster) Post(msg ipc.Outbound) { p.msgs = append(p.msgs, msg) }

func (p *mockPoster) last() ipc.Outbound {
	if len(p.msgs) == 0 {
		return nil
	}
	return p.msgs[len(p.msgs)-1]
}

func newTestController() (*body.Registry, *Controller, *mockPoster) {
	logger := log.New(os.Stdout, "[TEST] ", log.LstdFlags)
	reg := body.NewRegistry(logger)
	post := &mockPoster{}
	return reg, New(reg, post, logger), post
}

func TestVehicle_FullSnapshot(t *testing.T) {
	reg, c, post := newTestController()
	chassis := reg.Create(body.Descriptor{Kind: body.Vehicle, Mass: 800}, &testObject{name: "car", t: tsr.Identity()})

	v := c.AppendVehicle(chassis, VehicleParams{
		Type:          Car,
		ForceMax:      1000,
		BrakeMax:      50,
		SteeringMax:   0.25,
		SteeringRatio: 10,
	}, []Prop{
		{Offset: tsr.FromTransQuat(mgl64.Vec3{1, 0, 1}, mgl64.QuatIdent()), Radius: 0.3, Front: true},
		{Offset: tsr.FromTransQuat(mgl64.Vec3{-1, 0, 1}, mgl64.QuatIdent()), Radius: 0.3, Front: true},
	}, nil, nil, nil)

	if len(post.msgs) != 3 {
		t.Fatalf("Expected AppendCar + 2 wheels, got %d messages", len(post.msgs))
	}
	if _, ok := post.msgs[0].(ipc.AppendCar); !ok {
		t.Errorf("Expected AppendCar first, got %s", post.msgs[0].Kind())
	}

	v.Throttle(0.5)
	v.Brake(0.2)
	v.Steer(1)

	ctl, ok := post.last().(ipc.UpdateCarControls)
	if !ok {
		t.Fatalf("Expected UpdateCarControls, got %+v", post.last())
	}
	// рулевое управление не стирает тягу и тормоз
	if ctl.Engine != 500 || ctl.Brake != 10 {
		t.Errorf("Expected engine 500 and brake 10 in snapshot, got %+v", ctl)
	}
	if want := -0.25 * 2 * math.Pi / 10; math.Abs(ctl.Steering-want) > 1e-12 {
		t.Errorf("Expected steering %v, got %v", want, ctl.Steering)
	}

	v.Params.InverseControl = true
	v.Steer(1)
	if ctl := post.last().(ipc.UpdateCarControls); ctl.Steering <= 0 {
		t.Errorf("Inverse control must flip steering, got %v", ctl.Steering)
	}
}

func TestVehicle_BoatMessages(t *testing.T) {
	reg, c, post := newTestController()
	hull := reg.Create(body.Descriptor{Kind: body.Vehicle, Mass: 300}, &testObject{name: "boat", t: tsr.Identity()})

	v := c.AppendVehicle(hull, VehicleParams{Type: Boat, ForceMax: 10, SteeringRatio: 1},
		[]Prop{{Offset: tsr.Identity()}}, nil, nil, nil)
	v.Throttle(1)

	if _, ok := post.msgs[0].(ipc.AppendBoat); !ok {
		t.Errorf("Expected AppendBoat, got %s", post.msgs[0].Kind())
	}
	if _, ok := post.msgs[1].(ipc.AddBoatBob); !ok {
		t.Errorf("Expected AddBoatBob, got %s", post.msgs[1].Kind())
	}
	if ctl, ok := post.last().(ipc.UpdateBoatControls); !ok || ctl.Engine != 10 {
		t.Errorf("Expected boat controls, got %+v", post.last())
	}
}

func TestVehicle_DerivedTransforms(t *testing.T) {
	reg, c, _ := newTestController()
	chassisObj := &testObject{name: "car", t: tsr.FromTransQuat(mgl64.Vec3{10, 0, 0}, mgl64.QuatIdent())}
	chassis := reg.Create(body.Descriptor{Kind: body.Vehicle, Mass: 800}, chassisObj)

	wheel := &testObject{name: "wheel"}
	needle := &testObject{name: "needle"}
	tach := &testObject{name: "tach"}

	c.AppendVehicle(chassis, VehicleParams{
		Type:           Car,
		SteeringRatio:  1,
		SpeedRatio:     0.1,
		MaxSpeedAngle:  2,
		DeltaTachAngle: 0.5,
	}, []Prop{{Object: wheel, Offset: tsr.FromTransQuat(mgl64.Vec3{1, 0, 0}, mgl64.QuatIdent())}},
		nil,
		&Gauge{Object: needle, Local: tsr.Identity(), Axis: mgl64.Vec3{0, 0, 1}},
		&Gauge{Object: tach, Local: tsr.Identity(), Axis: mgl64.Vec3{0, 0, 1}},
	)

	c.HandleVehicleSpeed(ipc.VehicleSpeed{Body: uint32(chassis.ID), Speed: -100})
	c.HandlePropOffset(ipc.PropOffset{Body: uint32(chassis.ID), Prop: 0, Trans: mgl64.Vec3{1, -0.1, 0}, Quat: mgl64.QuatIdent()})
	v, _ := c.Vehicle(chassis.ID)
	v.Throttle(-2)

	c.UpdateDerived(chassis)

	if !wheel.t.Trans.ApproxEqual(mgl64.Vec3{11, -0.1, 0}) {
		t.Errorf("Expected wheel at chassis*offset, got %v", wheel.t.Trans)
	}
	// скорость 100 * 0.1 = 10, ограничено 2
	want := mgl64.QuatRotate(-2, mgl64.Vec3{0, 0, 1})
	if !needle.t.Quat.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Expected speedometer clamped to max angle, got %v", needle.t.Quat)
	}
	want = mgl64.QuatRotate(-1, mgl64.Vec3{0, 0, 1})
	if !tach.t.Quat.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Expected tachometer angle 1, got %v", tach.t.Quat)
	}
}

func TestConstraint_ApplyAndPull(t *testing.T) {
	reg, c, post := newTestController()
	objA := &testObject{name: "a", t: tsr.FromTransQuat(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent())}
	objB := &testObject{name: "b", t: tsr.FromTransQuat(mgl64.Vec3{3, 0, 0}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0}))}
	a := reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1}, objA)
	b := reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1}, objB)

	localA := tsr.FromTransQuat(mgl64.Vec3{0, -1, 0}, mgl64.QuatIdent())
	cons := c.ApplyConstraint("GENERIC_6_DOF", a, localA, b, Limits{}, nil, nil)

	if cons.ID != "1" || a.ConstraintID != "1" {
		t.Errorf("Unexpected constraint id %q / %q", cons.ID, a.ConstraintID)
	}
	// точка связи в мире совпадает с обеих сторон
	pivotA := objA.t.Multiply(cons.LocalA)
	pivotB := objB.t.Multiply(cons.LocalB)
	if !pivotA.ApproxEqual(pivotB, 1e-9) {
		t.Fatalf("Pivot mismatch: %+v vs %+v", pivotA, pivotB)
	}

	// B уехал; A подтягивается к точке связи
	before := objA.t
	objB.t = tsr.FromTransQuat(mgl64.Vec3{-5, 1, 2}, mgl64.QuatRotate(0.3, mgl64.Vec3{1, 0, 0}))
	if !c.PullToPivot(a) {
		t.Fatal("Expected pull to succeed")
	}
	pivotA = objA.t.Multiply(cons.LocalA)
	pivotB = objB.t.Multiply(cons.LocalB)
	if !pivotA.ApproxEqual(pivotB, 1e-9) {
		t.Errorf("Pivot mismatch after pull: %+v vs %+v", pivotA, pivotB)
	}
	if objA.t.ApproxEqual(before, 1e-9) {
		t.Error("Expected A to move")
	}
	if set, ok := post.last().(ipc.SetTransform); !ok || set.Body != uint32(a.ID) {
		t.Errorf("Expected SetTransform for A, got %+v", post.last())
	}

	// удаление цели снимает связь
	post.msgs = nil
	reg.Remove(b.ID)
	if a.ConstraintID != "" {
		t.Error("Expected constraint cleared on target removal")
	}
	if _, ok := post.last().(ipc.RemoveConstraint); !ok {
		t.Errorf("Expected RemoveConstraint, got %+v", post.msgs)
	}
	if c.PullToPivot(a) {
		t.Error("Pull without constraint must fail")
	}
}

func TestForces_LocalToWorldAndSimulationToggle(t *testing.T) {
	reg, c, post := newTestController()
	obj := &testObject{name: "a", t: tsr.FromTransQuat(mgl64.Vec3{}, mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1}))}
	b := reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1}, obj)

	c.ApplyForce(b, mgl64.Vec3{1, 0, 0})
	f := post.last().(ipc.ApplyCentralForce)
	if !f.Force.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("Expected force rotated to +Y, got %v", f.Force)
	}

	post.msgs = nil
	c.EnableSimulation(b)
	c.DisableSimulation(b)
	c.DisableSimulation(b)
	c.EnableSimulation(b)
	if len(post.msgs) != 2 {
		t.Errorf("Expected 2 toggles, got %d", len(post.msgs))
	}
	if !b.Simulated {
		t.Error("Expected body simulated again")
	}
}

func TestCharacter_Commands(t *testing.T) {
	reg, c, post := newTestController()
	b := reg.Create(body.Descriptor{Kind: body.Character, Mass: 70}, &testObject{name: "hero", t: tsr.Identity()})

	ch := c.AppendCharacter(b, CharacterParams{Height: 1.8, WalkSpeed: 4})
	ch.SetMoveDir(1, 0)
	ch.SetRunVelocity(8)
	ch.Jump()
	ch.RotationInc(0.1, 0)

	kinds := []ipc.Kind{ipc.KindAppendCharacter, ipc.KindCharacterMoveDir, ipc.KindCharacterRunVelocity,
		ipc.KindCharacterJump, ipc.KindCharacterRotationInc}
	if len(post.msgs) != len(kinds) {
		t.Fatalf("Expected %d messages, got %d", len(kinds), len(post.msgs))
	}
	for i, k := range kinds {
		if post.msgs[i].Kind() != k {
			t.Errorf("Message %d: expected %s, got %s", i, k, post.msgs[i].Kind())
		}
	}

	reg.Remove(b.ID)
	if _, ok := c.Character(b.ID); ok {
		t.Error("Expected character dropped with its body")
	}
}

func TestFloater_BobTransforms(t *testing.T) {
	reg, c, _ := newTestController()
	b := reg.Create(body.Descriptor{Kind: body.Floater, Mass: 5}, &testObject{name: "buoy", t: tsr.Identity()})
	bob := &testObject{name: "bob"}

	c.AppendFloater(b, FloaterParams{FloatFactor: 1}, []Bob{{Object: bob, Pos: mgl64.Vec3{0, -1, 0}}})
	c.HandleBobTransform(ipc.FloaterBobTransform{Body: uint32(b.ID), Bob: 0, Trans: mgl64.Vec3{0, 0.5, 0}, Quat: mgl64.QuatIdent()})
	c.HandleBobTransform(ipc.FloaterBobTransform{Body: uint32(b.ID), Bob: 7})

	if bob.t.Trans != (mgl64.Vec3{0, 0.5, 0}) {
		t.Errorf("Expected bob moved, got %v", bob.t.Trans)
	}
}

func TestConstraint_PullSurvivesNextFrame(t *testing.T) {
	reg, c, post := newTestController()
	objA := &testObject{name: "a", t: tsr.FromTransQuat(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent())}
	objB := &testObject{name: "b", t: tsr.FromTransQuat(mgl64.Vec3{3, 0, 0}, mgl64.QuatIdent())}
	a := reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1}, objA)
	reg.Create(body.Descriptor{Kind: body.Rigid, Mass: 1}, objB)
	a.State = body.State{Transform: objA.t, Time: 1}

	bBody, _ := reg.ByObject(objB)
	c.ApplyConstraint("GENERIC_6_DOF", a, tsr.FromTransQuat(mgl64.Vec3{0, -1, 0}, mgl64.QuatIdent()), bBody, Limits{}, nil, nil)

	objB.t = tsr.FromTransQuat(mgl64.Vec3{-5, 1, 2}, mgl64.QuatIdent())
	if !c.PullToPivot(a) {
		t.Fatal("Expected pull to succeed")
	}
	pulled := objA.t
	if a.State.Time != 1 {
		t.Errorf("Expected state time 1 to be kept, got %v", a.State.Time)
	}

	// следующий кадр экстраполирует от нового положения
	interp.New(60, false).Update(reg.Bodies(), 1.5, post, c)
	if !objA.t.ApproxEqual(pulled, 1e-9) {
		t.Errorf("Expected A to stay at %v, got %v", pulled.Trans, objA.t.Trans)
	}
}
