package solver

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

type prop struct {
	pos    mgl64.Vec3
	radius float64
	spin   float64
}

type vehicle struct {
	car         bool
	forceMax    float64
	brakeMax    float64
	floatFactor float64

	engine   float64
	brake    float64
	steering float64

	props []prop
}

type floater struct {
	factor  float64
	linDamp float64
	rotDamp float64
	bobs    []mgl64.Vec3
	report  bool
}

type character struct {
	params  ipc.AppendCharacter
	forward int
	side    int
	speed   float64
	fly     bool
	jump    bool
	h, v    float64
}

func (c *character) setMoveType(t uint8) {
	switch t {
	case 1:
		c.fly = false
		c.speed = c.params.RunSpeed
	case 2:
		c.fly = true
		c.speed = c.params.FlySpeed
	default:
		c.fly = false
		c.speed = c.params.WalkSpeed
	}
}

func (c *character) setVelocity(mode ipc.VelocityMode, v float64) {
	switch mode {
	case ipc.VelocityRun:
		c.params.RunSpeed = v
	case ipc.VelocityFly:
		c.params.FlySpeed = v
	default:
		c.params.WalkSpeed = v
	}
	if (mode == ipc.VelocityFly) == c.fly {
		c.speed = v
	}
}

var forward = mgl64.Vec3{0, 0, 1}

// Step продвигает мир на dt и отправляет хосту события шага
func (w *World) Step(dt float64) {
	w.steps++
	bodies := w.sortedBodies()

	w.stepControllers(dt)

	for _, b := range bodies {
		if !b.dynamic() {
			continue
		}
		gravity := mgl64.Vec3{0, -b.gravity, 0}
		if c, ok := w.characters[b.id]; ok && c.fly {
			gravity = mgl64.Vec3{}
		}
		acc := gravity.Add(b.force.Mul(1 / b.mass))
		b.linVel = b.linVel.Add(acc.Mul(dt)).Mul(1 / (1 + b.linDamping*dt))
		b.angVel = b.angVel.Add(b.torque.Mul(dt / b.mass)).Mul(1 / (1 + b.angDamping*dt))
		b.force, b.torque = mgl64.Vec3{}, mgl64.Vec3{}

		next := tsr.Integrate(b.transform(), dt, b.linVel, b.angVel)
		b.trans, b.quat = next.Trans, next.Quat
	}

	w.enforceConstraints()
	w.resolveContacts(bodies)
	w.reportPairs()
	w.reportRays(bodies)
	w.reportTransforms(bodies)
	w.reportFPS()
}

func (w *World) stepControllers(dt float64) {
	for id, v := range w.vehicles {
		b, ok := w.bodies[id]
		if !ok || !b.dynamic() {
			continue
		}
		dir := b.quat.Rotate(forward)
		speed := b.linVel.Dot(dir)

		b.force = b.force.Add(dir.Mul(v.engine))
		if v.brake > 0 && speed != 0 {
			brake := math.Min(v.brake/b.mass*dt, math.Abs(speed))
			b.linVel = b.linVel.Sub(dir.Mul(math.Copysign(brake, speed)))
		}
		b.angVel[1] = v.steering * speed * 0.5

		for i := range v.props {
			if r := v.props[i].radius; r > 0 {
				v.props[i].spin += speed / r * dt
			}
		}
	}

	for id, c := range w.characters {
		b, ok := w.bodies[id]
		if !ok || !b.simulated {
			continue
		}
		b.quat = mgl64.QuatRotate(c.h, up)
		move := mgl64.Vec3{float64(c.side), 0, float64(c.forward)}
		if move.Len() > 0 {
			move = move.Normalize().Mul(c.speed)
		}
		move = b.quat.Rotate(move)
		vy := b.linVel[1]
		if c.fly {
			vy = math.Sin(c.v) * c.speed * float64(c.forward)
		}
		if c.jump {
			vy = c.params.JumpStrength
			c.jump = false
		}
		b.linVel = mgl64.Vec3{move[0], vy, move[2]}
	}

	// без воды поплавки и лодки не плавают
	if w.water == nil {
		return
	}
	for id, f := range w.floaters {
		b, ok := w.bodies[id]
		if !ok || !b.dynamic() {
			continue
		}
		depth := w.water.levelAt(b.trans) - b.trans[1]
		if depth <= 0 {
			continue
		}
		b.force = b.force.Add(up.Mul(f.factor * b.gravity * b.mass * math.Min(depth, 1)))
		b.linVel = b.linVel.Mul(1 / (1 + f.linDamp*dt))
		b.angVel = b.angVel.Mul(1 / (1 + f.rotDamp*dt))
	}
}

// enforceConstraints жестко держит A в точке связи с B
func (w *World) enforceConstraints() {
	for _, c := range w.constraints {
		a, ok := w.bodies[c.msg.BodyA]
		if !ok || !a.dynamic() {
			continue
		}
		chain := c.msg.LocalB.Multiply(c.msg.LocalA.Invert())
		if c.msg.BodyB != 0 {
			b, ok := w.bodies[c.msg.BodyB]
			if !ok {
				continue
			}
			chain = b.transform().Multiply(chain)
			a.linVel = b.linVel
		} else {
			a.linVel = mgl64.Vec3{}
		}
		a.trans, a.quat = chain.Trans, chain.Quat.Normalize()
	}
}

// resolveContacts выталкивает динамические тела из неподвижных
func (w *World) resolveContacts(bodies []*simBody) {
	for _, a := range bodies {
		if !a.dynamic() {
			continue
		}
		va, ok := a.volume()
		if !ok {
			continue
		}
		for _, b := range bodies {
			if b == a || b.dynamic() || b.ghost || b.mass > 0 {
				continue
			}
			vb, ok := b.volume()
			if !ok {
				continue
			}
			c := collide(va, vb)
			if c.dist >= 0 {
				continue
			}
			a.trans = a.trans.Add(c.norm.Mul(-c.dist))
			vn := a.linVel.Dot(c.norm)
			if vn < 0 {
				impulse := -(1 + a.restitution) * vn * a.mass
				a.linVel = a.linVel.Add(c.norm.Mul(-(1 + a.restitution) * vn))
				if w.impulse[a.id] {
					w.sink.Receive(ipc.CollisionImpulse{Body: a.id, Impulse: impulse})
				}
			}
			va, _ = a.volume()
		}
	}
}

// reportPairs отправляет результат пары только при его изменении
func (w *World) reportPairs() {
	keys := make([]ipc.Pair, 0, len(w.pairs))
	for p := range w.pairs {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})

	for _, p := range keys {
		st := w.pairs[p]
		a, okA := w.bodies[p.A]
		b, okB := w.bodies[p.B]
		if !okA || !okB {
			continue
		}
		va, okA := a.volume()
		vb, okB := b.volume()
		if !okA || !okB {
			continue
		}

		c := collide(va, vb)
		result := c.dist <= 1e-6
		if result == st.result {
			continue
		}
		st.result = result

		msg := ipc.Collision{A: p.A, B: p.B, Result: result}
		if st.calcPosNorm && result {
			msg.Contact = &ipc.Contact{Pos: c.pos, Norm: c.norm, Dist: c.dist}
		}
		w.sink.Receive(msg)
	}
}

func (w *World) reportRays(bodies []*simBody) {
	ids := make([]uint32, 0, len(w.rays))
	for id := range w.rays {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := w.now()
	for _, id := range ids {
		r := w.rays[id].msg
		from, to := r.From, r.To
		if src, ok := w.bodies[r.Body]; ok {
			if r.IgnoreSourceRotate {
				from, to = src.trans.Add(from), src.trans.Add(to)
			} else {
				t := src.transform()
				from, to = t.TransformVec3(from), t.TransformVec3(to)
			}
		}

		hits := w.castRay(bodies, r, from, to)
		if len(hits) == 0 {
			hits = []ipc.RayHit{{Test: id, Fraction: 1}}
		}
		if !r.CalcAllHits {
			hits = hits[:1]
		}
		for _, hit := range hits {
			hit.Time = now
			if !r.CalcPosNorm {
				hit.PosNorm = nil
			}
			w.sink.Receive(hit)
		}

		if r.Autoremove {
			delete(w.rays, id)
			w.sink.Receive(ipc.RayTestRemoved{Test: id})
		}
	}
}

// castRay попадания по возрастанию доли отрезка
func (w *World) castRay(bodies []*simBody, r ipc.AppendRayTest, from, to mgl64.Vec3) []ipc.RayHit {
	var hits []ipc.RayHit
	for _, b := range bodies {
		if b.id == r.Body || (r.TagNum != 0 && b.tagNum != r.TagNum) {
			continue
		}
		v, ok := b.volume()
		if !ok {
			continue
		}
		frac, pos, norm, ok := raycast(v, from, to)
		if !ok {
			continue
		}
		hits = append(hits, ipc.RayHit{
			Test:     r.Test,
			Body:     b.id,
			Fraction: frac,
			PosNorm:  &ipc.PosNorm{Pos: pos, Norm: norm},
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Fraction < hits[j].Fraction })
	return hits
}

func (w *World) reportTransforms(bodies []*simBody) {
	now := w.now()
	for _, b := range bodies {
		if !b.dynamic() {
			continue
		}
		w.sink.Receive(ipc.Transform{
			Body:   b.id,
			Time:   now,
			Trans:  b.trans,
			Quat:   b.quat,
			LinVel: b.linVel,
			AngVel: b.angVel,
		})

		if v, ok := w.vehicles[b.id]; ok {
			w.sink.Receive(ipc.VehicleSpeed{Body: b.id, Speed: b.linVel.Dot(b.quat.Rotate(forward)) * 3.6})
			for i, p := range v.props {
				w.sink.Receive(ipc.PropOffset{
					Body:  b.id,
					Prop:  i,
					Trans: p.pos,
					Quat:  mgl64.QuatRotate(p.spin, mgl64.Vec3{1, 0, 0}),
				})
			}
		}
		if f, ok := w.floaters[b.id]; ok && f.report {
			t := b.transform()
			for i, pos := range f.bobs {
				w.sink.Receive(ipc.FloaterBobTransform{Body: b.id, Bob: i, Trans: t.TransformVec3(pos), Quat: b.quat})
			}
		}
	}
}

func (w *World) reportFPS() {
	if w.fpsInterval <= 0 {
		return
	}
	w.fpsFrames++
	if elapsed := w.simTime - w.fpsStart; elapsed >= w.fpsInterval {
		w.sink.Receive(ipc.FPS{FPS: float64(w.fpsFrames) / elapsed})
		w.fpsFrames = 0
		w.fpsStart = w.simTime
	}
}
