package solver

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/ipc"
)

// volume упрощенный объем тела в мире: сфера или AABB
type volume struct {
	sphere   bool
	center   mgl64.Vec3
	radius   float64
	min, max mgl64.Vec3
}

// contact точка на B, нормаль B в сторону A и расстояние (отрицательное при проникновении)
type contact struct {
	pos  mgl64.Vec3
	norm mgl64.Vec3
	dist float64
}

var up = mgl64.Vec3{0, 1, 0}

// worldVolume строит объем формы с учетом трансформа. Повернутые боксы
// заменяются описывающим AABB, цилиндры, конусы и капсулы считаются боксами.
func worldVolume(s ipc.Shape, trans mgl64.Vec3, quat mgl64.Quat) (volume, bool) {
	center := trans.Add(quat.Rotate(s.Center))
	switch s.Type {
	case ipc.ShapeSphere:
		return volume{sphere: true, center: center, radius: s.Radius}, true
	case ipc.ShapeBox:
		return aabb(center, quat, s.Extents), true
	case ipc.ShapeCylinder, ipc.ShapeCone, ipc.ShapeCapsule:
		half := mgl64.Vec3{s.Radius, s.Height / 2, s.Radius}
		return aabb(center, quat, half), true
	case ipc.ShapeMesh:
		return meshVolume(s, trans, quat)
	}
	return volume{}, false
}

func aabb(center mgl64.Vec3, quat mgl64.Quat, half mgl64.Vec3) volume {
	m := quat.Mat4().Mat3()
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ext[i] += math.Abs(m.At(i, j)) * half[j]
		}
	}
	return volume{center: center, min: center.Sub(ext), max: center.Add(ext)}
}

func meshVolume(s ipc.Shape, trans mgl64.Vec3, quat mgl64.Quat) (volume, bool) {
	if len(s.Positions) < 3 {
		return volume{}, false
	}
	inf := math.Inf(1)
	lo := mgl64.Vec3{inf, inf, inf}
	hi := lo.Mul(-1)
	for i := 0; i+2 < len(s.Positions); i += 3 {
		p := mgl64.Vec3{float64(s.Positions[i]), float64(s.Positions[i+1]), float64(s.Positions[i+2])}
		p = trans.Add(quat.Rotate(p))
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}
	return volume{center: lo.Add(hi).Mul(0.5), min: lo, max: hi}, true
}

func (v volume) closest(p mgl64.Vec3) mgl64.Vec3 {
	if v.sphere {
		d := p.Sub(v.center)
		if l := d.Len(); l > v.radius {
			return v.center.Add(d.Mul(v.radius / l))
		}
		return p
	}
	return mgl64.Vec3{
		math.Max(v.min[0], math.Min(p[0], v.max[0])),
		math.Max(v.min[1], math.Min(p[1], v.max[1])),
		math.Max(v.min[2], math.Min(p[2], v.max[2])),
	}
}

// collide считает контакт a с b
func collide(a, b volume) contact {
	switch {
	case a.sphere && b.sphere:
		d := a.center.Sub(b.center)
		n := direction(d)
		return contact{
			pos:  b.center.Add(n.Mul(b.radius)),
			norm: n,
			dist: d.Len() - a.radius - b.radius,
		}
	case a.sphere:
		q := b.closest(a.center)
		d := a.center.Sub(q)
		if d.Len() == 0 {
			return boxContact(a.asBox(), b)
		}
		return contact{pos: q, norm: direction(d), dist: d.Len() - a.radius}
	case b.sphere:
		q := a.closest(b.center)
		d := q.Sub(b.center)
		if d.Len() == 0 {
			return boxContact(a, b.asBox())
		}
		n := direction(d)
		return contact{pos: b.center.Add(n.Mul(b.radius)), norm: n, dist: d.Len() - b.radius}
	}
	return boxContact(a, b)
}

func (v volume) asBox() volume {
	if !v.sphere {
		return v
	}
	r := mgl64.Vec3{v.radius, v.radius, v.radius}
	return volume{center: v.center, min: v.center.Sub(r), max: v.center.Add(r)}
}

// boxContact ось наименьшего проникновения двух AABB
func boxContact(a, b volume) contact {
	best := contact{dist: math.Inf(-1)}
	for axis := 0; axis < 3; axis++ {
		// положительное значение = зазор по оси
		gapLow := b.min[axis] - a.max[axis]
		gapHigh := a.min[axis] - b.max[axis]

		var n mgl64.Vec3
		gap := gapHigh
		n[axis] = 1
		if gapLow > gapHigh {
			gap = gapLow
			n[axis] = -1
		}
		if gap > best.dist {
			best.dist = gap
			best.norm = n
		}
	}

	pos := b.closest(a.center)
	for axis := 0; axis < 3; axis++ {
		switch best.norm[axis] {
		case 1:
			pos[axis] = b.max[axis]
		case -1:
			pos[axis] = b.min[axis]
		}
	}
	best.pos = pos
	return best
}

func direction(d mgl64.Vec3) mgl64.Vec3 {
	if l := d.Len(); l > 1e-12 {
		return d.Mul(1 / l)
	}
	return up
}

// raycast пересечение отрезка from-to с объемом. frac в [0,1].
func raycast(v volume, from, to mgl64.Vec3) (frac float64, pos, norm mgl64.Vec3, ok bool) {
	dir := to.Sub(from)
	if v.sphere {
		return raySphere(v, from, dir)
	}
	return rayBox(v, from, dir)
}

func raySphere(v volume, from, dir mgl64.Vec3) (float64, mgl64.Vec3, mgl64.Vec3, bool) {
	oc := from.Sub(v.center)
	a := dir.Dot(dir)
	if a == 0 {
		return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	b := 2 * oc.Dot(dir)
	c := oc.Dot(oc) - v.radius*v.radius
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	if t < 0 {
		// начало внутри сферы
		if c <= 0 {
			t = 0
		} else {
			return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
		}
	}
	if t > 1 {
		return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	pos := from.Add(dir.Mul(t))
	return t, pos, direction(pos.Sub(v.center)), true
}

func rayBox(v volume, from, dir mgl64.Vec3) (float64, mgl64.Vec3, mgl64.Vec3, bool) {
	tmin, tmax := 0.0, 1.0
	var norm mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		if math.Abs(dir[axis]) < 1e-12 {
			if from[axis] < v.min[axis] || from[axis] > v.max[axis] {
				return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (v.min[axis] - from[axis]) * inv
		t2 := (v.max[axis] - from[axis]) * inv
		sign := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tmin {
			tmin = t1
			norm = mgl64.Vec3{}
			norm[axis] = sign
		}
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, mgl64.Vec3{}, mgl64.Vec3{}, false
		}
	}
	if norm == (mgl64.Vec3{}) {
		norm = direction(dir.Mul(-1))
	}
	return tmin, from.Add(dir.Mul(tmin)), norm, true
}
