package tsr

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform хранит перенос, равномерный масштаб и поворот объекта.
// Формат совпадает с тем, что симуляция присылает в сообщениях трансформа.
type Transform struct {
	Trans mgl64.Vec3 `msgpack:"t"`
	Scale float64    `msgpack:"s"`
	Quat  mgl64.Quat `msgpack:"q"`
}

// Identity возвращает единичный трансформ
func Identity() Transform {
	return Transform{Scale: 1, Quat: mgl64.QuatIdent()}
}

// New собирает трансформ из отдельных компонент
func New(trans mgl64.Vec3, scale float64, quat mgl64.Quat) Transform {
	return Transform{Trans: trans, Scale: scale, Quat: quat}
}

// FromTransQuat собирает трансформ с единичным масштабом
func FromTransQuat(trans mgl64.Vec3, quat mgl64.Quat) Transform {
	return Transform{Trans: trans, Scale: 1, Quat: quat}
}

// Multiply возвращает t*o: сначала применяется o, затем t.
func (t Transform) Multiply(o Transform) Transform {
	return Transform{
		Trans: t.Trans.Add(t.Quat.Rotate(o.Trans.Mul(t.Scale))),
		Scale: t.Scale * o.Scale,
		Quat:  t.Quat.Mul(o.Quat),
	}
}

// Invert возвращает обратный трансформ
func (t Transform) Invert() Transform {
	scale := 1.0
	if t.Scale != 0 {
		scale = 1 / t.Scale
	}
	quat := t.Quat.Conjugate()
	return Transform{
		Trans: quat.Rotate(t.Trans).Mul(-scale),
		Scale: scale,
		Quat:  quat,
	}
}

// TransformVec3 переводит точку из локального пространства в пространство трансформа
func (t Transform) TransformVec3(v mgl64.Vec3) mgl64.Vec3 {
	return t.Trans.Add(t.Quat.Rotate(v.Mul(t.Scale)))
}

// TransformDir поворачивает направление без переноса и масштаба
func (t Transform) TransformDir(v mgl64.Vec3) mgl64.Vec3 {
	return t.Quat.Rotate(v)
}

// Mat4 возвращает матрицу 4x4 (перенос * поворот * масштаб)
func (t Transform) Mat4() mgl64.Mat4 {
	return mgl64.Translate3D(t.Trans[0], t.Trans[1], t.Trans[2]).
		Mul4(t.Quat.Mat4()).
		Mul4(mgl64.Scale3D(t.Scale, t.Scale, t.Scale))
}

// FromMat4 раскладывает матрицу без сдвига на перенос, масштаб и поворот.
// Масштаб предполагается равномерным.
func FromMat4(m mgl64.Mat4) Transform {
	trans := m.Col(3).Vec3()
	scale := m.Col(0).Vec3().Len()
	rot := m.Mat3()
	if scale != 0 {
		rot = rot.Mul(1 / scale)
	}
	return Transform{Trans: trans, Scale: scale, Quat: mgl64.Mat4ToQuat(rot.Mat4()).Normalize()}
}

// Equal сравнивает трансформы побитово
func (t Transform) Equal(o Transform) bool {
	return t.Trans == o.Trans && t.Scale == o.Scale && t.Quat == o.Quat
}

// ApproxEqual сравнивает трансформы с допуском eps
func (t Transform) ApproxEqual(o Transform, eps float64) bool {
	return t.Trans.ApproxEqualThreshold(o.Trans, eps) &&
		math.Abs(t.Scale-o.Scale) <= eps &&
		t.Quat.ApproxEqualThreshold(o.Quat, eps)
}

// Integrate продвигает трансформ на dt секунд по линейной и угловой скорости.
// Нулевая скорость оставляет соответствующую компоненту без изменений,
// поэтому покоящееся тело всегда возвращает свой трансформ побитово.
func Integrate(t Transform, dt float64, linVel, angVel mgl64.Vec3) Transform {
	out := t
	if linVel != (mgl64.Vec3{}) {
		out.Trans = t.Trans.Add(linVel.Mul(dt))
	}
	if angVel != (mgl64.Vec3{}) {
		speed := angVel.Len()
		dq := mgl64.QuatRotate(speed*dt, angVel.Mul(1/speed))
		out.Quat = dq.Mul(t.Quat).Normalize()
	}
	return out
}
