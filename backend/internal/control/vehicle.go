package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// VehicleType машина или лодка
type VehicleType uint8

const (
	Car VehicleType = iota
	Boat
)

// VehicleParams параметры транспорта
type VehicleParams struct {
	Type VehicleType

	ForceMax       float64
	BrakeMax       float64
	SteeringMax    float64 // доля полного оборота руля
	SteeringRatio  float64
	InverseControl bool

	// машина
	SuspCompression float64
	SuspStiffness   float64
	SuspDamping     float64
	WheelFriction   float64
	RollInfluence   float64
	MaxSuspTravelCm float64

	// лодка
	FloatFactor  float64
	WaterLinDamp float64
	WaterRotDamp float64

	// приборы
	SpeedRatio     float64
	MaxSpeedAngle  float64
	DeltaTachAngle float64
}

// Prop колесо машины или опорная точка лодки
type Prop struct {
	Object body.Object
	// Offset положение относительно корпуса
	Offset tsr.Transform
	Radius float64
	Front  bool
}

// Gauge руль или стрелка прибора
type Gauge struct {
	Object body.Object
	// Local положение относительно корпуса
	Local tsr.Transform
	// Axis ось вращения в системе корпуса
	Axis mgl64.Vec3
}

// Vehicle состояние управления транспортом
type Vehicle struct {
	Body   *body.Body
	Params VehicleParams

	Props         []Prop
	SteeringWheel *Gauge
	Speedometer   *Gauge
	Tachometer    *Gauge

	propOffsets []tsr.Transform

	engineForce float64
	brakeForce  float64
	steering    float64
	speed       float64

	post Poster
}

// AppendVehicle регистрирует корпус и его колеса/опоры в симуляции
func (c *Controller) AppendVehicle(b *body.Body, params VehicleParams, props []Prop, stw, speedometer, tachometer *Gauge) *Vehicle {
	v := &Vehicle{
		Body:          b,
		Params:        params,
		Props:         props,
		SteeringWheel: stw,
		Speedometer:   speedometer,
		Tachometer:    tachometer,
		propOffsets:   make([]tsr.Transform, len(props)),
		post:          c.post,
	}
	for i, p := range props {
		v.propOffsets[i] = p.Offset
	}
	c.vehicles[b.ID] = v

	id := uint32(b.ID)
	switch params.Type {
	case Car:
		c.post.Post(ipc.AppendCar{
			Body:            id,
			ForceMax:        params.ForceMax,
			BrakeMax:        params.BrakeMax,
			SuspCompression: params.SuspCompression,
			SuspStiffness:   params.SuspStiffness,
			SuspDamping:     params.SuspDamping,
			WheelFriction:   params.WheelFriction,
			RollInfluence:   params.RollInfluence,
			MaxSuspTravelCm: params.MaxSuspTravelCm,
		})
		for i, p := range props {
			c.post.Post(ipc.AddCarWheel{Body: id, Index: i, Pos: p.Offset.Trans, Radius: p.Radius, Front: p.Front})
		}
	case Boat:
		c.post.Post(ipc.AppendBoat{
			Body:         id,
			FloatFactor:  params.FloatFactor,
			WaterLinDamp: params.WaterLinDamp,
			WaterRotDamp: params.WaterRotDamp,
		})
		for i, p := range props {
			c.post.Post(ipc.AddBoatBob{Body: id, Index: i, Pos: p.Offset.Trans})
		}
	}

	c.logger.Printf("[Controller] vehicle %d registered with %d props", b.ID, len(props))
	return v
}

// Vehicle контроллер транспорта тела
func (c *Controller) Vehicle(id body.ID) (*Vehicle, bool) {
	v, ok := c.vehicles[id]
	return v, ok
}

// Throttle задает тягу в долях от максимальной
func (v *Vehicle) Throttle(force float64) {
	v.engineForce = force
	v.sendControls()
}

// Brake задает торможение в долях от максимального
func (v *Vehicle) Brake(force float64) {
	v.brakeForce = force
	v.sendControls()
}

// Steer задает поворот руля в долях от максимального
func (v *Vehicle) Steer(steering float64) {
	v.steering = steering
	v.sendControls()
}

// Speed последняя скорость, полученная от симуляции
func (v *Vehicle) Speed() float64 {
	return v.speed
}

// EngineForce текущая тяга в долях
func (v *Vehicle) EngineForce() float64 {
	return v.engineForce
}

// SetSpeed телеметрия скорости от симуляции
func (v *Vehicle) SetSpeed(speed float64) {
	v.speed = speed
}

// SetPropOffset телеметрия положения колеса относительно корпуса
func (v *Vehicle) SetPropOffset(i int, trans mgl64.Vec3, quat mgl64.Quat) {
	if i < 0 || i >= len(v.propOffsets) {
		return
	}
	v.propOffsets[i] = tsr.FromTransQuat(trans, quat)
}

// Controls снимок управления в единицах симуляции
func (v *Vehicle) Controls() (engine, brake, steering float64) {
	ratio := v.Params.SteeringRatio
	if ratio == 0 {
		ratio = 1
	}
	engine = v.engineForce * v.Params.ForceMax
	brake = v.brakeForce * v.Params.BrakeMax
	steering = -v.steering * v.Params.SteeringMax * 2 * math.Pi / ratio
	if v.Params.InverseControl {
		steering = -steering
	}
	return engine, brake, steering
}

// sendControls отправляет весь снимок: симуляция не помнит прошлые частичные обновления
func (v *Vehicle) sendControls() {
	engine, brake, steering := v.Controls()
	id := uint32(v.Body.ID)
	switch v.Params.Type {
	case Car:
		v.post.Post(ipc.UpdateCarControls{Body: id, Engine: engine, Brake: brake, Steering: steering})
	case Boat:
		v.post.Post(ipc.UpdateBoatControls{Body: id, Engine: engine, Brake: brake, Steering: steering})
	}
}

func (v *Vehicle) updateDerived() {
	if v.Body.Object == nil {
		return
	}
	chassis := v.Body.Object.Transform()

	for i, p := range v.Props {
		if p.Object != nil {
			p.Object.SetTransform(chassis.Multiply(v.propOffsets[i]))
		}
	}

	if v.SteeringWheel != nil {
		v.SteeringWheel.rotate(chassis, -v.steering*v.Params.SteeringMax*2*math.Pi)
	}
	if v.Speedometer != nil {
		angle := math.Min(math.Abs(v.speed)*v.Params.SpeedRatio, v.Params.MaxSpeedAngle)
		v.Speedometer.rotate(chassis, -angle)
	}
	if v.Tachometer != nil {
		v.Tachometer.rotate(chassis, -math.Abs(v.engineForce)*v.Params.DeltaTachAngle)
	}
}

// rotate ставит прибор на место относительно корпуса и поворачивает вокруг его оси
func (g *Gauge) rotate(chassis tsr.Transform, angle float64) {
	if g.Object == nil {
		return
	}
	world := chassis.Multiply(g.Local)
	axis := chassis.TransformDir(g.Axis)
	if axis.Len() > 0 {
		world.Quat = mgl64.QuatRotate(angle, axis.Normalize()).Mul(world.Quat)
	}
	g.Object.SetTransform(world)
}
