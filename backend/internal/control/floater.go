package control

import (
	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// FloaterParams параметры плавучести
type FloaterParams struct {
	FloatFactor  float64
	WaterLinDamp float64
	WaterRotDamp float64
}

// Bob точка плавучести
type Bob struct {
	Object body.Object
	Pos    mgl64.Vec3
}

// Floater тело на воде с набором точек плавучести
type Floater struct {
	Body   *body.Body
	Params FloaterParams
	Bobs   []Bob
}

// AppendFloater регистрирует поплавок
func (c *Controller) AppendFloater(b *body.Body, params FloaterParams, bobs []Bob) *Floater {
	f := &Floater{Body: b, Params: params, Bobs: bobs}
	c.floaters[b.ID] = f

	id := uint32(b.ID)
	c.post.Post(ipc.AppendFloater{
		Body:         id,
		FloatFactor:  params.FloatFactor,
		WaterLinDamp: params.WaterLinDamp,
		WaterRotDamp: params.WaterRotDamp,
	})
	for i, bob := range bobs {
		c.post.Post(ipc.AddFloaterBob{Body: id, Index: i, Pos: bob.Pos})
	}
	return f
}

// HandleBobTransform переносит трансформ точки плавучести на ее объект
func (c *Controller) HandleBobTransform(msg ipc.FloaterBobTransform) {
	f, ok := c.floaters[body.ID(msg.Body)]
	if !ok || msg.Bob < 0 || msg.Bob >= len(f.Bobs) {
		return
	}
	if obj := f.Bobs[msg.Bob].Object; obj != nil {
		obj.SetTransform(tsr.FromTransQuat(msg.Trans, msg.Quat))
	}
}

// HandleVehicleSpeed телеметрия скорости
func (c *Controller) HandleVehicleSpeed(msg ipc.VehicleSpeed) {
	if v, ok := c.vehicles[body.ID(msg.Body)]; ok {
		v.SetSpeed(msg.Speed)
	}
}

// HandlePropOffset телеметрия колеса
func (c *Controller) HandlePropOffset(msg ipc.PropOffset) {
	if v, ok := c.vehicles[body.ID(msg.Body)]; ok {
		v.SetPropOffset(msg.Prop, msg.Trans, msg.Quat)
	}
}
