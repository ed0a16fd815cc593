package ipc

// Handler обрабатывает все входящие сообщения одного канала.
// Каждый входящий вариант обязан иметь свой метод: добавление нового
// варианта без метода не соберется.
type Handler interface {
	HandleLoaded(Loaded)
	HandleTransform(Transform)
	HandlePropOffset(PropOffset)
	HandleFloaterBobTransform(FloaterBobTransform)
	HandleVehicleSpeed(VehicleSpeed)
	HandleCollision(Collision)
	HandleCollisionImpulse(CollisionImpulse)
	HandleRayHit(RayHit)
	HandleRayTestRemoved(RayTestRemoved)
	HandleLog(Log)
	HandleError(Error)
	HandleFPS(FPS)
	HandlePong(Pong)
	HandleDebugStats(DebugStats)
}

// Dispatch передает сообщение соответствующему методу обработчика
func Dispatch(h Handler, msg Inbound) {
	msg.dispatch(h)
}

func (m Loaded) dispatch(h Handler)              { h.HandleLoaded(m) }
func (m Transform) dispatch(h Handler)           { h.HandleTransform(m) }
func (m PropOffset) dispatch(h Handler)          { h.HandlePropOffset(m) }
func (m FloaterBobTransform) dispatch(h Handler) { h.HandleFloaterBobTransform(m) }
func (m VehicleSpeed) dispatch(h Handler)        { h.HandleVehicleSpeed(m) }
func (m Collision) dispatch(h Handler)           { h.HandleCollision(m) }
func (m CollisionImpulse) dispatch(h Handler)    { h.HandleCollisionImpulse(m) }
func (m RayHit) dispatch(h Handler)              { h.HandleRayHit(m) }
func (m RayTestRemoved) dispatch(h Handler)      { h.HandleRayTestRemoved(m) }
func (m Log) dispatch(h Handler)                 { h.HandleLog(m) }
func (m Error) dispatch(h Handler)               { h.HandleError(m) }
func (m FPS) dispatch(h Handler)                 { h.HandleFPS(m) }
func (m Pong) dispatch(h Handler)                { h.HandlePong(m) }
func (m DebugStats) dispatch(h Handler)          { h.HandleDebugStats(m) }
