package scene

import (
	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

func (s *Scene) HandleLoaded(ipc.Loaded) {
	s.loaded = true
	s.channel.Post(ipc.Init{
		Epoch:       s.clock(),
		MaxFPS:      s.cfg.MaxFPS,
		FPSInterval: s.cfg.ReportInterval(),
	})
	if s.water != nil {
		s.postWater()
	}
	s.logger.Printf("[Scene] %s: physics loaded", s.name)
}

func (s *Scene) HandleTransform(msg ipc.Transform) {
	b, ok := s.bodies.Get(body.ID(msg.Body))
	if !ok {
		return
	}
	b.State = body.State{
		Transform: tsr.FromTransQuat(msg.Trans, msg.Quat),
		LinVel:    msg.LinVel,
		AngVel:    msg.AngVel,
		Time:      msg.Time,
	}
}

func (s *Scene) HandlePropOffset(msg ipc.PropOffset) { s.control.HandlePropOffset(msg) }

func (s *Scene) HandleFloaterBobTransform(msg ipc.FloaterBobTransform) {
	s.control.HandleBobTransform(msg)
}

func (s *Scene) HandleVehicleSpeed(msg ipc.VehicleSpeed) { s.control.HandleVehicleSpeed(msg) }

func (s *Scene) HandleCollision(msg ipc.Collision) { s.collisions.HandleCollision(msg) }

func (s *Scene) HandleCollisionImpulse(msg ipc.CollisionImpulse) { s.collisions.HandleImpulse(msg) }

func (s *Scene) HandleRayHit(msg ipc.RayHit) { s.rays.HandleHit(msg) }

func (s *Scene) HandleRayTestRemoved(msg ipc.RayTestRemoved) { s.rays.HandleRemoved(msg) }

func (s *Scene) HandleLog(msg ipc.Log) { s.telemetry.LogMessage(msg.Text) }

func (s *Scene) HandleError(msg ipc.Error) { s.telemetry.LogError(msg.Text) }

func (s *Scene) HandleFPS(msg ipc.FPS) { s.telemetry.LogFPS(msg.FPS) }

func (s *Scene) HandlePong(msg ipc.Pong) { s.telemetry.LogPong(msg.Sent, s.clock()) }

func (s *Scene) HandleDebugStats(msg ipc.DebugStats) { s.telemetry.LogStats(msg.Stats) }
