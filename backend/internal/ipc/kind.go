package ipc

import "fmt"

// Kind числовой идентификатор сообщения на проводе.
// Входящие (от симуляции) занимают 0..99, исходящие начинаются с 100.
type Kind uint8

// Входящие сообщения
const (
	KindLoaded Kind = iota
	KindCollision
	KindCollisionPosNorm
	KindCollisionImpulse
	KindError
	KindFallbackMsg
	KindFloaterBobTransform
	KindLog
	KindPropOffset
	KindRayHit
	KindRayHitPosNorm
	KindRayTestRemoved
	KindTransform
	KindVehicleSpeed
	KindPong
	KindFPS
	KindDebugStats
)

// Исходящие сообщения
const (
	KindInit Kind = iota + 100
	KindActivate
	KindAddBoatBob
	KindAddCarWheel
	KindAddFloaterBob
	KindAppendBody
	KindAppendBoat
	KindAppendCar
	KindAppendCharacter
	KindAppendCollisionTest
	KindAppendConstraint
	KindAppendFloater
	KindRemoveBody
	KindApplyCentralForce
	KindApplyCollisionImpulseTest
	KindApplyTorque
	KindCharacterJump
	KindCharacterRotationInc
	KindClearCollisionImpulseTest
	KindDisableSimulation
	KindEnableSimulation
	KindPause
	KindAppendRayTest
	KindRemoveRayTest
	KindChangeRayTestFromTo
	KindRemoveCollisionTest
	KindRemoveConstraint
	KindResume
	KindCharacterMoveDir
	KindCharacterMoveType
	KindCharacterWalkVelocity
	KindCharacterRunVelocity
	KindCharacterFlyVelocity
	KindCharacterRotation
	KindSetGravity
	KindSetLinearVelocity
	KindSetTransform
	KindUpdateBoatControls
	KindUpdateCarControls
	KindUpdateWorld
	KindPing
	KindDebug
	KindAppendWater
	KindAddWaterWrapper
	KindSetWaterTime
)

var kindNames = map[Kind]string{
	KindLoaded:                    "Loaded",
	KindCollision:                 "Collision",
	KindCollisionPosNorm:          "CollisionPosNorm",
	KindCollisionImpulse:          "CollisionImpulse",
	KindError:                     "Error",
	KindFallbackMsg:               "FallbackMsg",
	KindFloaterBobTransform:       "FloaterBobTransform",
	KindLog:                       "Log",
	KindPropOffset:                "PropOffset",
	KindRayHit:                    "RayHit",
	KindRayHitPosNorm:             "RayHitPosNorm",
	KindRayTestRemoved:            "RayTestRemoved",
	KindTransform:                 "Transform",
	KindVehicleSpeed:              "VehicleSpeed",
	KindPong:                      "Pong",
	KindFPS:                       "FPS",
	KindDebugStats:                "DebugStats",
	KindInit:                      "Init",
	KindActivate:                  "Activate",
	KindAddBoatBob:                "AddBoatBob",
	KindAddCarWheel:               "AddCarWheel",
	KindAddFloaterBob:             "AddFloaterBob",
	KindAppendBody:                "AppendBody",
	KindAppendBoat:                "AppendBoat",
	KindAppendCar:                 "AppendCar",
	KindAppendCharacter:           "AppendCharacter",
	KindAppendCollisionTest:       "AppendCollisionTest",
	KindAppendConstraint:          "AppendConstraint",
	KindAppendFloater:             "AppendFloater",
	KindRemoveBody:                "RemoveBody",
	KindApplyCentralForce:         "ApplyCentralForce",
	KindApplyCollisionImpulseTest: "ApplyCollisionImpulseTest",
	KindApplyTorque:               "ApplyTorque",
	KindCharacterJump:             "CharacterJump",
	KindCharacterRotationInc:      "CharacterRotationInc",
	KindClearCollisionImpulseTest: "ClearCollisionImpulseTest",
	KindDisableSimulation:         "DisableSimulation",
	KindEnableSimulation:          "EnableSimulation",
	KindPause:                     "Pause",
	KindAppendRayTest:             "AppendRayTest",
	KindRemoveRayTest:             "RemoveRayTest",
	KindChangeRayTestFromTo:       "ChangeRayTestFromTo",
	KindRemoveCollisionTest:       "RemoveCollisionTest",
	KindRemoveConstraint:          "RemoveConstraint",
	KindResume:                    "Resume",
	KindCharacterMoveDir:          "CharacterMoveDir",
	KindCharacterMoveType:         "CharacterMoveType",
	KindCharacterWalkVelocity:     "CharacterWalkVelocity",
	KindCharacterRunVelocity:      "CharacterRunVelocity",
	KindCharacterFlyVelocity:      "CharacterFlyVelocity",
	KindCharacterRotation:         "CharacterRotation",
	KindSetGravity:                "SetGravity",
	KindSetLinearVelocity:         "SetLinearVelocity",
	KindSetTransform:              "SetTransform",
	KindUpdateBoatControls:        "UpdateBoatControls",
	KindUpdateCarControls:         "UpdateCarControls",
	KindUpdateWorld:               "UpdateWorld",
	KindPing:                      "Ping",
	KindDebug:                     "Debug",
	KindAppendWater:               "AppendWater",
	KindAddWaterWrapper:           "AddWaterWrapper",
	KindSetWaterTime:              "SetWaterTime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Inbound сообщает, идет ли сообщение этого вида от симуляции к хосту
func (k Kind) Inbound() bool {
	return k < 100
}
