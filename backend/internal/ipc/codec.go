package ipc

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrUnknownKind неизвестный идентификатор сообщения на проводе
	ErrUnknownKind = errors.New("ipc: unknown message kind")
	// ErrWrongDirection сообщение пришло не с той стороны канала
	ErrWrongDirection = errors.New("ipc: message has wrong direction")
)

// envelope кадр на проводе: [kind, [поля...]]
type envelope struct {
	_msgpack struct{} `msgpack:",as_array"`
	Kind     Kind
	Body     msgpack.RawMessage
}

type decoder func([]byte) (Message, error)

func decodeAs[T Message](b []byte) (Message, error) {
	var m T
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

var decoders = map[Kind]decoder{
	KindLoaded:              decodeAs[Loaded],
	KindCollision:           decodeAs[Collision],
	KindCollisionPosNorm:    decodeAs[Collision],
	KindCollisionImpulse:    decodeAs[CollisionImpulse],
	KindError:               decodeAs[Error],
	KindFallbackMsg:         decodeAs[Log],
	KindFloaterBobTransform: decodeAs[FloaterBobTransform],
	KindLog:                 decodeAs[Log],
	KindPropOffset:          decodeAs[PropOffset],
	KindRayHit:              decodeAs[RayHit],
	KindRayHitPosNorm:       decodeAs[RayHit],
	KindRayTestRemoved:      decodeAs[RayTestRemoved],
	KindTransform:           decodeAs[Transform],
	KindVehicleSpeed:        decodeAs[VehicleSpeed],
	KindPong:                decodeAs[Pong],
	KindFPS:                 decodeAs[FPS],
	KindDebugStats:          decodeAs[DebugStats],

	KindInit:                      decodeAs[Init],
	KindActivate:                  decodeAs[Activate],
	KindAddBoatBob:                decodeAs[AddBoatBob],
	KindAddCarWheel:               decodeAs[AddCarWheel],
	KindAddFloaterBob:             decodeAs[AddFloaterBob],
	KindAppendBody:                decodeAs[AppendBody],
	KindAppendBoat:                decodeAs[AppendBoat],
	KindAppendCar:                 decodeAs[AppendCar],
	KindAppendCharacter:           decodeAs[AppendCharacter],
	KindAppendCollisionTest:       decodeAs[AppendCollisionTest],
	KindAppendConstraint:          decodeAs[AppendConstraint],
	KindAppendFloater:             decodeAs[AppendFloater],
	KindRemoveBody:                decodeAs[RemoveBody],
	KindApplyCentralForce:         decodeAs[ApplyCentralForce],
	KindApplyCollisionImpulseTest: decodeAs[ApplyCollisionImpulseTest],
	KindApplyTorque:               decodeAs[ApplyTorque],
	KindCharacterJump:             decodeAs[CharacterJump],
	KindCharacterRotationInc:      decodeAs[CharacterRotationInc],
	KindClearCollisionImpulseTest: decodeAs[ClearCollisionImpulseTest],
	KindDisableSimulation:         decodeAs[DisableSimulation],
	KindEnableSimulation:          decodeAs[EnableSimulation],
	KindPause:                     decodeAs[Pause],
	KindAppendRayTest:             decodeAs[AppendRayTest],
	KindRemoveRayTest:             decodeAs[RemoveRayTest],
	KindChangeRayTestFromTo:       decodeAs[ChangeRayTestFromTo],
	KindRemoveCollisionTest:       decodeAs[RemoveCollisionTest],
	KindRemoveConstraint:          decodeAs[RemoveConstraint],
	KindResume:                    decodeAs[Resume],
	KindCharacterMoveDir:          decodeAs[CharacterMoveDir],
	KindCharacterMoveType:         decodeAs[CharacterMoveType],
	KindCharacterWalkVelocity:     decodeAs[CharacterVelocity],
	KindCharacterRunVelocity:      decodeAs[CharacterVelocity],
	KindCharacterFlyVelocity:      decodeAs[CharacterVelocity],
	KindCharacterRotation:         decodeAs[CharacterRotation],
	KindSetGravity:                decodeAs[SetGravity],
	KindSetLinearVelocity:         decodeAs[SetLinearVelocity],
	KindSetTransform:              decodeAs[SetTransform],
	KindUpdateBoatControls:        decodeAs[UpdateBoatControls],
	KindUpdateCarControls:         decodeAs[UpdateCarControls],
	KindUpdateWorld:               decodeAs[UpdateWorld],
	KindPing:                      decodeAs[Ping],
	KindDebug:                     decodeAs[Debug],
	KindAppendWater:               decodeAs[AppendWater],
	KindAddWaterWrapper:           decodeAs[AddWaterWrapper],
	KindSetWaterTime:              decodeAs[SetWaterTime],
}

// Encode кодирует пачку сообщений в один бинарный кадр
func Encode[M Message](batch []M) ([]byte, error) {
	frame := make([]envelope, 0, len(batch))
	for _, msg := range batch {
		body, err := msgpack.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
		}
		frame = append(frame, envelope{Kind: msg.Kind(), Body: body})
	}
	return msgpack.Marshal(frame)
}

// Decode разбирает кадр, закодированный Encode
func Decode(data []byte) ([]Message, error) {
	var frame []envelope
	if err := msgpack.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	out := make([]Message, 0, len(frame))
	for _, env := range frame {
		dec, ok := decoders[env.Kind]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(env.Kind))
		}
		msg, err := dec(env.Body)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Kind, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// DecodeInbound разбирает кадр от симуляции
func DecodeInbound(data []byte) ([]Inbound, error) {
	msgs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make([]Inbound, 0, len(msgs))
	for _, msg := range msgs {
		in, ok := msg.(Inbound)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWrongDirection, msg.Kind())
		}
		out = append(out, in)
	}
	return out, nil
}

// DecodeOutbound разбирает кадр от хоста
func DecodeOutbound(data []byte) ([]Outbound, error) {
	msgs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make([]Outbound, 0, len(msgs))
	for _, msg := range msgs {
		cmd, ok := msg.(Outbound)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrWrongDirection, msg.Kind())
		}
		out = append(out, cmd)
	}
	return out, nil
}
