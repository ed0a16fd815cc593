package ipc

import (
	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/tsr"
)

// Message любое сообщение протокола. Набор вариантов закрыт:
// реализовать интерфейс можно только внутри пакета.
type Message interface {
	Kind() Kind
	sealed()
}

// Inbound сообщение от симуляции к хосту
type Inbound interface {
	Message
	dispatch(h Handler)
}

// Outbound команда от хоста к симуляции
type Outbound interface {
	Message
	outbound()
}

// Pair каноническая пара тел (A < B)
type Pair struct {
	_msgpack struct{} `msgpack:",as_array"`
	A, B     uint32
}

// Contact геометрия контакта в системе координат канонической пары
type Contact struct {
	_msgpack struct{} `msgpack:",as_array"`
	Pos      mgl64.Vec3
	Norm     mgl64.Vec3
	Dist     float64
}

// PosNorm точка и нормаль попадания луча
type PosNorm struct {
	_msgpack struct{} `msgpack:",as_array"`
	Pos      mgl64.Vec3
	Norm     mgl64.Vec3
}

// ShapeType тип ограничивающего объема
type ShapeType uint8

const (
	ShapeEmpty ShapeType = iota
	ShapeBox
	ShapeSphere
	ShapeCylinder
	ShapeCone
	ShapeCapsule
	ShapeMesh
)

func (s ShapeType) String() string {
	switch s {
	case ShapeEmpty:
		return "empty"
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCylinder:
		return "cylinder"
	case ShapeCone:
		return "cone"
	case ShapeCapsule:
		return "capsule"
	case ShapeMesh:
		return "mesh"
	}
	return "unknown"
}

// Shape описание формы тела. Для сеток заполняются Positions/Indices.
type Shape struct {
	_msgpack  struct{} `msgpack:",as_array"`
	Type      ShapeType
	Center    mgl64.Vec3
	Extents   mgl64.Vec3 // полуразмеры бокса
	Radius    float64
	Height    float64
	Positions []float32
	Indices   []uint32
}

// ---------------------------------------------------------------------------
// Входящие

type Loaded struct{}

type Transform struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Time     float64
	Trans    mgl64.Vec3
	Quat     mgl64.Quat
	LinVel   mgl64.Vec3
	AngVel   mgl64.Vec3
}

type PropOffset struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Prop     int
	Trans    mgl64.Vec3
	Quat     mgl64.Quat
}

type FloaterBobTransform struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Bob      int
	Trans    mgl64.Vec3
	Quat     mgl64.Quat
}

type VehicleSpeed struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Speed    float64
}

// Collision результат пары. Contact заполнен, если тест запрашивал геометрию.
type Collision struct {
	_msgpack struct{} `msgpack:",as_array"`
	A, B     uint32
	Result   bool
	Contact  *Contact
}

type CollisionImpulse struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Impulse  float64
}

// RayHit попадание луча. Body == 0, если луч ничего не задел.
type RayHit struct {
	_msgpack struct{} `msgpack:",as_array"`
	Test     uint32
	Body     uint32
	Fraction float64
	Time     float64
	PosNorm  *PosNorm
}

// RayTestRemoved симуляция сама удалила тест луча
type RayTestRemoved struct {
	_msgpack struct{} `msgpack:",as_array"`
	Test     uint32
}

type Log struct {
	_msgpack struct{} `msgpack:",as_array"`
	Text     string
}

type Error struct {
	_msgpack struct{} `msgpack:",as_array"`
	Text     string
}

type FPS struct {
	_msgpack struct{} `msgpack:",as_array"`
	FPS      float64
}

// Pong ответ на Ping: время отправки хостом и время обработки симуляцией
type Pong struct {
	_msgpack struct{} `msgpack:",as_array"`
	Sent     float64
	Handled  float64
}

type DebugStats struct {
	_msgpack struct{} `msgpack:",as_array"`
	Stats    map[string]float64
}

// ---------------------------------------------------------------------------
// Исходящие

// Init запускает мир после Loaded
type Init struct {
	_msgpack    struct{} `msgpack:",as_array"`
	Epoch       float64
	MaxFPS      int
	FPSInterval float64
}

type AppendBody struct {
	_msgpack       struct{} `msgpack:",as_array"`
	Body           uint32
	BodyKind       uint8
	Mass           float64
	Ghost          bool
	TagNum         int
	Transform      tsr.Transform
	Shape          Shape
	Friction       float64
	Restitution    float64
	LinearDamping  float64
	AngularDamping float64
	Group          uint16
	Mask           uint16
	Margin         float64
	DisableSleep   bool
}

type RemoveBody struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type AppendCar struct {
	_msgpack        struct{} `msgpack:",as_array"`
	Body            uint32
	ForceMax        float64
	BrakeMax        float64
	SuspCompression float64
	SuspStiffness   float64
	SuspDamping     float64
	WheelFriction   float64
	RollInfluence   float64
	MaxSuspTravelCm float64
}

type AddCarWheel struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Index    int
	Pos      mgl64.Vec3
	Radius   float64
	Front    bool
}

type AppendBoat struct {
	_msgpack     struct{} `msgpack:",as_array"`
	Body         uint32
	FloatFactor  float64
	WaterLinDamp float64
	WaterRotDamp float64
}

type AddBoatBob struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Index    int
	Pos      mgl64.Vec3
}

type AppendFloater struct {
	_msgpack     struct{} `msgpack:",as_array"`
	Body         uint32
	FloatFactor  float64
	WaterLinDamp float64
	WaterRotDamp float64
}

type AddFloaterBob struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Index    int
	Pos      mgl64.Vec3
}

type AppendCharacter struct {
	_msgpack     struct{} `msgpack:",as_array"`
	Body         uint32
	Angle        float64
	Height       float64
	WalkSpeed    float64
	RunSpeed     float64
	FlySpeed     float64
	StepHeight   float64
	JumpStrength float64
	WaterLevel   float64
}

type AppendConstraint struct {
	_msgpack  struct{} `msgpack:",as_array"`
	ID        string
	Type      string
	BodyA     uint32
	LocalA    tsr.Transform
	BodyB     uint32
	LocalB    tsr.Transform
	Limits    []float64
	Stiffness []float64
	Damping   []float64
}

type RemoveConstraint struct {
	_msgpack struct{} `msgpack:",as_array"`
	ID       string
}

// UpdateWorld сообщает симуляции время кадра хоста
type UpdateWorld struct {
	_msgpack struct{} `msgpack:",as_array"`
	Time     float64
	Delta    float64
}

type SetTransform struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Trans    mgl64.Vec3
	Quat     mgl64.Quat
}

type EnableSimulation struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type DisableSimulation struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type Activate struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type AppendCollisionTest struct {
	_msgpack    struct{} `msgpack:",as_array"`
	Pairs       []Pair
	CalcPosNorm bool
}

type RemoveCollisionTest struct {
	_msgpack struct{} `msgpack:",as_array"`
	Pairs    []Pair
}

type AppendRayTest struct {
	_msgpack           struct{} `msgpack:",as_array"`
	Test               uint32
	Body               uint32
	From               mgl64.Vec3
	To                 mgl64.Vec3
	TagNum             int
	Autoremove         bool
	CalcAllHits        bool
	CalcPosNorm        bool
	IgnoreSourceRotate bool
}

type RemoveRayTest struct {
	_msgpack struct{} `msgpack:",as_array"`
	Test     uint32
}

type ChangeRayTestFromTo struct {
	_msgpack struct{} `msgpack:",as_array"`
	Test     uint32
	From     mgl64.Vec3
	To       mgl64.Vec3
}

type ApplyCentralForce struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Force    mgl64.Vec3
}

type ApplyTorque struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Torque   mgl64.Vec3
}

type SetLinearVelocity struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Velocity mgl64.Vec3
}

type SetGravity struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Gravity  float64
}

// UpdateCarControls полный снимок управления машиной
type UpdateCarControls struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Engine   float64
	Brake    float64
	Steering float64
}

// UpdateBoatControls полный снимок управления лодкой
type UpdateBoatControls struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Engine   float64
	Brake    float64
	Steering float64
}

type CharacterMoveDir struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Forward  int
	Side     int
}

type CharacterMoveType struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Type     uint8
}

// VelocityMode режим, к которому относится скорость персонажа
type VelocityMode uint8

const (
	VelocityWalk VelocityMode = iota
	VelocityRun
	VelocityFly
)

type CharacterVelocity struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	Mode     VelocityMode
	Velocity float64
}

type CharacterJump struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type CharacterRotationInc struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	H, V     float64
}

type CharacterRotation struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
	H, V     float64
}

type ApplyCollisionImpulseTest struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type ClearCollisionImpulseTest struct {
	_msgpack struct{} `msgpack:",as_array"`
	Body     uint32
}

type Pause struct{}

type Resume struct{}

type Ping struct {
	_msgpack struct{} `msgpack:",as_array"`
	Sent     float64
}

type Debug struct{}

// AppendWater водная поверхность мира. У мира одна вода, повторное добавление игнорируется.
type AppendWater struct {
	_msgpack struct{} `msgpack:",as_array"`
	Level    float64
}

// WaterDynamics параметры шума, которым модулируются волны
type WaterDynamics struct {
	_msgpack       struct{} `msgpack:",as_array"`
	DstNoiseScale0 float64
	DstNoiseScale1 float64
	DstNoiseFreq0  float64
	DstNoiseFreq1  float64
	DirMinShoreFac float64
	DirFreq        float64
	DirNoiseScale  float64
	DirNoiseFreq   float64
	DirMinNoiseFac float64
	DstMinFac      float64
	WavesHorFac    float64
}

// AddWaterWrapper волны поверх воды. Без карты берега размеры и
// ShoreDistances нулевые.
type AddWaterWrapper struct {
	_msgpack       struct{} `msgpack:",as_array"`
	Dynamics       WaterDynamics
	SizeX          float64
	SizeY          float64
	CenterX        float64
	CenterY        float64
	MaxShoreDist   float64
	WavesHeight    float64
	WavesLength    float64
	ArrayWidth     int
	ShoreDistances []float32
}

// SetWaterTime фаза волн, уже умноженная на силу ветра
type SetWaterTime struct {
	_msgpack struct{} `msgpack:",as_array"`
	Time     float64
}

// ---------------------------------------------------------------------------

func (Loaded) Kind() Kind              { return KindLoaded }
func (Transform) Kind() Kind           { return KindTransform }
func (PropOffset) Kind() Kind          { return KindPropOffset }
func (FloaterBobTransform) Kind() Kind { return KindFloaterBobTransform }
func (VehicleSpeed) Kind() Kind        { return KindVehicleSpeed }
func (m Collision) Kind() Kind {
	if m.Contact != nil {
		return KindCollisionPosNorm
	}
	return KindCollision
}
func (CollisionImpulse) Kind() Kind { return KindCollisionImpulse }
func (m RayHit) Kind() Kind {
	if m.PosNorm != nil {
		return KindRayHitPosNorm
	}
	return KindRayHit
}
func (RayTestRemoved) Kind() Kind { return KindRayTestRemoved }
func (Log) Kind() Kind            { return KindLog }
func (Error) Kind() Kind          { return KindError }
func (FPS) Kind() Kind            { return KindFPS }
func (Pong) Kind() Kind           { return KindPong }
func (DebugStats) Kind() Kind     { return KindDebugStats }

func (Init) Kind() Kind                { return KindInit }
func (AppendBody) Kind() Kind          { return KindAppendBody }
func (RemoveBody) Kind() Kind          { return KindRemoveBody }
func (AppendCar) Kind() Kind           { return KindAppendCar }
func (AddCarWheel) Kind() Kind         { return KindAddCarWheel }
func (AppendBoat) Kind() Kind          { return KindAppendBoat }
func (AddBoatBob) Kind() Kind          { return KindAddBoatBob }
func (AppendFloater) Kind() Kind       { return KindAppendFloater }
func (AddFloaterBob) Kind() Kind       { return KindAddFloaterBob }
func (AppendCharacter) Kind() Kind     { return KindAppendCharacter }
func (AppendConstraint) Kind() Kind    { return KindAppendConstraint }
func (RemoveConstraint) Kind() Kind    { return KindRemoveConstraint }
func (UpdateWorld) Kind() Kind         { return KindUpdateWorld }
func (SetTransform) Kind() Kind        { return KindSetTransform }
func (EnableSimulation) Kind() Kind    { return KindEnableSimulation }
func (DisableSimulation) Kind() Kind   { return KindDisableSimulation }
func (Activate) Kind() Kind            { return KindActivate }
func (AppendCollisionTest) Kind() Kind { return KindAppendCollisionTest }
func (RemoveCollisionTest) Kind() Kind { return KindRemoveCollisionTest }
func (AppendRayTest) Kind() Kind       { return KindAppendRayTest }
func (RemoveRayTest) Kind() Kind       { return KindRemoveRayTest }
func (ChangeRayTestFromTo) Kind() Kind { return KindChangeRayTestFromTo }
func (ApplyCentralForce) Kind() Kind   { return KindApplyCentralForce }
func (ApplyTorque) Kind() Kind         { return KindApplyTorque }
func (SetLinearVelocity) Kind() Kind   { return KindSetLinearVelocity }
func (SetGravity) Kind() Kind          { return KindSetGravity }
func (UpdateCarControls) Kind() Kind   { return KindUpdateCarControls }
func (UpdateBoatControls) Kind() Kind  { return KindUpdateBoatControls }
func (CharacterMoveDir) Kind() Kind    { return KindCharacterMoveDir }
func (CharacterMoveType) Kind() Kind   { return KindCharacterMoveType }
func (m CharacterVelocity) Kind() Kind {
	switch m.Mode {
	case VelocityRun:
		return KindCharacterRunVelocity
	case VelocityFly:
		return KindCharacterFlyVelocity
	}
	return KindCharacterWalkVelocity
}
func (CharacterJump) Kind() Kind             { return KindCharacterJump }
func (CharacterRotationInc) Kind() Kind      { return KindCharacterRotationInc }
func (CharacterRotation) Kind() Kind         { return KindCharacterRotation }
func (ApplyCollisionImpulseTest) Kind() Kind { return KindApplyCollisionImpulseTest }
func (ClearCollisionImpulseTest) Kind() Kind { return KindClearCollisionImpulseTest }
func (Pause) Kind() Kind                     { return KindPause }
func (Resume) Kind() Kind                    { return KindResume }
func (Ping) Kind() Kind                      { return KindPing }
func (Debug) Kind() Kind                     { return KindDebug }
func (AppendWater) Kind() Kind               { return KindAppendWater }
func (AddWaterWrapper) Kind() Kind           { return KindAddWaterWrapper }
func (SetWaterTime) Kind() Kind              { return KindSetWaterTime }

func (Loaded) sealed()              {}
func (Transform) sealed()           {}
func (PropOffset) sealed()          {}
func (FloaterBobTransform) sealed() {}
func (VehicleSpeed) sealed()        {}
func (Collision) sealed()           {}
func (CollisionImpulse) sealed()    {}
func (RayHit) sealed()              {}
func (RayTestRemoved) sealed()      {}
func (Log) sealed()                 {}
func (Error) sealed()               {}
func (FPS) sealed()                 {}
func (Pong) sealed()                {}
func (DebugStats) sealed()          {}

func (Init) sealed()                      {}
func (AppendBody) sealed()                {}
func (RemoveBody) sealed()                {}
func (AppendCar) sealed()                 {}
func (AddCarWheel) sealed()               {}
func (AppendBoat) sealed()                {}
func (AddBoatBob) sealed()                {}
func (AppendFloater) sealed()             {}
func (AddFloaterBob) sealed()             {}
func (AppendCharacter) sealed()           {}
func (AppendConstraint) sealed()          {}
func (RemoveConstraint) sealed()          {}
func (UpdateWorld) sealed()               {}
func (SetTransform) sealed()              {}
func (EnableSimulation) sealed()          {}
func (DisableSimulation) sealed()         {}
func (Activate) sealed()                  {}
func (AppendCollisionTest) sealed()       {}
func (RemoveCollisionTest) sealed()       {}
func (AppendRayTest) sealed()             {}
func (RemoveRayTest) sealed()             {}
func (ChangeRayTestFromTo) sealed()       {}
func (ApplyCentralForce) sealed()         {}
func (ApplyTorque) sealed()               {}
func (SetLinearVelocity) sealed()         {}
func (SetGravity) sealed()                {}
func (UpdateCarControls) sealed()         {}
func (UpdateBoatControls) sealed()        {}
func (CharacterMoveDir) sealed()          {}
func (CharacterMoveType) sealed()         {}
func (CharacterVelocity) sealed()         {}
func (CharacterJump) sealed()             {}
func (CharacterRotationInc) sealed()      {}
func (CharacterRotation) sealed()         {}
func (ApplyCollisionImpulseTest) sealed() {}
func (ClearCollisionImpulseTest) sealed() {}
func (Pause) sealed()                     {}
func (Resume) sealed()                    {}
func (Ping) sealed()                      {}
func (Debug) sealed()                     {}
func (AppendWater) sealed()               {}
func (AddWaterWrapper) sealed()           {}
func (SetWaterTime) sealed()              {}

func (Init) outbound()                      {}
func (AppendBody) outbound()                {}
func (RemoveBody) outbound()                {}
func (AppendCar) outbound()                 {}
func (AddCarWheel) outbound()               {}
func (AppendBoat) outbound()                {}
func (AddBoatBob) outbound()                {}
func (AppendFloater) outbound()             {}
func (AddFloaterBob) outbound()             {}
func (AppendCharacter) outbound()           {}
func (AppendConstraint) outbound()          {}
func (RemoveConstraint) outbound()          {}
func (UpdateWorld) outbound()               {}
func (SetTransform) outbound()              {}
func (EnableSimulation) outbound()          {}
func (DisableSimulation) outbound()         {}
func (Activate) outbound()                  {}
func (AppendCollisionTest) outbound()       {}
func (RemoveCollisionTest) outbound()       {}
func (AppendRayTest) outbound()             {}
func (RemoveRayTest) outbound()             {}
func (ChangeRayTestFromTo) outbound()       {}
func (ApplyCentralForce) outbound()         {}
func (ApplyTorque) outbound()               {}
func (SetLinearVelocity) outbound()         {}
func (SetGravity) outbound()                {}
func (UpdateCarControls) outbound()         {}
func (UpdateBoatControls) outbound()        {}
func (CharacterMoveDir) outbound()          {}
func (CharacterMoveType) outbound()         {}
func (CharacterVelocity) outbound()         {}
func (CharacterJump) outbound()             {}
func (CharacterRotationInc) outbound()      {}
func (CharacterRotation) outbound()         {}
func (ApplyCollisionImpulseTest) outbound() {}
func (ClearCollisionImpulseTest) outbound() {}
func (Pause) outbound()                     {}
func (Resume) outbound()                    {}
func (Ping) outbound()                      {}
func (Debug) outbound()                     {}
func (AppendWater) outbound()               {}
func (AddWaterWrapper) outbound()           {}
func (SetWaterTime) outbound()              {}
