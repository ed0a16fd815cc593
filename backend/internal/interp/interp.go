package interp

import (
	"github.com/go-gl/mathgl/mgl64"

	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
	"physbridge/backend/internal/tsr"
)

// MaxDelayTicks предел экстраполяции в тиках симуляции
const MaxDelayTicks = 10

// Poster очередь исходящих команд
type Poster interface {
	Post(msg ipc.Outbound)
}

// Derived пересчитывает зависимые трансформы (колеса, руль, приборы)
// сразу после изменения трансформа тела
type Derived interface {
	UpdateDerived(b *body.Body)
}

// Interpolator переводит авторитетное состояние симуляции в трансформы кадра
type Interpolator struct {
	tick     float64
	disabled bool
}

// New создает интерполятор для симуляции с частотой maxFPS.
// disabled отключает сдвиг по времени: тела рисуются ровно в последнем состоянии.
func New(maxFPS int, disabled bool) *Interpolator {
	if maxFPS <= 0 {
		maxFPS = 60
	}
	return &Interpolator{
		tick:     1 / float64(maxFPS),
		disabled: disabled,
	}
}

// Tick длительность одного тика симуляции в секундах
func (i *Interpolator) Tick() float64 {
	return i.tick
}

// Delay время экстраполяции. Ограничено десятью тиками, чтобы спящие и
// подвисшие тела не дрожали, и сдвинуто на тик назад, чтобы скрыть
// проникновения дискретного разрешения контактов.
func (i *Interpolator) Delay(renderTime, authTime float64) float64 {
	if i.disabled {
		return 0
	}
	d := renderTime - authTime
	d = min(d, MaxDelayTicks*i.tick)
	return d - i.tick
}

// Extrapolate трансформ тела на момент renderTime
func (i *Interpolator) Extrapolate(st body.State, renderTime float64) tsr.Transform {
	return tsr.Integrate(st.Transform, i.Delay(renderTime, st.Time), st.LinVel, st.AngVel)
}

// Update проходит по телам один раз за кадр.
// Тела, которые двигает симуляция, получают экстраполированный трансформ.
// Для тел, чей трансформ задает движок, изменения отправляются в симуляцию.
func (i *Interpolator) Update(bodies []*body.Body, renderTime float64, post Poster, derived Derived) (pulled, pushed int) {
	for _, b := range bodies {
		if b.Object == nil {
			continue
		}

		if b.AllowsTransform() {
			if i.push(b, post) {
				pushed++
				if derived != nil {
					derived.UpdateDerived(b)
				}
			}
			continue
		}

		// еще не получали состояние
		if b.State.Time == 0 {
			continue
		}

		t := i.Extrapolate(b.State, renderTime)
		t.Scale = b.Object.Transform().Scale
		b.Object.SetTransform(t)
		pulled++
		if derived != nil {
			derived.UpdateDerived(b)
		}
	}
	return pulled, pushed
}

func (i *Interpolator) push(b *body.Body, post Poster) bool {
	t := b.Object.Transform()
	if last, ok := b.Pushed(); ok && last.Equal(t) {
		return false
	}
	b.MarkPushed(t)

	quat := t.Quat
	if b.Kind == body.Dynamic {
		quat = mgl64.QuatIdent()
	}
	post.Post(ipc.SetTransform{Body: uint32(b.ID), Trans: t.Trans, Quat: quat})
	return true
}
