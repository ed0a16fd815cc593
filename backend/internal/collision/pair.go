package collision

import (
	"physbridge/backend/internal/body"
	"physbridge/backend/internal/ipc"
)

// Pair каноническая пара тел: A < B
type Pair struct {
	A, B body.ID
}

// MakePair упорядочивает пару. Пара тела с самим собой не имеет смысла.
func MakePair(a, b body.ID) (Pair, bool) {
	switch {
	case a < b:
		return Pair{A: a, B: b}, true
	case a > b:
		return Pair{A: b, B: a}, true
	}
	return Pair{}, false
}

// Has проверяет, входит ли тело в пару
func (p Pair) Has(id body.ID) bool {
	return p.A == id || p.B == id
}

// Other вторая сторона пары относительно id
func (p Pair) Other(id body.ID) body.ID {
	if p.A == id {
		return p.B
	}
	return p.A
}

func toWire(pairs []Pair) []ipc.Pair {
	out := make([]ipc.Pair, len(pairs))
	for i, p := range pairs {
		out[i] = ipc.Pair{A: uint32(p.A), B: uint32(p.B)}
	}
	return out
}
