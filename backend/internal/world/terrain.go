package world

import (
	"math"

	"physbridge/backend/internal/body"
)

// noise2D простой хеш-шум
func noise2D(x, y float64) float64 {
	h := x*12.9898 + y*78.233
	sinH := math.Sin(h)
	return math.Abs(sinH*43758.5453) - math.Floor(math.Abs(sinH*43758.5453))
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func smoothstep(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}

// smoothNoise сглаженный шум с билинейной интерполяцией между узлами
func smoothNoise(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := noise2D(x0, y0)
	n10 := noise2D(x0+1, y0)
	n01 := noise2D(x0, y0+1)
	n11 := noise2D(x0+1, y0+1)

	return lerp(lerp(n00, n10, sx), lerp(n01, n11, sx), sy)
}

// GenerateTerrainData карта высот w*h в диапазоне [minHeight, maxHeight].
// Результат детерминирован.
func GenerateTerrainData(w, h int, minHeight, maxHeight float64) []float32 {
	data := make([]float32, w*h)
	if w < 2 || h < 2 {
		return data
	}

	// октавы фрактального шума
	scales := []float64{1.0, 0.5, 0.25, 0.125}
	amplitudes := []float64{0.5, 0.25, 0.125, 0.0625}

	mountains := []struct{ x, z float64 }{
		{0.2, 0.3}, {0.7, 0.8}, {0.4, 0.7}, {0.8, 0.2},
	}

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			nx := float64(i) / float64(w-1)
			nz := float64(j) / float64(h-1)

			elevation := 0.0
			for layer := range scales {
				elevation += smoothNoise(nx*scales[layer]*10, nz*scales[layer]*10) * amplitudes[layer]
			}

			for k, m := range mountains {
				radius := 0.1 + 0.2*noise2D(0.5, float64(k)*0.1)
				d := math.Hypot(nx-m.x, nz-m.z)
				if d < radius {
					falloff := 1 - d/radius
					elevation += 0.5 * falloff * falloff
				}
			}

			elevation = math.Min(1, math.Max(0, elevation))
			data[j*w+i] = float32(minHeight + elevation*(maxHeight-minHeight))
		}
	}
	return data
}

// TerrainBounding переводит карту высот в сетку с центром в начале координат.
// Шаг сетки step по X и Z.
func TerrainBounding(data []float32, w, h int, step float64) body.Bounding {
	positions := make([]float32, 0, w*h*3)
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			x := (float64(i) - float64(w-1)/2) * step
			z := (float64(j) - float64(h-1)/2) * step
			positions = append(positions, float32(x), data[j*w+i], float32(z))
		}
	}

	indices := make([]uint32, 0, (w-1)*(h-1)*6)
	for j := 0; j+1 < h; j++ {
		for i := 0; i+1 < w; i++ {
			a := uint32(j*w + i)
			b := a + 1
			c := a + uint32(w)
			d := c + 1
			indices = append(indices, a, c, b, b, c, d)
		}
	}

	return body.Bounding{Type: "mesh", Positions: positions, Indices: indices}
}
