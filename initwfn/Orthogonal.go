package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// OrthogonalConfig implements a configuration of the orthogonal
// initialization algorithm. Weight matrices have orthonormal rows or
// columns (whichever are fewer), scaled by Gain.
type OrthogonalConfig struct {
	Gain float64
	Seed uint64
}

// NewOrthogonal returns a new orthogonal weight initializer
func NewOrthogonal(gain float64, seed uint64) (*InitWFn, error) {
	return newInitWFn(OrthogonalConfig{Gain: gain, Seed: seed})
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (o OrthogonalConfig) Type() Type {
	return Orthogonal
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (o OrthogonalConfig) Create() G.InitWFn {
	return OrthogonalInit(o.Gain, o.Seed)
}

// OrthogonalInit returns a Gorgonia InitWFn which initializes weights
// as a (semi-)orthogonal matrix. A matrix with standard normal entries
// is decomposed as A = QR, and Q, with the signs of its columns
// corrected by the signs of diag(R), is scaled by gain and used as the
// weights. Shapes with more than two dimensions are flattened to
// (s[0], s[1] * s[2] * ...).
func OrthogonalInit(gain float64, seed uint64) G.InitWFn {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}

	return func(dt tensor.Dtype, s ...int) interface{} {
		rows, cols := 1, 1
		if len(s) > 0 {
			rows = s[0]
		}
		for _, dim := range s[1:] {
			cols *= dim
		}

		// Decompose the tall orientation of the weight matrix
		n, m := rows, cols
		transpose := rows < cols
		if transpose {
			n, m = cols, rows
		}

		a := mat.NewDense(n, m, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				a.Set(i, j, normal.Rand())
			}
		}

		var qr mat.QR
		qr.Factorize(a)
		var q, r mat.Dense
		qr.QTo(&q)
		qr.RTo(&r)

		weights := make([]float64, rows*cols)
		for j := 0; j < m; j++ {
			sign := 1.0
			if r.At(j, j) < 0 {
				sign = -1.0
			}
			for i := 0; i < n; i++ {
				v := gain * sign * q.At(i, j)
				if transpose {
					weights[j*cols+i] = v
				} else {
					weights[i*cols+j] = v
				}
			}
		}

		switch dt {
		case tensor.Float64:
			return weights
		case tensor.Float32:
			weights32 := make([]float32, len(weights))
			for i := range weights {
				weights32[i] = float32(weights[i])
			}
			return weights32
		default:
			panic(fmt.Sprintf("orthogonalInit: unsupported dtype %v", dt))
		}
	}
}
