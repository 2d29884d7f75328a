package augment

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/aellingwood/augment/internal/config"
	"golang.org/x/image/math/f64"
)

// Params holds one randomly sampled set of transform parameters.
type Params struct {
	Angle float64 `json:"angle"` // degrees, positive is counter-clockwise
	Scale float64 `json:"scale"`
	TX    float64 `json:"tx"` // pixels
	TY    float64 `json:"ty"` // pixels
}

// Sampler draws transform parameters uniformly from the configured bounds.
// It is not safe for concurrent use.
type Sampler struct {
	rng    *rand.Rand
	bounds config.TransformConfig
}

// NewSampler returns a Sampler drawing from rng.
func NewSampler(rng *rand.Rand, bounds config.TransformConfig) *Sampler {
	return &Sampler{rng: rng, bounds: bounds}
}

// NewRand returns a generator for seed along with the seed actually used.
// A zero seed is replaced by one derived from the clock.
func NewRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1)), seed
}

// Sample draws angle, scale, x-translation and y-translation in that order
// for an image of width w and height h.
func (s *Sampler) Sample(w, h int) Params {
	b := s.bounds
	tw := b.Translate * float64(w)
	th := b.Translate * float64(h)
	return Params{
		Angle: s.uniform(b.RotationMin, b.RotationMax),
		Scale: s.uniform(b.ScaleMin, b.ScaleMax),
		TX:    s.uniform(-tw, tw),
		TY:    s.uniform(-th, th),
	}
}

// uniform returns a value in [lo, hi).
func (s *Sampler) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}

// Matrix builds the 2×3 source-to-destination matrix for p on a w×h image:
// rotation by p.Angle and scaling by p.Scale about the centre (w/2, h/2),
// with p.TX and p.TY added to the translation terms afterwards. The centre
// uses integer division and coordinates address pixel centres.
func Matrix(p Params, w, h int) f64.Aff3 {
	cx := float64(w / 2)
	cy := float64(h / 2)
	rad := p.Angle * math.Pi / 180
	alpha := p.Scale * math.Cos(rad)
	beta := p.Scale * math.Sin(rad)
	return f64.Aff3{
		alpha, beta, (1-alpha)*cx - beta*cy + p.TX,
		-beta, alpha, beta*cx + (1-alpha)*cy + p.TY,
	}
}

// invert returns the inverse of m. ok is false when m is singular.
func invert(m f64.Aff3) (inv f64.Aff3, ok bool) {
	det := m[0]*m[4] - m[1]*m[3]
	if det == 0 {
		return inv, false
	}
	return f64.Aff3{
		m[4] / det, -m[1] / det, (m[1]*m[5] - m[4]*m[2]) / det,
		-m[3] / det, m[0] / det, (m[3]*m[2] - m[0]*m[5]) / det,
	}, true
}

// apply maps (x, y) through m.
func apply(m f64.Aff3, x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// toDrawSpace converts a matrix over pixel-centre coordinates into the
// continuous coordinate space used by x/image/draw, where the centre of
// pixel i lies at i+0.5.
func toDrawSpace(m f64.Aff3) f64.Aff3 {
	m[2] += 0.5 - 0.5*(m[0]+m[1])
	m[5] += 0.5 - 0.5*(m[3]+m[4])
	return m
}
