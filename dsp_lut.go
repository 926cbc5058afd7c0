// dsp_lut.go - Lookup tables and branch-free math kernels for voice synthesis

/*
██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/abehlok2/Session-Builder-Mobile
License: GPLv3 or later
*/

package main

import (
	"math"
	"math/rand"
)

// Lookup table sizes
const (
	sinLUTSize = 65536 // entries across [0, 2*pi); one extra duplicated entry removes the wrap bound check
	TWO_PI     = 2 * math.Pi
)

// Precomputed scale factor, phase to index
const sinLUTScale = float64(sinLUTSize) / TWO_PI

// sinTable contains precomputed sine values for phase [0, 2*pi].
// The last entry duplicates sin(0) so interpolation at index sinLUTSize-1
// never indexes out of range.
var sinTable [sinLUTSize + 1]float64

func init() {
	for i := 0; i <= sinLUTSize; i++ {
		sinTable[i] = math.Sin(float64(i) * TWO_PI / float64(sinLUTSize))
	}
}

// sinLut returns sin(x) using the lookup table with linear interpolation.
// x is wrapped into [0, 2*pi) by Euclidean remainder, so any finite phase
// is accepted.
func sinLut(x float64) float64 {
	x = math.Mod(x, TWO_PI)
	if x < 0 {
		x += TWO_PI
	}
	indexF := x * sinLUTScale
	index := int(indexF)
	frac := indexF - float64(index)
	return sinTable[index] + frac*(sinTable[index+1]-sinTable[index])
}

// cosLut returns cos(x) via the sine table.
func cosLut(x float64) float64 {
	return sinLut(x + math.Pi/2)
}

const skewEps = 1e-6

// skewedSinePhase maps a normalized phase p in [0,1) to a sinusoid whose
// positive and negative humps split at frac = 0.5 + 0.5*skew. skew 0 gives
// an ordinary sine cycle; positive skew stretches the positive hump.
func skewedSinePhase(p, skew float64) float64 {
	p = p - math.Floor(p)
	frac := 0.5 + 0.5*skew
	if frac < skewEps {
		frac = skewEps
	} else if frac > 1-skewEps {
		frac = 1 - skewEps
	}
	if p < frac {
		local := p / frac
		return sinLut(math.Pi * local)
	}
	local := (p - frac) / (1 - frac)
	return sinLut(math.Pi * (1 + local))
}

// skewedTrianglePhase is the linear analogue of skewedSinePhase.
func skewedTrianglePhase(p, skew float64) float64 {
	p = p - math.Floor(p)
	frac := 0.5 + 0.5*skew
	if frac < skewEps {
		frac = skewEps
	} else if frac > 1-skewEps {
		frac = 1 - skewEps
	}
	if p < frac {
		local := p / frac
		return 1 - math.Abs(2*local-1)
	}
	local := (p - frac) / (1 - frac)
	return math.Abs(2*local-1) - 1
}

// trapezoidEnvelope evaluates the isochronic gate at position t within a
// cycle of cycleLen samples. The audible span is cycleLen*(1-gapPercent);
// it ramps up over rampPercent*audible/2 samples, holds flat, ramps down
// symmetrically, and is silent for the trailing gap. Returns 0 for a
// degenerate cycle.
func trapezoidEnvelope(t, cycleLen, rampPercent, gapPercent float64) float64 {
	if cycleLen <= 0 {
		return 0
	}
	if gapPercent < 0 {
		gapPercent = 0
	} else if gapPercent > 1 {
		gapPercent = 1
	}
	if rampPercent < 0 {
		rampPercent = 0
	} else if rampPercent > 1 {
		rampPercent = 1
	}
	audible := cycleLen * (1 - gapPercent)
	if t >= audible || audible <= 0 {
		return 0
	}
	ramp := rampPercent * audible / 2
	if ramp > 0 && t < ramp {
		return t / ramp
	}
	if ramp > 0 && t > audible-ramp {
		return (audible - t) / ramp
	}
	return 1
}

// pan2 places a mono sample in the stereo field with equal-power panning.
// pan runs -1 (hard left) to +1 (hard right).
func pan2(x, pan float64) (left, right float64) {
	angle := (pan + 1) * math.Pi / 4
	return x * cosLut(angle), x * sinLut(angle)
}

// gaussianSource produces standard-normal samples from a seeded uniform
// source via the Box-Muller transform. Only the FFT noise worker consumes
// gaussians, so no locking is needed.
type gaussianSource struct {
	rng      *rand.Rand
	spare    float64
	hasSpare bool
}

func newGaussianSource(seed int64) *gaussianSource {
	return &gaussianSource{rng: rand.New(rand.NewSource(seed))}
}

func (g *gaussianSource) next() float64 {
	if g.hasSpare {
		g.hasSpare = false
		return g.spare
	}
	var u, v, s float64
	for {
		u = g.rng.Float64()*2 - 1
		v = g.rng.Float64()*2 - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	m := math.Sqrt(-2 * math.Log(s) / s)
	g.spare = v * m
	g.hasSpare = true
	return u * m
}

func clampF(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
