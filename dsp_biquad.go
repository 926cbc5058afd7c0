// dsp_biquad.go - Notch and Butterworth biquad kernels

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

import "math"

// All coefficient math stays in float64. Deep notch cascades accumulate
// enough float32 rounding to spike the peak estimate and collapse
// normalization, so the f64 path is a correctness requirement, not an
// optimisation.

type biquadCoeffs struct {
	b0, b1, b2 float64
	a1, a2     float64
}

type biquadState struct {
	z1, z2 float64
}

// run advances one sample through the section in Transposed Direct Form II.
func (st *biquadState) run(x float64, c *biquadCoeffs) float64 {
	out := x*c.b0 + st.z1
	st.z1 = x*c.b1 - out*c.a1 + st.z2
	st.z2 = x*c.b2 - out*c.a2
	return out
}

// notchCoeffs computes the cookbook notch section at freq Hz with the
// given Q, normalised by a0.
func notchCoeffs(freq, q, sampleRate float64) biquadCoeffs {
	w0 := TWO_PI * freq / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)

	a0 := 1 + alpha
	return biquadCoeffs{
		b0: 1 / a0,
		b1: -2 * cosW0 / a0,
		b2: 1 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

const butterworthQ = math.Sqrt2 / 2

// butterworthCoeffs computes a cookbook low-pass or high-pass section at
// Q = 1/sqrt(2).
func butterworthCoeffs(freq, sampleRate float64, highpass bool) biquadCoeffs {
	w0 := TWO_PI * freq / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * butterworthQ)

	a0 := 1 + alpha
	var b0, b1, b2 float64
	if highpass {
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
	} else {
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
	}
	return biquadCoeffs{
		b0: b0 / a0,
		b1: b1 / a0,
		b2: b2 / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// butterChain is a pair of identical Butterworth sections run in series,
// used for the optional lowcut/highcut shelves on the noise generator.
type butterChain struct {
	coeffs biquadCoeffs
	states [2]biquadState
}

func newButterChain(freq, sampleRate float64, highpass bool) *butterChain {
	return &butterChain{coeffs: butterworthCoeffs(freq, sampleRate, highpass)}
}

func (c *butterChain) run(x float64) float64 {
	x = c.states[0].run(x, &c.coeffs)
	return c.states[1].run(x, &c.coeffs)
}

// biquadTimeVaryingBlock runs a notch cascade over block with per-sample
// coefficients. casc[i] selects how many of the persistent stage states
// participate at sample i, clamped into [1, len(states)]. Samples whose
// centre frequency is out of the stable range pass through untouched;
// stage state still persists across blocks so parameter motion stays
// click-free.
func biquadTimeVaryingBlock(block, freqSeries, qSeries []float64, cascSeries []int, states []biquadState, sampleRate float64) {
	maxStage := len(states)
	if maxStage == 0 {
		return
	}
	for i := range block {
		casc := cascSeries[i]
		if casc < 1 {
			casc = 1
		} else if casc > maxStage {
			casc = maxStage
		}

		freq := freqSeries[i]
		if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 || freq >= sampleRate*0.49 {
			continue
		}
		q := qSeries[i]
		if q < 1e-6 {
			q = 1e-6
		}
		coeffs := notchCoeffs(freq, q, sampleRate)

		sample := block[i]
		for stage := 0; stage < casc; stage++ {
			sample = states[stage].run(sample, &coeffs)
		}
		block[i] = sample
	}
}
