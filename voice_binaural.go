// voice_binaural.go - Binaural beat voices with LFO modulation and transition variant

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

// Frequency oscillator shapes
const (
	OSC_SHAPE_SINE     = "sine"
	OSC_SHAPE_TRIANGLE = "triangle"
)

// binauralParams is one full parameter set for the binaural renderer.
// Transition voices hold two of these and interpolate between them.
type binauralParams struct {
	baseFreq float64
	beatFreq float64
	ampL     float64
	ampR     float64

	forceMono bool
	leftHigh  bool

	freqOscRangeL       float64
	freqOscRangeR       float64
	freqOscFreqL        float64
	freqOscFreqR        float64
	freqOscSkewL        float64
	freqOscSkewR        float64
	freqOscPhaseOffsetL float64
	freqOscPhaseOffsetR float64
	freqOscShape        string

	phaseOscFreq  float64
	phaseOscRange float64

	ampOscDepthL float64
	ampOscDepthR float64
	ampOscFreqL  float64
	ampOscFreqR  float64
	ampOscSkewL  float64
	ampOscSkewR  float64
}

func readBinauralParams(p voiceParams) binauralParams {
	return binauralParams{
		baseFreq: p.float("baseFreq", 200),
		beatFreq: p.float("beatFreq", 0),
		ampL:     p.float("ampL", 1),
		ampR:     p.float("ampR", 1),

		forceMono: p.boolean("forceMono", false),
		leftHigh:  p.boolean("leftHigh", false),

		freqOscRangeL:       p.float("freqOscRangeL", 0),
		freqOscRangeR:       p.float("freqOscRangeR", 0),
		freqOscFreqL:        p.float("freqOscFreqL", 0),
		freqOscFreqR:        p.float("freqOscFreqR", 0),
		freqOscSkewL:        p.float("freqOscSkewL", 0),
		freqOscSkewR:        p.float("freqOscSkewR", 0),
		freqOscPhaseOffsetL: p.float("freqOscPhaseOffsetL", 0),
		freqOscPhaseOffsetR: p.float("freqOscPhaseOffsetR", 0),
		freqOscShape:        p.str("freqOscShape", OSC_SHAPE_SINE),

		phaseOscFreq:  p.float("phaseOscFreq", 0),
		phaseOscRange: p.float("phaseOscRange", 0),

		ampOscDepthL: clampF(p.float("ampOscDepthL", 0), 0, 1),
		ampOscDepthR: clampF(p.float("ampOscDepthR", 0), 0, 1),
		ampOscFreqL:  p.float("ampOscFreqL", 0),
		ampOscFreqR:  p.float("ampOscFreqR", 0),
		ampOscSkewL:  p.float("ampOscSkewL", 0),
		ampOscSkewR:  p.float("ampOscSkewR", 0),
	}
}

// readBinauralParamsStartEnd resolves the start/end cascade: every
// start* field falls back to the plain field's default, every end*
// field to its start counterpart.
func readBinauralParamsStartEnd(p voiceParams) (start, end binauralParams) {
	f := func(key string, def float64) (float64, float64) { return p.startEnd(key, def) }

	start.baseFreq, end.baseFreq = f("baseFreq", 200)
	start.beatFreq, end.beatFreq = f("beatFreq", 0)
	start.ampL, end.ampL = f("ampL", 1)
	start.ampR, end.ampR = f("ampR", 1)

	start.forceMono, end.forceMono = p.startEndBool("forceMono", false)
	start.leftHigh, end.leftHigh = p.startEndBool("leftHigh", false)

	start.freqOscRangeL, end.freqOscRangeL = f("freqOscRangeL", 0)
	start.freqOscRangeR, end.freqOscRangeR = f("freqOscRangeR", 0)
	start.freqOscFreqL, end.freqOscFreqL = f("freqOscFreqL", 0)
	start.freqOscFreqR, end.freqOscFreqR = f("freqOscFreqR", 0)
	start.freqOscSkewL, end.freqOscSkewL = f("freqOscSkewL", 0)
	start.freqOscSkewR, end.freqOscSkewR = f("freqOscSkewR", 0)
	start.freqOscPhaseOffsetL, end.freqOscPhaseOffsetL = f("freqOscPhaseOffsetL", 0)
	start.freqOscPhaseOffsetR, end.freqOscPhaseOffsetR = f("freqOscPhaseOffsetR", 0)
	start.freqOscShape = p.str("freqOscShape", OSC_SHAPE_SINE)
	end.freqOscShape = start.freqOscShape

	start.phaseOscFreq, end.phaseOscFreq = f("phaseOscFreq", 0)
	start.phaseOscRange, end.phaseOscRange = f("phaseOscRange", 0)

	start.ampOscDepthL, end.ampOscDepthL = f("ampOscDepthL", 0)
	start.ampOscDepthR, end.ampOscDepthR = f("ampOscDepthR", 0)
	start.ampOscDepthL = clampF(start.ampOscDepthL, 0, 1)
	end.ampOscDepthL = clampF(end.ampOscDepthL, 0, 1)
	start.ampOscDepthR = clampF(start.ampOscDepthR, 0, 1)
	end.ampOscDepthR = clampF(end.ampOscDepthR, 0, 1)
	start.ampOscFreqL, end.ampOscFreqL = f("ampOscFreqL", 0)
	start.ampOscFreqR, end.ampOscFreqR = f("ampOscFreqR", 0)
	start.ampOscSkewL, end.ampOscSkewL = f("ampOscSkewL", 0)
	start.ampOscSkewR, end.ampOscSkewR = f("ampOscSkewR", 0)
	return start, end
}

// lerpBinauralParams interpolates every scalar parameter and flips the
// booleans (and the shape tag) at the midpoint when the endpoints
// differ.
func lerpBinauralParams(a, b *binauralParams, alpha float64) binauralParams {
	out := binauralParams{
		baseFreq: lerp(a.baseFreq, b.baseFreq, alpha),
		beatFreq: lerp(a.beatFreq, b.beatFreq, alpha),
		ampL:     lerp(a.ampL, b.ampL, alpha),
		ampR:     lerp(a.ampR, b.ampR, alpha),

		forceMono: flipBool(a.forceMono, b.forceMono, alpha),
		leftHigh:  flipBool(a.leftHigh, b.leftHigh, alpha),

		freqOscRangeL:       lerp(a.freqOscRangeL, b.freqOscRangeL, alpha),
		freqOscRangeR:       lerp(a.freqOscRangeR, b.freqOscRangeR, alpha),
		freqOscFreqL:        lerp(a.freqOscFreqL, b.freqOscFreqL, alpha),
		freqOscFreqR:        lerp(a.freqOscFreqR, b.freqOscFreqR, alpha),
		freqOscSkewL:        lerp(a.freqOscSkewL, b.freqOscSkewL, alpha),
		freqOscSkewR:        lerp(a.freqOscSkewR, b.freqOscSkewR, alpha),
		freqOscPhaseOffsetL: lerp(a.freqOscPhaseOffsetL, b.freqOscPhaseOffsetL, alpha),
		freqOscPhaseOffsetR: lerp(a.freqOscPhaseOffsetR, b.freqOscPhaseOffsetR, alpha),
		freqOscShape:        a.freqOscShape,

		phaseOscFreq:  lerp(a.phaseOscFreq, b.phaseOscFreq, alpha),
		phaseOscRange: lerp(a.phaseOscRange, b.phaseOscRange, alpha),

		ampOscDepthL: lerp(a.ampOscDepthL, b.ampOscDepthL, alpha),
		ampOscDepthR: lerp(a.ampOscDepthR, b.ampOscDepthR, alpha),
		ampOscFreqL:  lerp(a.ampOscFreqL, b.ampOscFreqL, alpha),
		ampOscFreqR:  lerp(a.ampOscFreqR, b.ampOscFreqR, alpha),
		ampOscSkewL:  lerp(a.ampOscSkewL, b.ampOscSkewL, alpha),
		ampOscSkewR:  lerp(a.ampOscSkewR, b.ampOscSkewR, alpha),
	}
	if a.freqOscShape != b.freqOscShape && alpha >= 0.5 {
		out.freqOscShape = b.freqOscShape
	}
	return out
}

// oscState is the mutable per-voice oscillator state shared by the
// binaural and isochronic renderers. The integrated phases are the
// phase-continuity contract; the phase LFO displaces the displayed
// phase only.
type oscState struct {
	sampleRate      float64
	durationSamples int
	elapsed         int

	phaseL float64
	phaseR float64

	ampPhaseL float64
	ampPhaseR float64
}

func wrapPhase(p float64) float64 {
	p = math.Mod(p, TWO_PI)
	if p < 0 {
		p += TWO_PI
	}
	return p
}

func oscShape(shape string, phase, skew float64) float64 {
	if shape == OSC_SHAPE_TRIANGLE {
		return skewedTrianglePhase(phase, skew)
	}
	return skewedSinePhase(phase, skew)
}

func fract(x float64) float64 {
	return x - math.Floor(x)
}

// binauralSample renders one stereo sample with the given parameter set
// and advances the oscillator state.
func binauralSample(p *binauralParams, st *oscState) (l, r float64) {
	t := float64(st.elapsed) / st.sampleRate
	dt := 1 / st.sampleRate

	vibL := p.freqOscRangeL / 2 * oscShape(p.freqOscShape, fract(p.freqOscFreqL*t+p.freqOscPhaseOffsetL/TWO_PI), p.freqOscSkewL)
	vibR := p.freqOscRangeR / 2 * oscShape(p.freqOscShape, fract(p.freqOscFreqR*t+p.freqOscPhaseOffsetR/TWO_PI), p.freqOscSkewR)

	freqL := p.baseFreq + vibL
	freqR := p.baseFreq + vibR
	if p.forceMono || p.beatFreq == 0 {
		freqL = math.Max(0, freqL)
		freqR = math.Max(0, freqR)
	} else if p.leftHigh {
		freqL += p.beatFreq / 2
		freqR -= p.beatFreq / 2
	} else {
		freqL -= p.beatFreq / 2
		freqR += p.beatFreq / 2
	}

	st.phaseL = wrapPhase(st.phaseL + TWO_PI*freqL*dt)
	st.phaseR = wrapPhase(st.phaseR + TWO_PI*freqR*dt)

	phL := st.phaseL
	phR := st.phaseR
	if p.phaseOscRange != 0 && p.phaseOscFreq != 0 {
		// Displayed phase only; the integrated phase stays untouched so
		// step handoff remains continuous.
		dphi := p.phaseOscRange / 2 * sinLut(TWO_PI*p.phaseOscFreq*t)
		phL -= dphi
		phR += dphi
	}

	envL := 1 - p.ampOscDepthL*(1+skewedSinePhase(fract(st.ampPhaseL), p.ampOscSkewL))/2
	envR := 1 - p.ampOscDepthR*(1+skewedSinePhase(fract(st.ampPhaseR), p.ampOscSkewR))/2
	st.ampPhaseL += p.ampOscFreqL * dt
	st.ampPhaseR += p.ampOscFreqR * dt

	return sinLut(phL) * envL * p.ampL, sinLut(phR) * envR * p.ampR
}

// binauralBeat is the fixed-parameter binaural voice.
type binauralBeat struct {
	p  binauralParams
	st oscState
}

func newBinauralBeat(p voiceParams, duration, sampleRate float64) *binauralBeat {
	v := &binauralBeat{
		p: readBinauralParams(p),
		st: oscState{
			sampleRate:      sampleRate,
			durationSamples: int(duration * sampleRate),
			phaseL:          wrapPhase(p.float("startPhaseL", 0)),
			phaseR:          wrapPhase(p.float("startPhaseR", 0)),
		},
	}
	return v
}

func (v *binauralBeat) Process(out []float32) {
	frames := len(out) / 2
	for i := 0; i < frames && v.st.elapsed < v.st.durationSamples; i++ {
		l, r := binauralSample(&v.p, &v.st)
		out[i*2] += float32(l)
		out[i*2+1] += float32(r)
		v.st.elapsed++
	}
}

func (v *binauralBeat) IsFinished() bool { return v.st.elapsed >= v.st.durationSamples }

func (v *binauralBeat) NormalizationPeak() float64 { return math.Max(v.p.ampL, v.p.ampR) }

func (v *binauralBeat) Phases() (float64, float64, bool) { return v.st.phaseL, v.st.phaseR, true }

func (v *binauralBeat) SetPhases(l, r float64) {
	v.st.phaseL = wrapPhase(l)
	v.st.phaseR = wrapPhase(r)
}

func (v *binauralBeat) setElapsed(samples int) { v.st.elapsed = samples }

// binauralBeatTransition interpolates every parameter across the step.
type binauralBeatTransition struct {
	start binauralParams
	end   binauralParams
	span  transitionSpan
	st    oscState
}

func newBinauralBeatTransition(p voiceParams, duration, sampleRate float64) *binauralBeatTransition {
	start, end := readBinauralParamsStartEnd(p)
	return &binauralBeatTransition{
		start: start,
		end:   end,
		span:  newTransitionSpan(p, duration),
		st: oscState{
			sampleRate:      sampleRate,
			durationSamples: int(duration * sampleRate),
			phaseL:          wrapPhase(p.float("startPhaseL", 0)),
			phaseR:          wrapPhase(p.float("startPhaseR", 0)),
		},
	}
}

func (v *binauralBeatTransition) Process(out []float32) {
	frames := len(out) / 2
	for i := 0; i < frames && v.st.elapsed < v.st.durationSamples; i++ {
		t := float64(v.st.elapsed) / v.st.sampleRate
		cur := lerpBinauralParams(&v.start, &v.end, v.span.alpha(t))
		l, r := binauralSample(&cur, &v.st)
		out[i*2] += float32(l)
		out[i*2+1] += float32(r)
		v.st.elapsed++
	}
}

func (v *binauralBeatTransition) IsFinished() bool { return v.st.elapsed >= v.st.durationSamples }

func (v *binauralBeatTransition) NormalizationPeak() float64 {
	return math.Max(math.Max(v.start.ampL, v.start.ampR), math.Max(v.end.ampL, v.end.ampR))
}

func (v *binauralBeatTransition) Phases() (float64, float64, bool) {
	return v.st.phaseL, v.st.phaseR, true
}

func (v *binauralBeatTransition) SetPhases(l, r float64) {
	v.st.phaseL = wrapPhase(l)
	v.st.phaseR = wrapPhase(r)
}

func (v *binauralBeatTransition) setElapsed(samples int) { v.st.elapsed = samples }
