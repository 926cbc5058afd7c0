// voice_isochronic.go - Isochronic tone voices with trapezoid gating and pan LFO

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

// isochronicParams extends the binaural parameter set with the
// trapezoid gate and the optional sinusoidal pan.
type isochronicParams struct {
	binauralParams

	rampPercent float64
	gapPercent  float64

	panFreq     float64
	panRangeMin float64
	panRangeMax float64
	panPhase    float64
}

func readIsochronicParams(p voiceParams) isochronicParams {
	return isochronicParams{
		binauralParams: readBinauralParams(p),
		rampPercent:    clampF(p.float("rampPercent", 0.2), 0, 1),
		gapPercent:     clampF(p.float("gapPercent", 0.15), 0, 1),
		panFreq:        p.float("panFreq", 0),
		panRangeMin:    clampF(p.float("panRangeMin", 0), -1, 1),
		panRangeMax:    clampF(p.float("panRangeMax", 0), -1, 1),
		panPhase:       p.float("panPhase", 0),
	}
}

func readIsochronicParamsStartEnd(p voiceParams) (start, end isochronicParams) {
	start.binauralParams, end.binauralParams = readBinauralParamsStartEnd(p)

	start.rampPercent, end.rampPercent = p.startEnd("rampPercent", 0.2)
	start.gapPercent, end.gapPercent = p.startEnd("gapPercent", 0.15)
	start.rampPercent = clampF(start.rampPercent, 0, 1)
	end.rampPercent = clampF(end.rampPercent, 0, 1)
	start.gapPercent = clampF(start.gapPercent, 0, 1)
	end.gapPercent = clampF(end.gapPercent, 0, 1)

	start.panFreq, end.panFreq = p.startEnd("panFreq", 0)
	start.panRangeMin, end.panRangeMin = p.startEnd("panRangeMin", 0)
	start.panRangeMax, end.panRangeMax = p.startEnd("panRangeMax", 0)
	start.panPhase, end.panPhase = p.startEnd("panPhase", 0)
	return start, end
}

func lerpIsochronicParams(a, b *isochronicParams, alpha float64) isochronicParams {
	base := lerpBinauralParams(&a.binauralParams, &b.binauralParams, alpha)
	return isochronicParams{
		binauralParams: base,
		rampPercent:    lerp(a.rampPercent, b.rampPercent, alpha),
		gapPercent:     lerp(a.gapPercent, b.gapPercent, alpha),
		panFreq:        lerp(a.panFreq, b.panFreq, alpha),
		panRangeMin:    lerp(a.panRangeMin, b.panRangeMin, alpha),
		panRangeMax:    lerp(a.panRangeMax, b.panRangeMax, alpha),
		panPhase:       lerp(a.panPhase, b.panPhase, alpha),
	}
}

// isochronicSample renders one gated stereo sample. Both channels run
// at the carrier frequency; the entrainment comes from the trapezoid
// gate advancing at beatFreq.
func isochronicSample(p *isochronicParams, st *oscState, beatPhase *float64) (l, r float64) {
	t := float64(st.elapsed) / st.sampleRate
	dt := 1 / st.sampleRate

	vibL := p.freqOscRangeL / 2 * oscShape(p.freqOscShape, fract(p.freqOscFreqL*t+p.freqOscPhaseOffsetL/TWO_PI), p.freqOscSkewL)
	vibR := p.freqOscRangeR / 2 * oscShape(p.freqOscShape, fract(p.freqOscFreqR*t+p.freqOscPhaseOffsetR/TWO_PI), p.freqOscSkewR)

	freqL := math.Max(0, p.baseFreq+vibL)
	freqR := math.Max(0, p.baseFreq+vibR)

	st.phaseL = wrapPhase(st.phaseL + TWO_PI*freqL*dt)
	st.phaseR = wrapPhase(st.phaseR + TWO_PI*freqR*dt)

	gate := 1.0
	if p.beatFreq > 0 {
		cycleLen := st.sampleRate / p.beatFreq
		gate = trapezoidEnvelope(*beatPhase*cycleLen, cycleLen, p.rampPercent, p.gapPercent)
		*beatPhase += p.beatFreq * dt
		*beatPhase -= math.Floor(*beatPhase)
	}

	envL := 1 - p.ampOscDepthL*(1+skewedSinePhase(fract(st.ampPhaseL), p.ampOscSkewL))/2
	envR := 1 - p.ampOscDepthR*(1+skewedSinePhase(fract(st.ampPhaseR), p.ampOscSkewR))/2
	st.ampPhaseL += p.ampOscFreqL * dt
	st.ampPhaseR += p.ampOscFreqR * dt

	l = sinLut(st.phaseL) * gate * envL * p.ampL
	r = sinLut(st.phaseR) * gate * envR * p.ampR

	if p.panFreq != 0 && (p.panRangeMin != 0 || p.panRangeMax != 0) {
		mid := (p.panRangeMin + p.panRangeMax) / 2
		half := (p.panRangeMax - p.panRangeMin) / 2
		pan := mid + half*sinLut(TWO_PI*p.panFreq*t+p.panPhase)
		mean := (l + r) / 2
		l, r = pan2(mean, clampF(pan, -1, 1))
	}
	return l, r
}

type isochronicTone struct {
	p         isochronicParams
	st        oscState
	beatPhase float64
}

func newIsochronicTone(p voiceParams, duration, sampleRate float64) *isochronicTone {
	return &isochronicTone{
		p: readIsochronicParams(p),
		st: oscState{
			sampleRate:      sampleRate,
			durationSamples: int(duration * sampleRate),
			phaseL:          wrapPhase(p.float("startPhaseL", 0)),
			phaseR:          wrapPhase(p.float("startPhaseR", 0)),
		},
	}
}

func (v *isochronicTone) Process(out []float32) {
	frames := len(out) / 2
	for i := 0; i < frames && v.st.elapsed < v.st.durationSamples; i++ {
		l, r := isochronicSample(&v.p, &v.st, &v.beatPhase)
		out[i*2] += float32(l)
		out[i*2+1] += float32(r)
		v.st.elapsed++
	}
}

func (v *isochronicTone) IsFinished() bool { return v.st.elapsed >= v.st.durationSamples }

func (v *isochronicTone) NormalizationPeak() float64 { return math.Max(v.p.ampL, v.p.ampR) }

func (v *isochronicTone) Phases() (float64, float64, bool) { return v.st.phaseL, v.st.phaseR, true }

func (v *isochronicTone) SetPhases(l, r float64) {
	v.st.phaseL = wrapPhase(l)
	v.st.phaseR = wrapPhase(r)
}

func (v *isochronicTone) setElapsed(samples int) { v.st.elapsed = samples }

type isochronicToneTransition struct {
	start     isochronicParams
	end       isochronicParams
	span      transitionSpan
	st        oscState
	beatPhase float64
}

func newIsochronicToneTransition(p voiceParams, duration, sampleRate float64) *isochronicToneTransition {
	start, end := readIsochronicParamsStartEnd(p)
	return &isochronicToneTransition{
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

func (v *isochronicToneTransition) Process(out []float32) {
	frames := len(out) / 2
	for i := 0; i < frames && v.st.elapsed < v.st.durationSamples; i++ {
		t := float64(v.st.elapsed) / v.st.sampleRate
		cur := lerpIsochronicParams(&v.start, &v.end, v.span.alpha(t))
		l, r := isochronicSample(&cur, &v.st, &v.beatPhase)
		out[i*2] += float32(l)
		out[i*2+1] += float32(r)
		v.st.elapsed++
	}
}

func (v *isochronicToneTransition) IsFinished() bool { return v.st.elapsed >= v.st.durationSamples }

func (v *isochronicToneTransition) NormalizationPeak() float64 {
	return math.Max(math.Max(v.start.ampL, v.start.ampR), math.Max(v.end.ampL, v.end.ampR))
}

func (v *isochronicToneTransition) Phases() (float64, float64, bool) {
	return v.st.phaseL, v.st.phaseR, true
}

func (v *isochronicToneTransition) SetPhases(l, r float64) {
	v.st.phaseL = wrapPhase(l)
	v.st.phaseR = wrapPhase(r)
}

func (v *isochronicToneTransition) setElapsed(samples int) { v.st.elapsed = samples }
