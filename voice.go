// voice.go - Voice interface, parameter resolution and the step voice factory

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
	"encoding/json"
	"errors"
	"log"
	"math"
)

// ErrUnknownSynth marks a voice whose synth_function tag the factory
// does not recognise. The factory logs and skips; strict callers can
// surface it.
var ErrUnknownSynth = errors.New("unknown synth function")

// Voice is one per-sample stereo source. Process mixes additively into
// an interleaved buffer of 2*frames samples. Phases reports the
// oscillator phase pair for voices that have one (ok=false for noise),
// so the scheduler can carry phase across step boundaries.
type Voice interface {
	Process(out []float32)
	IsFinished() bool
	NormalizationPeak() float64
	Phases() (phaseL, phaseR float64, ok bool)
	SetPhases(phaseL, phaseR float64)
}

// elapsedSetter lets the scheduler fast-forward a freshly built voice to
// the middle of a step after a live track update.
type elapsedSetter interface {
	setElapsed(samples int)
}

// voiceCloser releases background resources (noise workers) when the
// scheduler drops a voice.
type voiceCloser interface {
	close()
}

// stepVoice pairs a voice with its mixdown group.
type stepVoice struct {
	voice     Voice
	voiceType string
}

// Frames rendered to measure a noise voice's normalisation peak.
const NOISE_CALIBRATION_FRAMES = 16384

// voiceParams wraps the decoded parameter mapping with typed lookups.
type voiceParams map[string]interface{}

func (p voiceParams) float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

func (p voiceParams) boolean(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

func (p voiceParams) str(key, def string) string {
	if v, ok := p[key].(string); ok && v != "" {
		return v
	}
	return def
}

func (p voiceParams) has(key string) bool {
	_, ok := p[key]
	return ok
}

// startEnd resolves the transition parameter cascade: startX defaults to
// the plain x (which defaults to def), and endX defaults to startX. An
// incomplete parameter set therefore degrades to the non-transition
// behaviour.
func (p voiceParams) startEnd(key string, def float64) (start, end float64) {
	start = p.float("start"+titleKey(key), p.float(key, def))
	end = p.float("end"+titleKey(key), start)
	return start, end
}

func (p voiceParams) startEndBool(key string, def bool) (start, end bool) {
	start = def
	if v, ok := p["start"+titleKey(key)].(bool); ok {
		start = v
	} else if v, ok := p[key].(bool); ok {
		start = v
	}
	end = start
	if v, ok := p["end"+titleKey(key)].(bool); ok {
		end = v
	}
	return start, end
}

func titleKey(key string) string {
	if key == "" {
		return key
	}
	b := []byte(key)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

// Transition curve tags
const (
	TRANS_CURVE_LINEAR      = "linear"
	TRANS_CURVE_LOGARITHMIC = "logarithmic"
	TRANS_CURVE_EXPONENTIAL = "exponential"
)

// transitionSpan turns elapsed time into the interpolation fraction
// alpha: clamped to 0 before initialOffset, to 1 after
// duration-postOffset, curve-mapped in between.
type transitionSpan struct {
	duration      float64
	initialOffset float64
	postOffset    float64
	curve         string
}

func newTransitionSpan(p voiceParams, duration float64) transitionSpan {
	return transitionSpan{
		duration:      duration,
		initialOffset: math.Max(0, p.float("initialOffset", 0)),
		postOffset:    math.Max(0, p.float("postOffset", 0)),
		curve:         p.str("transitionCurve", TRANS_CURVE_LINEAR),
	}
}

func (ts *transitionSpan) alpha(t float64) float64 {
	span := ts.duration - ts.initialOffset - ts.postOffset
	var a float64
	switch {
	case t <= ts.initialOffset:
		a = 0
	case span <= 0 || t >= ts.duration-ts.postOffset:
		a = 1
	default:
		a = (t - ts.initialOffset) / span
	}
	switch ts.curve {
	case TRANS_CURVE_LOGARITHMIC:
		return 1 - (1-a)*(1-a)
	case TRANS_CURVE_EXPONENTIAL:
		return a * a
	default:
		return a
	}
}

// flipBool switches a boolean parameter midway through the transition
// when its endpoints differ.
func flipBool(start, end bool, alpha float64) bool {
	if start == end {
		return start
	}
	if alpha < 0.5 {
		return start
	}
	return end
}

// newStepVoices builds the voices for a step. Unknown synth tags are
// logged and skipped so the rest of the step stays valid.
func newStepVoices(step *StepData, sampleRate float64) []stepVoice {
	voices := make([]stepVoice, 0, len(step.Voices))
	for i := range step.Voices {
		vd := &step.Voices[i]
		voice, err := newVoice(vd, step.Duration, sampleRate)
		if err != nil {
			log.Printf("voice: skipping voices[%d]: %v (%s)", i, err, vd.SynthFunction)
			continue
		}
		if len(vd.VolumeEnvelope) > 0 {
			voice = newVolumeEnvelopeVoice(voice, vd.VolumeEnvelope, step.Duration, sampleRate)
		}
		voices = append(voices, stepVoice{voice: voice, voiceType: vd.VoiceType})
	}
	return voices
}

func newVoice(vd *VoiceData, stepDuration, sampleRate float64) (Voice, error) {
	params := voiceParams(vd.Params)
	switch vd.SynthFunction {
	case SYNTH_BINAURAL:
		return newBinauralBeat(params, stepDuration, sampleRate), nil
	case SYNTH_BINAURAL_TRANSITION:
		return newBinauralBeatTransition(params, stepDuration, sampleRate), nil
	case SYNTH_ISOCHRONIC:
		return newIsochronicTone(params, stepDuration, sampleRate), nil
	case SYNTH_ISOCHRONIC_TRANS:
		return newIsochronicToneTransition(params, stepDuration, sampleRate), nil
	case SYNTH_NOISE:
		v, err := newNoiseSweptNotchVoice(params, stepDuration, sampleRate, false)
		if err != nil {
			return nil, err
		}
		return v, nil
	case SYNTH_NOISE_TRANSITION:
		v, err := newNoiseSweptNotchVoice(params, stepDuration, sampleRate, true)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, ErrUnknownSynth
	}
}

// volumeEnvelopeVoice wraps any inner voice with a precomputed gain
// curve sampled at the step rate.
type volumeEnvelopeVoice struct {
	inner   Voice
	env     []float32
	idx     int
	scratch []float32
	peak    float64
}

func newVolumeEnvelopeVoice(inner Voice, points EnvelopePoints, stepDuration, sampleRate float64) *volumeEnvelopeVoice {
	n := int(stepDuration * sampleRate)
	if n < 1 {
		n = 1
	}
	env := make([]float32, n)
	for i := range env {
		env[i] = float32(points.valueAt(float64(i) / sampleRate))
	}
	return &volumeEnvelopeVoice{
		inner: inner,
		env:   env,
		peak:  inner.NormalizationPeak() * points.max(),
	}
}

func (v *volumeEnvelopeVoice) Process(out []float32) {
	frames := len(out) / 2
	if cap(v.scratch) < frames*2 {
		v.scratch = make([]float32, frames*2)
	}
	scratch := v.scratch[:frames*2]
	for i := range scratch {
		scratch[i] = 0
	}
	v.inner.Process(scratch)
	for i := 0; i < frames; i++ {
		gain := float32(1.0)
		if v.idx+i < len(v.env) {
			gain = v.env[v.idx+i]
		} else if len(v.env) > 0 {
			gain = v.env[len(v.env)-1]
		}
		out[i*2] += scratch[i*2] * gain
		out[i*2+1] += scratch[i*2+1] * gain
	}
	v.idx += frames
}

func (v *volumeEnvelopeVoice) IsFinished() bool {
	return v.inner.IsFinished() && v.idx >= len(v.env)
}

func (v *volumeEnvelopeVoice) NormalizationPeak() float64 { return v.peak }

func (v *volumeEnvelopeVoice) Phases() (float64, float64, bool) { return v.inner.Phases() }

func (v *volumeEnvelopeVoice) SetPhases(l, r float64) { v.inner.SetPhases(l, r) }

func (v *volumeEnvelopeVoice) setElapsed(samples int) {
	v.idx = samples
	if es, ok := v.inner.(elapsedSetter); ok {
		es.setElapsed(samples)
	}
}

func (v *volumeEnvelopeVoice) close() {
	if vc, ok := v.inner.(voiceCloser); ok {
		vc.close()
	}
}
