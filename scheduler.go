// scheduler.go - Track scheduler: step sequencing, crossfade, phase handoff, mixdown

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
	"reflect"
)

type voicePhase struct {
	l, r float64
}

// TrackScheduler walks the step list and synthesises the stereo stream.
// It owns the voices and the background-noise generator; the engine
// serialises every entry point behind one mutex, so nothing in here
// locks.
type TrackScheduler struct {
	track      *TrackData
	sampleRate float64

	currentStep         int
	currentSampleInStep int
	absoluteSample      uint64
	paused              bool

	activeVoices []stepVoice
	voicesBuilt  bool
	// Samples already consumed of the current step before its voices
	// were (re)built; applied via setElapsed on lazy instantiation.
	pendingElapsed int

	nextVoices        []stepVoice
	crossfadeActive   bool
	crossfadeSamples  int
	crossfadePosition int

	// Oscillator phases harvested at the last step boundary, applied to
	// the next step's oscillator voices in slot order.
	accumulatedPhases []voicePhase

	masterGain   float64
	voiceGain    float64
	noiseGain    float64
	normOverride float64

	background *backgroundNoise

	scratchCur   []float32
	scratchNext  []float32
	groupScratch []float32
}

func NewTrackScheduler(track *TrackData, sampleRate float64) *TrackScheduler {
	s := &TrackScheduler{
		track:      track,
		sampleRate: sampleRate,
		masterGain: 1,
		voiceGain:  1,
		noiseGain:  1,
	}
	if track.BackgroundNoise != nil {
		s.background = newBackgroundNoise(track.BackgroundNoise, track, sampleRate)
	}
	return s
}

// Close releases all noise workers.
func (s *TrackScheduler) Close() {
	s.releaseVoices(s.activeVoices)
	s.releaseVoices(s.nextVoices)
	s.activeVoices = nil
	s.nextVoices = nil
	if s.background != nil {
		s.background.close()
	}
}

func (s *TrackScheduler) releaseVoices(voices []stepVoice) {
	for _, sv := range voices {
		if vc, ok := sv.voice.(voiceCloser); ok {
			vc.close()
		}
	}
}

func (s *TrackScheduler) SampleRate() float64 { return s.sampleRate }

func (s *TrackScheduler) CurrentStep() int { return s.currentStep }

func (s *TrackScheduler) AbsoluteSample() uint64 { return s.absoluteSample }

func (s *TrackScheduler) Paused() bool { return s.paused }

func (s *TrackScheduler) SetPaused(paused bool) { s.paused = paused }

func (s *TrackScheduler) SetMasterGain(gain float64) { s.masterGain = math.Max(0, gain) }

func (s *TrackScheduler) SetVoiceGain(gain float64) { s.voiceGain = math.Max(0, gain) }

func (s *TrackScheduler) SetNoiseGain(gain float64) { s.noiseGain = math.Max(0, gain) }

// SetNormalizationLevel overrides every step's normalisation target in
// realtime; 0 restores the per-step/global levels.
func (s *TrackScheduler) SetNormalizationLevel(level float64) {
	s.normOverride = clampF(level, 0, 1)
}

func (s *TrackScheduler) stepSamplesAt(idx int) int {
	n := int(s.track.Steps[idx].Duration * s.sampleRate)
	if n < 1 {
		n = 1
	}
	return n
}

// configuredCrossfade returns the crossfade length in samples for the
// boundary between steps cur and cur+1, clamped to both step lengths.
func (s *TrackScheduler) configuredCrossfade(cur int) int {
	fade := int(s.track.GlobalSettings.CrossfadeDuration * s.sampleRate)
	if fade <= 0 || cur+1 >= len(s.track.Steps) {
		return 0
	}
	if cs := s.stepSamplesAt(cur); fade > cs {
		fade = cs
	}
	if ns := s.stepSamplesAt(cur + 1); fade > ns {
		fade = ns
	}
	return fade
}

// stepsHaveContinuousVoices reports whether two adjacent steps carry an
// identical voice arrangement. Continuous steps hand phases across the
// boundary instead of crossfading.
func stepsHaveContinuousVoices(a, b *StepData) bool {
	if len(a.Voices) != len(b.Voices) {
		return false
	}
	for i := range a.Voices {
		va, vb := &a.Voices[i], &b.Voices[i]
		if va.SynthFunction != vb.SynthFunction ||
			va.IsTransition != vb.IsTransition ||
			va.VoiceType != vb.VoiceType ||
			!reflect.DeepEqual(va.Params, vb.Params) {
			return false
		}
	}
	return true
}

// crossfadeGains maps the normalised crossfade position r into the
// outgoing and incoming gains for the configured curve.
func crossfadeGains(curve string, r float64) (gOut, gIn float64) {
	if curve == CURVE_EQUAL_POWER {
		return math.Cos(r * math.Pi / 2), math.Sin(r * math.Pi / 2)
	}
	return 1 - r, r
}

// ensureActiveVoices lazily instantiates the current step's voices,
// applying the harvested phases in slot order. Noise voices consume no
// phase slot.
func (s *TrackScheduler) ensureActiveVoices() {
	if s.voicesBuilt || s.currentStep >= len(s.track.Steps) {
		return
	}
	step := &s.track.Steps[s.currentStep]
	s.activeVoices = newStepVoices(step, s.sampleRate)
	applyPhases(s.activeVoices, s.accumulatedPhases)
	s.accumulatedPhases = nil
	if s.pendingElapsed > 0 {
		for _, sv := range s.activeVoices {
			if es, ok := sv.voice.(elapsedSetter); ok {
				es.setElapsed(s.pendingElapsed)
			}
		}
		s.pendingElapsed = 0
	}
	s.voicesBuilt = true
}

func applyPhases(voices []stepVoice, phases []voicePhase) {
	idx := 0
	for _, sv := range voices {
		if _, _, ok := sv.voice.Phases(); !ok {
			continue
		}
		if idx >= len(phases) {
			break
		}
		sv.voice.SetPhases(phases[idx].l, phases[idx].r)
		idx++
	}
}

func harvestPhases(voices []stepVoice) []voicePhase {
	var phases []voicePhase
	for _, sv := range voices {
		if l, r, ok := sv.voice.Phases(); ok {
			phases = append(phases, voicePhase{l: l, r: r})
		}
	}
	return phases
}

// ProcessBlock fills out (interleaved stereo, len = 2*frames) with the
// next slice of the track.
func (s *TrackScheduler) ProcessBlock(out []float32) {
	for i := range out {
		out[i] = 0
	}
	frames := len(out) / 2
	if s.paused || s.track == nil || s.currentStep >= len(s.track.Steps) {
		return
	}

	// A span of zero frames still advances the step machine, so the
	// loop terminates: every iteration renders or moves the step index.
	offset := 0
	for offset < frames && s.currentStep < len(s.track.Steps) {
		offset += s.processSpan(out[offset*2:], frames-offset)
	}

	if s.voiceGain != 1 {
		vg := float32(s.voiceGain)
		for i := range out {
			out[i] *= vg
		}
	}

	if s.background != nil {
		s.background.mix(out, frames, s.absoluteSample, s.noiseGain)
	}

	if s.masterGain != 1 {
		mg := float32(s.masterGain)
		for i := range out {
			out[i] *= mg
		}
	}

	s.absoluteSample += uint64(frames)
}

// processSpan renders up to maxFrames frames without crossing a state
// boundary (crossfade start/end or step end) and returns how many it
// produced.
func (s *TrackScheduler) processSpan(out []float32, maxFrames int) int {
	s.ensureActiveVoices()
	step := &s.track.Steps[s.currentStep]
	stepSamples := s.stepSamplesAt(s.currentStep)

	if s.crossfadeActive {
		n := s.crossfadeSamples - s.crossfadePosition
		if n > maxFrames {
			n = maxFrames
		}
		s.renderCrossfade(out, n)
		s.crossfadePosition += n
		s.currentSampleInStep += n
		if s.crossfadePosition >= s.crossfadeSamples {
			// The incoming step is already crossfadeSamples deep.
			s.releaseVoices(s.activeVoices)
			s.activeVoices = s.nextVoices
			s.nextVoices = nil
			s.voicesBuilt = true
			s.currentStep++
			s.currentSampleInStep = s.crossfadeSamples
			s.crossfadeActive = false
			s.crossfadePosition = 0
			s.crossfadeSamples = 0
		}
		return n
	}

	// Decide whether a crossfade applies at the upcoming boundary.
	fadeLen := s.configuredCrossfade(s.currentStep)
	crossfading := false
	if fadeLen > 0 && s.currentStep+1 < len(s.track.Steps) {
		next := &s.track.Steps[s.currentStep+1]
		crossfading = !stepsHaveContinuousVoices(step, next)
	}

	if crossfading && s.currentSampleInStep >= stepSamples-fadeLen {
		// Start the crossfade: the next step's voices begin fresh, with
		// no phase handoff. That discontinuity is what the fade masks.
		s.nextVoices = newStepVoices(&s.track.Steps[s.currentStep+1], s.sampleRate)
		s.crossfadeActive = true
		s.crossfadeSamples = fadeLen
		s.crossfadePosition = 0
		return s.processSpan(out, maxFrames)
	}

	limit := stepSamples
	if crossfading {
		limit = stepSamples - fadeLen
	}
	n := limit - s.currentSampleInStep
	if n > maxFrames {
		n = maxFrames
	}
	if n > 0 {
		s.renderStepVoices(out[:n*2], s.activeVoices, step)
		s.currentSampleInStep += n
	}

	if s.currentSampleInStep >= stepSamples {
		// Plain boundary: harvest oscillator phases for the next step's
		// matching slots, then rebuild lazily.
		s.accumulatedPhases = harvestPhases(s.activeVoices)
		s.releaseVoices(s.activeVoices)
		s.activeVoices = nil
		s.voicesBuilt = false
		s.currentStep++
		s.currentSampleInStep = 0
	}
	return n
}

func (s *TrackScheduler) renderCrossfade(out []float32, n int) {
	if cap(s.scratchCur) < n*2 {
		s.scratchCur = make([]float32, n*2)
		s.scratchNext = make([]float32, n*2)
	}
	cur := s.scratchCur[:n*2]
	next := s.scratchNext[:n*2]
	for i := range cur {
		cur[i] = 0
		next[i] = 0
	}
	step := &s.track.Steps[s.currentStep]
	nextStep := &s.track.Steps[s.currentStep+1]
	s.renderStepVoices(cur, s.activeVoices, step)
	s.renderStepVoices(next, s.nextVoices, nextStep)

	curve := s.track.GlobalSettings.CrossfadeCurve
	for i := 0; i < n; i++ {
		r := float64(s.crossfadePosition+i) / float64(s.crossfadeSamples)
		gOut, gIn := crossfadeGains(curve, r)
		out[i*2] += cur[i*2]*float32(gOut) + next[i*2]*float32(gIn)
		out[i*2+1] += cur[i*2+1]*float32(gOut) + next[i*2+1]*float32(gIn)
	}
}

// renderStepVoices runs the per-group mixdown: each voice-type group is
// rendered into shared scratch, scaled by min(target/peak, 1) and the
// step's clamped group volume, then summed into out.
func (s *TrackScheduler) renderStepVoices(out []float32, voices []stepVoice, step *StepData) {
	if len(voices) == 0 {
		return
	}
	n := len(out)
	if cap(s.groupScratch) < n {
		s.groupScratch = make([]float32, n)
	}
	scratch := s.groupScratch[:n]
	target := s.track.normalizationTarget(step, s.normOverride)

	for _, group := range [...]string{VOICE_TYPE_BINAURAL, VOICE_TYPE_NOISE, VOICE_TYPE_OTHER} {
		var groupPeak float64
		rendered := false
		for _, sv := range voices {
			if sv.voiceType != group {
				continue
			}
			if !rendered {
				for i := range scratch {
					scratch[i] = 0
				}
				rendered = true
			}
			sv.voice.Process(scratch)
			if p := sv.voice.NormalizationPeak(); p > groupPeak {
				groupPeak = p
			}
		}
		if !rendered {
			continue
		}

		gain := 1.0
		if groupPeak > 0 && target/groupPeak < 1 {
			gain = target / groupPeak
		}
		volume := step.BinauralVolume
		if group == VOICE_TYPE_NOISE {
			volume = step.NoiseVolume
		}
		gain *= clampF(volume, 0, MAX_INDIVIDUAL_GAIN)

		g := float32(gain)
		for i := range scratch {
			out[i] += scratch[i] * g
		}
	}
}

// SeekTo jumps to the given position in seconds. Out-of-range positions
// clamp; voice oscillators restart from phase zero, which a hard seek
// accepts.
func (s *TrackScheduler) SeekTo(seconds float64) {
	if seconds < 0 {
		seconds = 0
	}
	total := s.track.TotalDuration()
	if seconds > total {
		seconds = total
	}
	s.absoluteSample = uint64(seconds * s.sampleRate)

	s.releaseVoices(s.activeVoices)
	s.releaseVoices(s.nextVoices)
	s.activeVoices = nil
	s.nextVoices = nil
	s.voicesBuilt = false
	s.accumulatedPhases = nil
	s.crossfadeActive = false
	s.crossfadePosition = 0
	s.crossfadeSamples = 0

	remaining := int(s.absoluteSample)
	s.currentStep = 0
	s.currentSampleInStep = 0
	for s.currentStep < len(s.track.Steps) {
		stepSamples := s.stepSamplesAt(s.currentStep)
		if remaining < stepSamples {
			s.currentSampleInStep = remaining
			break
		}
		remaining -= stepSamples
		s.currentStep++
	}
	s.pendingElapsed = s.currentSampleInStep

	if s.background != nil {
		s.background.realign(s.absoluteSample)
	}
}

// UpdateTrack swaps the track definition in place. The background-noise
// generator survives when the new configuration is compatible;
// otherwise it is rebuilt. The current step's voices are rebuilt at the
// current position with their oscillator phases carried over, so a
// compatible update is audibly continuous.
func (s *TrackScheduler) UpdateTrack(track *TrackData) {
	phases := harvestPhases(s.activeVoices)
	s.releaseVoices(s.activeVoices)
	s.releaseVoices(s.nextVoices)
	s.activeVoices = nil
	s.nextVoices = nil
	s.voicesBuilt = false
	s.crossfadeActive = false
	s.crossfadePosition = 0
	s.crossfadeSamples = 0

	oldBG := (*BackgroundNoiseData)(nil)
	if s.track != nil {
		oldBG = s.track.BackgroundNoise
	}
	s.track = track

	if s.currentStep >= len(track.Steps) {
		s.currentStep = len(track.Steps)
		s.currentSampleInStep = 0
		if s.background != nil && track.BackgroundNoise == nil {
			s.background.close()
			s.background = nil
		}
		return
	}
	if s.currentSampleInStep > s.stepSamplesAt(s.currentStep) {
		s.currentSampleInStep = s.stepSamplesAt(s.currentStep)
	}
	s.accumulatedPhases = phases
	s.pendingElapsed = s.currentSampleInStep

	newBG := track.BackgroundNoise
	switch {
	case newBG == nil:
		if s.background != nil {
			s.background.close()
			s.background = nil
		}
	case s.background != nil && backgroundCompatible(oldBG, newBG) && s.background.gen.UpdateRealtimeParams(&newBG.Params):
		s.background.data = newBG
	default:
		if s.background != nil {
			s.background.close()
		}
		s.background = newBackgroundNoise(newBG, track, s.sampleRate)
		s.background.realign(s.absoluteSample)
	}
}

// backgroundCompatible reports whether the generator built for old can
// keep running under new: everything but the sweep endpoints must
// match, and UpdateRealtimeParams judges those.
func backgroundCompatible(old, new_ *BackgroundNoiseData) bool {
	if old == nil || new_ == nil {
		return false
	}
	return old.File == new_.File &&
		old.StartTime == new_.StartTime &&
		old.FadeIn == new_.FadeIn &&
		old.FadeOut == new_.FadeOut &&
		reflect.DeepEqual(old.AmpEnvelope, new_.AmpEnvelope)
}

// backgroundNoise overlays a streaming-noise bed across step boundaries.
type backgroundNoise struct {
	data *BackgroundNoiseData
	gen  *StreamingNoise

	sampleRate      float64
	startSample     uint64
	fadeInSamples   int
	fadeOutSamples  int
	durationSamples int
	playbackSample  int

	scratch []float32
}

func newBackgroundNoise(data *BackgroundNoiseData, track *TrackData, sampleRate float64) *backgroundNoise {
	params := data.Params
	if params.DurationSeconds <= 0 {
		params.DurationSeconds = track.TotalDuration() - data.StartTime
		if params.DurationSeconds < 0 {
			params.DurationSeconds = 0
		}
	}
	return &backgroundNoise{
		data:            data,
		gen:             NewStreamingNoise(&params, sampleRate),
		sampleRate:      sampleRate,
		startSample:     uint64(data.StartTime * sampleRate),
		fadeInSamples:   int(data.FadeIn * sampleRate),
		fadeOutSamples:  int(data.FadeOut * sampleRate),
		durationSamples: int(params.DurationSeconds * sampleRate),
	}
}

func (b *backgroundNoise) close() {
	if b.gen != nil {
		b.gen.Close()
	}
}

// realign rebuilds the stream position after a seek: the generator
// cannot rewind, so a fresh one is skipped forward to the target.
func (b *backgroundNoise) realign(absoluteSample uint64) {
	b.gen.Close()
	params := b.data.Params
	if params.DurationSeconds <= 0 {
		params.DurationSeconds = float64(b.durationSamples) / b.sampleRate
	}
	b.gen = NewStreamingNoise(&params, b.sampleRate)
	b.playbackSample = 0
	if absoluteSample > b.startSample {
		skip := int(absoluteSample - b.startSample)
		if skip > b.durationSamples {
			skip = b.durationSamples
		}
		b.gen.SkipSamples(skip)
		b.playbackSample = skip
	}
}

func (b *backgroundNoise) envelopeAt(sample int) float64 {
	if len(b.data.AmpEnvelope) == 0 {
		return 1
	}
	return b.data.AmpEnvelope.valueAt(float64(sample) / b.sampleRate)
}

// mix overlays up to frames frames of noise into out, honouring the
// start offset, the fade ramps and the user envelope.
func (b *backgroundNoise) mix(out []float32, frames int, absoluteSample uint64, noiseGain float64) {
	if b.playbackSample >= b.durationSamples {
		return
	}
	skipFrames := 0
	if absoluteSample < b.startSample {
		gap := b.startSample - absoluteSample
		if gap >= uint64(frames) {
			return
		}
		skipFrames = int(gap)
	}

	n := frames - skipFrames
	if left := b.durationSamples - b.playbackSample; n > left {
		n = left
	}
	if n <= 0 {
		return
	}

	if cap(b.scratch) < n*2 {
		b.scratch = make([]float32, n*2)
	}
	scratch := b.scratch[:n*2]
	b.gen.Generate(scratch)

	baseGain := b.data.Gain * noiseGain
	for i := 0; i < n; i++ {
		pos := b.playbackSample + i
		g := baseGain
		if b.fadeInSamples > 0 && pos < b.fadeInSamples {
			g *= float64(pos) / float64(b.fadeInSamples)
		}
		if b.fadeOutSamples > 0 && pos >= b.durationSamples-b.fadeOutSamples {
			g *= float64(b.durationSamples-pos) / float64(b.fadeOutSamples)
		}
		g *= b.envelopeAt(pos)

		outIdx := (skipFrames + i) * 2
		out[outIdx] += scratch[i*2] * float32(g)
		out[outIdx+1] += scratch[i*2+1] * float32(g)
	}
	b.playbackSample += n
}
