// noise_streaming.go - Streaming noise with swept notch cascades over an overlap-add frame

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
	"sort"
)

const (
	// Overlap-add frame geometry: 2048-sample Hann window, 50% hop.
	OLA_BLOCK_SIZE = 2048
	OLA_HOP_SIZE   = OLA_BLOCK_SIZE / 2

	// Per-block RMS compensation for the notch stage. More conservative
	// hysteresis and faster smoothing than the base generator because
	// this path updates at block rate and must settle between blocks.
	OLA_RMS_HYSTERESIS_RATIO = 0.15
	OLA_GAIN_SMOOTHING_COEFF = 0.998
)

// scipySawtoothTriangle matches signal.sawtooth(phase, width=0.5): a
// triangle rising -1..1 over the first half cycle and falling back over
// the second.
func scipySawtoothTriangle(phase float64) float64 {
	t := math.Mod(phase, TWO_PI)
	if t < 0 {
		t += TWO_PI
	}
	t /= TWO_PI
	const width = 0.5
	if t < width {
		return -1 + 2*t/width
	}
	return 1 - 2*(t-width)/(1-width)
}

// lfoValue evaluates the notch-position LFO. The "sine" tag is cosine so
// a zero-phase LFO starts at the top of its range.
func lfoValue(phase float64, waveform string) float64 {
	if waveform == "triangle" || waveform == "Triangle" {
		return scipySawtoothTriangle(phase)
	}
	return cosLut(phase)
}

// sweepParams holds one sweep's interpolation endpoints after defaulting.
type sweepParams struct {
	startMin, endMin   float64
	startMax, endMax   float64
	startQ, endQ       float64
	startCasc, endCasc int
}

// sweepRuntime carries the persistent cascade states for one sweep.
// Every stage keeps its own state across blocks, exactly like a true
// series of biquads over a continuous signal.
type sweepRuntime struct {
	maxCasc int
	lMain   []biquadState
	rMain   []biquadState
	lExtra  []biquadState
	rExtra  []biquadState
}

func newSweepRuntime(maxCasc int) *sweepRuntime {
	if maxCasc < 1 {
		maxCasc = 1
	}
	return &sweepRuntime{
		maxCasc: maxCasc,
		lMain:   make([]biquadState, maxCasc),
		rMain:   make([]biquadState, maxCasc),
		lExtra:  make([]biquadState, maxCasc),
		rExtra:  make([]biquadState, maxCasc),
	}
}

// olaState is the overlap-add machinery: an input ring fed by the base
// generator, per-channel accumulators with the running window sum, and
// every scratch series preallocated so the audio callback never
// allocates.
type olaState struct {
	inputRing            []float64
	inputWritePos        int
	inputSamplesBuffered int

	outAccL []float64
	outAccR []float64
	winAcc  []float64

	accReadPos  int
	accWritePos int

	samplesReady       int
	absoluteBlockStart int

	window []float64

	blockL []float64
	blockR []float64

	smoothedGainL float64
	smoothedGainR float64

	tVals          []float64
	lfoMainL       []float64
	lfoMainR       []float64
	lfoExtraL      []float64
	lfoExtraR      []float64
	qSeries        []float64
	cascSeries     []int
	notchFreqL     []float64
	notchFreqR     []float64
	notchFreqLExtr []float64
	notchFreqRExtr []float64
}

// hannWindow matches np.hanning: 0.5 - 0.5*cos(2*pi*n/(N-1)).
func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for n := range w {
		w[n] = 0.5 - 0.5*math.Cos(TWO_PI*float64(n)/float64(size-1))
	}
	return w
}

func newOlaState() *olaState {
	accSize := OLA_BLOCK_SIZE * 2
	return &olaState{
		inputRing:      make([]float64, OLA_BLOCK_SIZE),
		outAccL:        make([]float64, accSize),
		outAccR:        make([]float64, accSize),
		winAcc:         make([]float64, accSize),
		window:         hannWindow(OLA_BLOCK_SIZE),
		blockL:         make([]float64, OLA_BLOCK_SIZE),
		blockR:         make([]float64, OLA_BLOCK_SIZE),
		smoothedGainL:  1,
		smoothedGainR:  1,
		tVals:          make([]float64, OLA_BLOCK_SIZE),
		lfoMainL:       make([]float64, OLA_BLOCK_SIZE),
		lfoMainR:       make([]float64, OLA_BLOCK_SIZE),
		lfoExtraL:      make([]float64, OLA_BLOCK_SIZE),
		lfoExtraR:      make([]float64, OLA_BLOCK_SIZE),
		qSeries:        make([]float64, OLA_BLOCK_SIZE),
		cascSeries:     make([]int, OLA_BLOCK_SIZE),
		notchFreqL:     make([]float64, OLA_BLOCK_SIZE),
		notchFreqR:     make([]float64, OLA_BLOCK_SIZE),
		notchFreqLExtr: make([]float64, OLA_BLOCK_SIZE),
		notchFreqRExtr: make([]float64, OLA_BLOCK_SIZE),
	}
}

// StreamingNoise wraps the FFT generator with time-varying notch
// cascades, producing interleaved stereo.
type StreamingNoise struct {
	sampleRate      float64
	durationSamples int

	startLFOFreq        float64
	endLFOFreq          float64
	lfoFreq             float64
	startLFOPhaseOffset float64
	endLFOPhaseOffset   float64
	startIntraOffset    float64
	endIntraOffset      float64
	lfoWaveform         string
	initialOffset       float64

	sweeps       []sweepParams
	sweepRuntime []*sweepRuntime

	transition bool

	fftGen *fftNoiseGenerator
	ola    *olaState

	totalSamplesOutput int
}

// buildSweepParams applies the defaulting rules for absent sweep fields.
func buildSweepParams(params *NoiseParams) []sweepParams {
	out := make([]sweepParams, 0, len(params.Sweeps))
	for _, sw := range params.Sweeps {
		startMin := sw.StartMin
		if startMin <= 0 {
			startMin = 1000
		}
		endMin := sw.EndMin
		if endMin <= 0 {
			endMin = startMin
		}
		startMax := sw.StartMax
		if startMax > 0 {
			startMax = math.Max(startMax, startMin+1)
		} else {
			startMax = startMin + 9000
		}
		endMax := sw.EndMax
		if endMax > 0 {
			endMax = math.Max(endMax, endMin+1)
		} else {
			endMax = startMax
		}
		startQ := sw.StartQ
		if startQ <= 0 {
			startQ = 25
		}
		endQ := sw.EndQ
		if endQ <= 0 {
			endQ = startQ
		}
		startCasc := sw.StartCasc
		if startCasc <= 0 {
			startCasc = 10
		}
		endCasc := sw.EndCasc
		if endCasc <= 0 {
			endCasc = startCasc
		}
		out = append(out, sweepParams{
			startMin: startMin, endMin: endMin,
			startMax: startMax, endMax: endMax,
			startQ: startQ, endQ: endQ,
			startCasc: startCasc, endCasc: endCasc,
		})
	}
	return out
}

func resolvedLFOFreq(params *NoiseParams) float64 {
	if params.Transition {
		return params.StartLFOFreq
	}
	if params.LFOFreq != 0 {
		return params.LFOFreq
	}
	return 1.0 / 12.0
}

func NewStreamingNoise(params *NoiseParams, sampleRate float64) *StreamingNoise {
	lfoFreq := resolvedLFOFreq(params)
	sweeps := buildSweepParams(params)
	runtime := make([]*sweepRuntime, len(sweeps))
	for i, sp := range sweeps {
		maxCasc := sp.startCasc
		if sp.endCasc > maxCasc {
			maxCasc = sp.endCasc
		}
		runtime[i] = newSweepRuntime(maxCasc)
	}

	startLFO := params.StartLFOFreq
	if startLFO <= 0 {
		startLFO = lfoFreq
	}
	endLFO := params.EndLFOFreq
	if endLFO <= 0 {
		endLFO = lfoFreq
	}

	gen := &StreamingNoise{
		sampleRate:          sampleRate,
		durationSamples:     int(params.DurationSeconds * sampleRate),
		startLFOFreq:        startLFO,
		endLFOFreq:          endLFO,
		lfoFreq:             lfoFreq,
		startLFOPhaseOffset: params.StartLFOPhaseOffsetDeg * math.Pi / 180,
		endLFOPhaseOffset:   params.EndLFOPhaseOffsetDeg * math.Pi / 180,
		startIntraOffset:    params.StartIntraPhaseOffsetDeg * math.Pi / 180,
		endIntraOffset:      params.EndIntraPhaseOffsetDeg * math.Pi / 180,
		lfoWaveform:         params.LFOWaveform,
		initialOffset:       params.InitialOffset,
		sweeps:              sweeps,
		sweepRuntime:        runtime,
		transition:          params.Transition,
		fftGen:              newFFTNoiseGenerator(params, sampleRate),
		ola:                 newOlaState(),
	}

	// Unmodulated noise latches its makeup gain during the first
	// renormalisation window. Burn that window here so playback does
	// not start with a fade-in artifact.
	if len(params.Sweeps) == 0 {
		for i := 0; i < RENORM_WINDOW; i++ {
			gen.fftGen.next()
		}
	}

	return gen
}

// NewStreamingNoiseCalibrated builds a generator and measures a robust
// peak over calibrationFrames frames of a throwaway twin. Deep high-Q
// cascades can spike single samples; the 99.9th percentile keeps one
// poisoned sample from collapsing the group normalisation.
func NewStreamingNoiseCalibrated(params *NoiseParams, sampleRate float64, calibrationFrames int) (*StreamingNoise, float64) {
	if calibrationFrames < 1 {
		calibrationFrames = 1
	}

	calib := NewStreamingNoise(params, sampleRate)
	scratch := make([]float32, calibrationFrames*2)
	calib.Generate(scratch)
	calib.Close()

	absVals := make([]float64, len(scratch))
	for i, v := range scratch {
		absVals[i] = math.Abs(float64(v))
	}
	sort.Float64s(absVals)
	idx := int(float64(len(absVals)) * 0.999)
	if idx > len(absVals)-1 {
		idx = len(absVals) - 1
	}
	peak := absVals[idx]
	if peak < 1e-9 {
		peak = 1e-9
	}

	return NewStreamingNoise(params, sampleRate), peak
}

// Close stops the background FFT worker.
func (s *StreamingNoise) Close() {
	if s.fftGen != nil {
		s.fftGen.close()
	}
}

// UpdateRealtimeParams swaps in new sweep endpoints without rebuilding
// the generator. It refuses when the sweep count changed or a new
// cascade depth exceeds what was allocated; the caller must rebuild.
func (s *StreamingNoise) UpdateRealtimeParams(params *NoiseParams) bool {
	if len(params.Sweeps) != len(s.sweeps) {
		return false
	}

	lfoFreq := resolvedLFOFreq(params)
	sweeps := buildSweepParams(params)
	for i, sp := range sweeps {
		maxCasc := sp.startCasc
		if sp.endCasc > maxCasc {
			maxCasc = sp.endCasc
		}
		if maxCasc < 1 {
			maxCasc = 1
		}
		if maxCasc > s.sweepRuntime[i].maxCasc {
			return false
		}
	}
	for i, sp := range sweeps {
		maxCasc := sp.startCasc
		if sp.endCasc > maxCasc {
			maxCasc = sp.endCasc
		}
		if maxCasc < 1 {
			maxCasc = 1
		}
		s.sweepRuntime[i].maxCasc = maxCasc
	}

	s.sweeps = sweeps
	s.transition = params.Transition
	s.lfoWaveform = params.LFOWaveform
	s.lfoFreq = lfoFreq
	s.startLFOFreq = params.StartLFOFreq
	if s.startLFOFreq <= 0 {
		s.startLFOFreq = lfoFreq
	}
	s.endLFOFreq = params.EndLFOFreq
	if s.endLFOFreq <= 0 {
		s.endLFOFreq = lfoFreq
	}
	s.startLFOPhaseOffset = params.StartLFOPhaseOffsetDeg * math.Pi / 180
	s.endLFOPhaseOffset = params.EndLFOPhaseOffsetDeg * math.Pi / 180
	s.startIntraOffset = params.StartIntraPhaseOffsetDeg * math.Pi / 180
	s.endIntraOffset = params.EndIntraPhaseOffsetDeg * math.Pi / 180
	return true
}

// SkipSamples advances the stream by n frames, discarding the output.
// Used by the scheduler to realign background noise after a seek.
func (s *StreamingNoise) SkipSamples(n int) {
	if n <= 0 {
		return
	}
	scratch := make([]float32, n*2)
	s.Generate(scratch)
}

func (s *StreamingNoise) transitionFraction(sampleIdx int) float64 {
	if !s.transition || s.durationSamples == 0 {
		return 0
	}
	return clampF(float64(sampleIdx)/float64(s.durationSamples), 0, 1)
}

func (s *StreamingNoise) interpolateLFOFreq(t float64) float64 {
	if !s.transition {
		return s.lfoFreq
	}
	return lerp(s.startLFOFreq, s.endLFOFreq, t)
}

func (s *StreamingNoise) interpolatePhaseOffset(t float64) float64 {
	if !s.transition {
		return s.startLFOPhaseOffset
	}
	return lerp(s.startLFOPhaseOffset, s.endLFOPhaseOffset, t)
}

func (s *StreamingNoise) interpolateIntraOffset(t float64) float64 {
	if !s.transition {
		return s.startIntraOffset
	}
	return lerp(s.startIntraOffset, s.endIntraOffset, t)
}

func (s *StreamingNoise) computeLFOPhase(sampleIdx int, lfoFreq, extraPhaseOffset float64) float64 {
	t := float64(sampleIdx)/s.sampleRate + s.initialOffset
	return TWO_PI*lfoFreq*t + extraPhaseOffset
}

// processOlaBlock filters one 2048-sample frame and accumulates it. The
// window is applied after filtering so the IIR cascades see a continuous
// signal; the reader divides the window sum back out.
func (s *StreamingNoise) processOlaBlock() {
	ola := s.ola
	accSize := len(ola.outAccL)
	blockStartIdx := ola.absoluteBlockStart

	doExtra := math.Abs(s.startIntraOffset) > 1e-6 || math.Abs(s.endIntraOffset) > 1e-6

	for i := 0; i < OLA_BLOCK_SIZE; i++ {
		absIdx := blockStartIdx + i
		t := s.transitionFraction(absIdx)
		ola.tVals[i] = t

		lfoFreq := s.interpolateLFOFreq(t)
		phaseOffset := s.interpolatePhaseOffset(t)
		intraOffset := s.interpolateIntraOffset(t)

		lPhase := s.computeLFOPhase(absIdx, lfoFreq, 0)
		rPhase := s.computeLFOPhase(absIdx, lfoFreq, phaseOffset)
		ola.lfoMainL[i] = lfoValue(lPhase, s.lfoWaveform)
		ola.lfoMainR[i] = lfoValue(rPhase, s.lfoWaveform)
		if doExtra {
			ola.lfoExtraL[i] = lfoValue(lPhase+intraOffset, s.lfoWaveform)
			ola.lfoExtraR[i] = lfoValue(rPhase+intraOffset, s.lfoWaveform)
		}
	}

	var sumSqIn float64
	for i := 0; i < OLA_BLOCK_SIZE; i++ {
		ringIdx := (ola.inputWritePos + OLA_BLOCK_SIZE - ola.inputSamplesBuffered + i) % OLA_BLOCK_SIZE
		base := ola.inputRing[ringIdx]
		ola.blockL[i] = base
		ola.blockR[i] = base
		sumSqIn += base * base
	}
	rmsIn := math.Sqrt(sumSqIn / OLA_BLOCK_SIZE)

	for si := range s.sweeps {
		sp := &s.sweeps[si]
		rt := s.sweepRuntime[si]
		for i := 0; i < OLA_BLOCK_SIZE; i++ {
			t := ola.tVals[i]
			minF := lerp(sp.startMin, sp.endMin, t)
			maxF := lerp(sp.startMax, sp.endMax, t)
			ola.qSeries[i] = lerp(sp.startQ, sp.endQ, t)
			cascF := lerp(float64(sp.startCasc), float64(sp.endCasc), t)
			casc := int(math.Round(cascF))
			if casc < 1 {
				casc = 1
			}
			if casc > rt.maxCasc {
				casc = rt.maxCasc
			}
			ola.cascSeries[i] = casc

			centre := (minF + maxF) * 0.5
			halfRange := (maxF - minF) * 0.5
			ola.notchFreqL[i] = centre + halfRange*ola.lfoMainL[i]
			ola.notchFreqR[i] = centre + halfRange*ola.lfoMainR[i]
			if doExtra {
				ola.notchFreqLExtr[i] = centre + halfRange*ola.lfoExtraL[i]
				ola.notchFreqRExtr[i] = centre + halfRange*ola.lfoExtraR[i]
			}
		}

		biquadTimeVaryingBlock(ola.blockL, ola.notchFreqL, ola.qSeries, ola.cascSeries, rt.lMain, s.sampleRate)
		biquadTimeVaryingBlock(ola.blockR, ola.notchFreqR, ola.qSeries, ola.cascSeries, rt.rMain, s.sampleRate)
		if doExtra {
			biquadTimeVaryingBlock(ola.blockL, ola.notchFreqLExtr, ola.qSeries, ola.cascSeries, rt.lExtra, s.sampleRate)
			biquadTimeVaryingBlock(ola.blockR, ola.notchFreqRExtr, ola.qSeries, ola.cascSeries, rt.rExtra, s.sampleRate)
		}
	}

	// RMS compensation restores the loudness the notches removed. Only
	// when sweeps are active: steady noise would pump on block-to-block
	// RMS jitter. The clamp stops tiny post-RMS values from exploding
	// into spikes that poison peak calibration.
	if len(s.sweeps) > 0 && rmsIn > 1e-8 {
		var sumSqL, sumSqR float64
		for i := 0; i < OLA_BLOCK_SIZE; i++ {
			sumSqL += ola.blockL[i] * ola.blockL[i]
			sumSqR += ola.blockR[i] * ola.blockR[i]
		}
		rmsL := math.Sqrt(sumSqL / OLA_BLOCK_SIZE)
		rmsR := math.Sqrt(sumSqR / OLA_BLOCK_SIZE)

		rawTargetL := ola.smoothedGainL
		if rmsL > 1e-8 {
			rawTargetL = clampF(rmsIn/rmsL, 0.25, 16)
		}
		rawTargetR := ola.smoothedGainR
		if rmsR > 1e-8 {
			rawTargetR = clampF(rmsIn/rmsR, 0.25, 16)
		}

		targetGainL := ola.smoothedGainL
		if math.Abs(rawTargetL-ola.smoothedGainL)/math.Max(ola.smoothedGainL, 0.01) > OLA_RMS_HYSTERESIS_RATIO {
			targetGainL = rawTargetL
		}
		targetGainR := ola.smoothedGainR
		if math.Abs(rawTargetR-ola.smoothedGainR)/math.Max(ola.smoothedGainR, 0.01) > OLA_RMS_HYSTERESIS_RATIO {
			targetGainR = rawTargetR
		}

		for i := 0; i < OLA_BLOCK_SIZE; i++ {
			ola.smoothedGainL = OLA_GAIN_SMOOTHING_COEFF*ola.smoothedGainL + (1-OLA_GAIN_SMOOTHING_COEFF)*targetGainL
			ola.blockL[i] *= ola.smoothedGainL
		}
		for i := 0; i < OLA_BLOCK_SIZE; i++ {
			ola.smoothedGainR = OLA_GAIN_SMOOTHING_COEFF*ola.smoothedGainR + (1-OLA_GAIN_SMOOTHING_COEFF)*targetGainR
			ola.blockR[i] *= ola.smoothedGainR
		}
	}

	for i := 0; i < OLA_BLOCK_SIZE; i++ {
		ola.blockL[i] *= ola.window[i]
		ola.blockR[i] *= ola.window[i]
	}

	writeBase := ola.accWritePos
	for i := 0; i < OLA_BLOCK_SIZE; i++ {
		accIdx := (writeBase + i) % accSize
		ola.outAccL[accIdx] += ola.blockL[i]
		ola.outAccR[accIdx] += ola.blockR[i]
		ola.winAcc[accIdx] += ola.window[i]
	}

	ola.accWritePos = (ola.accWritePos + OLA_HOP_SIZE) % accSize
	ola.samplesReady += OLA_HOP_SIZE
	ola.absoluteBlockStart += OLA_HOP_SIZE
}

// Generate fills out (interleaved stereo, len = 2*frames) from the
// overlap-add accumulator, running new blocks as needed.
func (s *StreamingNoise) Generate(out []float32) {
	frames := len(out) / 2
	framesWritten := 0
	ola := s.ola
	accSize := len(ola.outAccL)

	for framesWritten < frames {
		if ola.samplesReady > 0 {
			readPos := ola.accReadPos

			winVal := ola.winAcc[readPos]
			var l, r float64
			if winVal > 1e-8 {
				l = ola.outAccL[readPos] / winVal
				r = ola.outAccR[readPos] / winVal
			}
			out[framesWritten*2] = float32(l)
			out[framesWritten*2+1] = float32(r)

			ola.outAccL[readPos] = 0
			ola.outAccR[readPos] = 0
			ola.winAcc[readPos] = 0

			ola.accReadPos = (readPos + 1) % accSize
			ola.samplesReady--
			s.totalSamplesOutput++
			framesWritten++
			continue
		}

		for ola.inputSamplesBuffered < OLA_BLOCK_SIZE {
			ola.inputRing[ola.inputWritePos] = s.fftGen.next()
			ola.inputWritePos = (ola.inputWritePos + 1) % OLA_BLOCK_SIZE
			ola.inputSamplesBuffered++
		}

		s.processOlaBlock()

		// The block consumed a hop's worth of input; the ring keeps the
		// other half for the 50% overlap.
		ola.inputSamplesBuffered = OLA_BLOCK_SIZE - OLA_HOP_SIZE
	}
}
