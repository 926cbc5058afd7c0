// noise_fft.go - FFT-shaped noise generator with double buffering and a background worker

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
	"log"
	"math"
)

const (
	// Raised-cosine crossfade applied when the playback cursor hands
	// off from the current buffer to the freshly generated one.
	NOISE_CROSSFADE_SAMPLES = 2048

	// Fade length used when the worker missed its deadline and the
	// current buffer has to restart from the top.
	UNDERRUN_FADE_SAMPLES = 512

	// Post-filter RMS tracking window for the Butterworth shelves.
	RENORM_WINDOW = 16384

	// Gain corrections below this relative change are ignored so
	// steady-state noise does not pump.
	RENORM_HYSTERESIS_RATIO = 0.10

	// One-pole smoothing of the applied makeup gain. Settles over
	// roughly 20000 samples.
	GAIN_SMOOTHING_COEFF = 0.99995

	// Default spectral block length when the requested duration is out
	// of range: about 0.74 s at 44.1 kHz. Short blocks keep worker
	// latency bounded on slow devices.
	NOISE_DEFAULT_BLOCK = 1 << 15
)

type noiseGenRequest struct {
	buffer []float32
}

type noiseGenResponse struct {
	buffer    []float32
	targetRMS float64
	hasTarget bool
}

// fftNoiseWorker owns the spectral synthesis state. It runs on its own
// goroutine, reading empty buffers from requests and returning them
// filled, so the audio thread never waits on an FFT.
type fftNoiseWorker struct {
	requests  <-chan noiseGenRequest
	responses chan<- noiseGenResponse

	size              int
	exponent          float64
	highExponent      float64
	distributionCurve float64
	sampleRate        float64
	fft               *FFT
	gauss             *gaussianSource

	re, im []float64

	targetRMS float64
	hasTarget bool
}

func (w *fftNoiseWorker) run() {
	defer close(w.responses)
	for req := range w.requests {
		w.safeRegenerate(req.buffer)
		w.responses <- noiseGenResponse{buffer: req.buffer, targetRMS: w.targetRMS, hasTarget: w.hasTarget}
	}
}

// safeRegenerate guards the spectral pass so a panic in the worker
// cannot take down the audio pipeline; the buffer comes back silent
// instead.
func (w *fftNoiseWorker) safeRegenerate(target []float32) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("noise: FFT worker panic: %v", r)
			for i := range target {
				target[i] = 0
			}
		}
	}()
	w.regenerateInto(target)
}

func (w *fftNoiseWorker) regenerateInto(target []float32) {
	size := w.size
	for i := 0; i < size; i++ {
		w.re[i] = w.gauss.next()
		w.im[i] = 0
	}

	w.fft.Forward(w.re, w.im)

	nyquist := w.sampleRate / 2
	minF := w.sampleRate / float64(size)
	logMin := math.Log(minF)
	logMax := math.Log(nyquist)
	denom := logMax - logMin
	if denom < 1e-12 {
		denom = 1e-12
	}

	w.re[0] = 0
	w.im[0] = 0
	for i := 1; i <= size/2; i++ {
		freq := float64(i) * w.sampleRate / float64(size)
		logNorm := clampF((math.Log(freq)-logMin)/denom, 0, 1)
		interp := math.Pow(logNorm, w.distributionCurve)
		currentExp := w.exponent + (w.highExponent-w.exponent)*interp
		scale := math.Pow(freq, -currentExp/2)

		w.re[i] *= scale
		w.im[i] *= scale
		if i < size/2 {
			w.re[size-i] = w.re[i]
			w.im[size-i] = -w.im[i]
		} else {
			// Nyquist bin must stay real.
			w.im[i] = 0
		}
	}

	w.fft.Inverse(w.re, w.im)

	var sumSq float64
	for i := 0; i < size; i++ {
		sumSq += w.re[i] * w.re[i]
	}
	currentRMS := math.Sqrt(sumSq / float64(size))

	if currentRMS > 1e-9 {
		if w.hasTarget {
			gain := w.targetRMS / currentRMS
			for i := 0; i < size; i++ {
				target[i] = float32(clampF(w.re[i]*gain, -1, 1))
			}
			return
		}
		// First buffer: peak-normalise to 1 and latch its RMS as the
		// target every later buffer is scaled to.
		var maxVal float64
		for i := 0; i < size; i++ {
			if a := math.Abs(w.re[i]); a > maxVal {
				maxVal = a
			}
		}
		if maxVal > 1e-9 {
			var sumSqNorm float64
			for i := 0; i < size; i++ {
				w.re[i] /= maxVal
				sumSqNorm += w.re[i] * w.re[i]
			}
			w.targetRMS = math.Sqrt(sumSqNorm / float64(size))
			w.hasTarget = true
		}
	}
	for i := 0; i < size; i++ {
		target[i] = float32(w.re[i])
	}
}

// fftNoiseGenerator streams spectrally shaped mono noise. Two buffers
// alternate: while one plays, the worker refills the other; handoffs are
// crossfaded and a late worker is masked by the underrun restart fade.
type fftNoiseGenerator struct {
	buffer    []float32
	nextBuf   []float32
	nextReady bool
	cursor    int
	size      int

	requests        chan noiseGenRequest
	responses       chan noiseGenResponse
	workerRequested bool

	lowcutChain   *butterChain
	highcutChain  *butterChain
	baseAmplitude float64

	renormGain        float64
	smoothedGain      float64
	renormInitialized bool
	preRMSAccum       float64
	postRMSAccum      float64
	rmsSamples        int
	isUnmodulated     bool

	underrunRecovering bool
	underrunFadePos    int
}

// noiseBlockSize picks the spectral block length for a requested
// duration: the default chunk unless the caller wants something shorter,
// always even and at least 8.
func noiseBlockSize(durationSeconds, sampleRate float64) int {
	requested := int(math.Max(durationSeconds, 0) * sampleRate)
	size := NOISE_DEFAULT_BLOCK
	if requested > 0 && requested < NOISE_DEFAULT_BLOCK {
		size = requested
	}
	if size < 8 {
		size = 8
	}
	if size%2 != 0 {
		size++
	}
	return size
}

func newFFTNoiseGenerator(params *NoiseParams, sampleRate float64) *fftNoiseGenerator {
	spec := resolveNoiseSpec(params)
	size := noiseBlockSize(params.DurationSeconds, sampleRate)

	// The FFT requires a power of two; round the block up so arbitrary
	// short durations still work.
	fftSize := 8
	for fftSize < size {
		fftSize <<= 1
	}
	size = fftSize
	fft, err := NewFFT(size)
	if err != nil {
		// Unreachable after rounding; keep the generator alive anyway.
		log.Printf("noise: fft plan failed: %v", err)
		fft, _ = NewFFT(NOISE_DEFAULT_BLOCK)
		size = NOISE_DEFAULT_BLOCK
	}

	requests := make(chan noiseGenRequest, 2)
	responses := make(chan noiseGenResponse, 2)
	worker := &fftNoiseWorker{
		requests:          requests,
		responses:         responses,
		size:              size,
		exponent:          spec.exponent,
		highExponent:      spec.highExponent,
		distributionCurve: spec.distributionCurve,
		sampleRate:        sampleRate,
		fft:               fft,
		gauss:             newGaussianSource(spec.seed),
		re:                make([]float64, size),
		im:                make([]float64, size),
	}
	go worker.run()

	// Prime the pipeline with two buffers before the first sample so
	// playback starts immediately and the worker has a full block of
	// headroom.
	requests <- noiseGenRequest{buffer: make([]float32, size)}
	first := <-responses
	requests <- noiseGenRequest{buffer: make([]float32, size)}
	second := <-responses

	gen := &fftNoiseGenerator{
		buffer:        first.buffer,
		nextBuf:       second.buffer,
		nextReady:     true,
		size:          size,
		requests:      requests,
		responses:     responses,
		baseAmplitude: spec.amplitude,
		renormGain:    1,
		smoothedGain:  1,
		// The swept notch stage has its own gain compensation; the base
		// generator's shelves are static, so the makeup gain latches
		// once instead of tracking.
		isUnmodulated: true,
	}

	nyquist := sampleRate / 2
	if spec.lowcut > 0 && spec.lowcut < nyquist {
		gen.lowcutChain = newButterChain(spec.lowcut, sampleRate, true)
	}
	if spec.highcut > 0 && spec.highcut < nyquist {
		gen.highcutChain = newButterChain(spec.highcut, sampleRate, false)
	}

	return gen
}

// close releases the worker goroutine.
func (g *fftNoiseGenerator) close() {
	if g.requests != nil {
		close(g.requests)
		g.requests = nil
	}
}

func (g *fftNoiseGenerator) crossfadeLen() int {
	if len(g.buffer) < NOISE_CROSSFADE_SAMPLES {
		return len(g.buffer)
	}
	return NOISE_CROSSFADE_SAMPLES
}

// next produces one mono sample.
func (g *fftNoiseGenerator) next() float64 {
	crossfadeLen := g.crossfadeLen()

	// Ask for the next buffer once the cursor passes the midpoint so
	// the worker has half a buffer of slack.
	if !g.nextReady && !g.workerRequested && g.cursor >= g.size/2 && g.requests != nil {
		recycled := g.nextBuf
		g.nextBuf = nil
		if len(recycled) != g.size {
			recycled = make([]float32, g.size)
		}
		select {
		case g.requests <- noiseGenRequest{buffer: recycled}:
			g.workerRequested = true
		default:
			g.nextBuf = recycled
		}
	}

	if g.workerRequested {
		select {
		case resp, ok := <-g.responses:
			if ok {
				g.nextBuf = resp.buffer
				g.nextReady = true
			}
			g.workerRequested = false
		default:
		}
	}

	if g.cursor >= len(g.buffer) {
		if g.nextReady {
			skip := crossfadeLen
			if skip > len(g.nextBuf) {
				skip = len(g.nextBuf)
			}
			g.buffer, g.nextBuf = g.nextBuf, g.buffer
			g.cursor = skip
			g.nextReady = false
			g.underrunRecovering = false
			g.underrunFadePos = 0
		} else {
			// Worker missed its deadline: replay this buffer from the
			// top under a short fade.
			g.cursor = 0
			g.underrunRecovering = true
			g.underrunFadePos = 0
		}
	}

	var sample float64
	if g.nextReady {
		crossfadeStart := len(g.buffer) - crossfadeLen
		if crossfadeStart < 0 {
			crossfadeStart = 0
		}
		if g.cursor >= crossfadeStart && crossfadeLen > 0 && len(g.nextBuf) > 0 {
			idx := g.cursor - crossfadeStart
			t := float64(idx) / float64(crossfadeLen)
			fadeOut := 0.5 * (1 + math.Cos(math.Pi*t))
			fadeIn := 1 - fadeOut
			var nextSample float64
			if idx < len(g.nextBuf) {
				nextSample = float64(g.nextBuf[idx])
			}
			sample = float64(g.buffer[g.cursor])*fadeOut + nextSample*fadeIn
		} else {
			sample = float64(g.buffer[g.cursor])
		}
	} else {
		sample = float64(g.buffer[g.cursor])
	}

	if g.underrunRecovering {
		if g.underrunFadePos < UNDERRUN_FADE_SAMPLES {
			pos := g.underrunFadePos
			t := float64(pos) / float64(UNDERRUN_FADE_SAMPLES)
			fadeIn := 0.5 * (1 - math.Cos(math.Pi*t))
			fadeOut := 1 - fadeIn

			tailBase := len(g.buffer) - UNDERRUN_FADE_SAMPLES
			if tailBase < 0 {
				tailBase = 0
			}
			tailIdx := tailBase + pos
			if tailIdx > len(g.buffer)-1 {
				tailIdx = len(g.buffer) - 1
			}
			sample = float64(g.buffer[tailIdx])*fadeOut + sample*fadeIn
			g.underrunFadePos++
		} else {
			g.underrunRecovering = false
			g.underrunFadePos = 0
		}
	}

	g.cursor++

	preFilter := sample
	if g.lowcutChain != nil {
		sample = g.lowcutChain.run(sample)
	}
	if g.highcutChain != nil {
		sample = g.highcutChain.run(sample)
	}
	sample = g.applyPostFilterRenorm(preFilter, sample)

	return sample * g.baseAmplitude
}

// applyPostFilterRenorm restores the loudness the shelves removed. The
// gain is recomputed per RENORM_WINDOW samples, latched once for
// unmodulated noise, and always smoothed per sample.
func (g *fftNoiseGenerator) applyPostFilterRenorm(pre, post float64) float64 {
	g.preRMSAccum += pre * pre
	g.postRMSAccum += post * post
	g.rmsSamples++

	if g.rmsSamples >= RENORM_WINDOW {
		preRMS := math.Sqrt(g.preRMSAccum / float64(g.rmsSamples))
		postRMS := math.Sqrt(g.postRMSAccum / float64(g.rmsSamples))

		if preRMS > 1e-6 && postRMS > 1e-6 {
			targetGain := clampF(preRMS/postRMS, 0.25, 16)
			if g.isUnmodulated {
				if !g.renormInitialized {
					g.renormGain = targetGain
					g.smoothedGain = targetGain
					g.renormInitialized = true
				}
			} else {
				ratioDiff := math.Abs(targetGain-g.renormGain) / g.renormGain
				if ratioDiff > RENORM_HYSTERESIS_RATIO {
					if !g.renormInitialized {
						g.renormGain = targetGain
						g.smoothedGain = targetGain
						g.renormInitialized = true
					} else {
						g.renormGain = 0.8*g.renormGain + 0.2*targetGain
					}
				}
			}
		} else if !g.renormInitialized {
			g.renormGain = 1
			g.smoothedGain = 1
			g.renormInitialized = true
		}

		g.preRMSAccum = 0
		g.postRMSAccum = 0
		g.rmsSamples = 0
	}

	g.smoothedGain = GAIN_SMOOTHING_COEFF*g.smoothedGain + (1-GAIN_SMOOTHING_COEFF)*g.renormGain
	return post * g.smoothedGain
}
