// noise_test.go - Noise generator tests: presets, RMS stability, underrun recovery, realtime updates

/*
██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
░           ░             ░      ░            ░      ░ ░           ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/abehlok2/Session-Builder-Mobile
License: GPLv3 or later
*/

package main

import (
	"math"
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestNoisePresets_Resolution(t *testing.T) {
	// Named preset from either parameter block spelling.
	for _, block := range []string{"noise_parameters", "color_params"} {
		params := &NoiseParams{}
		m := map[string]interface{}{"name": "green"}
		if block == "noise_parameters" {
			params.NoiseParameters = m
		} else {
			params.ColorParams = m
		}
		spec := resolveNoiseSpec(params)
		if spec.exponent != 0 || spec.lowcut != 100 || spec.highcut != 8000 {
			t.Errorf("%s green preset = %+v", block, spec)
		}
	}

	// Explicit fields win over the preset.
	params := &NoiseParams{
		Exponent:        floatPtr(2.5),
		NoiseParameters: map[string]interface{}{"name": "pink"},
	}
	spec := resolveNoiseSpec(params)
	if spec.exponent != 2.5 {
		t.Errorf("explicit exponent lost to preset: %v", spec.exponent)
	}
	if spec.highExponent != 1.0 {
		t.Errorf("high exponent should still come from pink preset: %v", spec.highExponent)
	}

	// No preset name: pink by default.
	spec = resolveNoiseSpec(&NoiseParams{})
	if spec.exponent != 1.0 || spec.highExponent != 1.0 {
		t.Errorf("default preset should be pink: %+v", spec)
	}

	// Deep brown carries a sloped pair.
	params = &NoiseParams{NoiseParameters: map[string]interface{}{"name": "deep brown"}}
	spec = resolveNoiseSpec(params)
	if spec.exponent != 2.5 || spec.highExponent != 2.0 {
		t.Errorf("deep brown = %+v", spec)
	}
}

func TestNoiseBlockSize(t *testing.T) {
	if got := noiseBlockSize(0, testSampleRate); got != NOISE_DEFAULT_BLOCK {
		t.Errorf("zero duration block = %d, want default", got)
	}
	if got := noiseBlockSize(600, testSampleRate); got != NOISE_DEFAULT_BLOCK {
		t.Errorf("long duration block = %d, want default chunk", got)
	}
	if got := noiseBlockSize(0.01, testSampleRate); got != 442 {
		t.Errorf("short duration block = %d, want 442 (rounded to even)", got)
	}
	if got := noiseBlockSize(0.00001, testSampleRate); got != 8 {
		t.Errorf("tiny duration block = %d, want minimum 8", got)
	}
}

func TestStreamingNoise_RMSStability(t *testing.T) {
	// Steady-state green-ish noise: after warm-up, the RMS of every
	// 16384-sample window stays within a few percent of the mean, even
	// across buffer handoffs.
	params := &NoiseParams{
		DurationSeconds: 3,
		Lowcut:          floatPtr(100),
		Highcut:         floatPtr(8000),
		Exponent:        floatPtr(1),
		Seed:            func() *int64 { s := int64(11); return &s }(),
	}
	gen := NewStreamingNoise(params, testSampleRate)
	defer gen.Close()

	totalFrames := int(3 * testSampleRate)
	out := make([]float32, totalFrames*2)
	for offset := 0; offset < totalFrames; offset += 4096 {
		n := 4096
		if offset+n > totalFrames {
			n = totalFrames - offset
		}
		gen.Generate(out[offset*2 : (offset+n)*2])
	}

	for _, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatal("noise output contains NaN/Inf")
		}
		if a := math.Abs(float64(v)); a > 1.25 {
			t.Fatalf("noise sample %v far outside unit range", v)
		}
	}

	const warmup = 32768
	const window = RENORM_WINDOW
	var rmsValues []float64
	for start := warmup; start+window <= totalFrames; start += window {
		var sum float64
		for i := start; i < start+window; i++ {
			l := float64(out[i*2])
			sum += l * l
		}
		rmsValues = append(rmsValues, math.Sqrt(sum/float64(window)))
	}
	if len(rmsValues) < 4 {
		t.Fatal("not enough windows")
	}
	var mean float64
	for _, v := range rmsValues {
		mean += v
	}
	mean /= float64(len(rmsValues))
	if mean < 1e-4 {
		t.Fatalf("noise essentially silent: mean window RMS %v", mean)
	}
	for i, v := range rmsValues {
		if math.Abs(v-mean)/mean > 0.05 {
			t.Errorf("window %d RMS %v deviates more than 5%% from mean %v", i, v, mean)
		}
	}
}

func TestStreamingNoise_StereoAndSweeps(t *testing.T) {
	// A swept notch with an inter-channel phase offset must decorrelate
	// the channels while keeping both alive.
	params := &NoiseParams{
		DurationSeconds:        2,
		LFOWaveform:            "sine",
		LFOFreq:                0.5,
		StartLFOPhaseOffsetDeg: 90,
		Sweeps: []NoiseSweep{
			{StartMin: 500, StartMax: 4000, StartQ: 10, StartCasc: 4},
		},
	}
	gen := NewStreamingNoise(params, testSampleRate)
	defer gen.Close()

	frames := int(1 * testSampleRate)
	out := make([]float32, frames*2)
	gen.Generate(out)

	var lSum, rSum, diff float64
	for i := 0; i < frames; i++ {
		l, r := float64(out[i*2]), float64(out[i*2+1])
		lSum += l * l
		rSum += r * r
		diff += (l - r) * (l - r)
	}
	if lSum < 1e-3 || rSum < 1e-3 {
		t.Fatalf("a channel went silent: L %v R %v", lSum, rSum)
	}
	if diff < 1e-6 {
		t.Error("phase-offset sweep should decorrelate the channels")
	}
	for _, v := range out {
		if math.IsNaN(float64(v)) {
			t.Fatal("NaN in swept output")
		}
	}
}

func TestFFTNoiseGenerator_UnderrunRecovery(t *testing.T) {
	// White-box: a generator whose worker never answers must loop its
	// buffer under the restart fade without a click or a NaN.
	const size = 8192
	buf := make([]float32, size)
	for i := range buf {
		buf[i] = float32(math.Sin(TWO_PI * 50 * float64(i) / testSampleRate))
	}
	gen := &fftNoiseGenerator{
		buffer:        buf,
		nextBuf:       make([]float32, size),
		size:          size,
		baseAmplitude: 1,
		renormGain:    1,
		smoothedGain:  1,
		isUnmodulated: true,
	}

	prev := gen.next()
	maxDelta := 0.0
	for i := 1; i < size*3; i++ {
		s := gen.next()
		if math.IsNaN(s) {
			t.Fatal("NaN during underrun recovery")
		}
		if d := math.Abs(s - prev); d > maxDelta {
			maxDelta = d
		}
		prev = s
	}
	// A 50 Hz tone moves ~0.0071 per sample; the restart fade must keep
	// the junction within the same order of magnitude.
	if maxDelta > 0.05 {
		t.Errorf("underrun junction delta %v, want < 0.05", maxDelta)
	}
}

func TestStreamingNoise_UpdateRealtimeParams(t *testing.T) {
	base := &NoiseParams{
		DurationSeconds: 2,
		Sweeps: []NoiseSweep{
			{StartMin: 500, StartMax: 4000, StartQ: 10, StartCasc: 6, EndCasc: 8},
		},
	}
	gen := NewStreamingNoise(base, testSampleRate)
	defer gen.Close()

	// Same sweep count, cascade within the allocation: accepted.
	ok := gen.UpdateRealtimeParams(&NoiseParams{
		DurationSeconds: 2,
		Sweeps: []NoiseSweep{
			{StartMin: 700, StartMax: 3000, StartQ: 15, StartCasc: 4, EndCasc: 4},
		},
	})
	if !ok {
		t.Error("compatible update rejected")
	}

	// Deeper cascade than allocated: rejected, caller must rebuild.
	ok = gen.UpdateRealtimeParams(&NoiseParams{
		DurationSeconds: 2,
		Sweeps: []NoiseSweep{
			{StartMin: 700, StartMax: 3000, StartQ: 15, StartCasc: 12, EndCasc: 12},
		},
	})
	if ok {
		t.Error("update with deeper cascade must be rejected")
	}

	// Different sweep count: rejected.
	ok = gen.UpdateRealtimeParams(&NoiseParams{DurationSeconds: 2})
	if ok {
		t.Error("update with different sweep count must be rejected")
	}
}

func TestStreamingNoise_SkipSamplesAdvances(t *testing.T) {
	params := &NoiseParams{DurationSeconds: 2, Exponent: floatPtr(0)}
	a := NewStreamingNoise(params, testSampleRate)
	defer a.Close()
	b := NewStreamingNoise(params, testSampleRate)
	defer b.Close()

	// Skipping must consume exactly n frames: generator a reads 2048
	// then 2048 more, generator b skips 2048 and reads 2048. Same seed,
	// so the second reads must agree.
	const n = 2048
	first := make([]float32, n*2)
	second := make([]float32, n*2)
	a.Generate(first)
	a.Generate(second)

	b.SkipSamples(n)
	after := make([]float32, n*2)
	b.Generate(after)

	for i := range second {
		if second[i] != after[i] {
			t.Fatalf("skip misaligned at %d: %v vs %v", i, second[i], after[i])
		}
	}
}

func TestScipySawtoothTriangle(t *testing.T) {
	if v := scipySawtoothTriangle(0); math.Abs(v+1) > 1e-9 {
		t.Errorf("sawtooth(0) = %v, want -1", v)
	}
	if v := scipySawtoothTriangle(math.Pi); math.Abs(v-1) > 1e-9 {
		t.Errorf("sawtooth(pi) = %v, want 1", v)
	}
	if v := scipySawtoothTriangle(TWO_PI); math.Abs(v+1) > 1e-9 {
		t.Errorf("sawtooth(2pi) = %v, want -1", v)
	}
	if v := lfoValue(0, "sine"); math.Abs(v-1) > 1e-9 {
		t.Errorf(`lfoValue(0, "sine") = %v, want cos(0) = 1`, v)
	}
}
