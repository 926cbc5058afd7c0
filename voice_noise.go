// voice_noise.go - Swept-notch noise voices backed by the streaming generator

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
	"fmt"
)

// noiseParamsFromVoice decodes a voice parameter mapping into
// NoiseParams by round-tripping through JSON, so the voice boundary and
// the background-noise boundary share one decoder.
func noiseParamsFromVoice(p voiceParams) (*NoiseParams, error) {
	raw, err := json.Marshal(map[string]interface{}(p))
	if err != nil {
		return nil, fmt.Errorf("noise voice parameters: %w", err)
	}
	var np NoiseParams
	if err := json.Unmarshal(raw, &np); err != nil {
		return nil, fmt.Errorf("noise voice parameters: %w", err)
	}
	return &np, nil
}

// noiseSweptNotchVoice streams swept-notch noise for one step. The
// normalisation peak is measured once at construction from a
// calibration render rather than guessed.
type noiseSweptNotchVoice struct {
	gen       *StreamingNoise
	amp       float64
	peak      float64
	remaining int
	scratch   []float32
}

func newNoiseSweptNotchVoice(p voiceParams, stepDuration, sampleRate float64, transition bool) (*noiseSweptNotchVoice, error) {
	np, err := noiseParamsFromVoice(p)
	if err != nil {
		return nil, err
	}
	if np.DurationSeconds <= 0 {
		np.DurationSeconds = stepDuration
	}
	if transition {
		np.Transition = true
	}

	gen, peak := NewStreamingNoiseCalibrated(np, sampleRate, NOISE_CALIBRATION_FRAMES)
	return &noiseSweptNotchVoice{
		gen:       gen,
		amp:       p.float("amp", 1),
		peak:      peak * p.float("amp", 1),
		remaining: int(stepDuration * sampleRate),
	}, nil
}

func (v *noiseSweptNotchVoice) Process(out []float32) {
	frames := len(out) / 2
	if frames > v.remaining {
		frames = v.remaining
	}
	if frames <= 0 {
		return
	}
	if cap(v.scratch) < frames*2 {
		v.scratch = make([]float32, frames*2)
	}
	scratch := v.scratch[:frames*2]
	v.gen.Generate(scratch)
	amp := float32(v.amp)
	for i := 0; i < frames*2; i++ {
		out[i] += scratch[i] * amp
	}
	v.remaining -= frames
	if v.remaining == 0 {
		v.gen.Close()
	}
}

func (v *noiseSweptNotchVoice) IsFinished() bool { return v.remaining <= 0 }

func (v *noiseSweptNotchVoice) NormalizationPeak() float64 { return v.peak }

// Noise carries no meaningful oscillator phase; it neither consumes nor
// produces a handoff slot.
func (v *noiseSweptNotchVoice) Phases() (float64, float64, bool) { return 0, 0, false }

func (v *noiseSweptNotchVoice) SetPhases(l, r float64) {}

func (v *noiseSweptNotchVoice) close() { v.gen.Close() }

func (v *noiseSweptNotchVoice) setElapsed(samples int) {
	if samples > v.remaining {
		samples = v.remaining
	}
	v.gen.SkipSamples(samples)
	v.remaining -= samples
}
