// track_model.go - Track / step / voice / noise data model and decoding

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
	"math"

	"gopkg.in/yaml.v3"
)

// MAX_INDIVIDUAL_GAIN is the absolute clamp applied to each step's
// binaural and noise volume before group normalization.
const MAX_INDIVIDUAL_GAIN = 0.6

const (
	DEFAULT_CROSSFADE_SECONDS   = 3.0
	DEFAULT_NORMALIZATION_LEVEL = 0.95
)

// Crossfade curve tags
const (
	CURVE_LINEAR      = "linear"
	CURVE_EQUAL_POWER = "equal_power"
)

// Synth function tags
const (
	SYNTH_BINAURAL            = "binaural_beat"
	SYNTH_BINAURAL_TRANSITION = "binaural_beat_transition"
	SYNTH_ISOCHRONIC          = "isochronic_tone"
	SYNTH_ISOCHRONIC_TRANS    = "isochronic_tone_transition"
	SYNTH_NOISE               = "noise_swept_notch"
	SYNTH_NOISE_TRANSITION    = "noise_swept_notch_transition"
)

// Voice grouping tags for mixdown normalization
const (
	VOICE_TYPE_BINAURAL = "binaural"
	VOICE_TYPE_NOISE    = "noise"
	VOICE_TYPE_OTHER    = "other"
)

type TrackData struct {
	GlobalSettings  GlobalSettings       `json:"global_settings"`
	Steps           []StepData           `json:"steps"`
	BackgroundNoise *BackgroundNoiseData `json:"background_noise"`
	// Overlay clips are accepted at the boundary for forward
	// compatibility with the session store; the DSP core ignores them.
	OverlayClips []json.RawMessage `json:"overlay_clips,omitempty"`
}

type GlobalSettings struct {
	SampleRate         int     `json:"sample_rate"`
	CrossfadeDuration  float64 `json:"crossfade_duration"`
	CrossfadeCurve     string  `json:"crossfade_curve"`
	NormalizationLevel float64 `json:"normalization_level"`
}

type StepData struct {
	Duration       float64     `json:"duration"`
	Voices         []VoiceData `json:"voices"`
	BinauralVolume float64     `json:"binaural_volume"`
	NoiseVolume    float64     `json:"noise_volume"`
	// 0 means inherit the global normalization level.
	NormalizationLevel float64 `json:"normalization_level,omitempty"`
}

type VoiceData struct {
	SynthFunction  string                 `json:"synth_function"`
	Params         map[string]interface{} `json:"parameters"`
	VolumeEnvelope EnvelopePoints         `json:"volume_envelope,omitempty"`
	IsTransition   bool                   `json:"is_transition"`
	VoiceType      string                 `json:"voice_type"`
}

type BackgroundNoiseData struct {
	Params      NoiseParams    `json:"noise_params"`
	File        string         `json:"file,omitempty"`
	Gain        float64        `json:"gain"`
	StartTime   float64        `json:"start_time"`
	FadeIn      float64        `json:"fade_in"`
	FadeOut     float64        `json:"fade_out"`
	AmpEnvelope EnvelopePoints `json:"amp_envelope,omitempty"`
}

// NoiseParams mirrors the JSON noise block. Optional scalar fields are
// pointers so that "absent" can fall back to the named colour preset.
type NoiseParams struct {
	DurationSeconds   float64      `json:"duration_seconds"`
	LFOWaveform       string       `json:"lfo_waveform"`
	Transition        bool         `json:"transition"`
	LFOFreq           float64      `json:"lfo_freq"`
	StartLFOFreq      float64      `json:"start_lfo_freq"`
	EndLFOFreq        float64      `json:"end_lfo_freq"`
	Sweeps            []NoiseSweep `json:"sweeps"`
	Exponent          *float64     `json:"exponent,omitempty"`
	HighExponent      *float64     `json:"high_exponent,omitempty"`
	DistributionCurve *float64     `json:"distribution_curve,omitempty"`
	Lowcut            *float64     `json:"lowcut,omitempty"`
	Highcut           *float64     `json:"highcut,omitempty"`
	Amplitude         *float64     `json:"amplitude,omitempty"`
	Seed              *int64       `json:"seed,omitempty"`

	StartLFOPhaseOffsetDeg   float64 `json:"start_lfo_phase_offset_deg"`
	EndLFOPhaseOffsetDeg     float64 `json:"end_lfo_phase_offset_deg"`
	StartIntraPhaseOffsetDeg float64 `json:"start_intra_phase_offset_deg"`
	EndIntraPhaseOffsetDeg   float64 `json:"end_intra_phase_offset_deg"`
	InitialOffset            float64 `json:"initial_offset"`

	// The session store has produced both spellings over time; both are
	// accepted and the explicit fields above always win over the named
	// preset found inside.
	NoiseParameters map[string]interface{} `json:"noise_parameters,omitempty"`
	ColorParams     map[string]interface{} `json:"color_params,omitempty"`
}

type NoiseSweep struct {
	StartMin  float64 `json:"start_min"`
	EndMin    float64 `json:"end_min"`
	StartMax  float64 `json:"start_max"`
	EndMax    float64 `json:"end_max"`
	StartQ    float64 `json:"start_q"`
	EndQ      float64 `json:"end_q"`
	StartCasc int     `json:"start_casc"`
	EndCasc   int     `json:"end_casc"`
}

type EnvelopePoint struct {
	Time float64
	Amp  float64
}

// EnvelopePoints decodes the wire format [[t, a], ...].
type EnvelopePoints []EnvelopePoint

func (e *EnvelopePoints) UnmarshalJSON(data []byte) error {
	var pairs [][]float64
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("envelope: %w", err)
	}
	pts := make(EnvelopePoints, 0, len(pairs))
	for _, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("envelope: point needs [time, amplitude], got %d values", len(p))
		}
		pts = append(pts, EnvelopePoint{Time: p[0], Amp: p[1]})
	}
	*e = pts
	return nil
}

func (e EnvelopePoints) MarshalJSON() ([]byte, error) {
	pairs := make([][]float64, len(e))
	for i, p := range e {
		pairs[i] = []float64{p.Time, p.Amp}
	}
	return json.Marshal(pairs)
}

// valueAt linearly interpolates the envelope at time t, clamping to the
// terminal values outside the defined range. An empty envelope is unity.
func (e EnvelopePoints) valueAt(t float64) float64 {
	if len(e) == 0 {
		return 1
	}
	if t <= e[0].Time {
		return e[0].Amp
	}
	for i := 1; i < len(e); i++ {
		if t <= e[i].Time {
			span := e[i].Time - e[i-1].Time
			if span <= 0 {
				return e[i].Amp
			}
			frac := (t - e[i-1].Time) / span
			return lerp(e[i-1].Amp, e[i].Amp, frac)
		}
	}
	return e[len(e)-1].Amp
}

func (e EnvelopePoints) max() float64 {
	if len(e) == 0 {
		return 1
	}
	m := e[0].Amp
	for _, p := range e[1:] {
		if p.Amp > m {
			m = p.Amp
		}
	}
	return m
}

// ParseTrackJSON decodes and validates a track document. The returned
// track has all defaults and clamps applied; a non-nil error leaves
// engine state untouched.
func ParseTrackJSON(data []byte) (*TrackData, error) {
	var track TrackData
	track.GlobalSettings = GlobalSettings{
		CrossfadeDuration:  DEFAULT_CROSSFADE_SECONDS,
		CrossfadeCurve:     CURVE_LINEAR,
		NormalizationLevel: DEFAULT_NORMALIZATION_LEVEL,
	}
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("invalid track JSON: %w", err)
	}
	if err := track.normalize(); err != nil {
		return nil, err
	}
	return &track, nil
}

// ParseTrackYAML accepts the same schema as ParseTrackJSON in YAML form.
// The document is decoded generically and re-marshalled through the JSON
// path so both formats share one validator.
func ParseTrackYAML(data []byte) (*TrackData, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid track YAML: %w", err)
	}
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid track YAML: %w", err)
	}
	return ParseTrackJSON(jsonBytes)
}

// normalize applies spec defaults and clamps in place and rejects
// documents the scheduler cannot run.
func (t *TrackData) normalize() error {
	gs := &t.GlobalSettings
	if gs.SampleRate <= 0 {
		return fmt.Errorf("global_settings.sample_rate is required and must be positive")
	}
	if gs.CrossfadeDuration < 0 {
		gs.CrossfadeDuration = 0
	}
	switch gs.CrossfadeCurve {
	case CURVE_LINEAR, CURVE_EQUAL_POWER:
	case "":
		gs.CrossfadeCurve = CURVE_LINEAR
	default:
		return fmt.Errorf("unknown crossfade_curve %q", gs.CrossfadeCurve)
	}
	if gs.NormalizationLevel <= 0 || gs.NormalizationLevel > 1 {
		gs.NormalizationLevel = DEFAULT_NORMALIZATION_LEVEL
	}

	for i := range t.Steps {
		step := &t.Steps[i]
		if step.Duration <= 0 || math.IsInf(step.Duration, 0) || math.IsNaN(step.Duration) {
			return fmt.Errorf("steps[%d].duration must be finite and positive", i)
		}
		if step.BinauralVolume == 0 {
			step.BinauralVolume = MAX_INDIVIDUAL_GAIN
		}
		if step.NoiseVolume == 0 {
			step.NoiseVolume = MAX_INDIVIDUAL_GAIN
		}
		step.BinauralVolume = clampF(step.BinauralVolume, 0, MAX_INDIVIDUAL_GAIN)
		step.NoiseVolume = clampF(step.NoiseVolume, 0, MAX_INDIVIDUAL_GAIN)
		if step.NormalizationLevel < 0 || step.NormalizationLevel > 1 {
			step.NormalizationLevel = 0
		}
		for j := range step.Voices {
			v := &step.Voices[j]
			switch v.VoiceType {
			case VOICE_TYPE_BINAURAL, VOICE_TYPE_NOISE, VOICE_TYPE_OTHER:
			case "":
				v.VoiceType = defaultVoiceType(v.SynthFunction)
			default:
				v.VoiceType = VOICE_TYPE_OTHER
			}
		}
	}

	if bg := t.BackgroundNoise; bg != nil {
		if bg.Gain == 0 {
			bg.Gain = 1
		}
		if bg.StartTime < 0 {
			bg.StartTime = 0
		}
		if bg.FadeIn < 0 {
			bg.FadeIn = 0
		}
		if bg.FadeOut < 0 {
			bg.FadeOut = 0
		}
	}
	return nil
}

func defaultVoiceType(synth string) string {
	switch synth {
	case SYNTH_NOISE, SYNTH_NOISE_TRANSITION:
		return VOICE_TYPE_NOISE
	case SYNTH_BINAURAL, SYNTH_BINAURAL_TRANSITION, SYNTH_ISOCHRONIC, SYNTH_ISOCHRONIC_TRANS:
		return VOICE_TYPE_BINAURAL
	default:
		return VOICE_TYPE_OTHER
	}
}

// TotalDuration is the sum of step durations in seconds.
func (t *TrackData) TotalDuration() float64 {
	var total float64
	for _, s := range t.Steps {
		total += s.Duration
	}
	return total
}

// normalizationTarget resolves the per-step override against the global
// level and the realtime override (0 = unset).
func (t *TrackData) normalizationTarget(step *StepData, override float64) float64 {
	if override > 0 {
		return override
	}
	if step != nil && step.NormalizationLevel > 0 {
		return step.NormalizationLevel
	}
	return t.GlobalSettings.NormalizationLevel
}

// TrackWaveform derives an amplitude contour from the step structure for
// UI preview, at samplesPerSecond points per second. It is a pure
// function of the track data, not rendered audio.
func TrackWaveform(t *TrackData, samplesPerSecond int) []float32 {
	if samplesPerSecond <= 0 {
		return nil
	}
	total := int(t.TotalDuration() * float64(samplesPerSecond))
	if total == 0 {
		return nil
	}
	waveform := make([]float32, 0, total)
	currentSample := 0
	for stepIdx := range t.Steps {
		step := &t.Steps[stepIdx]
		stepSamples := int(step.Duration * float64(samplesPerSecond))
		voiceCount := float64(len(step.Voices))
		if voiceCount < 1 {
			voiceCount = 1
		}
		stepFactor := 0.4 + math.Abs(sinLut(float64(stepIdx)*0.7))*0.4
		for i := 0; i < stepSamples; i++ {
			localT := float64(i) / float64(samplesPerSecond)
			globalT := float64(currentSample+i) / float64(samplesPerSecond)
			wave := sinLut(localT * TWO_PI * (1 + voiceCount*0.2))
			envelope := math.Abs(sinLut(localT*0.5))*0.3 + 0.5
			variation := sinLut(globalT*13.7) * 0.1
			amp := clampF(math.Abs(wave)*envelope*stepFactor+variation, 0.1, 1.0)
			waveform = append(waveform, float32(amp))
		}
		currentSample += stepSamples
	}
	return waveform
}
