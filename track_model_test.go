// track_model_test.go - Track decoding tests: JSON, YAML, Lua, defaults and clamps

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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const fullTrackJSON = `{
	"global_settings": {
		"sample_rate": 44100,
		"crossfade_duration": 2.0,
		"crossfade_curve": "equal_power",
		"normalization_level": 0.8
	},
	"steps": [
		{
			"duration": 10,
			"voices": [
				{
					"synth_function": "binaural_beat",
					"parameters": {"baseFreq": 200, "beatFreq": 7, "ampL": 0.8, "ampR": 0.8},
					"volume_envelope": [[0, 0], [2, 1], [10, 1]],
					"voice_type": "binaural"
				},
				{
					"synth_function": "noise_swept_notch",
					"parameters": {"duration_seconds": 10, "noise_parameters": {"name": "pink"}},
					"voice_type": "noise"
				}
			],
			"binaural_volume": 0.5,
			"noise_volume": 0.4,
			"normalization_level": 0.7
		}
	],
	"background_noise": {
		"noise_params": {"duration_seconds": 10, "exponent": 1},
		"gain": 0.5,
		"start_time": 1,
		"fade_in": 2,
		"fade_out": 2,
		"amp_envelope": [[0, 1], [10, 0.2]]
	},
	"overlay_clips": [{"path": "intro.ogg"}]
}`

func TestParseTrackJSON_FullDocument(t *testing.T) {
	track, err := ParseTrackJSON([]byte(fullTrackJSON))
	if err != nil {
		t.Fatal(err)
	}
	gs := track.GlobalSettings
	if gs.SampleRate != 44100 || gs.CrossfadeDuration != 2.0 || gs.CrossfadeCurve != CURVE_EQUAL_POWER || gs.NormalizationLevel != 0.8 {
		t.Errorf("global settings = %+v", gs)
	}
	step := track.Steps[0]
	if step.BinauralVolume != 0.5 || step.NoiseVolume != 0.4 || step.NormalizationLevel != 0.7 {
		t.Errorf("step volumes = %+v", step)
	}
	if len(step.Voices) != 2 {
		t.Fatalf("voices = %d", len(step.Voices))
	}
	env := step.Voices[0].VolumeEnvelope
	if len(env) != 3 || env[1].Time != 2 || env[1].Amp != 1 {
		t.Errorf("volume envelope = %+v", env)
	}
	bg := track.BackgroundNoise
	if bg == nil || bg.Gain != 0.5 || bg.StartTime != 1 || len(bg.AmpEnvelope) != 2 {
		t.Errorf("background noise = %+v", bg)
	}
	if bg.Params.Exponent == nil || *bg.Params.Exponent != 1 {
		t.Errorf("background noise exponent = %v", bg.Params.Exponent)
	}
	if len(track.OverlayClips) != 1 {
		t.Errorf("overlay clips = %d, want accepted and retained", len(track.OverlayClips))
	}
	if got := track.TotalDuration(); got != 10 {
		t.Errorf("total duration = %v", got)
	}
}

func TestParseTrackJSON_Defaults(t *testing.T) {
	track, err := ParseTrackJSON([]byte(`{
		"global_settings": {"sample_rate": 48000},
		"steps": [{"duration": 1, "voices": []}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	gs := track.GlobalSettings
	if gs.CrossfadeDuration != DEFAULT_CROSSFADE_SECONDS {
		t.Errorf("default crossfade = %v", gs.CrossfadeDuration)
	}
	if gs.CrossfadeCurve != CURVE_LINEAR {
		t.Errorf("default curve = %q", gs.CrossfadeCurve)
	}
	if gs.NormalizationLevel != DEFAULT_NORMALIZATION_LEVEL {
		t.Errorf("default normalization = %v", gs.NormalizationLevel)
	}
	if track.Steps[0].BinauralVolume != MAX_INDIVIDUAL_GAIN || track.Steps[0].NoiseVolume != MAX_INDIVIDUAL_GAIN {
		t.Errorf("default volumes = %+v", track.Steps[0])
	}
}

func TestParseTrackJSON_Rejections(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"not json", `{"global_settings":`},
		{"missing sample rate", `{"global_settings": {}, "steps": [{"duration": 1}]}`},
		{"zero duration", `{"global_settings": {"sample_rate": 44100}, "steps": [{"duration": 0}]}`},
		{"negative duration", `{"global_settings": {"sample_rate": 44100}, "steps": [{"duration": -3}]}`},
		{"unknown curve", `{"global_settings": {"sample_rate": 44100, "crossfade_curve": "sigmoid"}, "steps": []}`},
		{"bad envelope point", `{"global_settings": {"sample_rate": 44100}, "steps": [{"duration": 1, "voices": [{"synth_function": "binaural_beat", "volume_envelope": [[1]]}]}]}`},
	}
	for _, tc := range cases {
		if _, err := ParseTrackJSON([]byte(tc.doc)); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestParseTrackJSON_VoiceTypeInference(t *testing.T) {
	track, err := ParseTrackJSON([]byte(`{
		"global_settings": {"sample_rate": 44100},
		"steps": [{"duration": 1, "voices": [
			{"synth_function": "noise_swept_notch", "parameters": {}},
			{"synth_function": "isochronic_tone", "parameters": {}},
			{"synth_function": "binaural_beat", "parameters": {}, "voice_type": "weird"}
		]}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	voices := track.Steps[0].Voices
	if voices[0].VoiceType != VOICE_TYPE_NOISE {
		t.Errorf("noise voice type inferred as %q", voices[0].VoiceType)
	}
	if voices[1].VoiceType != VOICE_TYPE_BINAURAL {
		t.Errorf("isochronic voice type inferred as %q", voices[1].VoiceType)
	}
	if voices[2].VoiceType != VOICE_TYPE_OTHER {
		t.Errorf("unknown voice type mapped to %q, want other", voices[2].VoiceType)
	}
}

func TestParseTrackYAML(t *testing.T) {
	doc := []byte(`
global_settings:
  sample_rate: 44100
  crossfade_curve: equal_power
steps:
  - duration: 2.5
    voices:
      - synth_function: binaural_beat
        parameters:
          baseFreq: 210
          beatFreq: 6
        voice_type: binaural
    binaural_volume: 0.5
`)
	track, err := ParseTrackYAML(doc)
	if err != nil {
		t.Fatal(err)
	}
	if track.GlobalSettings.SampleRate != 44100 || track.GlobalSettings.CrossfadeCurve != CURVE_EQUAL_POWER {
		t.Errorf("yaml globals = %+v", track.GlobalSettings)
	}
	if track.Steps[0].Duration != 2.5 || track.Steps[0].BinauralVolume != 0.5 {
		t.Errorf("yaml step = %+v", track.Steps[0])
	}
	p := voiceParams(track.Steps[0].Voices[0].Params)
	if p.float("baseFreq", 0) != 210 {
		t.Errorf("yaml voice params = %+v", p)
	}

	if _, err := ParseTrackYAML([]byte(": not yaml [")); err == nil {
		t.Error("invalid yaml should be rejected")
	}
}

func TestLoadTrackScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.lua")
	script := `
local steps = {}
for i = 1, 3 do
  steps[i] = {
    duration = 1.5,
    voices = {
      {
        synth_function = "binaural_beat",
        parameters = { baseFreq = 100 + i * 10, beatFreq = 4 },
        voice_type = "binaural",
      },
    },
  }
end
return {
  global_settings = { sample_rate = 44100 },
  steps = steps,
}
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	track, err := LoadTrackScript(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(track.Steps) != 3 {
		t.Fatalf("lua track steps = %d, want 3", len(track.Steps))
	}
	p := voiceParams(track.Steps[2].Voices[0].Params)
	if p.float("baseFreq", 0) != 130 {
		t.Errorf("third step baseFreq = %v, want 130", p.float("baseFreq", 0))
	}

	bad := filepath.Join(dir, "bad.lua")
	if err := os.WriteFile(bad, []byte(`return 42`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrackScript(bad); err == nil || !strings.Contains(err.Error(), "table") {
		t.Errorf("non-table script error = %v", err)
	}
}

func TestLoadTrackFile_Dispatch(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "t.json")
	if err := os.WriteFile(jsonPath, []byte(`{"global_settings": {"sample_rate": 44100}, "steps": [{"duration": 1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrackFile(jsonPath); err != nil {
		t.Errorf("json dispatch: %v", err)
	}
	yamlPath := filepath.Join(dir, "t.yaml")
	if err := os.WriteFile(yamlPath, []byte("global_settings:\n  sample_rate: 44100\nsteps:\n  - duration: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadTrackFile(yamlPath); err != nil {
		t.Errorf("yaml dispatch: %v", err)
	}
	if _, err := LoadTrackFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file should error")
	}
}

func TestEnvelopePoints_ValueAt(t *testing.T) {
	env := EnvelopePoints{{Time: 1, Amp: 0.2}, {Time: 3, Amp: 1.0}}
	if v := env.valueAt(0); v != 0.2 {
		t.Errorf("before first point = %v, want clamp to 0.2", v)
	}
	if v := env.valueAt(2); math.Abs(v-0.6) > 1e-12 {
		t.Errorf("midpoint = %v, want 0.6", v)
	}
	if v := env.valueAt(10); v != 1.0 {
		t.Errorf("after last point = %v, want clamp to 1.0", v)
	}
	var empty EnvelopePoints
	if v := empty.valueAt(5); v != 1 {
		t.Errorf("empty envelope = %v, want unity", v)
	}
}

func TestTrackWaveform(t *testing.T) {
	track := testTrack(0, CURVE_LINEAR, toneStep(2, 220), toneStep(1, 440))
	wf := TrackWaveform(track, 100)
	if len(wf) != 300 {
		t.Fatalf("waveform length = %d, want 300", len(wf))
	}
	for i, v := range wf {
		if v < 0.1 || v > 1 {
			t.Fatalf("waveform[%d] = %v outside [0.1, 1]", i, v)
		}
	}
	if wf := TrackWaveform(track, 0); wf != nil {
		t.Error("zero rate should produce no waveform")
	}
}
