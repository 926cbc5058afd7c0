// noise_presets.go - Colour preset catalogue and noise parameter resolution

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

import "strings"

// noisePreset holds a named spectral shape. A zero lowcut/highcut means
// the corresponding Butterworth shelf is absent.
type noisePreset struct {
	exponent          float64
	highExponent      float64
	distributionCurve float64
	lowcut            float64
	highcut           float64
	amplitude         float64
}

var noisePresets = map[string]noisePreset{
	"pink":       {exponent: 1.0, highExponent: 1.0, distributionCurve: 1.0, amplitude: 1.0},
	"brown":      {exponent: 2.0, highExponent: 2.0, distributionCurve: 1.0, amplitude: 1.0},
	"red":        {exponent: 2.0, highExponent: 1.5, distributionCurve: 1.0, amplitude: 1.0},
	"green":      {exponent: 0.0, highExponent: 0.0, distributionCurve: 1.0, lowcut: 100.0, highcut: 8000.0, amplitude: 1.0},
	"blue":       {exponent: -1.0, highExponent: -1.0, distributionCurve: 1.0, amplitude: 1.0},
	"purple":     {exponent: -2.0, highExponent: -2.0, distributionCurve: 1.0, amplitude: 1.0},
	"deep brown": {exponent: 2.5, highExponent: 2.0, distributionCurve: 1.0, amplitude: 1.0},
	"white":      {exponent: 0.0, highExponent: 0.0, distributionCurve: 1.0, amplitude: 1.0},
}

// resolvedNoiseName digs the preset name out of whichever parameter
// block the document used. The session store has written both
// "noise_parameters" and "color_params" over time.
func resolvedNoiseName(params *NoiseParams) string {
	for _, block := range []map[string]interface{}{params.NoiseParameters, params.ColorParams} {
		if block == nil {
			continue
		}
		if name, ok := block["name"].(string); ok && name != "" {
			return name
		}
	}
	return "pink"
}

// resolvedNoiseSpec is NoiseParams with every optional field settled:
// explicit values win, then the named preset, then the hard defaults.
type resolvedNoiseSpec struct {
	exponent          float64
	highExponent      float64
	distributionCurve float64
	lowcut            float64
	highcut           float64
	amplitude         float64
	seed              int64
}

func resolveNoiseSpec(params *NoiseParams) resolvedNoiseSpec {
	preset, havePreset := noisePresets[strings.ToLower(resolvedNoiseName(params))]

	var spec resolvedNoiseSpec
	if params.Exponent != nil {
		spec.exponent = *params.Exponent
	} else if havePreset {
		spec.exponent = preset.exponent
	}
	if params.HighExponent != nil {
		spec.highExponent = *params.HighExponent
	} else if havePreset {
		spec.highExponent = preset.highExponent
	} else {
		spec.highExponent = spec.exponent
	}
	if params.DistributionCurve != nil {
		spec.distributionCurve = *params.DistributionCurve
	} else if havePreset {
		spec.distributionCurve = preset.distributionCurve
	} else {
		spec.distributionCurve = 1.0
	}
	if spec.distributionCurve < 1e-6 {
		spec.distributionCurve = 1e-6
	}
	if params.Lowcut != nil {
		spec.lowcut = *params.Lowcut
	} else if havePreset {
		spec.lowcut = preset.lowcut
	}
	if params.Highcut != nil {
		spec.highcut = *params.Highcut
	} else if havePreset {
		spec.highcut = preset.highcut
	}
	if params.Amplitude != nil {
		spec.amplitude = *params.Amplitude
	} else if havePreset {
		spec.amplitude = preset.amplitude
	} else {
		spec.amplitude = 1.0
	}
	spec.seed = 1
	if params.Seed != nil && *params.Seed > 0 {
		spec.seed = *params.Seed
	}
	return spec
}
