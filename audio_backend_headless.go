//go:build headless

// audio_backend_headless.go - Device-free build: every backend maps to the paced stub

package main

func newOtoOutput(sampleRate int, engine *AudioEngine) (AudioOutput, error) {
	return newHeadlessOutput(sampleRate, engine), nil
}

func newALSAOutput(sampleRate int, engine *AudioEngine) (AudioOutput, error) {
	return newHeadlessOutput(sampleRate, engine), nil
}
