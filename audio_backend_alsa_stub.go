//go:build !linux && !headless

// audio_backend_alsa_stub.go - ALSA is Linux-only; other platforms refuse the backend

package main

import "errors"

func newALSAOutput(sampleRate int, engine *AudioEngine) (AudioOutput, error) {
	return nil, errors.New("audio: ALSA backend is only available on linux")
}
