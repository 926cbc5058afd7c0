// audio_output.go - Audio backend interface and selection

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
	"fmt"
	"sync"
	"time"
)

// Stereo frames per block pulled from the scheduler.
const OUTPUT_BLOCK_FRAMES = 1024

// Sleep interval while paused, and the join deadline on Stop.
const (
	PAUSE_POLL_INTERVAL = 10 * time.Millisecond
	OUTPUT_JOIN_TIMEOUT = time.Second
)

// Output backend selectors
const (
	OUTPUT_BACKEND_OTO = iota
	OUTPUT_BACKEND_ALSA
	OUTPUT_BACKEND_HEADLESS
)

// AudioOutput is the platform writer behind the engine. Implementations
// pull fixed stereo float32 blocks from the engine on their own thread
// (or the platform's callback) and never hold the scheduler lock across
// a blocking write.
type AudioOutput interface {
	Start()
	Stop()
	Close() error
	IsStarted() bool
}

func NewAudioOutput(backend, sampleRate int, engine *AudioEngine) (AudioOutput, error) {
	switch backend {
	case OUTPUT_BACKEND_OTO:
		return newOtoOutput(sampleRate, engine)
	case OUTPUT_BACKEND_ALSA:
		return newALSAOutput(sampleRate, engine)
	case OUTPUT_BACKEND_HEADLESS:
		return newHeadlessOutput(sampleRate, engine), nil
	default:
		return nil, fmt.Errorf("audio: unknown output backend %d", backend)
	}
}

// headlessOutput drives the engine at roughly realtime pace without a
// device. Used by tests and the headless build.
type headlessOutput struct {
	engine     *AudioEngine
	sampleRate int

	mutex   sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}
}

func newHeadlessOutput(sampleRate int, engine *AudioEngine) *headlessOutput {
	return &headlessOutput{engine: engine, sampleRate: sampleRate}
}

func (h *headlessOutput) Start() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.started {
		return
	}
	h.started = true
	h.stopCh = make(chan struct{})
	h.done = make(chan struct{})
	go h.run(h.stopCh, h.done)
}

func (h *headlessOutput) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]float32, OUTPUT_BLOCK_FRAMES*2)
	blockDur := time.Duration(float64(OUTPUT_BLOCK_FRAMES) / float64(h.sampleRate) * float64(time.Second))
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		if h.engine.IsPaused() {
			time.Sleep(PAUSE_POLL_INTERVAL)
			continue
		}
		h.engine.pullBlock(buf)
		time.Sleep(blockDur)
	}
}

func (h *headlessOutput) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if !h.started {
		return
	}
	close(h.stopCh)
	select {
	case <-h.done:
	case <-time.After(OUTPUT_JOIN_TIMEOUT):
	}
	h.started = false
}

func (h *headlessOutput) Close() error {
	h.Stop()
	return nil
}

func (h *headlessOutput) IsStarted() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.started
}
