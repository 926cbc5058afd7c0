//go:build linux && !headless

// audio_backend_alsa.go - ALSA stereo output implementation

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

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <stdlib.h>

static snd_pcm_t* openPCM(const char* device, int* err) {
    snd_pcm_t* handle;
    *err = snd_pcm_open(&handle, device, SND_PCM_STREAM_PLAYBACK, 0);
    return handle;
}

static int setupPCM(snd_pcm_t* handle, unsigned int rate) {
    snd_pcm_hw_params_t* params;
    int err;

    snd_pcm_hw_params_alloca(&params);
    err = snd_pcm_hw_params_any(handle, params);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_access(handle, params, SND_PCM_ACCESS_RW_INTERLEAVED);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_format(handle, params, SND_PCM_FORMAT_FLOAT);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_channels(handle, params, 2);
    if (err < 0) return err;

    err = snd_pcm_hw_params_set_rate(handle, params, rate, 0);
    if (err < 0) return err;

    err = snd_pcm_hw_params(handle, params);
    if (err < 0) return err;

    return snd_pcm_prepare(handle);
}

static int writePCM(snd_pcm_t* handle, float* buffer, int frames) {
    return snd_pcm_writei(handle, buffer, frames);
}

static void closePCM(snd_pcm_t* handle) {
    if (handle != NULL) {
        snd_pcm_drain(handle);
        snd_pcm_close(handle);
    }
}
*/
import "C"
import (
	"fmt"
	"log"
	"sync"
	"time"
	"unsafe"
)

// alsaOutput pulls fixed blocks from the engine on a dedicated
// goroutine and writes them to the default PCM device. The blocking
// writei never runs under the scheduler lock.
type alsaOutput struct {
	handle *C.snd_pcm_t
	engine *AudioEngine

	mutex   sync.Mutex
	started bool
	stopCh  chan struct{}
	done    chan struct{}

	samples []float32
}

func newALSAOutput(sampleRate int, engine *AudioEngine) (AudioOutput, error) {
	var cerr C.int
	dev := C.CString("default")
	defer C.free(unsafe.Pointer(dev))
	handle := C.openPCM(dev, &cerr)
	if cerr < 0 {
		return nil, fmt.Errorf("alsa: failed to open PCM device: %s", C.GoString(C.snd_strerror(cerr)))
	}
	if cerr = C.setupPCM(handle, C.uint(sampleRate)); cerr < 0 {
		C.closePCM(handle)
		return nil, fmt.Errorf("alsa: failed to setup PCM: %s", C.GoString(C.snd_strerror(cerr)))
	}
	return &alsaOutput{
		handle:  handle,
		engine:  engine,
		samples: make([]float32, OUTPUT_BLOCK_FRAMES*2),
	}, nil
}

func (a *alsaOutput) Start() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.started || a.handle == nil {
		return
	}
	a.started = true
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)
}

func (a *alsaOutput) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stopCh:
			return
		default:
		}
		if a.engine.IsPaused() {
			time.Sleep(PAUSE_POLL_INTERVAL)
			continue
		}
		a.engine.pullBlock(a.samples)
		if err := a.write(a.samples); err != nil {
			// A dead writer pauses the engine but leaves the control
			// surface responsive so the UI can stop and rebuild.
			log.Printf("alsa: %v; pausing engine", err)
			a.engine.notifyOutputError(err)
			return
		}
	}
}

func (a *alsaOutput) write(samples []float32) error {
	frames := C.writePCM(a.handle, (*C.float)(unsafe.Pointer(&samples[0])), C.int(len(samples)/2))
	if frames < 0 {
		if frames == -C.EPIPE {
			C.snd_pcm_prepare(a.handle)
			frames = C.writePCM(a.handle, (*C.float)(unsafe.Pointer(&samples[0])), C.int(len(samples)/2))
		}
		if frames < 0 {
			return fmt.Errorf("write failed: %s", C.GoString(C.snd_strerror(C.int(frames))))
		}
	}
	return nil
}

func (a *alsaOutput) Stop() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if !a.started {
		return
	}
	close(a.stopCh)
	select {
	case <-a.done:
	case <-time.After(OUTPUT_JOIN_TIMEOUT):
	}
	a.started = false
}

func (a *alsaOutput) Close() error {
	a.Stop()
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.handle != nil {
		C.closePCM(a.handle)
		a.handle = nil
	}
	return nil
}

func (a *alsaOutput) IsStarted() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.started
}
