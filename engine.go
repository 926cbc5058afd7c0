// engine.go - Engine lifecycle and the control surface exposed to the UI boundary

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
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// ErrNoEngine is returned by control operations that need an active
// audio session.
var ErrNoEngine = errors.New("engine: no active audio session")

// OutputBackend selects the platform writer for new sessions. The CLI
// sets it from a flag; tests use the headless backend.
var OutputBackend = OUTPUT_BACKEND_OTO

// AudioEngine couples one scheduler to one audio output. The scheduler
// mutex is the sole mutable boundary between the control surface and
// the audio thread: every command is a bounded mutation under it, and
// the output backends hold it only for the duration of one ProcessBlock
// (inside pullBlock), never across a blocking write.
type AudioEngine struct {
	mutex     sync.Mutex
	scheduler *TrackScheduler
	output    AudioOutput

	sampleRate int

	// Status snapshot published by the audio thread, read lock-free by
	// the control surface.
	elapsedSamples atomic.Uint64
	currentStep    atomic.Uint64
	isPaused       atomic.Bool
}

// pullBlock is the audio thread's entry point: one block under the
// scheduler lock, then the status atomics. A panic in the DSP code is
// caught here (the lock is still held in the recover path) so the
// output thread survives with silence and the engine pauses.
func (e *AudioEngine) pullBlock(out []float32) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("FATAL: audio thread panic: %v", r)
			for i := range out {
				out[i] = 0
			}
			if e.scheduler != nil {
				e.scheduler.SetPaused(true)
			}
			e.isPaused.Store(true)
		}
	}()

	if e.scheduler == nil {
		for i := range out {
			out[i] = 0
		}
		return
	}
	e.scheduler.ProcessBlock(out)
	e.elapsedSamples.Store(e.scheduler.AbsoluteSample())
	e.currentStep.Store(uint64(e.scheduler.CurrentStep()))
	e.isPaused.Store(e.scheduler.Paused())
}

func (e *AudioEngine) IsPaused() bool {
	return e.isPaused.Load()
}

// notifyOutputError pauses the engine after a dead platform writer; the
// control surface stays responsive so the UI can stop and rebuild.
func (e *AudioEngine) notifyOutputError(err error) {
	e.mutex.Lock()
	if e.scheduler != nil {
		e.scheduler.SetPaused(true)
	}
	e.mutex.Unlock()
	e.isPaused.Store(true)
}

var initOnce sync.Once

// InitEngine configures process-wide logging. Safe to call repeatedly;
// the control surface works without it, this just makes engine log
// lines identifiable when the host shares the default logger.
func InitEngine() {
	initOnce.Do(func() {
		log.SetPrefix("session-engine: ")
		log.SetFlags(log.LstdFlags | log.Lmsgprefix)
		log.Print("engine logging initialised")
	})
}

// The process owns at most one audio session at a time, matching the
// single-session contract of the UI boundary.
var (
	sessionMutex sync.Mutex
	session      *AudioEngine
)

// StartAudioSession parses the track document, builds a scheduler at the
// track's sample rate and starts the audio output. Any existing session
// is stopped first. startTime seeks before the first block.
func StartAudioSession(trackJSON []byte, startTime float64) error {
	track, err := ParseTrackJSON(trackJSON)
	if err != nil {
		return err
	}
	return StartAudioSessionWithTrack(track, startTime)
}

func StartAudioSessionWithTrack(track *TrackData, startTime float64) error {
	StopAudioSession()

	sampleRate := track.GlobalSettings.SampleRate
	engine := &AudioEngine{sampleRate: sampleRate}
	engine.scheduler = NewTrackScheduler(track, float64(sampleRate))
	if startTime > 0 {
		engine.scheduler.SeekTo(startTime)
	}

	output, err := NewAudioOutput(OutputBackend, sampleRate, engine)
	if err != nil {
		engine.scheduler.Close()
		return fmt.Errorf("engine: audio output: %w", err)
	}
	engine.output = output
	output.Start()

	sessionMutex.Lock()
	session = engine
	sessionMutex.Unlock()
	return nil
}

// StopAudioSession stops and releases the active session, if any.
func StopAudioSession() {
	sessionMutex.Lock()
	engine := session
	session = nil
	sessionMutex.Unlock()
	if engine == nil {
		return
	}

	engine.output.Stop()
	if err := engine.output.Close(); err != nil {
		log.Printf("engine: output close: %v", err)
	}
	engine.mutex.Lock()
	if engine.scheduler != nil {
		engine.scheduler.Close()
		engine.scheduler = nil
	}
	engine.mutex.Unlock()
}

func activeEngine() *AudioEngine {
	sessionMutex.Lock()
	defer sessionMutex.Unlock()
	return session
}

func withScheduler(fn func(s *TrackScheduler)) error {
	engine := activeEngine()
	if engine == nil {
		return ErrNoEngine
	}
	engine.mutex.Lock()
	defer engine.mutex.Unlock()
	if engine.scheduler == nil {
		return ErrNoEngine
	}
	fn(engine.scheduler)
	engine.isPaused.Store(engine.scheduler.Paused())
	return nil
}

func PauseAudio() {
	_ = withScheduler(func(s *TrackScheduler) { s.SetPaused(true) })
}

func ResumeAudio() {
	_ = withScheduler(func(s *TrackScheduler) { s.SetPaused(false) })
}

func SetMasterGain(gain float64) {
	_ = withScheduler(func(s *TrackScheduler) { s.SetMasterGain(gain) })
}

// SetBinauralGain overrides the voice-mix gain in realtime.
func SetBinauralGain(gain float64) {
	_ = withScheduler(func(s *TrackScheduler) { s.SetVoiceGain(gain) })
}

// SetNoiseGain overrides the background-noise gain in realtime.
func SetNoiseGain(gain float64) {
	_ = withScheduler(func(s *TrackScheduler) { s.SetNoiseGain(gain) })
}

// SetNormalizationLevel overrides the normalisation target in realtime.
func SetNormalizationLevel(level float64) {
	_ = withScheduler(func(s *TrackScheduler) { s.SetNormalizationLevel(level) })
}

// StartFrom seeks the active session to a position in seconds.
func StartFrom(seconds float64) {
	_ = withScheduler(func(s *TrackScheduler) { s.SeekTo(seconds) })
}

// UpdateSession replaces the running track definition. The sample rate
// is fixed for the session; a document with a different rate is
// rejected.
func UpdateSession(trackJSON []byte) error {
	track, err := ParseTrackJSON(trackJSON)
	if err != nil {
		return err
	}
	engine := activeEngine()
	if engine == nil {
		return ErrNoEngine
	}
	if track.GlobalSettings.SampleRate != engine.sampleRate {
		return fmt.Errorf("engine: sample rate change requires a session restart (%d != %d)",
			track.GlobalSettings.SampleRate, engine.sampleRate)
	}
	return withScheduler(func(s *TrackScheduler) { s.UpdateTrack(track) })
}

func IsAudioPlaying() bool {
	return activeEngine() != nil
}

func GetSampleRate() (int, bool) {
	engine := activeEngine()
	if engine == nil {
		return 0, false
	}
	return engine.sampleRate, true
}

func GetElapsedSamples() (uint64, bool) {
	engine := activeEngine()
	if engine == nil {
		return 0, false
	}
	return engine.elapsedSamples.Load(), true
}

func GetPlaybackPosition() (float64, bool) {
	engine := activeEngine()
	if engine == nil {
		return 0, false
	}
	return float64(engine.elapsedSamples.Load()) / float64(engine.sampleRate), true
}

func GetCurrentStep() (int, bool) {
	engine := activeEngine()
	if engine == nil {
		return 0, false
	}
	return int(engine.currentStep.Load()), true
}

func GetIsPaused() (bool, bool) {
	engine := activeEngine()
	if engine == nil {
		return false, false
	}
	return engine.isPaused.Load(), true
}

// PlaybackStatus is the read-only snapshot handed to the UI.
type PlaybackStatus struct {
	PositionSeconds float64
	CurrentStep     int
	IsPaused        bool
	SampleRate      int
}

func GetPlaybackStatus() (PlaybackStatus, bool) {
	engine := activeEngine()
	if engine == nil {
		return PlaybackStatus{}, false
	}
	return PlaybackStatus{
		PositionSeconds: float64(engine.elapsedSamples.Load()) / float64(engine.sampleRate),
		CurrentStep:     int(engine.currentStep.Load()),
		IsPaused:        engine.isPaused.Load(),
		SampleRate:      engine.sampleRate,
	}, true
}
