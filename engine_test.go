// engine_test.go - Control surface tests over the headless output

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
	"testing"
	"time"
)

const engineTrackJSON = `{
	"global_settings": {"sample_rate": 44100},
	"steps": [
		{"duration": 30, "voices": [
			{"synth_function": "binaural_beat", "parameters": {"baseFreq": 200, "beatFreq": 7}, "voice_type": "binaural"}
		]}
	]
}`

func withHeadlessBackend(t *testing.T) {
	t.Helper()
	prev := OutputBackend
	OutputBackend = OUTPUT_BACKEND_HEADLESS
	t.Cleanup(func() {
		StopAudioSession()
		OutputBackend = prev
	})
}

func TestEngine_SessionLifecycle(t *testing.T) {
	withHeadlessBackend(t)

	if IsAudioPlaying() {
		t.Fatal("no session should be active before start")
	}
	if _, ok := GetPlaybackStatus(); ok {
		t.Fatal("status must be absent without a session")
	}

	if err := StartAudioSession([]byte(engineTrackJSON), 0); err != nil {
		t.Fatal(err)
	}
	if !IsAudioPlaying() {
		t.Fatal("session should be active")
	}
	if sr, ok := GetSampleRate(); !ok || sr != 44100 {
		t.Errorf("sample rate = %v %v", sr, ok)
	}

	// The headless output paces roughly in realtime; a quarter second
	// is several blocks.
	time.Sleep(250 * time.Millisecond)
	pos, ok := GetPlaybackPosition()
	if !ok || pos <= 0 {
		t.Errorf("position = %v after 250ms of playback", pos)
	}

	PauseAudio()
	time.Sleep(50 * time.Millisecond)
	if paused, ok := GetIsPaused(); !ok || !paused {
		t.Error("engine should report paused")
	}
	pausedPos, _ := GetPlaybackPosition()
	time.Sleep(100 * time.Millisecond)
	if after, _ := GetPlaybackPosition(); after != pausedPos {
		t.Errorf("position moved while paused: %v -> %v", pausedPos, after)
	}

	ResumeAudio()
	time.Sleep(100 * time.Millisecond)
	if paused, _ := GetIsPaused(); paused {
		t.Error("engine should have resumed")
	}

	status, ok := GetPlaybackStatus()
	if !ok || status.SampleRate != 44100 || status.CurrentStep != 0 {
		t.Errorf("status = %+v %v", status, ok)
	}

	StopAudioSession()
	if IsAudioPlaying() {
		t.Error("session should be gone after stop")
	}
}

func TestEngine_SeekAndUpdate(t *testing.T) {
	withHeadlessBackend(t)

	if err := StartAudioSession([]byte(engineTrackJSON), 5); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	pos, _ := GetPlaybackPosition()
	if pos < 5 {
		t.Errorf("start offset ignored: position %v, want >= 5", pos)
	}

	StartFrom(10)
	time.Sleep(150 * time.Millisecond)
	pos, _ = GetPlaybackPosition()
	if pos < 10 || pos > 11 {
		t.Errorf("position after StartFrom(10) = %v", pos)
	}

	if err := UpdateSession([]byte(engineTrackJSON)); err != nil {
		t.Errorf("compatible update rejected: %v", err)
	}

	// A different sample rate needs a restart, not an in-place update.
	other := `{"global_settings": {"sample_rate": 48000}, "steps": [{"duration": 1, "voices": []}]}`
	if err := UpdateSession([]byte(other)); err == nil {
		t.Error("sample-rate change should be rejected")
	}

	SetMasterGain(0.5)
	SetBinauralGain(0.8)
	SetNoiseGain(0.8)
	SetNormalizationLevel(0.9)
}

func TestEngine_ControlsWithoutSession(t *testing.T) {
	withHeadlessBackend(t)
	StopAudioSession()

	// Every control is a no-op without a session rather than a crash.
	PauseAudio()
	ResumeAudio()
	StartFrom(3)
	SetMasterGain(0.5)
	if err := UpdateSession([]byte(engineTrackJSON)); err != ErrNoEngine {
		t.Errorf("update without session = %v, want ErrNoEngine", err)
	}
	if _, ok := GetElapsedSamples(); ok {
		t.Error("elapsed samples must be absent without a session")
	}
	if _, ok := GetCurrentStep(); ok {
		t.Error("current step must be absent without a session")
	}

	if err := StartAudioSession([]byte(`{"global_settings": {}}`), 0); err == nil {
		t.Error("invalid track must be rejected at start")
	}
	if IsAudioPlaying() {
		t.Error("failed start must not leave a session behind")
	}
}
