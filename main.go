// main.go - Session player CLI: load a track, play it, drive the transport from the keyboard

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
	"flag"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

const SEEK_STEP_SECONDS = 10.0

func boilerPlate() {
	fmt.Println("Session Builder realtime engine")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/abehlok2/Session-Builder-Mobile")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	trackPath := flag.String("track", "", "track file (.json, .yaml or .lua)")
	backendName := flag.String("backend", "oto", "audio backend: oto, alsa or headless")
	startAt := flag.Float64("start", 0, "start position in seconds")
	renderPath := flag.String("render", "", "render the full track to a WAV file instead of playing")
	samplePath := flag.String("render-sample", "", "render up to 60s of the track to a WAV file instead of playing")
	gain := flag.Float64("gain", 1.0, "initial master gain")
	flag.Parse()

	boilerPlate()
	InitEngine()

	if *trackPath == "" {
		fmt.Fprintln(os.Stderr, "usage: -track <file> [-backend oto|alsa|headless] [-start s] [-render out.wav]")
		os.Exit(2)
	}

	track, err := LoadTrackFile(*trackPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *renderPath != "" {
		if err := RenderFullWAV(track, *renderPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *samplePath != "" {
		if err := RenderSampleWAV(track, *samplePath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	switch *backendName {
	case "oto":
		OutputBackend = OUTPUT_BACKEND_OTO
	case "alsa":
		OutputBackend = OUTPUT_BACKEND_ALSA
	case "headless":
		OutputBackend = OUTPUT_BACKEND_HEADLESS
	default:
		fmt.Fprintf(os.Stderr, "error: unknown backend %q\n", *backendName)
		os.Exit(2)
	}

	if err := StartAudioSessionWithTrack(track, *startAt); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer StopAudioSession()
	SetMasterGain(*gain)

	fmt.Printf("\nplaying %s (%.1fs, %d steps)\n", *trackPath, track.TotalDuration(), len(track.Steps))
	fmt.Println("keys: space pause/resume, h/l seek -/+10s, -/+ gain, q quit")

	runTransport(track, *gain)
}

// runTransport reads single keys from a raw-mode terminal and drives
// the control surface. Falls back to sleeping until end of track when
// stdin is not a terminal.
func runTransport(track *TrackData, gain float64) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		waitForEnd(track)
		return
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transport: failed to set raw mode: %v\n", err)
		waitForEnd(track)
		return
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte, 8)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n > 0 {
				keys <- buf[0]
			}
		}
	}()

	statusTick := time.NewTicker(500 * time.Millisecond)
	defer statusTick.Stop()

	for {
		select {
		case key, ok := <-keys:
			if !ok {
				return
			}
			switch key {
			case 'q', 3: // q or ctrl-c
				fmt.Print("\r\n")
				return
			case ' ':
				if paused, _ := GetIsPaused(); paused {
					ResumeAudio()
				} else {
					PauseAudio()
				}
			case 'h':
				if pos, ok := GetPlaybackPosition(); ok {
					StartFrom(pos - SEEK_STEP_SECONDS)
				}
			case 'l':
				if pos, ok := GetPlaybackPosition(); ok {
					StartFrom(pos + SEEK_STEP_SECONDS)
				}
			case '-':
				gain = clampF(gain-0.05, 0, 2)
				SetMasterGain(gain)
			case '+', '=':
				gain = clampF(gain+0.05, 0, 2)
				SetMasterGain(gain)
			}
		case <-statusTick.C:
			status, ok := GetPlaybackStatus()
			if !ok {
				return
			}
			state := "playing"
			if status.IsPaused {
				state = "paused "
			}
			fmt.Printf("\r%s  %7.1fs / %.1fs  step %d/%d  gain %.2f ",
				state, status.PositionSeconds, track.TotalDuration(),
				status.CurrentStep+1, len(track.Steps), gain)
			if status.PositionSeconds >= track.TotalDuration() {
				fmt.Print("\r\n")
				return
			}
		}
	}
}

func waitForEnd(track *TrackData) {
	for {
		status, ok := GetPlaybackStatus()
		if !ok || status.PositionSeconds >= track.TotalDuration() {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}
