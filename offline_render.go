// offline_render.go - Offline track rendering to 16-bit stereo WAV

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
	"bufio"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Frames per scheduler pull during offline rendering.
const RENDER_BLOCK_FRAMES = 512

// Cap for RenderSampleWAV.
const SAMPLE_RENDER_SECONDS = 60

// RenderSampleWAV renders up to 60 seconds of the track to a 16-bit
// stereo WAV file, for preview listening without a realtime session.
func RenderSampleWAV(track *TrackData, outPath string) error {
	sampleRate := track.GlobalSettings.SampleRate
	trackFrames := int(track.TotalDuration() * float64(sampleRate))
	target := sampleRate * SAMPLE_RENDER_SECONDS
	if trackFrames < target {
		target = trackFrames
	}
	return renderWAV(track, outPath, target)
}

// RenderFullWAV renders the complete track to a 16-bit stereo WAV file.
func RenderFullWAV(track *TrackData, outPath string) error {
	sampleRate := track.GlobalSettings.SampleRate
	target := int(track.TotalDuration() * float64(sampleRate))
	return renderWAV(track, outPath, target)
}

func renderWAV(track *TrackData, outPath string, targetFrames int) error {
	sampleRate := track.GlobalSettings.SampleRate
	scheduler := NewTrackScheduler(track, float64(sampleRate))
	defer scheduler.Close()

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("render: create output directory: %w", err)
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeWAVHeader(w, sampleRate, targetFrames); err != nil {
		return err
	}

	log.Printf("render: %d frames at %d Hz -> %s", targetFrames, sampleRate, outPath)
	startTime := time.Now()

	buffer := make([]float32, RENDER_BLOCK_FRAMES*2)
	remaining := targetFrames
	for remaining > 0 {
		frames := RENDER_BLOCK_FRAMES
		if frames > remaining {
			frames = remaining
		}
		block := buffer[:frames*2]
		scheduler.ProcessBlock(block)
		for _, sample := range block {
			s := int16(clampF(float64(sample), -1, 1) * 32767)
			if err := binary.Write(w, binary.LittleEndian, s); err != nil {
				return fmt.Errorf("render: write sample: %w", err)
			}
		}
		remaining -= frames
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	log.Printf("render: done in %.2fs", time.Since(startTime).Seconds())
	return nil
}

// writeWAVHeader emits a canonical 44-byte PCM header for 16-bit
// stereo.
func writeWAVHeader(w *bufio.Writer, sampleRate, frames int) error {
	dataBytes := uint32(frames * 2 * 2)
	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataBytes)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(hdr[22:24], 2) // stereo
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(sampleRate*2*2))
	binary.LittleEndian.PutUint16(hdr[32:34], 4)  // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16) // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataBytes)
	_, err := w.Write(hdr[:])
	if err != nil {
		return fmt.Errorf("render: write header: %w", err)
	}
	return nil
}
