// dsp_fft.go - Radix-2 FFT used by the spectral noise generator

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
	"errors"
	"math"
)

// ErrInvalidFFTSize is returned when the transform length is not a
// positive power of two.
var ErrInvalidFFTSize = errors.New("fft: size must be a positive power of two")

// FFT is a radix-2 transform over separate real and imaginary slices.
// Bit-reversal indices and twiddle factors are computed once at
// construction so the per-buffer work is table lookups only.
type FFT struct {
	size   int
	revIdx []int
	cosTab []float64
	sinTab []float64
}

func NewFFT(size int) (*FFT, error) {
	if size <= 0 || size&(size-1) != 0 {
		return nil, ErrInvalidFFTSize
	}
	f := &FFT{
		size:   size,
		revIdx: make([]int, size),
		cosTab: make([]float64, size/2),
		sinTab: make([]float64, size/2),
	}
	bits := 0
	for 1<<bits < size {
		bits++
	}
	for i := 0; i < size; i++ {
		rev := 0
		for b := 0; b < bits; b++ {
			if i&(1<<b) != 0 {
				rev |= 1 << (bits - 1 - b)
			}
		}
		f.revIdx[i] = rev
	}
	for i := 0; i < size/2; i++ {
		angle := -TWO_PI * float64(i) / float64(size)
		f.cosTab[i] = math.Cos(angle)
		f.sinTab[i] = math.Sin(angle)
	}
	return f, nil
}

func (f *FFT) Size() int { return f.size }

// Forward computes the in-place DFT of (re, im). Both slices must have
// length Size().
func (f *FFT) Forward(re, im []float64) {
	n := f.size
	for i := 0; i < n; i++ {
		j := f.revIdx[i]
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		half := length >> 1
		step := n / length
		for start := 0; start < n; start += length {
			k := 0
			for i := start; i < start+half; i++ {
				j := i + half
				wr := f.cosTab[k]
				wi := f.sinTab[k]
				tr := re[j]*wr - im[j]*wi
				ti := re[j]*wi + im[j]*wr
				re[j] = re[i] - tr
				im[j] = im[i] - ti
				re[i] += tr
				im[i] += ti
				k += step
			}
		}
	}
}

// Inverse computes the in-place inverse DFT of (re, im) with 1/N scaling,
// realised as conjugate-forward-conjugate.
func (f *FFT) Inverse(re, im []float64) {
	n := f.size
	for i := 0; i < n; i++ {
		im[i] = -im[i]
	}
	f.Forward(re, im)
	scale := 1 / float64(n)
	for i := 0; i < n; i++ {
		re[i] *= scale
		im[i] *= -scale
	}
}
