// dsp_lut_test.go - Math kernel tests

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
	"math"
	"testing"
)

func TestSinLut_MatchesMathSin(t *testing.T) {
	for _, x := range []float64{0, 0.1, 1, math.Pi / 2, math.Pi, 3, 2 * math.Pi, -1, -10, 100.5} {
		got := sinLut(x)
		want := math.Sin(x)
		if math.Abs(got-want) > 1e-8 {
			t.Errorf("sinLut(%v) = %v, want %v", x, got, want)
		}
	}
}

func TestCosLut_MatchesMathCos(t *testing.T) {
	for x := -10.0; x < 10; x += 0.37 {
		if diff := math.Abs(cosLut(x) - math.Cos(x)); diff > 1e-8 {
			t.Errorf("cosLut(%v) off by %v", x, diff)
		}
	}
}

func TestSkewedSinePhase_ZeroSkewIsSine(t *testing.T) {
	for p := 0.0; p < 1; p += 0.01 {
		got := skewedSinePhase(p, 0)
		want := math.Sin(TWO_PI * p)
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("skewedSinePhase(%v, 0) = %v, want %v", p, got, want)
		}
	}
}

func TestSkewedSinePhase_SkewMovesCrossing(t *testing.T) {
	// With skew 0.5 the positive hump occupies three quarters of the
	// cycle, so the value at p=0.6 is still positive.
	if v := skewedSinePhase(0.6, 0.5); v <= 0 {
		t.Errorf("positive hump should extend past 0.6 with skew 0.5, got %v", v)
	}
	if v := skewedSinePhase(0.6, -0.5); v >= 0 {
		t.Errorf("negative hump should start before 0.6 with skew -0.5, got %v", v)
	}
}

func TestSkewedTrianglePhase_Shape(t *testing.T) {
	if v := skewedTrianglePhase(0.25, 0); math.Abs(v-1) > 1e-9 {
		t.Errorf("triangle peak at quarter cycle = %v, want 1", v)
	}
	if v := skewedTrianglePhase(0.75, 0); math.Abs(v+1) > 1e-9 {
		t.Errorf("triangle trough at three quarters = %v, want -1", v)
	}
	if v := skewedTrianglePhase(0.5, 0); math.Abs(v) > 1e-9 {
		t.Errorf("triangle crossing at half cycle = %v, want 0", v)
	}
}

func TestTrapezoidEnvelope_Shape(t *testing.T) {
	const cycle = 1000.0
	// 20% ramp, no gap: ramps are 100 samples each.
	if v := trapezoidEnvelope(0, cycle, 0.2, 0); v != 0 {
		t.Errorf("envelope at t=0 = %v, want 0", v)
	}
	if v := trapezoidEnvelope(50, cycle, 0.2, 0); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("mid ramp-up = %v, want 0.5", v)
	}
	if v := trapezoidEnvelope(500, cycle, 0.2, 0); v != 1 {
		t.Errorf("flat top = %v, want 1", v)
	}
	if v := trapezoidEnvelope(950, cycle, 0.2, 0); math.Abs(v-0.5) > 1e-9 {
		t.Errorf("mid ramp-down = %v, want 0.5", v)
	}
}

func TestTrapezoidEnvelope_GapAndDegenerate(t *testing.T) {
	const cycle = 1000.0
	// 50% gap: the second half of the cycle is silent.
	if v := trapezoidEnvelope(600, cycle, 0, 0.5); v != 0 {
		t.Errorf("gap region = %v, want 0", v)
	}
	if v := trapezoidEnvelope(250, cycle, 0, 0.5); v != 1 {
		t.Errorf("audible region with zero ramp = %v, want 1", v)
	}
	if v := trapezoidEnvelope(10, 0, 0.2, 0); v != 0 {
		t.Errorf("degenerate cycle = %v, want 0", v)
	}
	if v := trapezoidEnvelope(10, -5, 0.2, 0); v != 0 {
		t.Errorf("negative cycle = %v, want 0", v)
	}
}

func TestPan2_EqualPower(t *testing.T) {
	for pan := -1.0; pan <= 1; pan += 0.25 {
		l, r := pan2(1, pan)
		power := l*l + r*r
		if math.Abs(power-1) > 1e-8 {
			t.Errorf("pan2 power at pan %v = %v, want 1", pan, power)
		}
	}
	l, r := pan2(1, -1)
	if math.Abs(l-1) > 1e-8 || math.Abs(r) > 1e-8 {
		t.Errorf("hard left = (%v, %v), want (1, 0)", l, r)
	}
	l, r = pan2(1, 1)
	if math.Abs(l) > 1e-8 || math.Abs(r-1) > 1e-8 {
		t.Errorf("hard right = (%v, %v), want (0, 1)", l, r)
	}
}

func TestGaussianSource_SeededAndNormal(t *testing.T) {
	a := newGaussianSource(42)
	b := newGaussianSource(42)
	for i := 0; i < 100; i++ {
		if a.next() != b.next() {
			t.Fatal("same seed must reproduce the same sequence")
		}
	}

	g := newGaussianSource(7)
	const n = 200000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := g.next()
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.02 {
		t.Errorf("gaussian mean = %v, want ~0", mean)
	}
	if math.Abs(variance-1) > 0.03 {
		t.Errorf("gaussian variance = %v, want ~1", variance)
	}
}
