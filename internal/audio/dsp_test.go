package audio

import (
	"math"
	"testing"
)

func TestPeakNormalize(t *testing.T) {
	out := PeakNormalize([]float32{0.1, -0.5, 0.25})

	if got := out[1]; got != -1.0 {
		t.Errorf("peak sample = %v; want -1.0", got)
	}
	if got := out[0]; math.Abs(float64(got-0.2)) > 1e-6 {
		t.Errorf("scaled sample = %v; want 0.2", got)
	}
}

func TestPeakNormalize_SilenceUnchanged(t *testing.T) {
	in := []float32{0, 0, 0}
	out := PeakNormalize(in)

	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d = %v; want 0", i, s)
		}
	}
}

func TestDCBlock_RemovesOffset(t *testing.T) {
	const rate = 16000

	in := make([]float32, rate)
	for i := range in {
		in[i] = 0.4 // pure DC
	}

	out := DCBlock(in, rate)

	// Mean of the second half should be near zero once the filter settles.
	var sum float64
	half := out[len(out)/2:]
	for _, s := range half {
		sum += float64(s)
	}
	if mean := sum / float64(len(half)); math.Abs(mean) > 0.01 {
		t.Errorf("post-filter mean = %v; want ~0", mean)
	}
}

func TestFadeIn(t *testing.T) {
	const rate = 1000

	in := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	out := FadeIn(in, rate, 5) // 5 ms = 5 samples

	if out[0] != 0 {
		t.Errorf("first sample = %v; want 0", out[0])
	}
	if out[9] != 1 {
		t.Errorf("last sample = %v; want 1 (beyond ramp)", out[9])
	}
	if out[2] >= out[4] {
		t.Errorf("ramp not increasing: out[2]=%v out[4]=%v", out[2], out[4])
	}

	// Input is not mutated.
	if in[0] != 1 {
		t.Error("FadeIn mutated its input")
	}
}

func TestFadeOut(t *testing.T) {
	const rate = 1000

	in := []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	out := FadeOut(in, rate, 5)

	if out[0] != 1 {
		t.Errorf("first sample = %v; want 1 (before ramp)", out[0])
	}
	if out[9] != 0 {
		t.Errorf("last sample = %v; want 0", out[9])
	}
}

func TestFades_ZeroDurationNoOp(t *testing.T) {
	in := []float32{0.5, 0.5}

	if out := FadeIn(in, 16000, 0); out[0] != 0.5 {
		t.Errorf("FadeIn with 0 ms changed samples: %v", out)
	}
	if out := FadeOut(in, 16000, 0); out[1] != 0.5 {
		t.Errorf("FadeOut with 0 ms changed samples: %v", out)
	}
}

func TestFades_DurationLongerThanSignal(t *testing.T) {
	in := []float32{1, 1}

	out := FadeIn(in, 16000, 10000)
	if out[0] != 0 {
		t.Errorf("first sample = %v; want 0", out[0])
	}
}
