package audio

// PeakNormalize scales samples so the peak amplitude reaches 1.0. Silent
// input is returned unchanged.
func PeakNormalize(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	if peak == 0 {
		return samples
	}

	out := make([]float32, len(samples))
	gain := 1.0 / peak
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// DCBlock removes DC offset with a first-order high-pass filter
// (y[n] = x[n] - x[n-1] + R*y[n-1], R tuned for ~20 Hz at the given rate).
func DCBlock(samples []float32, sampleRate int) []float32 {
	if len(samples) == 0 || sampleRate < 1 {
		return samples
	}

	r := 1.0 - (125.0 / float32(sampleRate))
	if r < 0 {
		r = 0
	}

	out := make([]float32, len(samples))
	var prevIn, prevOut float32
	for i, s := range samples {
		out[i] = s - prevIn + r*prevOut
		prevIn = s
		prevOut = out[i]
	}
	return out
}

// FadeIn applies a linear fade-in ramp over the given duration in
// milliseconds.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	n := fadeSamples(len(samples), sampleRate, ms)
	if n == 0 {
		return samples
	}

	out := append([]float32(nil), samples...)
	for i := 0; i < n; i++ {
		out[i] *= float32(i) / float32(n)
	}
	return out
}

// FadeOut applies a linear fade-out ramp over the given duration in
// milliseconds.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	n := fadeSamples(len(samples), sampleRate, ms)
	if n == 0 {
		return samples
	}

	out := append([]float32(nil), samples...)
	start := len(out) - n
	for i := start; i < len(out); i++ {
		out[i] *= float32(len(out)-1-i) / float32(n)
	}
	return out
}

// fadeSamples converts a millisecond duration to a sample count, capped at
// the signal length.
func fadeSamples(total, sampleRate int, ms float64) int {
	if total == 0 || sampleRate < 1 || ms <= 0 {
		return 0
	}
	n := int(ms * float64(sampleRate) / 1000.0)
	if n > total {
		n = total
	}
	return n
}
