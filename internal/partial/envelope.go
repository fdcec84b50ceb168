package partial

// Envelope extracts the noise/harmonic split AirProcessor's mask is
// built from, per spec.md §4.4.4: the noise envelope is the spectrum
// with identified partials zeroed out, heavily time-smoothed and
// musical-noise-suppressed; the harmonic envelope is whatever energy
// the noise envelope doesn't account for.
type Envelope struct {
	// SmoothCoeff is the one-pole coefficient for the noise envelope's
	// time smoothing — deliberately heavier than the preprocessing
	// magnitude smoother so the noise floor tracks slowly and doesn't
	// chase individual frames.
	SmoothCoeff float64

	smoothed []float64
}

// NewEnvelope constructs an Envelope tracker for a spectrum of binCount bins.
func NewEnvelope(binCount int) *Envelope {
	return &Envelope{SmoothCoeff: 0.97, smoothed: make([]float64, binCount)}
}

// Extract computes (noise, harmonic) envelopes for one frame. magn is
// the (warped-axis) linear magnitude spectrum the partials were
// detected in; alive is the tracker's current partial set; binHz
// converts a partial's Hz frequency to a bin position in magn.
func (e *Envelope) Extract(magn []float64, alive []*Partial, binHz float64) (noise, harmonic []float64) {
	n := len(magn)
	stripped := make([]float64, n)
	copy(stripped, magn)
	for _, p := range alive {
		center := int(p.Freq/binHz + 0.5)
		for d := -1; d <= 1; d++ {
			bi := center + d
			if bi >= 0 && bi < n {
				stripped[bi] = 0
			}
		}
	}

	for i := 0; i < n; i++ {
		e.smoothed[i] = e.SmoothCoeff*e.smoothed[i] + (1-e.SmoothCoeff)*stripped[i]
	}

	noise = suppressMusicalNoise(e.smoothed)

	harmonic = make([]float64, n)
	for i := 0; i < n; i++ {
		h := magn[i] - noise[i]
		if h < 0 {
			h = 0
		}
		harmonic[i] = h
	}
	return noise, harmonic
}

// Reset clears the noise envelope's smoothing state, e.g. on a
// pipeline reset or reconfiguration.
func (e *Envelope) Reset() {
	for i := range e.smoothed {
		e.smoothed[i] = 0
	}
}

// suppressMusicalNoise runs a small centered moving average across the
// frequency axis, smearing the single-bin pops a purely time-smoothed
// noise estimate otherwise leaves behind ("musical noise").
func suppressMusicalNoise(in []float64) []float64 {
	n := len(in)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi >= n {
			hi = n - 1
		}
		sum := 0.0
		for k := lo; k <= hi; k++ {
			sum += in[k]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// Mask builds the harmonic hard mask m = H/(H+N) from a pair of
// noise/harmonic envelopes, with bin 0 forced to 0 (DC never carries
// harmonic content), per spec.md §4.7 step 5.
func Mask(noise, harmonic []float64) []float64 {
	n := len(harmonic)
	m := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := harmonic[i] + noise[i]
		if sum > 1e-12 {
			m[i] = harmonic[i] / sum
		}
	}
	if n > 0 {
		m[0] = 0
	}
	return m
}
