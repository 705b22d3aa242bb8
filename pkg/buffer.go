package riff

import "fmt"

// InitPolicy selects the buffer's contents before any program code runs.
type InitPolicy int

const (
	// InitUnitImpulse puts amplitude 1 at index 0 and silence elsewhere.
	// This is the default excitation a program shapes into reflections.
	InitUnitImpulse InitPolicy = iota

	// InitSilence leaves the whole buffer at zero.
	InitSilence
)

// ImpulseResponse is the shared sample buffer: a fixed-length sequence of
// real-valued amplitudes. The length is fixed at construction and no
// operation resizes it.
type ImpulseResponse struct {
	data       []float64
	sampleRate int
}

// NewImpulseResponse allocates a buffer of round(sampleRate * duration)
// samples, pre-initialized per the policy.
func NewImpulseResponse(sampleRate int, duration float64, init InitPolicy) (*ImpulseResponse, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	n := roundHalfAway(float64(sampleRate) * duration)
	if n <= 0 {
		return nil, fmt.Errorf("buffer would hold %d samples, need at least 1", n)
	}

	ir := &ImpulseResponse{
		data:       make([]float64, n),
		sampleRate: sampleRate,
	}

	if init == InitUnitImpulse {
		ir.data[0] = 1
	}

	return ir, nil
}

func (ir *ImpulseResponse) Len() int {
	return len(ir.data)
}

func (ir *ImpulseResponse) SampleRate() int {
	return ir.sampleRate
}

// Read returns the amplitude at index i. Out-of-range access is an error,
// never clamped.
func (ir *ImpulseResponse) Read(i int64) (float64, error) {
	if i < 0 || i >= int64(len(ir.data)) {
		return 0, &RuntimeError{
			Kind: KindIndex,
			Msg:  fmt.Sprintf("sample index %d out of range [0, %d)", i, len(ir.data)),
		}
	}

	return ir.data[i], nil
}

// Write replaces the amplitude at index i. Writes are immediate: a later
// Read observes the new value.
func (ir *ImpulseResponse) Write(i int64, v float64) error {
	if i < 0 || i >= int64(len(ir.data)) {
		return &RuntimeError{
			Kind: KindIndex,
			Msg:  fmt.Sprintf("sample index %d out of range [0, %d)", i, len(ir.data)),
		}
	}

	ir.data[i] = v
	return nil
}

// Samples exposes the underlying amplitudes. Callers must treat the slice as
// read-only once a run has completed.
func (ir *ImpulseResponse) Samples() []float64 {
	return ir.data
}
