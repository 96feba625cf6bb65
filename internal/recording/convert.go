package recording

import (
	"encoding/binary"
	"errors"
	"math"
)

var errBadSample = errors.New("frame contains non-finite samples")

// f32Decoder turns a raw little-endian float32 byte stream into samples,
// carrying partial samples across reads.
type f32Decoder struct {
	carry []byte
}

func (d *f32Decoder) decode(p []byte) []float32 {
	if len(d.carry) > 0 {
		p = append(d.carry, p...)
		d.carry = nil
	}

	n := len(p) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
	}
	if rem := len(p) % 4; rem > 0 {
		d.carry = append([]byte(nil), p[len(p)-rem:]...)
	}
	return out
}

func validateFrame(samples []float32) error {
	for _, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errBadSample
		}
	}
	return nil
}

// rms is the root mean square of samples clamped to [0,1].
func rms(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s)
		sum += f * f
	}
	v := math.Sqrt(sum / float64(len(samples)))
	if v > 1 {
		return 1
	}
	return v
}

// toPCM16 converts float samples in [-1,1] to 16-bit integers, clipping
// anything outside that range.
func toPCM16(samples []float32) []int {
	out := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		out[i] = int(math.Round(float64(s) * math.MaxInt16))
	}
	return out
}
