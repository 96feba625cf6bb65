package recording

import (
	"math"
	"testing"
)

func TestF32Decoder_Carry(t *testing.T) {
	data := encodeF32(0.25, -0.5, 1)

	var d f32Decoder
	got := d.decode(data[:5])
	if len(got) != 1 || got[0] != 0.25 {
		t.Fatalf("first decode = %v", got)
	}
	got = d.decode(data[5:9])
	if len(got) != 1 || got[0] != -0.5 {
		t.Fatalf("second decode = %v", got)
	}
	got = d.decode(data[9:])
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("third decode = %v", got)
	}
	if len(d.carry) != 0 {
		t.Errorf("carry left over: %v", d.carry)
	}
}

func TestValidateFrame(t *testing.T) {
	if err := validateFrame([]float32{0, 0.5, -1}); err != nil {
		t.Errorf("finite frame rejected: %v", err)
	}
	if err := validateFrame([]float32{0, float32(math.Inf(1))}); err == nil {
		t.Error("Inf frame accepted")
	}
	if err := validateFrame([]float32{float32(math.NaN())}); err == nil {
		t.Error("NaN frame accepted")
	}
}

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want float64
	}{
		{"empty", nil, 0},
		{"silence", []float32{0, 0, 0}, 0},
		{"square wave", []float32{0.5, -0.5, 0.5, -0.5}, 0.5},
		{"clipped", []float32{3, -3}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rms(tt.in); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("rms() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToPCM16(t *testing.T) {
	got := toPCM16([]float32{0, 1, -1, 2, -2, 0.5})
	want := []int{0, 32767, -32767, 32767, -32767, 16384}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toPCM16[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRingWindow(t *testing.T) {
	w := newRingWindow(4)

	w.append([]float32{1, 2})
	if got := w.last(0); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("last(0) = %v", got)
	}

	w.append([]float32{3, 4, 5})
	if got := w.last(0); len(got) != 4 || got[0] != 2 || got[3] != 5 {
		t.Fatalf("after overflow last(0) = %v", got)
	}
	if got := w.last(2); len(got) != 2 || got[0] != 4 || got[1] != 5 {
		t.Fatalf("last(2) = %v", got)
	}

	w.append([]float32{6, 7, 8, 9, 10, 11})
	if got := w.last(0); len(got) != 4 || got[0] != 8 || got[3] != 11 {
		t.Fatalf("oversized append last(0) = %v", got)
	}

	w.reset()
	if w.len() != 0 || len(w.last(0)) != 0 {
		t.Error("reset did not clear window")
	}
}
