package audio

import "testing"

func TestValidateWrongSize(t *testing.T) {
	var v Validator
	_, err := v.Validate(make([]float32, 10))
	if err == nil {
		t.Fatal("expected error for wrong frame size")
	}
}

func TestValidateOK(t *testing.T) {
	var v Validator
	samples := make([]float32, FrameSamples)
	samples[0] = 0.5
	f, err := v.Validate(samples)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Samples[0] != 0.5 {
		t.Fatalf("sample not copied: got %v", f.Samples[0])
	}
}

func TestToInt16Clamped(t *testing.T) {
	out := ToInt16Clamped([]float32{1.0, -1.0, 2.0, -2.0, 0})
	want := []int16{32767, -32768, 32767, -32768, 0}
	for i, w := range want {
		if out[i] != w {
			t.Errorf("index %d: got %d, want %d", i, out[i], w)
		}
	}
}
