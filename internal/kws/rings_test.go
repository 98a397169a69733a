package kws

import "testing"

func TestSampleRingLastZeroPadsWhenShort(t *testing.T) {
	r := newSampleRing(100, 4)
	out := r.last(10)
	if len(out) != 10 {
		t.Fatalf("len(out) = %d, want 10", len(out))
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 (all-silence ring)", i, v)
		}
	}
}

func TestSampleRingPushTrimsToCapacity(t *testing.T) {
	r := newSampleRing(10, 0)
	r.push([]float32{1, 2, 3, 4, 5})
	r.push([]float32{6, 7, 8, 9, 10, 11})
	if len(r.buf) != 10 {
		t.Fatalf("len(r.buf) = %d, want 10", len(r.buf))
	}
	want := []float32{2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for i, v := range want {
		if r.buf[i] != v {
			t.Fatalf("r.buf[%d] = %v, want %v", i, r.buf[i], v)
		}
	}
}

func TestSampleRingClearRestoresInitialSilence(t *testing.T) {
	r := newSampleRing(10, 3)
	r.push([]float32{1, 2, 3, 4})
	r.clear(3)
	if len(r.buf) != 3 {
		t.Fatalf("len(r.buf) = %d, want 3", len(r.buf))
	}
	for _, v := range r.buf {
		if v != 0 {
			t.Fatalf("r.buf contains non-zero sample after clear: %v", v)
		}
	}
}

func TestFrameRingPushTrimsToCapacity(t *testing.T) {
	r := newFrameRing(2)
	r.push([]float32{1})
	r.push([]float32{2})
	r.push([]float32{3})
	if r.len() != 2 {
		t.Fatalf("r.len() = %d, want 2", r.len())
	}
	last := r.last(2)
	if last[0][0] != 2 || last[1][0] != 3 {
		t.Fatalf("last = %v, want [[2] [3]]", last)
	}
}

func TestFrameRingClear(t *testing.T) {
	r := newFrameRing(2)
	r.push([]float32{1})
	r.clear()
	if r.len() != 0 {
		t.Fatalf("r.len() = %d, want 0 after clear", r.len())
	}
}
