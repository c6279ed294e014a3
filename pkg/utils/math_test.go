package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	if !NormalizeL2(x) {
		t.Fatal("expected normalization to succeed")
	}
	if math.Abs(L2Norm(x)-1) > 1e-6 {
		t.Errorf("norm = %f, want 1", L2Norm(x))
	}
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("got %v", x)
	}

	zero := []float32{0, 0, 0}
	if NormalizeL2(zero) {
		t.Error("zero vector cannot be normalized")
	}
}

func TestDot(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{1, 0}, []float32{1, 0}, 1},
		{[]float32{1, 0}, []float32{0, 1}, 0},
		{[]float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{[]float32{1}, []float32{1, 2}, 0},
		{nil, nil, 0},
	}
	for _, tt := range tests {
		if got := Dot(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Dot(%v, %v) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}
