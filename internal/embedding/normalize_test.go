package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/kotae/pkg/utils"
)

type fixedEmbedder struct {
	vec []float32
	dim int
	err error
}

func (f *fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, len(f.vec))
	copy(out, f.vec)
	return out, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, f, texts)
}

func (f *fixedEmbedder) Dimensions() int { return f.dim }
func (f *fixedEmbedder) Close() error    { return nil }

func TestNormalize(t *testing.T) {
	e := Normalize(&fixedEmbedder{vec: []float32{3, 4}, dim: 2})
	v, err := e.Embed(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(utils.L2Norm(v)-1) > 1e-6 {
		t.Errorf("norm=%f", utils.L2Norm(v))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("v=%v", v)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	e := Normalize(&fixedEmbedder{vec: []float32{0, 0}, dim: 2})
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, ErrZeroVector) {
		t.Errorf("err = %v, want ErrZeroVector", err)
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"x"}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("batch err = %v, want ErrZeroVector", err)
	}
}

func TestNormalize_DimensionMismatch(t *testing.T) {
	e := Normalize(&fixedEmbedder{vec: []float32{1, 2, 3}, dim: 2})
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestNormalize_PassesErrors(t *testing.T) {
	boom := errors.New("model down")
	e := Normalize(&fixedEmbedder{err: boom, dim: 2})
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	e := Normalize(NewHashingEmbedder(8))
	if Normalize(e) != e {
		t.Error("normalizing twice should return the same wrapper")
	}
}
