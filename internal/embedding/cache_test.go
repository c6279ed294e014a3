package embedding

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

func TestEmbeddingCache_GetRefreshesRecency(t *testing.T) {
	c := NewEmbeddingCache(2)
	c.Set("a", []float32{1})
	c.Set("b", []float32{2})
	c.Get("a")
	c.Set("c", []float32{3}) // evicts b, not a
	if _, ok := c.Get("a"); !ok {
		t.Error("a was used recently and should remain")
	}
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
}

type countingEmbedder struct {
	*HashingEmbedder
	calls atomic.Int64
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls.Add(1)
	return c.HashingEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return embedEach(ctx, c, texts)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{HashingEmbedder: NewHashingEmbedder(32)}
	e := NewCachedEmbedder(inner, 10)

	first, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatal(err)
	}
	second, _ := e.Embed(ctx, "hello world")
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
	if Dot(first, second) < 0.999 {
		t.Error("cached vector differs")
	}

	vs, err := e.EmbedBatch(ctx, []string{"hello world", "new text", "other"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vs) != 3 {
		t.Fatalf("got %d vectors", len(vs))
	}
	if inner.calls.Load() != 3 {
		t.Errorf("inner calls = %d, want 3 (only misses embedded)", inner.calls.Load())
	}
	want, _ := inner.HashingEmbedder.Embed(ctx, "other")
	if Dot(vs[2], want) < 0.999 {
		t.Error("batch results are out of order")
	}
}
