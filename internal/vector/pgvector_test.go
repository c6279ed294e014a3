package vector

import (
	"context"
	"os"
	"reflect"
	"testing"
)

func TestPgVectorStore(t *testing.T) {
	dsn := os.Getenv("KOTAE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KOTAE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := NewPgVectorStore(ctx, dsn, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	_ = s.Upsert(ctx, "a", "alpha", unit(1, 0, 0))
	_ = s.Upsert(ctx, "b", "beta", unit(0.9, 0.1, 0))
	_ = s.Upsert(ctx, "c", "gamma", unit(0, 1, 0))
	_ = s.Upsert(ctx, "a", "alpha v2", unit(1, 0, 0))

	if s.Size() != 3 {
		t.Errorf("Size=%d", s.Size())
	}
	got, err := s.Query(ctx, unit(1, 0, 0), 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"alpha v2", "beta"}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFormatPgVector(t *testing.T) {
	if got := formatPgVector([]float32{0.5, -1, 0}); got != "[0.5,-1,0]" {
		t.Errorf("formatPgVector = %q", got)
	}
	if got := formatPgVector(nil); got != "[]" {
		t.Errorf("formatPgVector(nil) = %q", got)
	}
}

func TestFloat32Bytes(t *testing.T) {
	in := []float32{1.5, -2, 0, 3.25}
	if out := bytesToFloat32Slice(float32SliceToBytes(in)); !reflect.DeepEqual(in, out) {
		t.Errorf("got %v", out)
	}
}

func TestNewPgVectorStore_RequiresDSN(t *testing.T) {
	if _, err := NewPgVectorStore(context.Background(), "", 3, nil); err == nil {
		t.Error("expected error without DSN")
	}
}
