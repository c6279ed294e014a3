//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"os"
	"testing"
)

func TestONNXEmbedder(t *testing.T) {
	modelPath := os.Getenv("KOTAE_TEST_ONNX_MODEL")
	if modelPath == "" {
		t.Skip("KOTAE_TEST_ONNX_MODEL not set")
	}
	onnx, err := NewONNXEmbedder(modelPath, 384, 128)
	if err != nil {
		t.Fatalf("NewONNXEmbedder: %v", err)
	}
	e := Normalize(onnx)
	defer e.Close()

	ctx := context.Background()
	a, err := e.Embed(ctx, "Paris is the capital of France.")
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Embed(ctx, "Paris is the capital of France.")
	if Dot(a, b) < 0.9999 {
		t.Error("same text should embed identically")
	}
}
