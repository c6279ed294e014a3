package failure

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestInputAndUpstream(t *testing.T) {
	base := errors.New("boom")

	in := Input(StageLoaded, base)
	if !IsInput(in) || IsUpstream(in) {
		t.Errorf("Input: kind=%v", KindOf(in))
	}
	if StageOf(in) != StageLoaded {
		t.Errorf("stage = %q", StageOf(in))
	}
	if !errors.Is(in, base) {
		t.Error("Input should unwrap to the base error")
	}

	up := Upstream(StageEmbedded, base)
	if !IsUpstream(up) || IsInput(up) {
		t.Errorf("Upstream: kind=%v", KindOf(up))
	}

	internal := Internal(StageStored, base)
	if KindOf(internal) != KindInternal || IsInput(internal) || IsUpstream(internal) {
		t.Errorf("Internal: kind=%v", KindOf(internal))
	}
}

func TestWrapKeepsFirstClassification(t *testing.T) {
	inner := Upstream(StageAnswered, context.DeadlineExceeded)
	outer := Input(StageRetrieved, fmt.Errorf("query: %w", inner))
	if !IsUpstream(outer) {
		t.Errorf("kind = %v, want upstream", KindOf(outer))
	}
	if StageOf(outer) != StageAnswered {
		t.Errorf("stage = %q, want answered", StageOf(outer))
	}
	if !IsTimeout(outer) {
		t.Error("IsTimeout should see the deadline through the wrapping")
	}
}

func TestNilAndUnclassified(t *testing.T) {
	if Input(StageLoaded, nil) != nil {
		t.Error("wrapping nil should return nil")
	}
	plain := errors.New("plain")
	if KindOf(plain) != 0 || StageOf(plain) != "" {
		t.Error("unclassified error should have no kind or stage")
	}
	if KindInput.String() != "input" || KindInternal.String() != "internal" || Kind(0).String() != "unknown" {
		t.Error("unexpected Kind strings")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Input(StageChunked, ErrEmptyDocument)
	want := "input error [stage=chunked]: document is empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	noStage := &Error{Kind: KindUpstream, Err: errors.New("x")}
	if noStage.Error() != "upstream error: x" {
		t.Errorf("Error() = %q", noStage.Error())
	}
}
