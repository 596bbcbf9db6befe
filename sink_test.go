package linkz

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestSinkTo_WritesTokens(t *testing.T) {
	var out bytes.Buffer
	sink := SinkTo("print", &out)

	flow := NewFlow[string](NewBuffer("wow", "noon"))

	if !sink.Process(context.Background(), flow) {
		t.Fatal("Expected accept on successful consumption")
	}
	if got := out.String(); got != "wow\nnoon\n" {
		t.Errorf("Expected 'wow\\nnoon\\n', got %q", got)
	}
}

func TestSinkTo_EmptyStream(t *testing.T) {
	var out bytes.Buffer
	sink := SinkTo("print", &out)

	flow := NewFlow[string](NewBuffer[string]())

	if !sink.Process(context.Background(), flow) {
		t.Error("Expected accept on empty stream")
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestSinkTo_NoStream(t *testing.T) {
	sink := SinkTo("print", &bytes.Buffer{})

	if sink.Process(context.Background(), NewFlow[string]()) {
		t.Error("Expected reject when no stream is installed")
	}
}

func TestSinkTo_WriteFailureBecomesReject(t *testing.T) {
	sink := SinkTo("print", failingWriter{})

	flow := NewFlow[string](NewBuffer("wow"))

	if sink.Process(context.Background(), flow) {
		t.Error("Expected reject on write failure")
	}
}

func TestCollect_GathersTokens(t *testing.T) {
	var got []string
	sink := Collect("gather", &got)

	flow := NewFlow[string](NewBuffer("a", "b"))

	if !sink.Process(context.Background(), flow) {
		t.Fatal("Expected accept")
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Expected [a b], got %v", got)
	}
}

func TestCollect_NoStream(t *testing.T) {
	var got []string
	sink := Collect("gather", &got)

	if sink.Process(context.Background(), NewFlow[string]()) {
		t.Error("Expected reject when no stream is installed")
	}
}
