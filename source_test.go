package linkz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeOrigin(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("Unexpected error writing origin: %v", err)
	}
	return path
}

func TestSource_Process_LoadsTokens(t *testing.T) {
	path := writeOrigin(t, "wander wow, cat; wolf")
	source := NewFileSource("load", path, " ;,")
	defer source.Close()

	flow := NewFlow[string]()
	if !source.Process(context.Background(), flow) {
		t.Fatal("Expected accept on readable origin")
	}

	got := flow.Drain()
	want := []string{"wander", "wow", "cat", "wolf"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i, tok := range want {
		if got[i] != tok {
			t.Errorf("Expected token %d to be %s, got %s", i, tok, got[i])
		}
	}

	if err := source.LastError(); err != nil {
		t.Errorf("Expected nil LastError, got %v", err)
	}
	if got := source.Metrics().Counter(SourceLoadedTotal).Value(); got != 1 {
		t.Errorf("Expected loaded total 1, got %v", got)
	}
	if got := source.Metrics().Gauge(SourceTokens).Value(); got != 4 {
		t.Errorf("Expected 4 tokens recorded, got %v", got)
	}
}

func TestSource_Process_MissingOrigin(t *testing.T) {
	source := NewFileSource("load", filepath.Join(t.TempDir(), "missing.txt"), " ")
	defer source.Close()

	var mu sync.Mutex
	var events []SourceEvent
	if err := source.OnFailed(func(_ context.Context, event SourceEvent) error {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Unexpected error registering hook: %v", err)
	}

	flow := NewFlow[string]()
	if source.Process(context.Background(), flow) {
		t.Fatal("Expected reject on missing origin")
	}

	if flow.Stream() != nil {
		t.Error("Expected no stream installed on failure")
	}
	if err := source.LastError(); !errors.Is(err, ErrOriginUnavailable) {
		t.Errorf("Expected ErrOriginUnavailable, got %v", err)
	}
	if got := source.Metrics().Counter(SourceFailedTotal).Value(); got != 1 {
		t.Errorf("Expected failed total 1, got %v", got)
	}

	// Wait for async hooks to fire
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("Expected 1 failed event, got %d", len(events))
	}
	if !errors.Is(events[0].Err, ErrOriginUnavailable) {
		t.Errorf("Expected event to carry ErrOriginUnavailable, got %v", events[0].Err)
	}
}

func TestSource_Process_RecoversAfterFailure(t *testing.T) {
	source := NewFileSource("load", "does-not-exist.txt", " ")
	defer source.Close()

	flow := NewFlow[string]()
	if source.Process(context.Background(), flow) {
		t.Fatal("Expected reject on missing origin")
	}

	source.SetOrigin(writeOrigin(t, "ok"))
	if !source.Process(context.Background(), flow) {
		t.Fatal("Expected accept after origin fixed")
	}
	if err := source.LastError(); err != nil {
		t.Errorf("Expected LastError cleared, got %v", err)
	}
}

func TestSource_Process_EmptyOrigin(t *testing.T) {
	source := NewFileSource("load", writeOrigin(t, ""), " ")
	defer source.Close()

	flow := NewFlow[string]()
	if !source.Process(context.Background(), flow) {
		t.Fatal("Expected accept on empty but readable origin")
	}
	if flow.Stream() == nil {
		t.Fatal("Expected an empty stream installed")
	}
	if flow.Stream().More() {
		t.Error("Expected no tokens from empty origin")
	}
}

func TestSource_Hooks_Loaded(t *testing.T) {
	source := NewFileSource("load", writeOrigin(t, "a b c"), " ")
	defer source.Close()

	var mu sync.Mutex
	var events []SourceEvent
	if err := source.OnLoaded(func(_ context.Context, event SourceEvent) error {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Unexpected error registering hook: %v", err)
	}

	source.Process(context.Background(), NewFlow[string]())
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("Expected 1 loaded event, got %d", len(events))
	}
	if events[0].Tokens != 3 {
		t.Errorf("Expected 3 tokens in event, got %d", events[0].Tokens)
	}
}
