package linkz

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestKeep_Process_ForwardsMatching(t *testing.T) {
	keep := NewKeep("starts-w", StartsWith("w"))
	defer keep.Close()

	flow := NewFlow[string](NewBuffer("wander", "wow", "cat", "wolf"))

	if !keep.Process(context.Background(), flow) {
		t.Fatal("Expected accept on completed traversal")
	}

	got := flow.Drain()
	want := []string{"wander", "wow", "wolf"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	for i, tok := range want {
		if got[i] != tok {
			t.Errorf("Expected token %d to be %s, got %s", i, tok, got[i])
		}
	}

	if got := keep.Metrics().Counter(KeepKeptTotal).Value(); got != 3 {
		t.Errorf("Expected kept total 3, got %v", got)
	}
	if got := keep.Metrics().Counter(KeepDroppedTotal).Value(); got != 1 {
		t.Errorf("Expected dropped total 1, got %v", got)
	}
}

func TestKeep_Process_AcceptsWhenEverythingDropped(t *testing.T) {
	keep := NewKeep("none", func(string) bool { return false })
	defer keep.Close()

	flow := NewFlow[string](NewBuffer("a", "b"))

	if !keep.Process(context.Background(), flow) {
		t.Error("Expected accept even when every item is dropped")
	}
	if got := flow.Drain(); len(got) != 0 {
		t.Errorf("Expected empty downstream stream, got %v", got)
	}
}

func TestKeep_Process_NoStream(t *testing.T) {
	keep := NewKeep("orphan", StartsWith("w"))
	defer keep.Close()

	if keep.Process(context.Background(), NewFlow[string]()) {
		t.Error("Expected reject when no stream is installed")
	}
}

func TestKeep_Process_Idempotent(t *testing.T) {
	keep := NewKeep("short", MaxLength(3))
	defer keep.Close()

	run := func() []string {
		flow := NewFlow[string](NewBuffer("wander", "wow", "cat", "wolf"))
		if !keep.Process(context.Background(), flow) {
			t.Fatal("Expected accept")
		}
		return flow.Drain()
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("Expected identical partitions, got %v and %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Expected identical partitions, got %v and %v", first, second)
		}
	}
}

func TestKeep_Process_PredicatePanicBecomesReject(t *testing.T) {
	keep := NewKeep("boom", func(string) bool { panic("predicate blew up") })
	defer keep.Close()

	flow := NewFlow[string](NewBuffer("a"))

	if keep.Process(context.Background(), flow) {
		t.Error("Expected panicking predicate to count as reject")
	}
}

func TestKeep_SetPredicate(t *testing.T) {
	keep := NewKeep("mutable", func(string) bool { return false })
	defer keep.Close()

	keep.SetPredicate(func(string) bool { return true })

	flow := NewFlow[string](NewBuffer("a", "b"))
	if !keep.Process(context.Background(), flow) {
		t.Fatal("Expected accept")
	}
	if got := flow.Drain(); len(got) != 2 {
		t.Errorf("Expected new predicate to keep everything, got %v", got)
	}
}

func TestKeep_Hooks_Filtered(t *testing.T) {
	keep := NewKeep("short", MaxLength(3))
	defer keep.Close()

	var mu sync.Mutex
	var events []KeepEvent
	if err := keep.OnFiltered(func(_ context.Context, event KeepEvent) error {
		mu.Lock()
		events = append(events, event)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Unexpected error registering hook: %v", err)
	}

	flow := NewFlow[string](NewBuffer("wander", "wow", "cat", "wolf"))
	keep.Process(context.Background(), flow)

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("Expected 1 filtered event, got %d", len(events))
	}
	if events[0].Kept != 2 || events[0].Dropped != 2 {
		t.Errorf("Expected 2 kept and 2 dropped, got %+v", events[0])
	}
}
