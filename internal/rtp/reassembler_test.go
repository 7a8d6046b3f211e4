package rtp

import (
	"os"
	"testing"
	"time"

	"firestige.xyz/gb28181registrar/internal/log"
)

// Evict logs through log.GetLogger, which is nil until Init has run.
func TestMain(m *testing.M) {
	log.Init(&log.LoggerConfig{Level: "error"})
	os.Exit(m.Run())
}

func TestReassembler_FiresOnCompleteAndStopsTracking(t *testing.T) {
	var completed *Frame
	r := NewReassembler(TypeH264, time.Minute, func(f *Frame) {
		completed = f
	})

	r.AddPacket(packet(1, 1000, false, []byte("a")))
	if completed != nil {
		t.Fatal("should not have completed yet")
	}
	if r.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", r.Pending())
	}

	r.AddPacket(packet(2, 1000, true, []byte("b")))
	if completed == nil {
		t.Fatal("expected onComplete to fire")
	}
	if r.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0 after completion", r.Pending())
	}
}

func TestReassembler_SeparatesFramesByTimestamp(t *testing.T) {
	completions := 0
	r := NewReassembler(TypeH264, time.Minute, func(f *Frame) {
		completions++
	})

	r.AddPacket(packet(1, 1000, true, []byte("a")))
	r.AddPacket(packet(1, 2000, true, []byte("b")))

	if completions != 2 {
		t.Fatalf("completions = %d, want 2", completions)
	}
}

func TestReassembler_EvictsStaleIncompleteFrames(t *testing.T) {
	r := NewReassembler(TypeH264, 10*time.Millisecond, nil)
	r.AddPacket(packet(1, 1000, false, []byte("a"))) // never gets its marker

	evicted := r.Evict(time.Now().Add(time.Hour))
	if evicted != 1 {
		t.Fatalf("Evict() = %d, want 1", evicted)
	}
	if r.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0 after eviction", r.Pending())
	}
}

func TestReassembler_DoesNotEvictFreshIncompleteFrame(t *testing.T) {
	r := NewReassembler(TypeH264, time.Hour, nil)
	r.AddPacket(packet(1, 1000, false, []byte("a")))

	evicted := r.Evict(time.Now())
	if evicted != 0 {
		t.Fatalf("Evict() = %d, want 0 for a fresh frame", evicted)
	}
	if r.Pending() != 1 {
		t.Fatalf("Pending() = %d, want 1", r.Pending())
	}
}

func TestReassembler_LateDuplicateAfterCompletionIsDropped(t *testing.T) {
	completions := 0
	r := NewReassembler(TypeH264, time.Minute, func(f *Frame) {
		completions++
	})

	r.AddPacket(packet(1, 1000, true, []byte("a")))
	if completions != 1 {
		t.Fatalf("completions = %d, want 1", completions)
	}

	// A late duplicate for the already-completed timestamp must not
	// re-open tracking or fire onComplete again.
	r.AddPacket(packet(1, 1000, true, []byte("a-late")))
	if completions != 1 {
		t.Fatalf("completions = %d after late duplicate, want still 1", completions)
	}
	if r.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", r.Pending())
	}
}
