package rtp

import (
	"bytes"
	"testing"
)

func packet(seq uint16, ts uint32, marker bool, payload []byte) *Packet {
	p := &Packet{}
	p.SequenceNumber = seq
	p.Timestamp = ts
	p.Marker = marker
	p.Payload = payload
	return p
}

func TestFrame_CompleteOnContiguousRunWithMarker(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	f.AddPacket(packet(1, 1000, false, []byte("a")))
	f.AddPacket(packet(2, 1000, false, []byte("b")))
	f.AddPacket(packet(3, 1000, true, []byte("c")))

	if !f.IsComplete() {
		t.Fatal("expected frame to be complete")
	}
	if f.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", f.Count())
	}
	if got, want := f.Payload(), []byte("abc"); !bytes.Equal(got, want) {
		t.Fatalf("Payload() = %q, want %q", got, want)
	}
}

func TestFrame_IncompleteWithoutMarker(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	f.AddPacket(packet(1, 1000, false, []byte("a")))
	f.AddPacket(packet(2, 1000, false, []byte("b")))

	if f.IsComplete() {
		t.Fatal("expected frame without marker to be incomplete")
	}
}

func TestFrame_IncompleteOnGap(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	f.AddPacket(packet(1, 1000, false, []byte("a")))
	f.AddPacket(packet(3, 1000, true, []byte("c"))) // seq 2 missing

	if f.IsComplete() {
		t.Fatal("expected frame with a sequence gap to be incomplete")
	}
}

func TestFrame_DuplicatePacketBreaksContiguity(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	f.AddPacket(packet(1, 1000, false, []byte("a")))
	f.AddPacket(packet(1, 1000, false, []byte("a-retransmit")))
	f.AddPacket(packet(2, 1000, true, []byte("b")))

	if f.IsComplete() {
		t.Fatal("a duplicate sequence number must not be counted as contiguous")
	}
}

func TestFrame_OutOfOrderArrivalStillOrdersBySequence(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	f.AddPacket(packet(3, 1000, true, []byte("c")))
	f.AddPacket(packet(1, 1000, false, []byte("a")))
	f.AddPacket(packet(2, 1000, false, []byte("b")))

	if !f.IsComplete() {
		t.Fatal("expected frame to be complete regardless of arrival order")
	}
	if got, want := f.Payload(), []byte("abc"); !bytes.Equal(got, want) {
		t.Fatalf("Payload() = %q, want %q", got, want)
	}
}

func TestFrame_SequenceWrapOrdersAcrossBoundary(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	// 65534, 65535, 0, 1 — a run that wraps the 16-bit counter.
	f.AddPacket(packet(65534, 1000, false, []byte("a")))
	f.AddPacket(packet(0, 1000, false, []byte("c")))
	f.AddPacket(packet(1, 1000, true, []byte("d")))
	f.AddPacket(packet(65535, 1000, false, []byte("b")))

	if !f.IsComplete() {
		t.Fatal("expected a sequence-wrapping run to be recognized as contiguous")
	}
	if got, want := f.Payload(), []byte("abcd"); !bytes.Equal(got, want) {
		t.Fatalf("Payload() = %q, want %q", got, want)
	}
	if f.StartSequence() != 65534 {
		t.Fatalf("StartSequence() = %d, want 65534", f.StartSequence())
	}
	if f.EndSequence() != 1 {
		t.Fatalf("EndSequence() = %d, want 1", f.EndSequence())
	}
}

func TestFrame_EmptyFrameSequencesAreZero(t *testing.T) {
	f := NewFrame(1000, TypeH264, nil)
	if f.StartSequence() != 0 || f.EndSequence() != 0 {
		t.Fatal("expected zero start/end sequence on an empty frame")
	}
	if f.IsComplete() {
		t.Fatal("expected an empty frame to never be complete")
	}
}
