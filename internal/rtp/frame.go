// Package rtp implements the RTP frame reassembler: grouping packets that
// share one media-frame timestamp into an ordered sequence, detecting
// completeness, and reconstituting the concatenated payload.
package rtp

import (
	"container/list"
	"sort"

	"github.com/pion/rtp"
)

// Packet is the RTP transport's wire packet, handed to the reassembler by
// the (external, out-of-scope) RTP receiver. Using pion/rtp's standards
// compliant type keeps header semantics (marker, sequence, timestamp,
// payload type) consistent with the rest of the Go RTP ecosystem instead
// of a hand-rolled struct.
type Packet = rtp.Packet

// FrameType classifies the payload so a type-aware Codec can be selected.
type FrameType int

const (
	TypeOther FrameType = iota
	TypeH264
	TypeVP8
	TypeAudio
)

// Frame aggregates the RTP packets of a single timestamp. Every packet
// shares Timestamp; HasMarker becomes true the moment any enqueued packet
// carries the marker bit. Reassembler creates a Frame only on the arrival
// of its first packet, so the frames it tracks are never empty; a Frame
// built directly with NewFrame starts with no packets. Ordering for
// iteration/output is by ascending sequence number with 16-bit wrap
// handled.
//
// Frame is single-producer/single-consumer: the packet receiver appends,
// a consumer checks completeness and extracts. It does not self-lock — a
// producer and consumer on different goroutines must synchronize
// externally, which Reassembler does on their behalf.
type Frame struct {
	Timestamp        uint32
	HasMarker        bool
	FrameType        FrameType
	HasBeenProcessed bool

	packets   *list.List // of Packet, insertion order — NOT sequence order
	firstSeq  uint16
	haveFirst bool
	codec     Codec
}

// NewFrame creates an empty Frame for timestamp. codec may be nil, in
// which case Payload returns raw concatenation with no descriptor
// stripping.
func NewFrame(timestamp uint32, frameType FrameType, codec Codec) *Frame {
	return &Frame{
		Timestamp: timestamp,
		FrameType: frameType,
		packets:   list.New(),
		codec:     codec,
	}
}

// AddPacket appends p to the frame. O(1): a list push plus a marker-bit
// check.
func (f *Frame) AddPacket(p *Packet) {
	if !f.haveFirst {
		f.firstSeq = p.SequenceNumber
		f.haveFirst = true
	}
	f.packets.PushBack(p)
	if p.Marker {
		f.HasMarker = true
	}
}

// Count returns the number of packets currently held.
func (f *Frame) Count() int {
	return f.packets.Len()
}

// StartSequence returns the minimum sequence number currently held, using
// modular (wrap-aware) ordering. An empty frame returns 0.
func (f *Frame) StartSequence() uint16 {
	sorted := f.sortedPackets()
	if len(sorted) == 0 {
		return 0
	}
	return sorted[0].SequenceNumber
}

// EndSequence returns the maximum sequence number currently held, using
// modular (wrap-aware) ordering. An empty frame returns 0.
func (f *Frame) EndSequence() uint16 {
	sorted := f.sortedPackets()
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)-1].SequenceNumber
}

// IsComplete reports whether the frame has seen its terminal marker
// packet and its packets form a sequence-contiguous run. A gap —
// including the gap a duplicate retransmit creates, since two packets at
// the same sequence number can never be "exactly +1" apart from each
// other — makes this false.
func (f *Frame) IsComplete() bool {
	if !f.HasMarker {
		return false
	}
	sorted := f.sortedPackets()
	if len(sorted) == 0 {
		return false
	}
	for i := 0; i+1 < len(sorted); i++ {
		if seqDiff(sorted[i].SequenceNumber, sorted[i+1].SequenceNumber) != 1 {
			return false
		}
	}
	return true
}

// Payload concatenates every packet's payload in ascending sequence order.
// When a Codec is attached, each packet's payload is passed through its
// StripDescriptor first (e.g. VP8's per-packet descriptor header); the
// base contract with no codec is raw concatenation.
func (f *Frame) Payload() []byte {
	sorted := f.sortedPackets()
	total := 0
	stripped := make([][]byte, len(sorted))
	for i, p := range sorted {
		b := p.Payload
		if f.codec != nil {
			b = f.codec.StripDescriptor(b)
		}
		stripped[i] = b
		total += len(b)
	}

	out := make([]byte, 0, total)
	for _, b := range stripped {
		out = append(out, b...)
	}
	return out
}

// sortedPackets returns the held packets ordered by ascending sequence
// number using modular distance from the first packet that arrived, so a
// 16-bit wrap mid-frame still yields a single contiguous ascending run
// instead of splitting at 65535/0.
func (f *Frame) sortedPackets() []*Packet {
	out := make([]*Packet, 0, f.packets.Len())
	for e := f.packets.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Packet))
	}
	sort.Slice(out, func(i, j int) bool {
		return seqDiff(f.firstSeq, out[i].SequenceNumber) < seqDiff(f.firstSeq, out[j].SequenceNumber)
	})
	return out
}

// seqDiff returns the signed forward distance from a to b on a 16-bit
// wrapping counter: b is "after" a by seqDiff(a, b) steps, with wrap
// handled by interpreting the difference as a signed 16-bit value. This
// replaces a raw-value sort, which orders incorrectly across a
// sequence-number wrap.
func seqDiff(a, b uint16) int16 {
	return int16(b - a)
}
