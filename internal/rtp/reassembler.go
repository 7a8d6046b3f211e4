package rtp

import (
	"sync"
	"time"

	"firestige.xyz/gb28181registrar/internal/log"
	"firestige.xyz/gb28181registrar/internal/metrics"
)

// CompletionHandler receives a Frame the instant it becomes complete.
// Reassembler calls it synchronously from whichever goroutine delivered
// the completing packet; handlers that need to do real work should
// dispatch to their own goroutine.
type CompletionHandler func(frame *Frame)

// Reassembler groups arriving packets by RTP timestamp and tracks when
// each group becomes a complete frame. It adds the synchronization and
// eviction bookkeeping that a single Frame deliberately does not do
// itself, since a Frame is single-producer/single-consumer and does not
// self-lock.
type Reassembler struct {
	mu       sync.Mutex
	frames   map[uint32]*Frame
	lastSeen map[uint32]time.Time

	frameType  FrameType
	staleAfter time.Duration
	onComplete CompletionHandler
}

// NewReassembler creates a Reassembler for a single RTP stream of
// frameType. staleAfter bounds how long an incomplete frame (one that
// never saw its marker packet, or has a gap) is held before Evict can
// reclaim it, so a stream with unrecoverable loss can't grow the frame
// map without bound.
func NewReassembler(frameType FrameType, staleAfter time.Duration, onComplete CompletionHandler) *Reassembler {
	return &Reassembler{
		frames:     make(map[uint32]*Frame),
		lastSeen:   make(map[uint32]time.Time),
		frameType:  frameType,
		staleAfter: staleAfter,
		onComplete: onComplete,
	}
}

// AddPacket routes p into the frame for its timestamp, creating one if
// necessary, and fires onComplete the moment that frame becomes complete.
// A frame is removed from tracking as soon as it completes — late
// duplicates for an already-completed timestamp are silently dropped.
func (r *Reassembler) AddPacket(p *Packet) {
	r.mu.Lock()

	if _, done := r.lastSeen[p.Timestamp]; done && r.frames[p.Timestamp] == nil {
		r.mu.Unlock()
		return
	}

	f, ok := r.frames[p.Timestamp]
	if !ok {
		f = NewFrame(p.Timestamp, r.frameType, CodecFor(r.frameType))
		r.frames[p.Timestamp] = f
	}
	f.AddPacket(p)
	r.lastSeen[p.Timestamp] = nowStamp()

	complete := f.IsComplete()
	if complete {
		delete(r.frames, p.Timestamp)
	}
	pending := len(r.frames)
	r.mu.Unlock()

	metrics.RTPFramesPending.Set(float64(pending))
	if complete {
		metrics.RTPFramesCompletedTotal.WithLabelValues(frameTypeLabel(r.frameType)).Inc()
		if r.onComplete != nil {
			r.onComplete(f)
		}
	}
}

func frameTypeLabel(t FrameType) string {
	switch t {
	case TypeH264:
		return "h264"
	case TypeVP8:
		return "vp8"
	case TypeAudio:
		return "audio"
	default:
		return "other"
	}
}

// Evict drops any tracked, still-incomplete frame whose last packet
// arrived more than staleAfter ago. Callers run this on a ticker; it is
// the only way an incomplete frame (lost marker packet, unrecoverable
// gap) ever leaves the map.
func (r *Reassembler) Evict(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for ts, seen := range r.lastSeen {
		if now.Sub(seen) < r.staleAfter {
			continue
		}
		if _, stillTracked := r.frames[ts]; stillTracked {
			delete(r.frames, ts)
			evicted++
		}
		delete(r.lastSeen, ts)
	}
	if evicted > 0 {
		log.GetLogger().WithField("count", evicted).Debug("rtp: evicted stale incomplete frames")
		metrics.RTPFramesEvictedTotal.Add(float64(evicted))
	}
	metrics.RTPFramesPending.Set(float64(len(r.frames)))
	return evicted
}

// Pending reports how many timestamps currently have an incomplete frame
// tracked, for metrics.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// nowStamp supplies AddPacket's last-seen time from the wall clock. Evict
// takes its `now` from the caller, so staleness can be evaluated at any
// chosen instant.
func nowStamp() time.Time {
	return time.Now()
}
