package rtp

// Codec strips any per-packet payload framing that the wire format adds on
// top of the raw media bytes, before a Frame concatenates packets into a
// single buffer. Codec implementations are deliberately narrow: the
// reassembler's job is packet bookkeeping, not media decoding. Stripping
// is modeled as an injectable strategy per frame type rather than a
// conditional inside Frame.Payload.
type Codec interface {
	// StripDescriptor returns payload with any per-packet descriptor
	// header removed. Implementations must not mutate payload in place.
	StripDescriptor(payload []byte) []byte
}

// passthroughCodec returns payloads unmodified. It backs TypeH264 and
// TypeAudio, whose RTP payload already is the bare media bytes (H.264's
// NAL-unit framing lives inside the payload, not as a separate RTP-layer
// descriptor).
type passthroughCodec struct{}

func (passthroughCodec) StripDescriptor(payload []byte) []byte {
	return payload
}

// vp8Codec strips the VP8 payload descriptor (RFC 7741 §4.2) that precedes
// the VP8 bitstream in every RTP packet.
type vp8Codec struct{}

func (vp8Codec) StripDescriptor(payload []byte) []byte {
	if len(payload) == 0 {
		return payload
	}

	offset := 1
	first := payload[0]
	extended := first&0x80 != 0

	if extended {
		if len(payload) < 2 {
			return nil
		}
		ext := payload[1]
		offset = 2
		if ext&0x80 != 0 { // I: picture ID present
			if len(payload) <= offset {
				return nil
			}
			if payload[offset]&0x80 != 0 { // 15-bit picture ID
				offset += 2
			} else {
				offset++
			}
		}
		if ext&0x40 != 0 { // L: TL0PICIDX present
			offset++
		}
		if ext&0x20 != 0 || ext&0x10 != 0 { // T or K present
			offset++
		}
	}

	if offset >= len(payload) {
		return nil
	}
	return payload[offset:]
}

// CodecFor returns the Codec appropriate for frameType. Unknown types get
// the passthrough codec, matching the base "no stripping" contract.
func CodecFor(frameType FrameType) Codec {
	switch frameType {
	case TypeVP8:
		return vp8Codec{}
	default:
		return passthroughCodec{}
	}
}
