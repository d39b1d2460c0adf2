package main

import "time"

// ============================================================================
// Command Decoder Adapter
// ============================================================================
// The adapter sits between a pulse-train decoder and the engine and enforces
// the receive contract the engine relies on:
//
//   - a completed frame (or an overflow marker) parks in a one-slot latch
//     and reception is disarmed; pulses arriving while a frame is parked
//     are ignored
//   - Poll returns the parked frame exactly once
//   - Resume must be called after every consumed frame to re-arm reception;
//     skipping it leaves the adapter ignoring all subsequent bursts
//
// The adapter also owns normalization: clearing the protocol's toggle bit so
// repeats and fresh presses of the same button carry the same command value.
// ============================================================================

// Protocol identifies where a frame came from and which toggle mask applies.
type Protocol int

const (
	ProtoRC6MCE Protocol = iota // RC6-6A 32-bit (MCE); toggle in bit 15
	ProtoLIRCD                  // pre-decoded by lircd; toggle already stripped
)

func (p Protocol) String() string {
	switch p {
	case ProtoRC6MCE:
		return "rc6-mce"
	case ProtoLIRCD:
		return "lircd"
	default:
		return "unknown"
	}
}

// toggleMask returns the bit this protocol flips on alternating presses of
// the same button.
func (p Protocol) toggleMask() uint32 {
	switch p {
	case ProtoRC6MCE:
		return 0x00008000
	default:
		return 0
	}
}

// Pulse is one mark or space duration from the IR receiver.
type Pulse struct {
	Mark bool
	Dur  time.Duration
}

// RawFrame is one decode result before normalization. Overflow marks a
// burst that exceeded the edge budget; such a frame carries no usable value
// and must never be classified.
type RawFrame struct {
	Proto    Protocol
	Value    uint32
	Overflow bool
}

// RemoteCommand is a normalized frame: equal values mean "same button"
// regardless of the toggle bit.
type RemoteCommand struct {
	Proto Protocol
	Value uint32
}

// Normalize clears the protocol's toggle bit. It is a projection: applying
// it to an already-normalized value returns the same value.
func Normalize(f RawFrame) RemoteCommand {
	return RemoteCommand{Proto: f.Proto, Value: f.Value &^ f.Proto.toggleMask()}
}

// decodeStatus classifies the outcome of feeding one pulse.
type decodeStatus int

const (
	decodeNone     decodeStatus = iota // nothing completed yet
	decodeFrame                        // a full frame decoded
	decodeMiss                         // the burst ended without a valid frame
	decodeOverflow                     // the burst exceeded the edge budget
)

// pulseDecoder turns mark/space durations into frames.
type pulseDecoder interface {
	Feed(p Pulse) (RawFrame, decodeStatus)
	Reset()
}

// DecoderAdapter wraps a pulseDecoder with the latch/resume contract above.
// It is used from a single reader goroutine; it does no locking of its own.
type DecoderAdapter struct {
	dec    pulseDecoder
	parked *RawFrame
	armed  bool
}

func NewDecoderAdapter(dec pulseDecoder) *DecoderAdapter {
	return &DecoderAdapter{dec: dec, armed: true}
}

// Feed passes one pulse to the decoder unless a frame is parked. The return
// value tells the caller whether a frame or overflow marker is now ready to
// Poll, or whether the burst ended as a miss.
func (a *DecoderAdapter) Feed(p Pulse) decodeStatus {
	if !a.armed {
		return decodeNone
	}
	f, st := a.dec.Feed(p)
	switch st {
	case decodeFrame:
		a.parked = &f
		a.armed = false
	case decodeOverflow:
		a.parked = &RawFrame{Proto: f.Proto, Overflow: true}
		a.armed = false
	}
	return st
}

// FeedOverflow parks an overflow marker directly. The lirc chardev reports
// receiver-side buffer overflows as their own sample type, outside the
// pulse stream.
func (a *DecoderAdapter) FeedOverflow(proto Protocol) {
	if !a.armed {
		return
	}
	a.dec.Reset()
	a.parked = &RawFrame{Proto: proto, Overflow: true}
	a.armed = false
}

// Poll returns the parked frame, if any. The frame is handed out once; the
// adapter stays disarmed until Resume is called.
func (a *DecoderAdapter) Poll() (RawFrame, bool) {
	if a.parked == nil {
		return RawFrame{}, false
	}
	f := *a.parked
	a.parked = nil
	return f, true
}

// Resume re-arms reception. Required after consuming every Poll result.
func (a *DecoderAdapter) Resume() {
	a.parked = nil
	a.dec.Reset()
	a.armed = true
}
