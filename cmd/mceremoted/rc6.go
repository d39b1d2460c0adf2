package main

import "time"

// ============================================================================
// RC6 pulse-train decoder
// ============================================================================
// Decodes RC6 mode 6A 32-bit frames (the MCE remote family) from raw
// mark/space durations. RC6 is Manchester coded on a 444us unit time:
//
//   leader:  2666us mark, 889us space
//   start:   logical 1, one unit per half-bit (mark then space)
//   mode:    three bits, 110 for mode 6
//   trailer: one bit with double-width half-bits
//   data:    32 bits, one unit per half-bit; for MCE the value reads
//            0x800Fxxxx with the toggle in bit 15
//
// Durations are expanded into 444us unit slots, so a mark spanning a
// half-bit and an adjacent trailer half comes out as three consecutive mark
// slots. The frame is parsed from the slot sequence when a long space or a
// receiver timeout ends the burst. The trailing space half-bits of the last
// data bit merge into that final gap, so parsing pads missing slots with
// spaces.
// ============================================================================

const (
	rc6StIdle = iota // waiting for a leader mark
	rc6StGap         // leader seen, expecting the 889us leader space
	rc6StData        // collecting unit slots
)

// slot indexes within a frame, in unit halves after the leader
const (
	rc6SlotsStart   = 2  // start bit occupies slots 0..1
	rc6SlotsMode    = 6  // mode bits occupy slots 2..7
	rc6SlotsTrailer = 4  // trailer occupies slots 8..11 (double width)
	rc6SlotsData    = 64 // 32 data bits, two slots each
	rc6SlotsTotal   = rc6SlotsStart + rc6SlotsMode + rc6SlotsTrailer + rc6SlotsData
)

type rc6Decoder struct {
	state int
	slots []bool // expanded unit levels, true = mark
	edges int
}

func newRC6Decoder() *rc6Decoder {
	return &rc6Decoder{slots: make([]bool, 0, rc6SlotsTotal+8)}
}

func (d *rc6Decoder) Reset() {
	d.state = rc6StIdle
	d.slots = d.slots[:0]
	d.edges = 0
}

// Feed consumes one pulse. A space of rc6FrameGap or longer (the lircdev
// reader also synthesizes one for an explicit receiver timeout) finalizes
// the burst in progress.
func (d *rc6Decoder) Feed(p Pulse) (RawFrame, decodeStatus) {
	if !p.Mark && p.Dur >= rc6FrameGap {
		return d.finalize()
	}

	d.edges++
	if d.edges > rc6MaxEdges {
		d.Reset()
		return RawFrame{Proto: ProtoRC6MCE}, decodeOverflow
	}

	switch d.state {
	case rc6StIdle:
		if p.Mark && durationIsUnits(p.Dur, 6) {
			d.state = rc6StGap
		}
		// Marks of other widths and stray spaces are noise; the burst will
		// end in a miss when the gap arrives.
		return RawFrame{}, decodeNone

	case rc6StGap:
		if !p.Mark && durationIsUnits(p.Dur, 2) {
			d.state = rc6StData
			return RawFrame{}, decodeNone
		}
		d.Reset()
		return RawFrame{}, decodeMiss

	case rc6StData:
		n, ok := unitsOf(p.Dur)
		if !ok {
			d.Reset()
			return RawFrame{}, decodeMiss
		}
		for i := 0; i < n; i++ {
			d.slots = append(d.slots, p.Mark)
		}
		if len(d.slots) > rc6SlotsTotal+2 {
			d.Reset()
			return RawFrame{}, decodeMiss
		}
		return RawFrame{}, decodeNone
	}

	return RawFrame{}, decodeNone
}

// finalize parses the collected slots into a frame. Returns decodeNone for
// plain silence, decodeMiss for a burst that never formed a valid frame.
func (d *rc6Decoder) finalize() (RawFrame, decodeStatus) {
	burst := d.edges > 0
	slots := d.slots
	state := d.state
	d.Reset()

	if !burst {
		return RawFrame{}, decodeNone
	}
	if state != rc6StData {
		return RawFrame{}, decodeMiss
	}

	// The final space half-bits merged into the terminating gap.
	for len(slots) < rc6SlotsTotal {
		slots = append(slots, false)
	}

	// Start bit must be 1.
	if b, ok := slotBit(slots, 0); !ok || !b {
		return RawFrame{}, decodeMiss
	}
	// Mode bits must read 110.
	mode := 0
	for i := 0; i < 3; i++ {
		b, ok := slotBit(slots, rc6SlotsStart/2+i)
		if !ok {
			return RawFrame{}, decodeMiss
		}
		mode <<= 1
		if b {
			mode |= 1
		}
	}
	if mode != 0b110 {
		return RawFrame{}, decodeMiss
	}
	// Trailer: four slots, both halves doubled. Its value is part of the
	// 6A header and irrelevant for MCE; only its shape is checked.
	t := slots[8:12]
	trailerOne := t[0] && t[1] && !t[2] && !t[3]
	trailerZero := !t[0] && !t[1] && t[2] && t[3]
	if !trailerOne && !trailerZero {
		return RawFrame{}, decodeMiss
	}

	// 32 data bits, MSB first.
	var value uint32
	for i := 0; i < 32; i++ {
		base := rc6SlotsStart + rc6SlotsMode + rc6SlotsTrailer
		first, second := slots[base+2*i], slots[base+2*i+1]
		value <<= 1
		switch {
		case first && !second:
			value |= 1
		case !first && second:
			// zero
		default:
			return RawFrame{}, decodeMiss
		}
	}

	return RawFrame{Proto: ProtoRC6MCE, Value: value}, decodeFrame
}

// slotBit reads the single-width bit at bit index i (two slots per bit).
func slotBit(slots []bool, i int) (bool, bool) {
	first, second := slots[2*i], slots[2*i+1]
	switch {
	case first && !second:
		return true, true
	case !first && second:
		return false, true
	default:
		return false, false
	}
}

// unitsOf rounds a duration to a whole number of 444us units, accepting
// rc6Tolerance of proportional drift. RC6 never strings more than three
// units of one level together outside the leader.
func unitsOf(d time.Duration) (int, bool) {
	n := int((d + rc6Unit/2) / rc6Unit)
	if n < 1 || n > 3 {
		return 0, false
	}
	if !durationIsUnits(d, n) {
		return 0, false
	}
	return n, true
}

func durationIsUnits(d time.Duration, n int) bool {
	want := time.Duration(n) * rc6Unit
	diff := d - want
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) <= rc6Tolerance*float64(want)
}
