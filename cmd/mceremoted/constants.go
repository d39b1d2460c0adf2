package main

import "time"

// HID keyboard usage IDs (usage page 0x07, boot keyboard report byte 2)
const (
	usageKbdEnter  = 0x28
	usageKbdEscape = 0x29
	usageKbd1      = 0x1E // digits 1..9 are contiguous, 0 is 0x27
	usageKbd0      = 0x27
	usageKbdRight  = 0x4F
	usageKbdLeft   = 0x50
	usageKbdDown   = 0x51
	usageKbdUp     = 0x52
	usageKbdDelete = 0x4C
)

// HID consumer-control usage IDs (usage page 0x0C)
const (
	usageConMute        = 0x00E2
	usageConVolumeUp    = 0x00E9
	usageConVolumeDown  = 0x00EA
	usageConChannelUp   = 0x009C
	usageConChannelDown = 0x009D
	usageConPlayPause   = 0x00CD
	usageConStop        = 0x00B7
	usageConRecord      = 0x00B2
	usageConFastForward = 0x00B3
	usageConRewind      = 0x00B4
	usageConScanNext    = 0x00B5
	usageConScanPrev    = 0x00B6
	usageConGuide       = 0x008D // Media Select Program Guide
	usageConTV          = 0x0089 // Media Select TV
	usageConDVD         = 0x008B // Media Select DVD
	usageConMenu        = 0x0040
)

// Engine timing defaults. The release timeout and pulse width come from the
// original hardware behavior: remotes repeat at roughly 100ms, so 150ms of
// silence means the button was let go; 250ms is long enough for any ATX
// front-panel controller to register a press.
const (
	defaultPollHz         = 100
	defaultReleaseTimeout = 150 * time.Millisecond
	defaultPowerPulse     = 250 * time.Millisecond
	defaultRailPoll       = time.Second
)

// timeRounding trims sub-second noise from operator-facing durations.
const timeRounding = time.Second

// Protocol timing for the software RC6 decoder (all RC6 modes share the
// 444us unit time; the leader is 6t mark + 2t space).
const (
	rc6Unit       = 444 * time.Microsecond
	rc6LeaderMark = 6 * rc6Unit
	rc6LeaderGap  = 2 * rc6Unit

	// Half-bit timings may drift on cheap receivers; accept +/-35%.
	rc6Tolerance = 0.35

	// A space at least this long ends the frame even without an explicit
	// receiver timeout sample.
	rc6FrameGap = 10 * time.Millisecond

	// Edge budget per frame. RC6-6A/32 needs well under 80 edges; anything
	// beyond this is a burst the buffer cannot represent.
	rc6MaxEdges = 128
)
