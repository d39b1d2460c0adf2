package main

// ============================================================================
// Static key map
// ============================================================================
// One entry per remote button: the 32-bit RC6 scancode as this remote sends
// it (toggle bit already cleared), the lircd button name for hosts that run
// lircd instead of the raw decoder, and the HID action to emit.
//
// The table is compiled in and never mutated. Lookup scans in declaration
// order and the first matching entry wins, so a duplicate code resolves to
// the earlier line.
// ============================================================================

// KeyEntry associates one remote command value with one HID action.
type KeyEntry struct {
	Code   uint32
	Button string
	Action HIDAction
}

// Discrete power codes for this remote's On/Off pair. They are deliberately
// not key-map entries: power commands bypass the HID path entirely and go
// through the power guard instead.
const (
	powerOnCode  uint32 = 0x800F0428
	powerOffCode uint32 = 0x800F0429

	powerOnButton  = "KEY_POWER_ON"
	powerOffButton = "KEY_POWER_OFF"
)

var keyTable = []KeyEntry{
	// Transport
	{0x800F0416, "KEY_PLAY", ConsumerKey{usageConPlayPause}},
	{0x800F0418, "KEY_PAUSE", ConsumerKey{usageConPlayPause}},
	{0x800F0419, "KEY_STOP", ConsumerKey{usageConStop}},
	{0x800F0417, "KEY_RECORD", ConsumerKey{usageConRecord}},
	{0x800F0414, "KEY_FASTFORWARD", ConsumerKey{usageConFastForward}},
	{0x800F0415, "KEY_REWIND", ConsumerKey{usageConRewind}},
	{0x800F041A, "KEY_NEXT", ConsumerKey{usageConScanNext}},
	{0x800F041B, "KEY_PREVIOUS", ConsumerKey{usageConScanPrev}},

	// Volume / channel
	{0x800F040E, "KEY_MUTE", ConsumerKey{usageConMute}},
	{0x800F0410, "KEY_VOLUMEUP", ConsumerKey{usageConVolumeUp}},
	{0x800F0411, "KEY_VOLUMEDOWN", ConsumerKey{usageConVolumeDown}},
	{0x800F0412, "KEY_CHANNELUP", ConsumerKey{usageConChannelUp}},
	{0x800F0413, "KEY_CHANNELDOWN", ConsumerKey{usageConChannelDown}},

	// Navigation
	{0x800F041E, "KEY_UP", KeyboardKey{usageKbdUp}},
	{0x800F041F, "KEY_DOWN", KeyboardKey{usageKbdDown}},
	{0x800F0420, "KEY_LEFT", KeyboardKey{usageKbdLeft}},
	{0x800F0421, "KEY_RIGHT", KeyboardKey{usageKbdRight}},
	{0x800F0422, "KEY_OK", KeyboardKey{usageKbdEnter}},
	{0x800F0423, "KEY_EXIT", KeyboardKey{usageKbdEscape}},

	// Media center shortcuts
	{0x800F0425, "KEY_TV", ConsumerKey{usageConTV}},
	{0x800F0424, "KEY_DVD", ConsumerKey{usageConDVD}},
	{0x800F0426, "KEY_EPG", ConsumerKey{usageConGuide}},
	{0x800F040D, "KEY_MEDIA", ConsumerKey{usageConMenu}},

	// Digits (keyboard page: 1..9 contiguous from 0x1E, 0 at 0x27)
	{0x800F0401, "KEY_NUMERIC_1", KeyboardKey{usageKbd1}},
	{0x800F0402, "KEY_NUMERIC_2", KeyboardKey{usageKbd1 + 1}},
	{0x800F0403, "KEY_NUMERIC_3", KeyboardKey{usageKbd1 + 2}},
	{0x800F0404, "KEY_NUMERIC_4", KeyboardKey{usageKbd1 + 3}},
	{0x800F0405, "KEY_NUMERIC_5", KeyboardKey{usageKbd1 + 4}},
	{0x800F0406, "KEY_NUMERIC_6", KeyboardKey{usageKbd1 + 5}},
	{0x800F0407, "KEY_NUMERIC_7", KeyboardKey{usageKbd1 + 6}},
	{0x800F0408, "KEY_NUMERIC_8", KeyboardKey{usageKbd1 + 7}},
	{0x800F0409, "KEY_NUMERIC_9", KeyboardKey{usageKbd1 + 8}},
	{0x800F0400, "KEY_NUMERIC_0", KeyboardKey{usageKbd0}},
	{0x800F040A, "KEY_CLEAR", KeyboardKey{usageKbdDelete}},
	{0x800F040B, "KEY_ENTER", KeyboardKey{usageKbdEnter}},
}

// lookupCode returns the first entry whose code matches, or nil.
func lookupCode(table []KeyEntry, code uint32) *KeyEntry {
	for i := range table {
		if table[i].Code == code {
			return &table[i]
		}
	}
	return nil
}

// lookupButton returns the first entry whose lircd button name matches, or
// nil. Used by the lircd frame source to translate button names back into
// command values.
func lookupButton(table []KeyEntry, button string) *KeyEntry {
	for i := range table {
		if table[i].Button == button {
			return &table[i]
		}
	}
	return nil
}
