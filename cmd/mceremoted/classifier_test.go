package main

import "testing"

func mceCmd(value uint32) RemoteCommand {
	return RemoteCommand{Proto: ProtoRC6MCE, Value: value}
}

// TestClassify_PowerOn tests that the discrete power-on code classifies as a
// power intent, not a key.
func TestClassify_PowerOn(t *testing.T) {
	cl := Classify(mceCmd(powerOnCode))
	if cl.Class != ClassPowerOn {
		t.Fatalf("expected ClassPowerOn, got %v", cl.Class)
	}
	if cl.Entry != nil {
		t.Error("power commands must not resolve to a key-map entry")
	}
}

// TestClassify_PowerOff tests the discrete power-off code.
func TestClassify_PowerOff(t *testing.T) {
	cl := Classify(mceCmd(powerOffCode))
	if cl.Class != ClassPowerOff {
		t.Fatalf("expected ClassPowerOff, got %v", cl.Class)
	}
}

// TestClassify_PowerCheckedBeforeTable tests that the power codes win even
// when a table entry carries the same code.
func TestClassify_PowerCheckedBeforeTable(t *testing.T) {
	table := []KeyEntry{
		{powerOnCode, "KEY_BOGUS", ConsumerKey{usageConMute}},
	}
	cl := classifyWith(mceCmd(powerOnCode), table)
	if cl.Class != ClassPowerOn {
		t.Fatalf("expected ClassPowerOn to shadow the table entry, got %v", cl.Class)
	}
}

// TestClassify_Mapped tests a plain key-map hit.
func TestClassify_Mapped(t *testing.T) {
	cl := Classify(mceCmd(0x800F0416))
	if cl.Class != ClassMapped {
		t.Fatalf("expected ClassMapped, got %v", cl.Class)
	}
	if cl.Entry == nil || cl.Entry.Button != "KEY_PLAY" {
		t.Errorf("expected KEY_PLAY entry, got %+v", cl.Entry)
	}
}

// TestClassify_FirstMatchWins tests that a duplicate code resolves to the
// earlier table line.
func TestClassify_FirstMatchWins(t *testing.T) {
	table := []KeyEntry{
		{0x800F0430, "KEY_FIRST", ConsumerKey{usageConVolumeUp}},
		{0x800F0430, "KEY_SECOND", ConsumerKey{usageConVolumeDown}},
	}
	cl := classifyWith(mceCmd(0x800F0430), table)
	if cl.Class != ClassMapped || cl.Entry == nil {
		t.Fatalf("expected a mapped entry, got %+v", cl)
	}
	if cl.Entry.Button != "KEY_FIRST" {
		t.Errorf("expected first entry to win, got %s", cl.Entry.Button)
	}
}

// TestClassify_Unrecognized tests an unknown code.
func TestClassify_Unrecognized(t *testing.T) {
	cl := Classify(mceCmd(0xDEADBEEF))
	if cl.Class != ClassUnrecognized {
		t.Fatalf("expected ClassUnrecognized, got %v", cl.Class)
	}
	if cl.Entry != nil {
		t.Error("unrecognized commands must not carry an entry")
	}
}

// TestClassified_Label tests the log label for each class.
func TestClassified_Label(t *testing.T) {
	cases := []struct {
		name string
		cl   Classified
		want string
	}{
		{"mapped", Classify(mceCmd(0x800F0410)), "KEY_VOLUMEUP"},
		{"power on", Classify(mceCmd(powerOnCode)), "power-on"},
		{"power off", Classify(mceCmd(powerOffCode)), "power-off"},
		{"unrecognized", Classify(mceCmd(0x12345678)), "unrecognized"},
	}
	for _, c := range cases {
		if got := c.cl.Label(); got != c.want {
			t.Errorf("%s: expected label %q, got %q", c.name, c.want, got)
		}
	}
}

// TestLookupButton tests the reverse lookup used by the lircd source.
func TestLookupButton(t *testing.T) {
	e := lookupButton(keyTable, "KEY_VOLUMEDOWN")
	if e == nil || e.Code != 0x800F0411 {
		t.Fatalf("expected KEY_VOLUMEDOWN entry, got %+v", e)
	}
	if lookupButton(keyTable, "KEY_NO_SUCH") != nil {
		t.Error("expected nil for an unknown button name")
	}
}

// TestKeyTable_CodesAreNormalized tests that no table entry carries the
// toggle bit; lookups happen after normalization.
func TestKeyTable_CodesAreNormalized(t *testing.T) {
	for _, e := range keyTable {
		if e.Code&0x00008000 != 0 {
			t.Errorf("entry %s carries the toggle bit: 0x%08X", e.Button, e.Code)
		}
	}
}

// TestKeyTable_PowerCodesNotInTable tests that the discrete power pair is
// kept out of the key map.
func TestKeyTable_PowerCodesNotInTable(t *testing.T) {
	if lookupCode(keyTable, powerOnCode) != nil || lookupCode(keyTable, powerOffCode) != nil {
		t.Error("power codes must not appear in the key table")
	}
}
