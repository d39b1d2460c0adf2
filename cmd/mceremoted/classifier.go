package main

// CommandClass is the category a normalized command falls into.
type CommandClass int

const (
	ClassUnrecognized CommandClass = iota
	ClassPowerOn
	ClassPowerOff
	ClassMapped
)

func (c CommandClass) String() string {
	switch c {
	case ClassPowerOn:
		return "power-on"
	case ClassPowerOff:
		return "power-off"
	case ClassMapped:
		return "mapped"
	default:
		return "unrecognized"
	}
}

// Classified is the classifier output: the category, the matched key-map
// entry when mapped, and the command that produced it.
type Classified struct {
	Class CommandClass
	Entry *KeyEntry
	Cmd   RemoteCommand
}

// Label is a short description for logs, status queries and broadcasts.
func (c Classified) Label() string {
	if c.Class == ClassMapped && c.Entry != nil {
		return c.Entry.Button
	}
	return c.Class.String()
}

// Classify maps a normalized command to a power intent, a key-map entry, or
// unrecognized. The two power codes are checked before the table; the table
// scan takes the first matching entry.
func Classify(cmd RemoteCommand) Classified {
	return classifyWith(cmd, keyTable)
}

func classifyWith(cmd RemoteCommand, table []KeyEntry) Classified {
	switch cmd.Value {
	case powerOnCode:
		return Classified{Class: ClassPowerOn, Cmd: cmd}
	case powerOffCode:
		return Classified{Class: ClassPowerOff, Cmd: cmd}
	}
	if e := lookupCode(table, cmd.Value); e != nil {
		return Classified{Class: ClassMapped, Entry: e, Cmd: cmd}
	}
	return Classified{Class: ClassUnrecognized, Cmd: cmd}
}
