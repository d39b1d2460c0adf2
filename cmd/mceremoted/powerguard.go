package main

// PowerDesire is the intent carried by a discrete power command.
type PowerDesire int

const (
	DesireOn PowerDesire = iota
	DesireOff
)

func (d PowerDesire) String() string {
	if d == DesireOn {
		return "on"
	}
	return "off"
}

// powerActionNeeded is the guard truth table. The machine exposes a single
// momentary toggle switch, so a discrete on/off intent fires it only when
// the sensed rail state differs from the desired one:
//
//	desire on,  rail off -> pulse
//	desire on,  rail on  -> redundant, no-op
//	desire off, rail on  -> pulse
//	desire off, rail off -> redundant, no-op
//
// The rail must be sampled at the moment the command is evaluated, never
// reused from an earlier loop iteration; the caller (the pulse effect)
// does that sampling.
func powerActionNeeded(desire PowerDesire, railOn bool) bool {
	if desire == DesireOn {
		return !railOn
	}
	return railOn
}
