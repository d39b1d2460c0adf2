package main

// RailSensor samples the power-rail sense line. A high rail means the PC is
// currently powered on. Sampling happens at the moment a power command is
// evaluated and on the periodic informational poll; the value is never
// cached between evaluations.
type RailSensor interface {
	SenseOn() (bool, error)
	Close() error
}

// PowerSwitch drives the momentary power-switch line. The pulse itself
// (assert, hold, deassert) is sequenced by the effect layer so the hold
// duration stays visible in the calling code.
type PowerSwitch interface {
	Assert() error
	Deassert() error
	Close() error
}
