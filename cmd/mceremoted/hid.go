package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ============================================================================
// HID gadget output
// ============================================================================
// The host PC sees this box as a composite USB keyboard through the kernel
// gadget functions: one boot-protocol keyboard endpoint and one
// consumer-control endpoint. Each endpoint is a character device under
// /dev/hidg*; writing a report sends it, writing a zero report releases
// everything on that endpoint.
//
// Boot keyboard report, 8 bytes: modifiers, reserved, then six usage slots.
// The remote never chords, so only slot one is ever populated.
//
// Consumer report, 2 bytes: one usage ID, little-endian, matching the
// report descriptor configured on the gadget.
// ============================================================================

// HIDOutput sends press and release reports to the host. Implementations
// route each action to the gadget endpoint its variant belongs to.
type HIDOutput interface {
	Press(a HIDAction) error
	Release(a HIDAction) error
	ReleaseAll() error
	Close() error
}

// GadgetHID writes reports straight to the gadget character devices. Writes
// are not retried; if the host is gone the report is lost and the caller
// logs the error.
type GadgetHID struct {
	keyboard *os.File
	consumer *os.File
}

// OpenGadgetHID opens both gadget endpoints write-only.
func OpenGadgetHID(keyboardDev, consumerDev string) (*GadgetHID, error) {
	kbd, err := os.OpenFile(keyboardDev, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open keyboard gadget: %w", err)
	}
	con, err := os.OpenFile(consumerDev, os.O_WRONLY, 0)
	if err != nil {
		kbd.Close()
		return nil, fmt.Errorf("open consumer gadget: %w", err)
	}
	return &GadgetHID{keyboard: kbd, consumer: con}, nil
}

func (g *GadgetHID) Press(a HIDAction) error {
	switch k := a.(type) {
	case KeyboardKey:
		return g.writeKeyboard(k.Usage)
	case ConsumerKey:
		return g.writeConsumer(k.Usage)
	default:
		return fmt.Errorf("hid: unhandled action %T", a)
	}
}

func (g *GadgetHID) Release(a HIDAction) error {
	switch a.(type) {
	case KeyboardKey:
		return g.writeKeyboard(0)
	case ConsumerKey:
		return g.writeConsumer(0)
	default:
		return fmt.Errorf("hid: unhandled action %T", a)
	}
}

// ReleaseAll zeroes both endpoints. Used on shutdown and as the fallback
// when the action that was down is no longer known.
func (g *GadgetHID) ReleaseAll() error {
	return errors.Join(g.writeKeyboard(0), g.writeConsumer(0))
}

func (g *GadgetHID) Close() error {
	return errors.Join(g.keyboard.Close(), g.consumer.Close())
}

func (g *GadgetHID) writeKeyboard(usage uint8) error {
	report := [8]byte{2: usage}
	if _, err := g.keyboard.Write(report[:]); err != nil {
		return fmt.Errorf("keyboard report: %w", err)
	}
	return nil
}

func (g *GadgetHID) writeConsumer(usage uint16) error {
	var report [2]byte
	binary.LittleEndian.PutUint16(report[:], usage)
	if _, err := g.consumer.Write(report[:]); err != nil {
		return fmt.Errorf("consumer report: %w", err)
	}
	return nil
}
