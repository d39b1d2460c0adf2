package main

import "fmt"

// ============================================================================
// HID Action Types
// ============================================================================
// Every key-map entry resolves to exactly one HIDAction: a scan code on the
// boot keyboard page or a usage on the consumer-control page. The two pages
// are independent logical devices on the output side, so an action carries
// its device class in the type itself rather than in a numeric
// device-class discriminator alongside the code.
// ============================================================================

// HIDAction is the output half of a key-map entry: which code to press on
// which logical HID device.
type HIDAction interface {
	hidActionMarker()
	String() string
}

// KeyboardKey is a usage ID on the keyboard/keypad page (0x07), as written
// into byte 2 of a boot keyboard report.
type KeyboardKey struct {
	Usage uint8 `json:"usage"`
}

func (KeyboardKey) hidActionMarker() {}
func (k KeyboardKey) String() string { return fmt.Sprintf("Keyboard(0x%02X)", k.Usage) }

// ConsumerKey is a usage ID on the consumer-control page (0x0C), written as
// a little-endian 16-bit value into a consumer report.
type ConsumerKey struct {
	Usage uint16 `json:"usage"`
}

func (ConsumerKey) hidActionMarker() {}
func (c ConsumerKey) String() string { return fmt.Sprintf("Consumer(0x%03X)", c.Usage) }
