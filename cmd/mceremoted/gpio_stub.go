//go:build !linux

package main

import "errors"

// RealGPIO is only available on Linux (the gpio character device). This
// stub keeps the engine and its tests building elsewhere.
type RealGPIO struct{}

func OpenRealGPIO(chipName string, sensePin, buttonPin int) (*RealGPIO, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

func (g *RealGPIO) SenseOn() (bool, error) {
	return false, errors.New("gpio: not supported")
}

func (g *RealGPIO) Assert() error { return errors.New("gpio: not supported") }

func (g *RealGPIO) Deassert() error { return errors.New("gpio: not supported") }

func (g *RealGPIO) Close() error { return nil }
