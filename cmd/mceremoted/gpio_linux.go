//go:build linux

package main

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealGPIO owns the gpio chip and the two lines this daemon uses: the rail
// sense input and the power-switch output. It implements both RailSensor
// and PowerSwitch.
type RealGPIO struct {
	chip   *gpiocdev.Chip
	sense  *gpiocdev.Line
	button *gpiocdev.Line
}

// OpenRealGPIO requests the sense line as input with pull-down (the sense
// wire drives it high through a divider when the PC is on) and the button
// line as output, initially deasserted.
func OpenRealGPIO(chipName string, sensePin, buttonPin int) (*RealGPIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	sense, err := chip.RequestLine(sensePin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sense pin %d: %w", sensePin, err)
	}

	button, err := chip.RequestLine(buttonPin, gpiocdev.AsOutput(0))
	if err != nil {
		sense.Close()
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", buttonPin, err)
	}

	return &RealGPIO{chip: chip, sense: sense, button: button}, nil
}

// SenseOn reads the rail sense line.
func (g *RealGPIO) SenseOn() (bool, error) {
	v, err := g.sense.Value()
	if err != nil {
		return false, fmt.Errorf("read sense pin: %w", err)
	}
	return v != 0, nil
}

// Assert drives the switch line active.
func (g *RealGPIO) Assert() error {
	if err := g.button.SetValue(1); err != nil {
		return fmt.Errorf("assert button pin: %w", err)
	}
	return nil
}

// Deassert releases the switch line.
func (g *RealGPIO) Deassert() error {
	if err := g.button.SetValue(0); err != nil {
		return fmt.Errorf("deassert button pin: %w", err)
	}
	return nil
}

// Close releases the lines and the chip. The button line is reconfigured to
// input with pull-down first so a daemon restart never leaves the switch
// held; a stuck-asserted line would keep the front-panel button "pressed"
// across our exit.
func (g *RealGPIO) Close() error {
	var errs []error

	if g.button != nil {
		if err := g.button.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("deassert button pin: %w", err))
		}
		if err := g.button.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure button pin: %w", err))
		}
		if err := g.button.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close button pin: %w", err))
		}
	}
	if g.sense != nil {
		if err := g.sense.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sense pin: %w", err))
		}
	}
	if g.chip != nil {
		if err := g.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
