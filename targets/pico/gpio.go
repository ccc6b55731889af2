//go:build pico

package main

import (
	"chessbot/core"
	"machine"
)

// PicoGPIODriver implements the GPIODriver interface on the RP2040
type PicoGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewPicoGPIODriver creates a new RP2040 GPIO driver
func NewPicoGPIODriver() *PicoGPIODriver {
	return &PicoGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *PicoGPIODriver) pin(p core.GPIOPin) machine.Pin {
	return machine.Pin(p)
}

// ConfigureOutput configures a pin as a digital output
func (d *PicoGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	machinePin := d.pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = machinePin
	return nil
}

// ConfigureInputPullUp configures a pin as an input with pull-up resistor
func (d *PicoGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	machinePin := d.pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	d.configuredPins[pin] = machinePin
	return nil
}

// ConfigureInputPullDown configures a pin as an input with pull-down resistor
func (d *PicoGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		return nil
	}
	machinePin := d.pin(pin)
	machinePin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	d.configuredPins[pin] = machinePin
	return nil
}

// SetPin sets the pin to high (true) or low (false)
func (d *PicoGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	if value {
		d.pin(pin).High()
	} else {
		d.pin(pin).Low()
	}
	return nil
}

// GetPin reads the current pin state
func (d *PicoGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.pin(pin).Get(), nil
}

// ReadPin reads the current pin state (alias for GetPin for convenience)
func (d *PicoGPIODriver) ReadPin(pin core.GPIOPin) bool {
	value, _ := d.GetPin(pin)
	return value
}
