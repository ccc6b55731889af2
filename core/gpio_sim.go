package core

import "errors"

// SimDriver is an in-memory GPIODriver for host-side runs and tests. Pin
// states live in a map; inputs can be forced with ForcePin to simulate a
// limit switch closing.
type SimDriver struct {
	modes  map[GPIOPin]uint8
	states map[GPIOPin]bool
}

const (
	simUnconfigured uint8 = iota
	simOutput
	simInputPullUp
	simInputPullDown
)

// NewSimDriver creates an empty simulated GPIO driver.
func NewSimDriver() *SimDriver {
	return &SimDriver{
		modes:  make(map[GPIOPin]uint8),
		states: make(map[GPIOPin]bool),
	}
}

func (d *SimDriver) ConfigureOutput(pin GPIOPin) error {
	d.modes[pin] = simOutput
	return nil
}

func (d *SimDriver) ConfigureInputPullUp(pin GPIOPin) error {
	d.modes[pin] = simInputPullUp
	d.states[pin] = true // pulled high until forced
	return nil
}

func (d *SimDriver) ConfigureInputPullDown(pin GPIOPin) error {
	d.modes[pin] = simInputPullDown
	d.states[pin] = false
	return nil
}

func (d *SimDriver) SetPin(pin GPIOPin, value bool) error {
	if d.modes[pin] != simOutput {
		return errors.New("pin not configured as output")
	}
	d.states[pin] = value
	return nil
}

func (d *SimDriver) GetPin(pin GPIOPin) (bool, error) {
	return d.states[pin], nil
}

func (d *SimDriver) ReadPin(pin GPIOPin) bool {
	return d.states[pin]
}

// ForcePin overrides an input pin state, simulating external hardware.
func (d *SimDriver) ForcePin(pin GPIOPin, value bool) {
	d.states[pin] = value
}
