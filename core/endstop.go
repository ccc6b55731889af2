package core

// Endstop represents a homing limit switch read through the GPIO driver.
type Endstop struct {
	driver GPIODriver
	pin    GPIOPin
	invert bool
}

// NewEndstop configures the pin as a pulled-up input and returns the
// endstop. Mechanical switches short to ground when pressed, so the raw
// reading is active-low unless invert is set.
func NewEndstop(driver GPIODriver, pin GPIOPin, invert bool) (*Endstop, error) {
	if err := driver.ConfigureInputPullUp(pin); err != nil {
		return nil, err
	}
	return &Endstop{driver: driver, pin: pin, invert: invert}, nil
}

// Triggered reports whether the switch is currently pressed.
func (e *Endstop) Triggered() bool {
	v := e.driver.ReadPin(e.pin)
	if e.invert {
		return v
	}
	return !v
}
