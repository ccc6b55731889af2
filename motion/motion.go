// Package motion drives the two-motor gantry. The motors are mechanically
// coupled through the belt: driving both the same direction produces X
// travel (common mode) and driving them opposite produces Y travel
// (differential). That mapping comes from the pulley geometry and must not
// be changed.
package motion

import (
	"chessbot"
	"chessbot/core"
)

// Drive owns the step/dir/enable pins for both motors and the robot state
// aggregate whose position it keeps current. All operations are synchronous
// and block until the full pulse train has been emitted; once a move starts
// it always completes its requested step count.
type Drive struct {
	driver core.GPIODriver
	clock  core.Clock
	state  *chessbot.State
	cfg    *chessbot.Config

	stepA  core.GPIOPin
	dirA   core.GPIOPin
	stepB  core.GPIOPin
	dirB   core.GPIOPin
	enable core.GPIOPin
}

// NewDrive configures the motor pins as outputs and returns the drive.
func NewDrive(driver core.GPIODriver, clock core.Clock, state *chessbot.State, cfg *chessbot.Config) (*Drive, error) {
	d := &Drive{
		driver: driver,
		clock:  clock,
		state:  state,
		cfg:    cfg,
		stepA:  core.GPIOPin(cfg.MotorA.StepPin),
		dirA:   core.GPIOPin(cfg.MotorA.DirPin),
		stepB:  core.GPIOPin(cfg.MotorB.StepPin),
		dirB:   core.GPIOPin(cfg.MotorB.DirPin),
		enable: core.GPIOPin(cfg.EnablePin),
	}

	for _, pin := range []core.GPIOPin{d.stepA, d.dirA, d.stepB, d.dirB, d.enable} {
		if err := driver.ConfigureOutput(pin); err != nil {
			return nil, err
		}
	}

	d.Disable()
	return d, nil
}

// Enable energizes both motor drivers.
func (d *Drive) Enable() {
	d.driver.SetPin(d.enable, !d.cfg.InvertEnable)
}

// Disable de-energizes both motor drivers.
func (d *Drive) Disable() {
	d.driver.SetPin(d.enable, d.cfg.InvertEnable)
}

// StepPulse is the atomic motion primitive: assert both step lines, hold
// the pulse delay, deassert, hold again. Every higher-level move is a
// pulse-count multiple of this, so the delay constant alone determines
// throughput.
func (d *Drive) StepPulse() {
	d.pulse(d.cfg.PulseDelayUs)
}

func (d *Drive) pulse(delayUs uint32) {
	d.driver.SetPin(d.stepA, true)
	d.driver.SetPin(d.stepB, true)
	d.clock.DelayMicros(delayUs)
	d.driver.SetPin(d.stepA, false)
	d.driver.SetPin(d.stepB, false)
	d.clock.DelayMicros(delayUs)
}

// setDirectionX sets both motors to the same direction (common mode).
func (d *Drive) setDirectionX(positive bool) {
	d.driver.SetPin(d.dirA, positive)
	d.driver.SetPin(d.dirB, positive)
}

// setDirectionY sets the motors to opposite directions (differential).
func (d *Drive) setDirectionY(positive bool) {
	d.driver.SetPin(d.dirA, positive)
	d.driver.SetPin(d.dirB, !positive)
}

// MoveAlongX moves the given number of whole squares along X. No-op for
// zero. Updates the believed position exactly once.
func (d *Drive) MoveAlongX(deltaSquares int) {
	if deltaSquares == 0 {
		return
	}
	d.setDirectionX(deltaSquares > 0)
	steps := abs(deltaSquares) * d.state.Cal.StepsPerSquare
	for i := 0; i < steps; i++ {
		d.StepPulse()
	}
	d.state.Pos.X += float64(deltaSquares)
}

// MoveAlongY moves the given number of whole squares along Y.
func (d *Drive) MoveAlongY(deltaSquares int) {
	if deltaSquares == 0 {
		return
	}
	d.setDirectionY(deltaSquares > 0)
	steps := abs(deltaSquares) * d.state.Cal.StepsPerSquare
	for i := 0; i < steps; i++ {
		d.StepPulse()
	}
	d.state.Pos.Y += float64(deltaSquares)
}

// MoveHalfX moves half a square along X in the direction of sign. Used by
// the edge-detour legs that park the effector on a square boundary.
func (d *Drive) MoveHalfX(sign int) {
	if sign == 0 {
		return
	}
	d.setDirectionX(sign > 0)
	steps := d.state.Cal.StepsPerSquare / 2
	for i := 0; i < steps; i++ {
		d.StepPulse()
	}
	if sign > 0 {
		d.state.Pos.X += 0.5
	} else {
		d.state.Pos.X -= 0.5
	}
}

// MoveHalfY moves half a square along Y in the direction of sign.
func (d *Drive) MoveHalfY(sign int) {
	if sign == 0 {
		return
	}
	d.setDirectionY(sign > 0)
	steps := d.state.Cal.StepsPerSquare / 2
	for i := 0; i < steps; i++ {
		d.StepPulse()
	}
	if sign > 0 {
		d.state.Pos.Y += 0.5
	} else {
		d.state.Pos.Y -= 0.5
	}
}

// MoveDiagonal travels deltaX by deltaY squares in one straight diagonal.
// The minor axis pulses are interleaved by integer error accumulation so
// they spread evenly across the major axis pulse train instead of bunching
// at either end; the result is a physically straight diagonal, not an L.
func (d *Drive) MoveDiagonal(deltaX, deltaY int) {
	if deltaX == 0 && deltaY == 0 {
		return
	}

	stepsX := abs(deltaX) * d.state.Cal.StepsPerSquare
	stepsY := abs(deltaY) * d.state.Cal.StepsPerSquare

	majorIsX := stepsX >= stepsY
	major, minor := stepsX, stepsY
	if !majorIsX {
		major, minor = stepsY, stepsX
	}

	err := 0
	for i := 0; i < major; i++ {
		err += minor
		if err >= major {
			err -= major
			if majorIsX {
				d.setDirectionY(deltaY > 0)
			} else {
				d.setDirectionX(deltaX > 0)
			}
			d.StepPulse()
		}
		if majorIsX {
			d.setDirectionX(deltaX > 0)
		} else {
			d.setDirectionY(deltaY > 0)
		}
		d.StepPulse()
	}

	d.state.Pos.X += float64(deltaX)
	d.state.Pos.Y += float64(deltaY)
}

// MoveToSquare travels to the target square relative to the believed
// position, resolving X before Y. This is the canonical order for every
// non-knight, non-diagonal displacement.
func (d *Drive) MoveToSquare(targetX, targetY int) {
	d.MoveAlongX(targetX - roundToInt(d.state.Pos.X))
	d.MoveAlongY(targetY - roundToInt(d.state.Pos.Y))
}

// Position returns the believed position in square units.
func (d *Drive) Position() chessbot.Position {
	return d.state.Pos
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func roundToInt(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}
