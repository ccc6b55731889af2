package motion

import "chessbot/core"

// Home runs the one-shot startup calibration: seek the Y limit switch,
// then the X limit switch, back off by the fixed offset travel, apply the
// single-axis correction, and complete the one-way square-size transition.
// After Home returns the believed position is the origin square (h1).
//
// The seek loops are open ended on purpose: there is no position feedback,
// so the only exit condition is the switch closing.
func (d *Drive) Home(endstopX, endstopY *core.Endstop) {
	d.Enable()

	// Y axis first: drive toward the switch until it closes.
	d.setDirectionY(false)
	for !endstopY.Triggered() {
		d.pulse(d.cfg.HomingPulseDelayUs)
	}

	// Then X.
	d.setDirectionX(false)
	for !endstopX.Triggered() {
		d.pulse(d.cfg.HomingPulseDelayUs)
	}

	// Fixed offset travel away from the switches onto the board.
	d.setDirectionY(true)
	for i := 0; i < d.cfg.HomingOffsetStepsY; i++ {
		d.pulse(d.cfg.HomingPulseDelayUs)
	}
	d.setDirectionX(true)
	for i := 0; i < d.cfg.HomingOffsetStepsX; i++ {
		d.pulse(d.cfg.HomingPulseDelayUs)
	}

	// Single-axis correction to center the effector on the origin square.
	d.setDirectionX(true)
	for i := 0; i < d.cfg.HomingCorrectionStepsX; i++ {
		d.pulse(d.cfg.HomingPulseDelayUs)
	}

	d.state.Pos.X = 0
	d.state.Pos.Y = 0

	// One-way transition from the approach square size to the operating
	// square size. Must happen exactly once, right here.
	d.state.Cal.UpdateSquareSize()
}
