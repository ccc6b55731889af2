package chessbot

// Position is the believed location of the magnet end-effector in square
// units. X=0,Y=0 is the h1 corner square (file order is mirrored: x=0 is
// file h, x=7 is file a). All motion is open loop, so this value is only
// correct if every motion primitive updates it exactly once.
type Position struct {
	X float64
	Y float64
}

// Calibration tracks the square-size state. Before the gantry has reached
// the origin square, SquareSizeCm holds an approach value that compensates
// for the offset travel from the limit switches; after the first call to
// UpdateSquareSize it switches permanently to the operating value.
type Calibration struct {
	HomedOrigin    bool
	SquareSizeCm   float64
	StepsPerSquare int

	OperatingSquareCm float64
	StepsPerCm        float64
}

// NewCalibration creates the pre-homing calibration state.
func NewCalibration(cfg *Config) Calibration {
	return Calibration{
		HomedOrigin:       false,
		SquareSizeCm:      cfg.ApproachSquareCm,
		StepsPerSquare:    stepsFor(cfg.ApproachSquareCm, cfg.StepsPerCm),
		OperatingSquareCm: cfg.OperatingSquareCm,
		StepsPerCm:        cfg.StepsPerCm,
	}
}

// UpdateSquareSize performs the one-way approach-to-operating transition.
// The first call flips HomedOrigin and switches the square size; every
// later call is a no-op. There is no reversal path.
func (c *Calibration) UpdateSquareSize() {
	if c.HomedOrigin {
		return
	}
	c.HomedOrigin = true
	c.SquareSizeCm = c.OperatingSquareCm
	c.StepsPerSquare = stepsFor(c.OperatingSquareCm, c.StepsPerCm)
}

func stepsFor(squareCm, stepsPerCm float64) int {
	return int(squareCm*stepsPerCm + 0.5)
}

// State is the robot state aggregate: position plus calibration. It is
// owned by a single logical thread of control, so no locking is needed.
type State struct {
	Pos Position
	Cal Calibration
}

// NewState creates the startup state with pre-homing calibration.
func NewState(cfg *Config) *State {
	return &State{
		Pos: Position{},
		Cal: NewCalibration(cfg),
	}
}

// MotorConfig holds the step/dir pin pair for one stepper driver.
type MotorConfig struct {
	StepPin uint32
	DirPin  uint32
}

// EndstopConfig holds a limit switch input pin.
type EndstopConfig struct {
	Pin    uint32
	Invert bool
}

// Config is the complete machine configuration.
type Config struct {
	MotorA MotorConfig
	MotorB MotorConfig

	EnablePin    uint32
	InvertEnable bool

	EndstopX EndstopConfig
	EndstopY EndstopConfig

	// Geometry
	StepsPerCm        float64
	ApproachSquareCm  float64
	OperatingSquareCm float64

	// Motion timing
	PulseDelayUs       uint32 // step pulse half-period
	HomingPulseDelayUs uint32

	// Homing travel after the switches trigger
	HomingOffsetStepsX     int
	HomingOffsetStepsY     int
	HomingCorrectionStepsX int

	// Protocol timeouts (milliseconds)
	AckTimeoutMs   int
	BoardTimeoutMs int

	Verbose bool
}
