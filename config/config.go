package config

import (
	"chessbot"
	"encoding/json"
)

// LoadConfig parses a JSON configuration blob and returns a Config
func LoadConfig(jsonData []byte) (*chessbot.Config, error) {
	var cfg chessbot.Config

	err := json.Unmarshal(jsonData, &cfg)
	if err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *chessbot.Config) {
	if cfg.StepsPerCm == 0 {
		cfg.StepsPerCm = 160.0 // GT2 belt, 1/4 microstepping
	}
	if cfg.ApproachSquareCm == 0 {
		cfg.ApproachSquareCm = 7.3 // covers the post-homing offset travel
	}
	if cfg.OperatingSquareCm == 0 {
		cfg.OperatingSquareCm = 5.8
	}
	if cfg.PulseDelayUs == 0 {
		cfg.PulseDelayUs = 400
	}
	if cfg.HomingPulseDelayUs == 0 {
		cfg.HomingPulseDelayUs = 900
	}
	if cfg.HomingOffsetStepsX == 0 {
		cfg.HomingOffsetStepsX = 320
	}
	if cfg.HomingOffsetStepsY == 0 {
		cfg.HomingOffsetStepsY = 320
	}
	if cfg.HomingCorrectionStepsX == 0 {
		cfg.HomingCorrectionStepsX = 64
	}
	if cfg.AckTimeoutMs == 0 {
		cfg.AckTimeoutMs = 2000
	}
	if cfg.BoardTimeoutMs == 0 {
		cfg.BoardTimeoutMs = 3000
	}
}

// DefaultConfig returns the configuration for the reference gantry build
func DefaultConfig() *chessbot.Config {
	cfg := &chessbot.Config{
		MotorA:    chessbot.MotorConfig{StepPin: 2, DirPin: 3},
		MotorB:    chessbot.MotorConfig{StepPin: 4, DirPin: 5},
		EnablePin: 8,
		EndstopX:  chessbot.EndstopConfig{Pin: 20},
		EndstopY:  chessbot.EndstopConfig{Pin: 21},
	}
	applyDefaults(cfg)
	return cfg
}
