//go:build pico

package main

import (
	"time"

	"chessbot"
	"chessbot/config"
	"chessbot/core"
	"chessbot/motion"
	"chessbot/sequencer"

	"machine"
)

// usbLink adapts the USB CDC serial to the io.ReadWriter the sequencer
// consumes. Reads are non-blocking: an empty buffer reads as zero bytes
// and the sequencer polls.
type usbLink struct{}

func (usbLink) Read(b []byte) (int, error) {
	if machine.Serial.Buffered() == 0 {
		return 0, nil
	}
	c, err := machine.Serial.ReadByte()
	if err != nil {
		return 0, nil
	}
	b[0] = c
	return 1, nil
}

func (usbLink) Write(b []byte) (int, error) {
	return machine.Serial.Write(b)
}

func main() {
	// USB CDC comes up asynchronously; give the host a moment.
	machine.Serial.Configure(machine.UARTConfig{})
	time.Sleep(500 * time.Millisecond)

	driver := NewPicoGPIODriver()
	core.SetGPIODriver(driver)

	cfg := config.DefaultConfig()
	clock := core.WallClock{}
	state := chessbot.NewState(cfg)

	drive, err := motion.NewDrive(driver, clock, state, cfg)
	if err != nil {
		blinkForever()
	}

	endstopX, err := core.NewEndstop(driver, core.GPIOPin(cfg.EndstopX.Pin), cfg.EndstopX.Invert)
	if err != nil {
		blinkForever()
	}
	endstopY, err := core.NewEndstop(driver, core.GPIOPin(cfg.EndstopY.Pin), cfg.EndstopY.Invert)
	if err != nil {
		blinkForever()
	}

	seq := sequencer.New(usbLink{}, clock, drive, state, endstopX, endstopY, cfg)
	seq.Startup()

	for {
		seq.Run()
	}
}

// blinkForever signals a fatal init error on the onboard LED.
func blinkForever() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(150 * time.Millisecond)
	}
}
