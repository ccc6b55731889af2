package main

import (
	"flag"
	"fmt"
	"os"

	"chessbot"
	"chessbot/config"
	"chessbot/core"
	"chessbot/motion"
	"chessbot/sequencer"
	"chessbot/serial"
)

var (
	device     = flag.String("device", "/dev/ttyUSB0", "Coordinator serial device path")
	baud       = flag.Int("baud", 115200, "Baud rate")
	configPath = flag.String("config", "", "JSON machine configuration file (built-in defaults if empty)")
	verbose    = flag.Bool("verbose", false, "Emit diagnostic lines on the coordinator link")
)

// The host build drives simulated GPIO pins; it exists for bench-testing
// the protocol against a coordinator without motor hardware attached. The
// deployable firmware lives under targets/.
func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read config: %v\n", err)
			os.Exit(1)
		}
		cfg, err = config.LoadConfig(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to parse config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.Verbose = *verbose

	serialCfg := serial.DefaultConfig(*device)
	serialCfg.Baud = *baud

	port, err := serial.Open(serialCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer port.Close()

	driver := core.NewSimDriver()
	clock := core.WallClock{}

	state := chessbot.NewState(cfg)
	drive, err := motion.NewDrive(driver, clock, state, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	endstopX, err := core.NewEndstop(driver, core.GPIOPin(cfg.EndstopX.Pin), cfg.EndstopX.Invert)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	endstopY, err := core.NewEndstop(driver, core.GPIOPin(cfg.EndstopY.Pin), cfg.EndstopY.Invert)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Simulated limit switches read as closed so homing completes at once.
	driver.ForcePin(core.GPIOPin(cfg.EndstopX.Pin), false)
	driver.ForcePin(core.GPIOPin(cfg.EndstopY.Pin), false)

	seq := sequencer.New(port, clock, drive, state, endstopX, endstopY, cfg)

	fmt.Fprintf(os.Stderr, "chessbot: connected to coordinator on %s\n", *device)
	seq.Startup()

	if err := seq.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: coordinator link failed: %v\n", err)
		os.Exit(1)
	}
}
