// Package sequencer implements the top-level move state machine: it reads
// line-oriented commands from the coordinator link, orchestrates
// pickup/path/drop with magnet handshakes, and keeps the occupancy bitmap
// in step with the physical board.
package sequencer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"chessbot"
	"chessbot/board"
	"chessbot/core"
	"chessbot/motion"
	"chessbot/planner"
)

// pollInterval is the spacing of read polls during bounded waits.
const pollInterval = time.Millisecond

// Sequencer owns the single logical thread of control: the serial command
// stream is only re-read between completed move sequences, so no locking
// is needed around the position, bitmap or calibration state.
type Sequencer struct {
	port  io.ReadWriter
	clock core.Clock
	drive *motion.Drive
	state *chessbot.State
	cfg   *chessbot.Config

	endstopX *core.Endstop
	endstopY *core.Endstop

	bitmap  board.Bitmap
	lineBuf []byte
}

// New creates a sequencer with the standard starting occupancy.
func New(port io.ReadWriter, clock core.Clock, drive *motion.Drive,
	state *chessbot.State, endstopX, endstopY *core.Endstop, cfg *chessbot.Config) *Sequencer {
	return &Sequencer{
		port:     port,
		clock:    clock,
		drive:    drive,
		state:    state,
		cfg:      cfg,
		endstopX: endstopX,
		endstopY: endstopY,
		bitmap:   board.NewStartingBitmap(),
	}
}

// Bitmap returns the current occupancy.
func (s *Sequencer) Bitmap() board.Bitmap {
	return s.bitmap
}

// Startup runs the one-shot homing calibration and reports readiness.
func (s *Sequencer) Startup() {
	s.drive.Home(s.endstopX, s.endstopY)
	s.bitmap = board.NewStartingBitmap()
	s.send(TokenReady)
}

// Run reads and dispatches lines until the port fails. An idle link (read
// timeouts) keeps the loop polling; only a hard port error ends it.
func (s *Sequencer) Run() error {
	for {
		line, ok, err := s.nextLine(time.Time{}, false)
		if err != nil {
			return err
		}
		if ok {
			s.HandleLine(line)
		}
	}
}

// HandleLine dispatches a single inbound line. Run-to-completion: a move
// line blocks here until the full physical sequence has finished.
func (s *Sequencer) HandleLine(line string) {
	switch {
	case line == "":
		return

	case line == TokenPing:
		// Connectivity probe; answer without touching any state.
		s.send(TokenReady)

	case line == TokenReset:
		s.Reset()

	case line == TokenNoSensors:
		// Valid nil response to a board request that arrived late.
		return

	case strings.HasPrefix(line, BoardPrefix):
		// Unsolicited resync broadcast.
		s.applyBoard(strings.TrimPrefix(line, BoardPrefix))

	default:
		fromX, fromY, toX, toY, ok := ParseMove(line)
		if !ok {
			s.logf("rejected malformed line %q", line)
			return
		}
		s.executeMove(line, fromX, fromY, toX, toY)
	}
}

// Reset de-energizes the motors, re-runs the full startup sequence and
// discards all in-flight state, then acknowledges.
func (s *Sequencer) Reset() {
	s.drive.Disable()
	s.drive.Home(s.endstopX, s.endstopY)
	s.bitmap = board.NewStartingBitmap()
	s.send(TokenResetAck)
}

// executeMove runs the full move sequence for a validated token: board
// resync, travel to source, pickup, path, drop, castling check.
func (s *Sequencer) executeMove(token string, fromX, fromY, toX, toY int) {
	// Fresh occupancy first: a stale bitmap could send the knight planner
	// through an occupied square.
	s.requestBoardState()

	s.logf("move %s", token)
	s.relocate(fromX, fromY, toX, toY, false)

	// Castling: the king has just been dropped between the rook's source
	// and target, so the rook takes the fixed top-edge detour around it.
	if rookToken, isCastling := castlingRook[token]; isCastling {
		s.logf("castling, rook %s", rookToken)
		rFromX, rFromY, rToX, rToY, _ := ParseMove(rookToken)
		s.relocate(rFromX, rFromY, rToX, rToY, true)
	}
}

// relocate picks up the piece on the source square, carries it to the
// destination and drops it. Source and destination occupancy bits flip at
// the pickup and drop points, so the bitmap never shows a piece on two
// squares or on none while one is in transit.
func (s *Sequencer) relocate(fromX, fromY, toX, toY int, topEdgeDetour bool) {
	s.drive.MoveToSquare(fromX, fromY)
	s.bitmap.ClearOccupied(fromX, fromY)

	s.send(TokenMagnetOn)
	s.waitForAck(TokenMagnetOnAck)

	if topEdgeDetour {
		// Half-square up, full lateral travel along the rank boundary,
		// half-square back down into the destination square.
		s.drive.MoveHalfY(1)
		s.drive.MoveAlongX(toX - fromX)
		s.drive.MoveHalfY(-1)
	} else {
		s.executePath(fromX, fromY, toX, toY)
	}

	s.bitmap.SetOccupied(toX, toY)

	s.send(TokenMagnetOff)
	s.waitForAck(TokenMagnetOffAck)
}

// executePath classifies the displacement and drives it: knight moves go
// through the path planner, equal deltas travel the straight diagonal,
// everything else resolves X then Y.
func (s *Sequencer) executePath(fromX, fromY, toX, toY int) {
	dx := toX - fromX
	dy := toY - fromY

	switch {
	case planner.IsKnightDelta(dx, dy):
		if _, err := planner.Execute(s.drive, fromX, fromY, toX, toY, &s.bitmap); err != nil {
			s.logf("internal error: %v", err)
		}
	case dx != 0 && abs(dx) == abs(dy):
		s.drive.MoveDiagonal(dx, dy)
	default:
		s.drive.MoveToSquare(toX, toY)
	}
}

// requestBoardState asks the coordinator for a fresh occupancy snapshot
// and blocks for it within the board timeout. On expiry the sequencer
// proceeds with the last-known occupancy; a stuck motion sequence is worse
// than a stale read.
func (s *Sequencer) requestBoardState() {
	s.send(TokenBoardRequest)

	deadline := s.clock.Now().Add(time.Duration(s.cfg.BoardTimeoutMs) * time.Millisecond)
	for {
		line, ok, _ := s.nextLine(deadline, true)
		if !ok {
			s.logf("board state timeout, using last known occupancy")
			return
		}
		switch {
		case strings.HasPrefix(line, BoardPrefix):
			s.applyBoard(strings.TrimPrefix(line, BoardPrefix))
			return
		case line == TokenNoSensors:
			// Sensors disabled: a valid non-answer, occupancy unchanged.
			return
		default:
			s.logf("ignoring %q while waiting for board state", line)
		}
	}
}

// applyBoard overwrites the bitmap from a broadcast payload. A malformed
// payload is rejected and the bitmap left unchanged.
func (s *Sequencer) applyBoard(payload string) {
	bm, err := board.DecodeBitmap(payload)
	if err != nil {
		s.logf("rejected board payload: %v", err)
		return
	}
	s.bitmap = bm
}

// waitForAck blocks for the expected acknowledgement token within the ack
// timeout. Expiry is logged and the sequence proceeds; the wait is never
// retried.
func (s *Sequencer) waitForAck(want string) bool {
	deadline := s.clock.Now().Add(time.Duration(s.cfg.AckTimeoutMs) * time.Millisecond)
	for {
		line, ok, _ := s.nextLine(deadline, true)
		if !ok {
			s.logf("timeout waiting for %s", want)
			return false
		}
		if line == want {
			return true
		}
		s.logf("ignoring %q while waiting for %s", line, want)
	}
}

// nextLine accumulates bytes from the port into the next newline
// terminated line. In bounded mode it gives up at the deadline; partial
// bytes stay buffered for the next call. Read timeouts (zero-byte reads or
// io.EOF from a timed-out port) poll rather than fail; any other error is
// returned to stop the run loop.
func (s *Sequencer) nextLine(deadline time.Time, bounded bool) (string, bool, error) {
	var buf [1]byte
	for {
		if bounded && !s.clock.Now().Before(deadline) {
			return "", false, nil
		}

		n, err := s.port.Read(buf[:])
		if n > 0 {
			b := buf[0]
			if b == '\n' || b == '\r' {
				if len(s.lineBuf) == 0 {
					continue
				}
				line := strings.TrimSpace(string(s.lineBuf))
				s.lineBuf = s.lineBuf[:0]
				if line == "" {
					continue
				}
				return line, true, nil
			}
			s.lineBuf = append(s.lineBuf, b)
			continue
		}

		if err != nil && err != io.EOF {
			return "", false, err
		}
		s.clock.Sleep(pollInterval)
	}
}

func (s *Sequencer) send(line string) {
	s.port.Write([]byte(line + "\n"))
}

// logf emits a free-form diagnostic line on the coordinator link. These
// lines are not part of the protocol contract; the coordinator discards
// anything it does not recognize.
func (s *Sequencer) logf(format string, args ...interface{}) {
	if !s.cfg.Verbose {
		return
	}
	s.send("# " + fmt.Sprintf(format, args...))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
