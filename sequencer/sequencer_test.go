package sequencer

import (
	"io"
	"strings"
	"testing"
	"time"

	"chessbot"
	"chessbot/board"
	"chessbot/core"
	"chessbot/motion"
)

// fakeClock advances virtual time on every sleep so bounded waits expire
// without real delays.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) DelayMicros(us uint32) {
	c.now = c.now.Add(time.Duration(us) * time.Microsecond)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
}

// fakePort is a scripted coordinator: whenever the sequencer writes a
// request line that has queued responses, the next response becomes
// readable. Reads drain one byte at a time like a real serial port.
type fakePort struct {
	responses map[string][]string
	inbox     []byte
	writes    []string
	partial   []byte
}

func newFakePort() *fakePort {
	return &fakePort{responses: make(map[string][]string)}
}

func (p *fakePort) respond(request string, lines ...string) {
	p.responses[request] = append(p.responses[request], lines...)
}

func (p *fakePort) Read(b []byte) (int, error) {
	if len(p.inbox) == 0 {
		return 0, io.EOF
	}
	b[0] = p.inbox[0]
	p.inbox = p.inbox[1:]
	return 1, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.partial = append(p.partial, b...)
	for {
		idx := strings.IndexByte(string(p.partial), '\n')
		if idx < 0 {
			break
		}
		line := string(p.partial[:idx])
		p.partial = p.partial[idx+1:]
		p.writes = append(p.writes, line)

		if queued, ok := p.responses[line]; ok && len(queued) > 0 {
			p.inbox = append(p.inbox, []byte(queued[0]+"\n")...)
			p.responses[line] = queued[1:]
		}
	}
	return len(b), nil
}

// pulse recorder shared shape with the motion tests

type pulseRecord struct {
	dirA bool
	dirB bool
}

func (p pulseRecord) isX() bool { return p.dirA == p.dirB }

type recordingDriver struct {
	states   map[core.GPIOPin]bool
	pulses   []pulseRecord
	triggers map[core.GPIOPin]int
}

func newRecordingDriver() *recordingDriver {
	return &recordingDriver{
		states:   make(map[core.GPIOPin]bool),
		triggers: make(map[core.GPIOPin]int),
	}
}

func (d *recordingDriver) ConfigureOutput(pin core.GPIOPin) error { return nil }

func (d *recordingDriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	d.states[pin] = true
	return nil
}

func (d *recordingDriver) ConfigureInputPullDown(pin core.GPIOPin) error { return nil }

func (d *recordingDriver) SetPin(pin core.GPIOPin, value bool) error {
	if pin == 2 && value && !d.states[pin] {
		d.pulses = append(d.pulses, pulseRecord{dirA: d.states[3], dirB: d.states[5]})
	}
	d.states[pin] = value
	return nil
}

func (d *recordingDriver) GetPin(pin core.GPIOPin) (bool, error) { return d.ReadPin(pin), nil }

func (d *recordingDriver) ReadPin(pin core.GPIOPin) bool {
	if threshold, ok := d.triggers[pin]; ok {
		return len(d.pulses) < threshold
	}
	return d.states[pin]
}

type harness struct {
	seq    *Sequencer
	port   *fakePort
	driver *recordingDriver
	state  *chessbot.State
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &chessbot.Config{
		MotorA:                 chessbot.MotorConfig{StepPin: 2, DirPin: 3},
		MotorB:                 chessbot.MotorConfig{StepPin: 4, DirPin: 5},
		EnablePin:              8,
		EndstopX:               chessbot.EndstopConfig{Pin: 20},
		EndstopY:               chessbot.EndstopConfig{Pin: 21},
		StepsPerCm:             1,
		ApproachSquareCm:       2,
		OperatingSquareCm:      2,
		HomingOffsetStepsX:     1,
		HomingOffsetStepsY:     1,
		HomingCorrectionStepsX: 1,
		AckTimeoutMs:           20,
		BoardTimeoutMs:         30,
	}
	state := chessbot.NewState(cfg)
	driver := newRecordingDriver()
	clock := &fakeClock{now: time.Unix(0, 0)}

	drive, err := motion.NewDrive(driver, clock, state, cfg)
	if err != nil {
		t.Fatalf("NewDrive failed: %v", err)
	}

	endstopX, err := core.NewEndstop(driver, 20, false)
	if err != nil {
		t.Fatalf("NewEndstop failed: %v", err)
	}
	endstopY, err := core.NewEndstop(driver, 21, false)
	if err != nil {
		t.Fatalf("NewEndstop failed: %v", err)
	}

	port := newFakePort()
	seq := New(port, clock, drive, state, endstopX, endstopY, cfg)
	return &harness{seq: seq, port: port, driver: driver, state: state}
}

func (h *harness) respondHappyPath(boardPayload string) {
	h.port.respond(TokenBoardRequest, BoardPrefix+boardPayload)
	h.port.respond(TokenMagnetOn, TokenMagnetOnAck)
	h.port.respond(TokenMagnetOff, TokenMagnetOffAck)
}

func squareXY(name string) (int, int) {
	return board.FileToX(name[0]), board.RankToY(name[1])
}

func TestPawnMoveEndToEnd(t *testing.T) {
	h := newHarness(t)
	starting := board.NewStartingBitmap()
	h.respondHappyPath(starting.Encode())

	h.seq.HandleLine("e2-e4")

	bm := h.seq.Bitmap()
	if x, y := squareXY("e2"); bm.Occupied(x, y) {
		t.Error("e2 should be cleared after the move")
	}
	if x, y := squareXY("e4"); !bm.Occupied(x, y) {
		t.Error("e4 should be occupied after the move")
	}

	tx, ty := squareXY("e4")
	pos := h.state.Pos
	if pos.X != float64(tx) || pos.Y != float64(ty) {
		t.Errorf("final position = (%v,%v), want e4 at (%d,%d)", pos.X, pos.Y, tx, ty)
	}

	want := []string{TokenBoardRequest, TokenMagnetOn, TokenMagnetOff}
	if len(h.port.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", h.port.writes, want)
	}
	for i, w := range want {
		if h.port.writes[i] != w {
			t.Errorf("write %d = %q, want %q", i, h.port.writes[i], w)
		}
	}

	// e2-e4 is a pure Y displacement: the carrying leg after source
	// pickup must contain no X pulses. Source travel from origin to e2 is
	// 6 X + 2 Y pulses, the carry is 4 Y pulses.
	if len(h.driver.pulses) != 12 {
		t.Fatalf("got %d pulses, want 12", len(h.driver.pulses))
	}
	for i := 8; i < 12; i++ {
		if h.driver.pulses[i].isX() {
			t.Errorf("carry pulse %d should be Y only", i)
		}
	}
}

func TestKnightOverPawnsTakesEdgeDetour(t *testing.T) {
	h := newHarness(t)
	starting := board.NewStartingBitmap()
	h.respondHappyPath(starting.Encode())

	h.seq.HandleLine("g1-f3")

	bm := h.seq.Bitmap()
	if x, y := squareXY("g1"); bm.Occupied(x, y) {
		t.Error("g1 should be cleared")
	}
	if x, y := squareXY("f3"); !bm.Occupied(x, y) {
		t.Error("f3 should be occupied")
	}

	// Source travel 2 X pulses, then detour: half X (1), Y leg (4),
	// half X (1).
	if len(h.driver.pulses) != 8 {
		t.Fatalf("got %d pulses, want 8", len(h.driver.pulses))
	}
	wantX := []bool{true, true, true, false, false, false, false, true}
	for i, p := range h.driver.pulses {
		if p.isX() != wantX[i] {
			t.Errorf("pulse %d: isX=%v, want %v", i, p.isX(), wantX[i])
		}
	}

	tx, ty := squareXY("f3")
	if h.state.Pos.X != float64(tx) || h.state.Pos.Y != float64(ty) {
		t.Errorf("final position = (%v,%v), want f3 at (%d,%d)", h.state.Pos.X, h.state.Pos.Y, tx, ty)
	}
}

func TestCastlingRelocatesRookViaTopEdge(t *testing.T) {
	h := newHarness(t)

	// Castling-legal board: f1 and g1 vacated.
	bm := board.NewStartingBitmap()
	fx, fy := squareXY("f1")
	bm.ClearOccupied(fx, fy)
	gx, gy := squareXY("g1")
	bm.ClearOccupied(gx, gy)

	h.port.respond(TokenBoardRequest, BoardPrefix+bm.Encode())
	h.port.respond(TokenMagnetOn, TokenMagnetOnAck, TokenMagnetOnAck)
	h.port.respond(TokenMagnetOff, TokenMagnetOffAck, TokenMagnetOffAck)

	h.seq.HandleLine("e1-g1")

	got := h.seq.Bitmap()
	checks := []struct {
		square   string
		occupied bool
	}{
		{"e1", false},
		{"g1", true},
		{"h1", false},
		{"f1", true},
	}
	for _, c := range checks {
		x, y := squareXY(c.square)
		if got.Occupied(x, y) != c.occupied {
			t.Errorf("%s occupied = %v, want %v", c.square, got.Occupied(x, y), c.occupied)
		}
	}

	// Two full pickup/drop cycles on the wire.
	want := []string{TokenBoardRequest, TokenMagnetOn, TokenMagnetOff, TokenMagnetOn, TokenMagnetOff}
	if len(h.port.writes) != len(want) {
		t.Fatalf("writes = %v, want %v", h.port.writes, want)
	}
	for i, w := range want {
		if h.port.writes[i] != w {
			t.Errorf("write %d = %q, want %q", i, h.port.writes[i], w)
		}
	}

	// The rook leg ends the session: half up (1 Y), lateral (4 X),
	// half down (1 Y).
	pulses := h.driver.pulses
	if len(pulses) != 18 {
		t.Fatalf("got %d pulses, want 18", len(pulses))
	}
	tail := pulses[len(pulses)-6:]
	wantX := []bool{false, true, true, true, true, false}
	for i, p := range tail {
		if p.isX() != wantX[i] {
			t.Errorf("rook pulse %d: isX=%v, want %v", i, p.isX(), wantX[i])
		}
	}

	// Effector parks on the rook's destination square.
	tx, ty := squareXY("f1")
	if h.state.Pos.X != float64(tx) || h.state.Pos.Y != float64(ty) {
		t.Errorf("final position = (%v,%v), want f1 at (%d,%d)", h.state.Pos.X, h.state.Pos.Y, tx, ty)
	}
}

func TestMalformedLinesRejected(t *testing.T) {
	h := newHarness(t)
	before := h.seq.Bitmap()

	for _, line := range []string{"e2e4", "e2-e", "e2-e44", "i2-e4", "e0-e4", "e2_e4", "BOARD:0101"} {
		h.seq.HandleLine(line)
	}

	if h.seq.Bitmap() != before {
		t.Error("malformed input must not mutate the bitmap")
	}
	if len(h.driver.pulses) != 0 {
		t.Errorf("malformed input emitted %d pulses, want 0", len(h.driver.pulses))
	}
	if len(h.port.writes) != 0 {
		t.Errorf("malformed input wrote %v, want nothing", h.port.writes)
	}
}

func TestPingAnsweredWithoutStateChange(t *testing.T) {
	h := newHarness(t)
	before := h.seq.Bitmap()

	h.seq.HandleLine(TokenPing)

	if len(h.port.writes) != 1 || h.port.writes[0] != TokenReady {
		t.Errorf("writes = %v, want [%s]", h.port.writes, TokenReady)
	}
	if h.seq.Bitmap() != before || len(h.driver.pulses) != 0 {
		t.Error("probe must not alter any state")
	}
}

func TestUnsolicitedBoardBroadcastApplied(t *testing.T) {
	h := newHarness(t)

	var bm board.Bitmap
	bm.SetOccupied(squareXY("d5"))

	h.seq.HandleLine(BoardPrefix + bm.Encode())

	if h.seq.Bitmap() != bm {
		t.Errorf("bitmap = %v, want %v", h.seq.Bitmap(), bm)
	}
}

func TestBoardTimeoutProceedsWithLastKnown(t *testing.T) {
	h := newHarness(t)
	// No scripted responses at all: board request and both magnet acks
	// time out, and the move still completes against the starting
	// occupancy.
	h.seq.HandleLine("e2-e4")

	bm := h.seq.Bitmap()
	if x, y := squareXY("e4"); !bm.Occupied(x, y) {
		t.Error("move should complete with last-known occupancy after timeouts")
	}

	tx, ty := squareXY("e4")
	if h.state.Pos.X != float64(tx) || h.state.Pos.Y != float64(ty) {
		t.Errorf("final position = (%v,%v), want e4", h.state.Pos.X, h.state.Pos.Y)
	}
}

func TestNoSensorsAnswerLeavesOccupancy(t *testing.T) {
	h := newHarness(t)
	h.port.respond(TokenBoardRequest, TokenNoSensors)
	h.port.respond(TokenMagnetOn, TokenMagnetOnAck)
	h.port.respond(TokenMagnetOff, TokenMagnetOffAck)

	h.seq.HandleLine("e2-e4")

	bm := h.seq.Bitmap()
	if x, y := squareXY("e4"); !bm.Occupied(x, y) {
		t.Error("move should complete against the unchanged occupancy")
	}
}

func TestResetRehomesAndAcknowledges(t *testing.T) {
	h := newHarness(t)
	h.driver.triggers[21] = 2 // Y switch closes after 2 pulses
	h.driver.triggers[20] = 4 // X after 2 more

	// Dirty the bitmap first so the reset provably rebuilds it.
	var bm board.Bitmap
	h.seq.HandleLine(BoardPrefix + bm.Encode())

	h.seq.HandleLine(TokenReset)

	if h.seq.Bitmap() != board.NewStartingBitmap() {
		t.Error("reset must rebuild the starting occupancy")
	}
	if h.state.Pos.X != 0 || h.state.Pos.Y != 0 {
		t.Errorf("post-reset position = (%v,%v), want origin", h.state.Pos.X, h.state.Pos.Y)
	}
	if !h.state.Cal.HomedOrigin {
		t.Error("reset must re-run homing")
	}

	last := h.port.writes[len(h.port.writes)-1]
	if last != TokenResetAck {
		t.Errorf("last write = %q, want %q", last, TokenResetAck)
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
	}{
		{"e2-e4", true},
		{"a1-h8", true},
		{"h8-a1", true},
		{"e2e4", false},
		{"e2-e", false},
		{"ee-44", false},
		{"e9-e4", false},
		{"x2-e4", false},
		{"", false},
		{"e2-e4 ", false},
	}

	for _, test := range tests {
		_, _, _, _, ok := ParseMove(test.line)
		if ok != test.ok {
			t.Errorf("ParseMove(%q) ok = %v, want %v", test.line, ok, test.ok)
		}
	}
}
