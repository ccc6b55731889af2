package sequencer

import "chessbot/board"

// Line protocol tokens shared with the electromagnet/sensor coordinator.
// One token per line, newline terminated, both directions.
const (
	// Inbound
	TokenReset     = "RESET"
	TokenPing      = "PING"
	TokenNoSensors = "NOSENSORS"
	BoardPrefix    = "BOARD:"

	// Outbound requests
	TokenBoardRequest = "GETBOARD"
	TokenMagnetOn     = "MAGNET_ON"
	TokenMagnetOff    = "MAGNET_OFF"

	// Acknowledgements
	TokenResetAck     = "RESET_OK"
	TokenReady        = "READY"
	TokenMagnetOnAck  = "MAGNET_ON_OK"
	TokenMagnetOffAck = "MAGNET_OFF_OK"
)

// castlingRook maps the four legal king castling tokens to the rook
// relocation that must follow them.
var castlingRook = map[string]string{
	"e1-g1": "h1-f1",
	"e1-c1": "a1-d1",
	"e8-g8": "h8-f8",
	"e8-c8": "a8-d8",
}

// ParseMove validates and converts a 5-character move token of the form
// ff-rr (file a-h, rank 1-8, literal '-' at index 2). Only after the full
// shape check does it hand the characters to the unguarded coordinate
// conversions.
func ParseMove(line string) (fromX, fromY, toX, toY int, ok bool) {
	if len(line) != 5 || line[2] != '-' {
		return 0, 0, 0, 0, false
	}
	if !validFile(line[0]) || !validRank(line[1]) || !validFile(line[3]) || !validRank(line[4]) {
		return 0, 0, 0, 0, false
	}
	return board.FileToX(line[0]), board.RankToY(line[1]),
		board.FileToX(line[3]), board.RankToY(line[4]), true
}

func validFile(c byte) bool { return c >= 'a' && c <= 'h' }
func validRank(c byte) bool { return c >= '1' && c <= '8' }
