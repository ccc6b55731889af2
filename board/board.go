// Package board implements the coordinate model and the occupancy bitmap
// for the 8x8 playing field.
//
// The internal grid is mirrored relative to algebraic notation: x=0 is file
// h and x=7 is file a, because the gantry origin sits in the h1 corner.
// y=0 is rank 1.
package board

import "errors"

// Size of one board edge in squares.
const Size = 8

// FileToX converts a file letter 'a'..'h' to the internal x coordinate.
// Inputs outside that range are undefined; callers must validate the move
// token before converting.
func FileToX(file byte) int {
	return int('h' - file)
}

// RankToY converts a rank digit '1'..'8' to the internal y coordinate.
// Same contract as FileToX: no guarding.
func RankToY(rank byte) int {
	return int(rank - '1')
}

// SquareName returns the two-character algebraic name for a coordinate
// pair, or "??" when either coordinate is out of range.
func SquareName(x, y int) string {
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return "??"
	}
	return string([]byte{'h' - byte(x), '1' + byte(y)})
}

// Bitmap is the bit-packed occupancy record: one byte per rank, one bit
// per file within the rank. Bit set means the square holds a piece. Piece
// identity is not modeled.
type Bitmap [Size]uint8

// NewStartingBitmap returns the standard chess starting occupancy: ranks
// 1, 2, 7 and 8 fully occupied.
func NewStartingBitmap() Bitmap {
	var b Bitmap
	b[0] = 0xFF
	b[1] = 0xFF
	b[6] = 0xFF
	b[7] = 0xFF
	return b
}

// Occupied reports whether the square at (x, y) holds a piece. Out of
// range coordinates read as unoccupied rather than erroring.
func (b *Bitmap) Occupied(x, y int) bool {
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return false
	}
	return b[y]&(1<<uint(x)) != 0
}

// SetOccupied marks the square at (x, y) as holding a piece. Out of range
// coordinates are ignored.
func (b *Bitmap) SetOccupied(x, y int) {
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return
	}
	b[y] |= 1 << uint(x)
}

// ClearOccupied marks the square at (x, y) as empty. Out of range
// coordinates are ignored.
func (b *Bitmap) ClearOccupied(x, y int) {
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return
	}
	b[y] &^= 1 << uint(x)
}

// Encode renders the bitmap as the 64-character wire form used by the
// board-state broadcast: '0'/'1' per square, row major, index = y*8 + x.
func (b *Bitmap) Encode() string {
	out := make([]byte, Size*Size)
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			c := byte('0')
			if b.Occupied(x, y) {
				c = '1'
			}
			out[y*Size+x] = c
		}
	}
	return string(out)
}

// DecodeBitmap parses the 64-character broadcast payload. Any payload that
// is not exactly 64 bytes of '0'/'1' is rejected and the caller keeps its
// previous bitmap.
func DecodeBitmap(payload string) (Bitmap, error) {
	var b Bitmap
	if len(payload) != Size*Size {
		return b, errors.New("board payload must be 64 characters")
	}
	for i := 0; i < len(payload); i++ {
		switch payload[i] {
		case '0':
		case '1':
			b[i/Size] |= 1 << uint(i%Size)
		default:
			return Bitmap{}, errors.New("board payload must contain only '0' and '1'")
		}
	}
	return b, nil
}
