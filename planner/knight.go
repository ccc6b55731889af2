// Package planner selects and executes paths for knight moves, the only
// displacement that must travel over potentially occupied squares.
package planner

import (
	"errors"

	"chessbot/board"
	"chessbot/motion"
)

// PathType identifies the selected knight path strategy.
type PathType int

const (
	// DirectXY runs the X leg first, cornering on (fromX+dx, fromY).
	DirectXY PathType = iota
	// DirectYX runs the Y leg first, cornering on (fromX, fromY+dy).
	DirectYX
	// EdgeDetour travels along the boundary between two squares instead
	// of through either square's center.
	EdgeDetour
)

func (t PathType) String() string {
	switch t {
	case DirectXY:
		return "direct-xy"
	case DirectYX:
		return "direct-yx"
	case EdgeDetour:
		return "edge-detour"
	}
	return "unknown"
}

// Decision is the per-move path choice. It is computed fresh for every
// knight move and never persisted.
type Decision struct {
	Type  PathType
	Clear bool // bounding rectangle was fully unoccupied

	// Corner square of the L for the direct path types.
	CornerX int
	CornerY int
}

// IsKnightDelta reports whether (dx, dy) is a knight-shaped displacement.
func IsKnightDelta(dx, dy int) bool {
	ax, ay := abs(dx), abs(dy)
	return (ax == 1 && ay == 2) || (ax == 2 && ay == 1)
}

// Decide picks the path for a knight move from (fromX, fromY) to
// (toX, toY) against the current occupancy.
//
// The area scan is deliberately conservative: any occupied square in the
// minimal bounding rectangle (endpoints excluded) forces the edge detour,
// even when both corner squares are individually free. A corner path over
// an occupied rectangle could drag the carried piece too close to a
// neighbor, so the detour wins whenever anything is in the area.
func Decide(fromX, fromY, toX, toY int, bm *board.Bitmap) Decision {
	dx := toX - fromX
	dy := toY - fromY

	xMin, xMax := minMax(fromX, toX)
	yMin, yMax := minMax(fromY, toY)

	for y := yMin; y <= yMax; y++ {
		for x := xMin; x <= xMax; x++ {
			if x == fromX && y == fromY {
				continue
			}
			if x == toX && y == toY {
				continue
			}
			if bm.Occupied(x, y) {
				return Decision{Type: EdgeDetour, Clear: false}
			}
		}
	}

	cornerXYFree := !bm.Occupied(fromX+dx, fromY)
	cornerYXFree := !bm.Occupied(fromX, fromY+dy)

	switch {
	case cornerXYFree && cornerYXFree:
		// Tie-break: lead with the longer axis.
		if abs(dx) >= abs(dy) {
			return Decision{Type: DirectXY, Clear: true, CornerX: fromX + dx, CornerY: fromY}
		}
		return Decision{Type: DirectYX, Clear: true, CornerX: fromX, CornerY: fromY + dy}
	case cornerXYFree:
		return Decision{Type: DirectXY, Clear: true, CornerX: fromX + dx, CornerY: fromY}
	case cornerYXFree:
		return Decision{Type: DirectYX, Clear: true, CornerX: fromX, CornerY: fromY + dy}
	}
	return Decision{Type: EdgeDetour, Clear: true}
}

// Execute plans and drives a knight move. The caller must already have
// positioned the effector on the source square; the planner never mutates
// the occupancy bitmap. A non-knight displacement is a caller contract
// violation: it is reported as an error and no motion is performed.
func Execute(drive *motion.Drive, fromX, fromY, toX, toY int, bm *board.Bitmap) (Decision, error) {
	dx := toX - fromX
	dy := toY - fromY

	if !IsKnightDelta(dx, dy) {
		return Decision{}, errors.New("planner: displacement " +
			board.SquareName(fromX, fromY) + "-" + board.SquareName(toX, toY) + " is not a knight move")
	}

	dec := Decide(fromX, fromY, toX, toY, bm)

	switch dec.Type {
	case DirectXY:
		drive.MoveAlongX(dx)
		drive.MoveAlongY(dy)
	case DirectYX:
		drive.MoveAlongY(dy)
		drive.MoveAlongX(dx)
	case EdgeDetour:
		// Half-square onto the boundary along the shorter axis, the full
		// leg along the longer axis while straddling the edge, then the
		// closing half-square into the destination.
		if abs(dx) < abs(dy) {
			drive.MoveHalfX(sign(dx))
			drive.MoveAlongY(dy)
			drive.MoveHalfX(sign(dx))
		} else {
			drive.MoveHalfY(sign(dy))
			drive.MoveAlongX(dx)
			drive.MoveHalfY(sign(dy))
		}
	}

	return dec, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func minMax(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}
