package grid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const (
	// Columns are addressed by a single letter.
	MAX_WIDTH = 26
	// Rows are addressed by at most two digits.
	MAX_HEIGHT = 99
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// A Coordinate is a cell on a grid. IsHit only means something when the
// coordinate belongs to a ship.
type Coordinate struct {
	X     int
	Y     int
	IsHit bool
}

// Same reports whether two coordinates refer to the same cell, ignoring
// IsHit.
func (c Coordinate) Same(other Coordinate) bool {
	return c.X == other.X && c.Y == other.Y
}

func (c Coordinate) In(width, height int) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < width && c.Y < height
}

// String renders the coordinate as a token, e.g. {1, 6} is "B7".
func (c Coordinate) String() string {
	if c.X < 0 || c.X >= MAX_WIDTH || c.Y < 0 {
		return fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	return fmt.Sprintf("%c%d", 'A'+rune(c.X), c.Y+1)
}

// ParseCoordinate reads a token of the form <column letter><row number>,
// such as "A1" or "j10", and checks it against the bounds of a grid.
func ParseCoordinate(token string, width, height int) (Coordinate, error) {
	token = strings.TrimSpace(token)

	if len(token) < 2 || len(token) > 3 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, token)
	}

	column := unicode.ToUpper(rune(token[0]))
	if column < 'A' || column > 'Z' {
		return Coordinate{}, fmt.Errorf("%w: bad column in %q", ErrInvalidCoordinate, token)
	}

	digits := token[1:]
	for _, digit := range digits {
		if digit < '0' || digit > '9' {
			return Coordinate{}, fmt.Errorf("%w: bad row in %q", ErrInvalidCoordinate, token)
		}
	}

	// "A01" would not survive a round trip
	if digits[0] == '0' {
		return Coordinate{}, fmt.Errorf("%w: bad row in %q", ErrInvalidCoordinate, token)
	}

	row, err := strconv.Atoi(digits)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %v", ErrInvalidCoordinate, err)
	}

	coordinate := Coordinate{
		X: int(column - 'A'),
		Y: row - 1,
	}

	if !coordinate.In(width, height) {
		return Coordinate{}, fmt.Errorf(
			"%w: %s is outside a %dx%d grid",
			ErrInvalidCoordinate,
			coordinate,
			width,
			height,
		)
	}

	return coordinate, nil
}
