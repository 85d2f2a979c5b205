package grid

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	SHIP_ATTEMPTS  = 1000
	FLEET_ATTEMPTS = 100
)

// The classic fleet: carrier, battleship, cruiser, submarine, destroyer.
var DEFAULT_FLEET = []int{5, 4, 3, 3, 2}

var ErrFleetDoesNotFit = errors.New("fleet does not fit on grid")

// A Placer deals a fresh, validly placed fleet onto an empty grid.
type Placer interface {
	Place(width, height int) (*Grid, error)
}

// RandomPlacer places ships of the given sizes at random positions and
// orientations. It is not safe for concurrent use.
type RandomPlacer struct {
	Fleet []int
	rng   *rand.Rand
}

var _ Placer = (*RandomPlacer)(nil)

func NewRandomPlacer(fleet []int) *RandomPlacer {
	return NewRandomPlacerWithSource(fleet, rand.NewSource(time.Now().UnixNano()))
}

func NewRandomPlacerWithSource(fleet []int, source rand.Source) *RandomPlacer {
	return &RandomPlacer{
		Fleet: fleet,
		rng:   rand.New(source),
	}
}

// CheckFleet reports whether a fleet could possibly fit on a grid.
func CheckFleet(fleet []int, width, height int) error {
	longest := width
	if height > longest {
		longest = height
	}

	total := 0
	for _, size := range fleet {
		if size <= 0 {
			return fmt.Errorf("ship size must be positive, got %d", size)
		}
		if size > longest {
			return fmt.Errorf("%w: ship of size %d on a %dx%d grid", ErrFleetDoesNotFit, size, width, height)
		}
		total += size
	}

	if total > width*height {
		return fmt.Errorf("%w: %d cells on a %dx%d grid", ErrFleetDoesNotFit, total, width, height)
	}

	return nil
}

func (p *RandomPlacer) randomShip(size, width, height int) *Ship {
	coords := make([]Coordinate, size)

	horizontal := p.rng.Intn(2) == 0

	if horizontal {
		if size > width {
			return nil
		}
		x := p.rng.Intn(width - size + 1)
		y := p.rng.Intn(height)
		for i := range coords {
			coords[i] = Coordinate{X: x + i, Y: y}
		}
		return NewShip(coords...)
	}

	if size > height {
		return nil
	}
	x := p.rng.Intn(width)
	y := p.rng.Intn(height - size + 1)
	for i := range coords {
		coords[i] = Coordinate{X: x, Y: y + i}
	}
	return NewShip(coords...)
}

func overlapping(ship *Ship, grid *Grid) bool {
	for _, coord := range ship.Coords {
		if grid.IsHit(coord) {
			return true
		}
	}
	return false
}

func (p *RandomPlacer) tryPlace(width, height int) *Grid {
	grid := New(width, height)

	for _, size := range p.Fleet {
		var placed *Ship
		for attempt := 0; attempt < SHIP_ATTEMPTS; attempt++ {
			ship := p.randomShip(size, width, height)
			if ship == nil || overlapping(ship, grid) {
				continue
			}
			placed = ship
			break
		}

		if placed == nil {
			return nil
		}

		grid.Ships = append(grid.Ships, placed)
	}

	return grid
}

func (p *RandomPlacer) Place(width, height int) (*Grid, error) {
	if err := CheckFleet(p.Fleet, width, height); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < FLEET_ATTEMPTS; attempt++ {
		grid := p.tryPlace(width, height)
		if grid != nil {
			return grid, nil
		}
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrFleetDoesNotFit, FLEET_ATTEMPTS)
}
