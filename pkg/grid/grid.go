package grid

import (
	fp "github.com/repeale/fp-go"
	opt "github.com/repeale/fp-go/option"
)

// A Ship occupies a set of distinct coordinates on one grid.
type Ship struct {
	Coords []Coordinate
}

func NewShip(coords ...Coordinate) *Ship {
	return &Ship{Coords: coords}
}

func (s *Ship) Occupies(target Coordinate) bool {
	for _, coord := range s.Coords {
		if coord.Same(target) {
			return true
		}
	}
	return false
}

// IsSunk is true once every coordinate of the ship has been hit.
func (s *Ship) IsSunk() bool {
	for _, coord := range s.Coords {
		if !coord.IsHit {
			return false
		}
	}
	return true
}

// Grid is one participant's board: their fleet, and every shot the
// opponent has fired at it.
type Grid struct {
	Width  int
	Height int
	Ships  []*Ship
	// Every shot fired at this grid in order, misses and repeats included.
	Hits []Coordinate
}

func New(width, height int, ships ...*Ship) *Grid {
	return &Grid{
		Width:  width,
		Height: height,
		Ships:  ships,
		Hits:   make([]Coordinate, 0),
	}
}

func (g *Grid) ShipAt(target Coordinate) opt.Option[*Ship] {
	for _, ship := range g.Ships {
		if ship.Occupies(target) {
			return opt.Some(ship)
		}
	}
	return opt.None[*Ship]()
}

// IsHit reports whether a shot at target would land on a ship.
func (g *Grid) IsHit(target Coordinate) bool {
	return opt.IsSome(g.ShipAt(target))
}

// Fire records a shot at target and marks the ship coordinate it lands on,
// if any. Repeated shots are recorded again and still count as hits.
func (g *Grid) Fire(target Coordinate) bool {
	target.IsHit = false
	g.Hits = append(g.Hits, target)

	ship := g.ShipAt(target)
	if opt.IsNone(ship) {
		return false
	}

	for i := range ship.Value.Coords {
		if ship.Value.Coords[i].Same(target) {
			ship.Value.Coords[i].IsHit = true
		}
	}

	return true
}

func (g *Grid) afloat() []*Ship {
	return fp.Filter(func(ship *Ship) bool { return !ship.IsSunk() })(g.Ships)
}

// Remaining is the number of ships that are not yet sunk.
func (g *Grid) Remaining() int {
	return len(g.afloat())
}

// IsDefeated is true when every ship on the grid is sunk.
func (g *Grid) IsDefeated() bool {
	return !fp.Some(func(ship *Ship) bool { return !ship.IsSunk() })(g.Ships)
}

// A Shot is a fired coordinate as the shooter is allowed to see it.
type Shot struct {
	Coordinate
	Hit bool
}

// Shots cross-references the shots fired at this grid against its ships.
// This is all an opponent gets to know about the grid.
func (g *Grid) Shots() []Shot {
	return fp.Map(func(coord Coordinate) Shot {
		return Shot{
			Coordinate: coord,
			Hit:        g.IsHit(coord),
		}
	})(g.Hits)
}
