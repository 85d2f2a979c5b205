package grid

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	for _, test := range []struct {
		token string
		want  Coordinate
	}{
		{"A1", Coordinate{X: 0, Y: 0}},
		{"b7", Coordinate{X: 1, Y: 6}},
		{"J10", Coordinate{X: 9, Y: 9}},
		{" c3\r\n", Coordinate{X: 2, Y: 2}},
	} {
		coord, err := ParseCoordinate(test.token, 10, 10)
		require.NoError(t, err, test.token)
		assert.True(t, coord.Same(test.want), "%q parsed as %v", test.token, coord)
	}

	for _, token := range []string{
		"",
		"A",
		"A0",
		"A01",
		"K1",
		"A11",
		"11",
		"AA",
		"A1x",
		"A100",
		"?3",
	} {
		_, err := ParseCoordinate(token, 10, 10)
		assert.ErrorIs(t, err, ErrInvalidCoordinate, "%q should be rejected", token)
	}
}

func TestCoordinateRoundTrip(t *testing.T) {
	for x := 0; x < MAX_WIDTH; x++ {
		for y := 0; y < MAX_HEIGHT; y++ {
			coord := Coordinate{X: x, Y: y}
			parsed, err := ParseCoordinate(coord.String(), MAX_WIDTH, MAX_HEIGHT)
			require.NoError(t, err)
			require.True(t, coord.Same(parsed))
		}
	}

	assert.Equal(t, "B7", Coordinate{X: 1, Y: 6}.String())
}

func TestShipSunk(t *testing.T) {
	ship := NewShip(Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 1})
	g := New(10, 10, ship)

	assert.False(t, ship.IsSunk())

	assert.True(t, g.Fire(Coordinate{X: 0, Y: 0}))
	assert.True(t, ship.Coords[0].IsHit)
	assert.False(t, ship.Coords[1].IsHit)
	assert.False(t, ship.IsSunk())
	assert.False(t, g.IsDefeated())

	assert.True(t, g.Fire(Coordinate{X: 0, Y: 1}))
	assert.True(t, ship.IsSunk())
	assert.True(t, g.IsDefeated())
	assert.Equal(t, 0, g.Remaining())
}

func TestFire(t *testing.T) {
	g := New(
		10,
		10,
		NewShip(Coordinate{X: 0, Y: 0}),
		NewShip(Coordinate{X: 5, Y: 5}, Coordinate{X: 6, Y: 5}),
	)
	require.Equal(t, 2, g.Remaining())

	// Miss
	assert.False(t, g.Fire(Coordinate{X: 3, Y: 3}))
	assert.Len(t, g.Hits, 1)
	assert.Equal(t, 2, g.Remaining())

	// Hit
	assert.True(t, g.Fire(Coordinate{X: 0, Y: 0}))
	assert.Equal(t, 1, g.Remaining())

	// Repeated shots are recorded and still hit
	assert.True(t, g.Fire(Coordinate{X: 0, Y: 0}))
	assert.Len(t, g.Hits, 3)
	assert.Equal(t, 1, g.Remaining())

	shots := g.Shots()
	require.Len(t, shots, 3)
	assert.False(t, shots[0].Hit)
	assert.True(t, shots[1].Hit)
	assert.True(t, shots[2].Hit)
}

func TestDefeatedWithoutShips(t *testing.T) {
	assert.True(t, New(10, 10).IsDefeated())
}

func TestRandomPlacer(t *testing.T) {
	placer := NewRandomPlacerWithSource(DEFAULT_FLEET, rand.NewSource(1))

	for i := 0; i < 50; i++ {
		g, err := placer.Place(10, 10)
		require.NoError(t, err)
		require.Len(t, g.Ships, len(DEFAULT_FLEET))
		assert.Empty(t, g.Hits)

		seen := make(map[Coordinate]struct{})
		for j, ship := range g.Ships {
			require.Len(t, ship.Coords, DEFAULT_FLEET[j])
			for _, coord := range ship.Coords {
				require.True(t, coord.In(10, 10), "%v is off the grid", coord)
				require.False(t, coord.IsHit)
				_, ok := seen[coord]
				require.False(t, ok, "%v is occupied twice", coord)
				seen[coord] = struct{}{}
			}
		}
	}
}

func TestRandomPlacerDoesNotFit(t *testing.T) {
	placer := NewRandomPlacerWithSource([]int{5}, rand.NewSource(1))
	_, err := placer.Place(4, 4)
	assert.ErrorIs(t, err, ErrFleetDoesNotFit)

	placer = NewRandomPlacerWithSource([]int{3, 3}, rand.NewSource(1))
	_, err = placer.Place(2, 2)
	assert.ErrorIs(t, err, ErrFleetDoesNotFit)
}

func TestRender(t *testing.T) {
	g := New(3, 2, NewShip(Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 0}))
	g.Fire(Coordinate{X: 0, Y: 0})
	g.Fire(Coordinate{X: 2, Y: 1})

	renderer := TextRenderer{}

	shots := renderer.Shots(g)
	assert.True(t, strings.HasPrefix(shots, "\n"))
	assert.Equal(t, "\n  A B C\n1 X . .\n2 . . o\n", shots)

	fleet := renderer.Fleet(g)
	assert.Equal(t, "\n  A B C\n1 X # .\n2 . . o\n", fleet)
}
