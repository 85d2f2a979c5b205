package grid

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
)

type Cell rune

const (
	CellWater Cell = '.'
	CellShip  Cell = '#'
	CellHit   Cell = 'X'
	CellMiss  Cell = 'o'
)

// Renderer turns grids into the text blocks shown to participants.
type Renderer interface {
	// The opponent's grid: only fired coordinates, as hit or miss.
	Shots(g *Grid) string
	// The owner's grid: the whole fleet and the shots taken at it.
	Fleet(g *Grid) string
}

type TextRenderer struct{}

var _ Renderer = TextRenderer{}

func blank(width, height int) [][]Cell {
	cells := make([][]Cell, height)
	for row := range cells {
		cells[row] = make([]Cell, width)
		for column := range cells[row] {
			cells[row][column] = CellWater
		}
	}
	return cells
}

func put(cells [][]Cell, coord Coordinate, cell Cell) {
	if coord.Y < 0 || coord.Y >= len(cells) || coord.X < 0 || coord.X >= len(cells[coord.Y]) {
		return
	}
	cells[coord.Y][coord.X] = cell
}

func (TextRenderer) Shots(g *Grid) string {
	cells := blank(g.Width, g.Height)
	for _, shot := range g.Shots() {
		if shot.Hit {
			put(cells, shot.Coordinate, CellHit)
			continue
		}
		put(cells, shot.Coordinate, CellMiss)
	}
	return format(cells)
}

func (TextRenderer) Fleet(g *Grid) string {
	cells := blank(g.Width, g.Height)
	for _, shot := range g.Hits {
		put(cells, shot, CellMiss)
	}
	for _, ship := range g.Ships {
		for _, coord := range ship.Coords {
			if coord.IsHit {
				put(cells, coord, CellHit)
				continue
			}
			put(cells, coord, CellShip)
		}
	}
	return format(cells)
}

func format(cells [][]Cell) string {
	var buffer bytes.Buffer
	buffer.WriteString("\n")

	writer := tabwriter.NewWriter(&buffer, 2, 0, 1, ' ', 0)

	width := 0
	if len(cells) > 0 {
		width = len(cells[0])
	}

	for column := 0; column < width; column++ {
		fmt.Fprintf(writer, "\t%c", 'A'+rune(column))
	}
	fmt.Fprint(writer, "\n")

	for row, line := range cells {
		fmt.Fprint(writer, strconv.Itoa(row+1))
		for _, cell := range line {
			fmt.Fprintf(writer, "\t%c", cell)
		}
		fmt.Fprint(writer, "\n")
	}

	writer.Flush()
	return buffer.String()
}
