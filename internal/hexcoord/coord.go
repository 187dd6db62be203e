// Package hexcoord implements axial hex-grid coordinates, L1 distance,
// ring enumeration and principal-direction decomposition.
//
// Grounded on original_source/hexagonal (coord.hpp/cpp, ring.hpp/cpp):
// the coordinate system and distance formula are reimplemented in Go,
// the ring iterator is rewritten as a slice-returning generator instead of
// a C++-style iterator pair.
package hexcoord

import "fmt"

// Coord is an axial hex coordinate (x, y) in the same convention as the
// original C++ HexCoord: two of the three cube coordinates, with the third
// implied as z = -x-y.
type Coord struct {
	X, Y int64
}

// NewCoord constructs a Coord.
func NewCoord(x, y int64) Coord {
	return Coord{X: x, Y: y}
}

// Z returns the implied third cube coordinate.
func (c Coord) Z() int64 {
	return -c.X - c.Y
}

// Add returns the sum of two coordinates.
func (c Coord) Add(o Coord) Coord {
	return Coord{X: c.X + o.X, Y: c.Y + o.Y}
}

// Sub returns the difference of two coordinates.
func (c Coord) Sub(o Coord) Coord {
	return Coord{X: c.X - o.X, Y: c.Y - o.Y}
}

// Scale returns the coordinate scaled by an integer factor.
func (c Coord) Scale(f int64) Coord {
	return Coord{X: c.X * f, Y: c.Y * f}
}

// String implements fmt.Stringer for log-friendly output.
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// DistanceL1 returns the hex-grid L1 (Manhattan-on-hex) distance between
// two coordinates.
func DistanceL1(a, b Coord) int64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z() - b.Z()

	d := abs64(dx)
	if v := abs64(dy); v > d {
		d = v
	}
	if v := abs64(dz); v > d {
		d = v
	}
	return d
}

// NeighbourDirections are the six unit steps around a hex, in the fixed
// order used for ring enumeration and rotation below.
var NeighbourDirections = [6]Coord{
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: 0},
	{X: -1, Y: 1},
	{X: 0, Y: 1},
}

// Neighbour returns the coordinate obtained by stepping one tile in
// direction dir (0..5, wrapped).
func Neighbour(c Coord, dir int) Coord {
	return c.Add(NeighbourDirections[((dir%6)+6)%6])
}

// Rotate rotates a coordinate (as a direction vector from the origin) by
// `steps` sixths of a full turn (0..5), used for rotating building shapes.
func Rotate(c Coord, steps int) Coord {
	steps = ((steps % 6) + 6) % 6
	x, y, z := c.X, c.Y, c.Z()
	for i := 0; i < steps; i++ {
		x, y, z = -z, -x, -y
	}
	return Coord{X: x, Y: y}
}

// PrincipalDirections decomposes a displacement vector into a sequence of
// unit steps that sums to it, each step one of the six principal
// directions, using as few steps as the L1 distance requires. This is the
// "dense sequence of adjacent hexes" used by the movement stepper (spec
// §4.5) to walk between two waypoints.
func PrincipalDirections(from, to Coord) []Coord {
	dist := DistanceL1(from, to)
	if dist == 0 {
		return nil
	}

	steps := make([]Coord, 0, dist)
	cur := from
	for cur != to {
		best := -1
		bestDist := DistanceL1(cur, to) + 1
		for i, d := range NeighbourDirections {
			cand := cur.Add(d)
			if cd := DistanceL1(cand, to); cd < bestDist {
				bestDist = cd
				best = i
			}
		}
		if best == -1 {
			// Should not happen for a reachable hex grid; guards against
			// an infinite loop on malformed input.
			break
		}
		steps = append(steps, NeighbourDirections[best])
		cur = cur.Add(NeighbourDirections[best])
	}
	return steps
}

// DensePath returns every hex tile from `from` to `to` inclusive of both
// endpoints, one principal step apart.
func DensePath(from, to Coord) []Coord {
	steps := PrincipalDirections(from, to)
	path := make([]Coord, 0, len(steps)+1)
	cur := from
	path = append(path, cur)
	for _, s := range steps {
		cur = cur.Add(s)
		path = append(path, cur)
	}
	return path
}
