package hexcoord

// Ring enumerates all tiles at exact L1 distance `radius` from `centre`,
// grounded on original_source/hexagonal/ring.cpp's L1Ring::ConstIterator:
// start one `radius`-multiple of the first neighbour direction away from
// the centre, then walk six sides of `radius` steps each.
func Ring(centre Coord, radius int64) []Coord {
	if radius < 0 {
		return nil
	}
	if radius == 0 {
		return []Coord{centre}
	}

	sideDirs := [6]Coord{
		{X: 0, Y: -1},
		{X: -1, Y: 0},
		{X: -1, Y: 1},
		{X: 0, Y: 1},
		{X: 1, Y: 0},
		{X: 1, Y: -1},
	}

	out := make([]Coord, 0, 6*radius)
	cur := centre.Add(Coord{X: 1, Y: 0}.Scale(radius))
	for side := 0; side < 6; side++ {
		for step := int64(0); step < radius; step++ {
			out = append(out, cur)
			cur = cur.Add(sideDirs[side])
		}
	}
	return out
}

// DiskAround enumerates every tile within L1 distance radius (inclusive),
// i.e. the union of all rings from 0 to radius.
func DiskAround(centre Coord, radius int64) []Coord {
	out := make([]Coord, 0)
	for r := int64(0); r <= radius; r++ {
		out = append(out, Ring(centre, r)...)
	}
	return out
}
