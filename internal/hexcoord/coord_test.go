package hexcoord

import "testing"

func TestDistanceL1(t *testing.T) {
	cases := []struct {
		a, b Coord
		want int64
	}{
		{NewCoord(0, 0), NewCoord(0, 0), 0},
		{NewCoord(0, 0), NewCoord(3, 0), 3},
		{NewCoord(0, 0), NewCoord(-2, 5), 5},
		{NewCoord(1, 1), NewCoord(-1, -1), 4},
	}
	for _, c := range cases {
		if got := DistanceL1(c.a, c.b); got != c.want {
			t.Errorf("DistanceL1(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestRingSize(t *testing.T) {
	for radius := int64(0); radius <= 5; radius++ {
		ring := Ring(NewCoord(10, -3), radius)
		want := 1
		if radius > 0 {
			want = int(6 * radius)
		}
		if len(ring) != want {
			t.Fatalf("radius %d: got %d tiles, want %d", radius, len(ring), want)
		}
		for _, c := range ring {
			if DistanceL1(c, NewCoord(10, -3)) != radius {
				t.Errorf("tile %v not at distance %d from centre", c, radius)
			}
		}
	}
}

func TestRingUnique(t *testing.T) {
	seen := make(map[Coord]bool)
	for _, c := range Ring(NewCoord(0, 0), 4) {
		if seen[c] {
			t.Fatalf("duplicate tile %v in ring", c)
		}
		seen[c] = true
	}
}

func TestDensePathEndpoints(t *testing.T) {
	from := NewCoord(0, 0)
	to := NewCoord(4, -2)
	path := DensePath(from, to)
	if path[0] != from {
		t.Errorf("path does not start at origin: %v", path[0])
	}
	if path[len(path)-1] != to {
		t.Errorf("path does not end at destination: %v", path[len(path)-1])
	}
	if int64(len(path)-1) != DistanceL1(from, to) {
		t.Errorf("path length %d != distance+1 %d", len(path), DistanceL1(from, to)+1)
	}
	for i := 1; i < len(path); i++ {
		if DistanceL1(path[i-1], path[i]) != 1 {
			t.Errorf("step %d->%d is not adjacent: %v -> %v", i-1, i, path[i-1], path[i])
		}
	}
}

func TestRotateSixStepsIsIdentity(t *testing.T) {
	c := NewCoord(3, -5)
	got := Rotate(c, 6)
	if got != c {
		t.Errorf("Rotate by 6 steps = %v, want identity %v", got, c)
	}
}
