package helpers

import (
	"testing"

	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

func TestWaypointsRoundTrip(t *testing.T) {
	cases := [][]hexcoord.Coord{
		nil,
		{hexcoord.NewCoord(0, 0)},
		{hexcoord.NewCoord(1, -2), hexcoord.NewCoord(-50, 1000), hexcoord.NewCoord(0, 0)},
	}
	for _, points := range cases {
		s := EncodeWaypoints(points)
		decoded, err := DecodeWaypoints(s)
		if err != nil {
			t.Fatalf("DecodeWaypoints(%q) error = %v", s, err)
		}
		if len(decoded) != len(points) {
			t.Fatalf("got %d points, want %d", len(decoded), len(points))
		}
		for i := range points {
			if decoded[i] != points[i] {
				t.Errorf("point %d = %v, want %v", i, decoded[i], points[i])
			}
		}
		if again := EncodeWaypoints(decoded); again != s {
			t.Errorf("round trip not stable: %q != %q", again, s)
		}
	}
}

func TestDecodeWaypointsMalformed(t *testing.T) {
	if _, err := DecodeWaypoints("not-valid-base64!!"); err == nil {
		t.Error("expected error for malformed base64")
	}
}
