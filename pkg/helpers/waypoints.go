package helpers

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/hexrealm/taurion-gsp/internal/hexcoord"
)

// EncodeWaypoints serialises a list of hex coordinates as the base64 blob
// carried in a move's `wp`/`wpx` field (spec.md §6). Each waypoint is two
// zig-zag varints (x, y); the wire format is intentionally simple and
// lossless so that EncodeWaypoints(DecodeWaypoints(s)) == s for any
// well-formed s this package itself produced (spec.md §8 round-trip
// property).
func EncodeWaypoints(points []hexcoord.Coord) string {
	buf := make([]byte, 0, len(points)*binary.MaxVarintLen64*2)
	var tmp [binary.MaxVarintLen64]byte
	for _, p := range points {
		n := binary.PutVarint(tmp[:], p.X)
		buf = append(buf, tmp[:n]...)
		n = binary.PutVarint(tmp[:], p.Y)
		buf = append(buf, tmp[:n]...)
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// DecodeWaypoints parses the base64 blob produced by EncodeWaypoints back
// into a coordinate list. Malformed input is reported as an error so the
// caller (internal/moveproc) can silently reject the owning sub-command
// per spec.md §7.
func DecodeWaypoints(s string) ([]hexcoord.Coord, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid waypoint encoding: %w", err)
	}

	var points []hexcoord.Coord
	for len(raw) > 0 {
		x, n := binary.Varint(raw)
		if n <= 0 {
			return nil, fmt.Errorf("truncated waypoint data")
		}
		raw = raw[n:]

		y, n := binary.Varint(raw)
		if n <= 0 {
			return nil, fmt.Errorf("truncated waypoint data")
		}
		raw = raw[n:]

		points = append(points, hexcoord.NewCoord(x, y))
	}
	return points, nil
}
