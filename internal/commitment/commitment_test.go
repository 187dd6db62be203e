package commitment

import "testing"

func TestComputeOrderIndependent(t *testing.T) {
	leaves := []Leaf{
		{Key: "character:1", Bytes: []byte("aaa")},
		{Key: "character:2", Bytes: []byte("bbb")},
	}
	reversed := []Leaf{leaves[1], leaves[0]}

	var parent Hash
	a := Compute(10, parent, leaves)
	b := Compute(10, parent, reversed)
	if a != b {
		t.Fatalf("expected leaf order to not affect the commitment: %s != %s", String(a), String(b))
	}
}

func TestComputeDiffersOnHeight(t *testing.T) {
	leaves := []Leaf{{Key: "character:1", Bytes: []byte("aaa")}}
	var parent Hash

	a := Compute(10, parent, leaves)
	b := Compute(11, parent, leaves)
	if a == b {
		t.Fatal("expected different heights to produce different commitments")
	}
}

func TestComputeChainsToParent(t *testing.T) {
	leaves := []Leaf{{Key: "character:1", Bytes: []byte("aaa")}}
	var genesisParent Hash

	first := Compute(1, genesisParent, leaves)
	second := Compute(2, first, leaves)
	if first == second {
		t.Fatal("expected commitment to depend on the parent commitment")
	}
}
