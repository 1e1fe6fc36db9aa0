package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"
)

// TestQueryRadiusFindsNeighbors verifies radius queries return in-range
// entities with correct deltas and exclude the querying entity.
func TestQueryRadiusFindsNeighbors(t *testing.T) {
	f := newFixture(t)

	self := f.addMember(t, "minnow", 1, 100, 100, 5)
	near := f.addMember(t, "minnow", 1, 110, 100, 5)
	f.addMember(t, "minnow", 1, 300, 100, 5)
	f.rebuildGrids()

	var dst []Neighbor
	dst = f.memberGrid.QueryRadiusInto(dst, 100, 100, 5, 50, self, f.posMap)

	if len(dst) != 1 {
		t.Fatalf("expected 1 neighbor, got %d", len(dst))
	}
	n := dst[0]
	if n.E != near {
		t.Error("wrong neighbor returned")
	}
	if !approx32(n.DX, 10) || !approx32(n.DY, 0) || !approx32(n.DistSq, 100) {
		t.Errorf("neighbor deltas dx=%v dy=%v distSq=%v", n.DX, n.DY, n.DistSq)
	}
}

// TestQueryRadiusIsThreeDimensional verifies a deep entity directly below the
// origin falls outside a small query radius.
func TestQueryRadiusIsThreeDimensional(t *testing.T) {
	f := newFixture(t)

	f.addMember(t, "minnow", 1, 100, 100, 25)
	f.rebuildGrids()

	var dst []Neighbor
	dst = f.memberGrid.QueryRadiusInto(dst, 100, 100, 0, 10, ecs.Entity{}, f.posMap)

	if len(dst) != 0 {
		t.Errorf("expected the deep entity outside the 3D radius, got %d neighbors", len(dst))
	}
}
