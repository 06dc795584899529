package posts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/posts-go/core/geom"
)

// fanOffset returns the signed horizontal angle of dir relative to +Z in
// degrees. Used with a +Z base direction to read fan offsets directly.
func fanOffset(dir geom.Vec3) float64 {
	return geom.Degrees(math.Atan2(dir.X, dir.Z))
}

func TestFanRay_FiveRaySweep(t *testing.T) {
	cmd := Command{
		Params: QueryParams{Angle: 60, Distance: 10, Step: 5, Depth: 1},
	}
	base := geom.Vec3{Z: 1}
	origin := geom.Vec3{X: 1, Y: 2, Z: 3}

	want := []float64{-30, -15, 0, 15, 30}
	for i, expected := range want {
		r := fanRay(i, 5, base, origin, cmd)
		require.InDelta(t, expected, fanOffset(r.Dir), 1e-9, "ray %d", i)
		require.Equal(t, origin, r.Origin)
		require.InDelta(t, 10.0, r.Dist, 1e-9)
		require.InDelta(t, 1.0, r.Dir.Length(), 1e-9)
	}
}

func TestFanRay_FlatSweepAcrossRows(t *testing.T) {
	// Rows are not offset separately: a 2x3 fan is one linear sweep over
	// all six indices.
	cmd := Command{
		Params: QueryParams{Angle: 50, Distance: 5, Step: 3, Depth: 2},
	}
	base := geom.Vec3{Z: 1}

	prev := math.Inf(-1)
	for i := 0; i < 6; i++ {
		off := fanOffset(fanRay(i, 6, base, geom.Vec3{}, cmd).Dir)
		require.Greater(t, off, prev, "sweep must be strictly increasing")
		prev = off
	}
	require.InDelta(t, -25, fanOffset(fanRay(0, 6, base, geom.Vec3{}, cmd).Dir), 1e-9)
	require.InDelta(t, 25, fanOffset(fanRay(5, 6, base, geom.Vec3{}, cmd).Dir), 1e-9)
}

func TestFanRay_SingleRay(t *testing.T) {
	cmd := Command{
		Params: QueryParams{Angle: 90, Distance: 3, Step: 1, Depth: 1},
	}
	base := geom.Vec3{Z: 1}
	r := fanRay(0, 1, base, geom.Vec3{}, cmd)
	require.InDelta(t, 0, fanOffset(r.Dir), 1e-9, "single ray points along the base direction")
}

func TestHarvestPosts_RisingEdges(t *testing.T) {
	// Mask 0 0 1 1 1 0 0 1 0: two blocked runs, posts at indices 2 and 7.
	mask := []int{0, 0, 1, 1, 1, 0, 0, 1, 0}
	hits := make([]Hit, len(mask))
	for i, m := range mask {
		if m == 1 {
			hits[i] = Hit{Point: geom.Vec3{X: float64(i), Y: 1}}
		}
	}

	got := harvestPosts(hits, nil)
	require.Len(t, got, 2)
	require.Equal(t, geom.Vec3{X: 2, Y: 1}, got[0])
	require.Equal(t, geom.Vec3{X: 7, Y: 1}, got[1])
}

func TestHarvestPosts_AllBlocked(t *testing.T) {
	hits := []Hit{
		{Point: geom.Vec3{X: 1}},
		{Point: geom.Vec3{X: 2}},
		{Point: geom.Vec3{X: 3}},
	}
	got := harvestPosts(hits, nil)
	require.Len(t, got, 1)
	require.Equal(t, geom.Vec3{X: 1}, got[0])
}

func TestHarvestPosts_NoneBlocked(t *testing.T) {
	got := harvestPosts(make([]Hit, 16), make([]geom.Vec3, 4))
	require.Empty(t, got)
}

// recordCaster captures the rays it was handed and marks every ray blocked at
// its origin offset by its index, so order preservation is observable.
type recordCaster struct {
	rays []Ray
}

func (c *recordCaster) Cast(rays []Ray, hits []Hit) {
	c.rays = append([]Ray(nil), rays...)
	for i := range rays {
		hits[i] = Hit{Point: geom.Vec3{X: float64(i + 1)}}
	}
}

func TestStartCast_PreservesRayOrder(t *testing.T) {
	cmd := Command{
		Params:    QueryParams{Angle: 80, Distance: 6, Step: 10, Depth: 10},
		LayerMask: 1,
	}
	c := &recordCaster{}
	j := startCast(cmd, geom.Vec3{X: 5}, geom.Vec3{}, c)
	j.join()

	require.Len(t, c.rays, 100)
	prev := math.Inf(-1)
	for i, r := range c.rays {
		// Base direction is +X here; the sweep is still monotonic in
		// the signed offset about Y.
		off := math.Atan2(-r.Dir.Z, r.Dir.X)
		require.GreaterOrEqual(t, off, prev, "ray %d out of order", i)
		prev = off
		require.InDelta(t, 1.0, r.Dir.Length(), 1e-9)
		require.Equal(t, uint32(1), r.LayerMask)
	}

	for i, h := range j.buf.hits {
		require.Equal(t, float64(i+1), h.Point.X, "hit %d", i)
	}
	j.buf.release()
}

func TestBuffers_ReuseKeepsSizing(t *testing.T) {
	b := acquireBuffers(64)
	require.Len(t, b.rays, 64)
	require.Len(t, b.hits, 64)
	b.hits[10] = Hit{Point: geom.Vec3{X: 1}}
	b.release()

	// Reacquired buffers always present cleared hits.
	b = acquireBuffers(32)
	require.Len(t, b.hits, 32)
	for i, h := range b.hits {
		require.False(t, h.Blocked(), "hit %d not cleared", i)
	}
	b.release()
}
