package posts

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/posts-go/core/geom"
	"github.com/codewandler/posts-go/core/metrics"
)

// rayBuffers are the transient per-query buffers: one ray descriptor and one
// hit slot per ray index. A buffer pair is acquired at dispatch, exclusively
// owned by one job until harvest, and released exactly once.
type rayBuffers struct {
	rays []Ray
	hits []Hit
}

var bufPool = sync.Pool{
	New: func() any { return &rayBuffers{} },
}

func acquireBuffers(n int) *rayBuffers {
	b := bufPool.Get().(*rayBuffers)
	if cap(b.rays) < n {
		b.rays = make([]Ray, n)
		b.hits = make([]Hit, n)
	}
	b.rays = b.rays[:n]
	b.hits = b.hits[:n]
	for i := range b.hits {
		b.hits[i] = Hit{}
	}
	return b
}

func (b *rayBuffers) release() {
	bufPool.Put(b)
}

// fanRay maps a ray index to its ray. Pure: no shared state, safe to call
// from any goroutine.
//
// The angular offset is interpolated linearly across [-Angle/2, +Angle/2]
// using i/(total-1) as the fraction, so the whole flattened index range forms
// one sweep. A single-ray fan points straight along the base direction.
func fanRay(i, total int, base, origin geom.Vec3, cmd Command) Ray {
	frac := 0.5
	if total > 1 {
		frac = float64(i) / float64(total-1)
	}
	deg := cmd.Params.Angle * (frac - 0.5)
	return Ray{
		Origin:    origin,
		Dir:       base.RotateY(geom.Radians(deg)),
		Dist:      cmd.Params.Distance,
		LayerMask: cmd.LayerMask,
	}
}

// castChunk is the number of rays each goroutine fills when building the
// batch. Small fans stay on a single goroutine.
const castChunk = 32

// castJob is one in-flight fan cast. done is closed when the hit buffer is
// fully written; after that the driving goroutine owns the buffers again.
type castJob struct {
	buf   *rayBuffers
	done  chan struct{}
	timer metrics.Timer
}

// startCast builds the ray fan and runs the batched line cast on a background
// goroutine. It never blocks the caller.
func startCast(cmd Command, self, target geom.Vec3, caster Caster) *castJob {
	n := cmd.Params.RayCount()
	j := &castJob{
		buf:  acquireBuffers(n),
		done: make(chan struct{}),
	}

	go func() {
		defer close(j.done)

		base := self.Sub(target).Normalize()
		origin := target.Add(cmd.Offset)

		var g errgroup.Group
		for start := 0; start < n; start += castChunk {
			end := min(start+castChunk, n)
			g.Go(func() error {
				for i := start; i < end; i++ {
					j.buf.rays[i] = fanRay(i, n, base, origin, cmd)
				}
				return nil
			})
		}
		_ = g.Wait()

		caster.Cast(j.buf.rays, j.buf.hits)
	}()

	return j
}

// join blocks until the cast has finished.
func (j *castJob) join() { <-j.done }

// harvestPosts scans hits in ray order and records a post at every rising
// edge of the blocked mask, coalescing each contiguous blocked run into its
// first point. The result is written into out, which is reused across
// harvests.
func harvestPosts(hits []Hit, out []geom.Vec3) []geom.Vec3 {
	out = out[:0]
	blocked := false
	for _, h := range hits {
		if h.Blocked() && !blocked {
			out = append(out, h.Point)
		}
		blocked = h.Blocked()
	}
	return out
}
