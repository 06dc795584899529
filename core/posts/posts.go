package posts

import (
	"github.com/codewandler/posts-go/core/geom"
)

// Handle is an opaque, stable actor identifier. It is only ever used as a
// lookup key; the scheduler never holds a reference to the actor itself.
type Handle string

// QueryParams shape the fan of rays for one query.
//
// The fan spans Angle degrees centered on the direction from target to self,
// with Step rays per row and Depth rows, for a total of Step*Depth rays. All
// rows share one linear sweep across the flattened ray index; rows are not
// offset individually.
type QueryParams struct {
	// Angle is the total angular spread in degrees.
	Angle float64
	// Distance is the length of each ray.
	Distance float64
	// Step is the number of rays per row. Must be >= 1.
	Step int
	// Depth is the number of rows. Must be >= 1.
	Depth int
}

// RayCount returns the total number of rays the query fires.
func (p QueryParams) RayCount() int { return p.Step * p.Depth }

// Command is one post-query request. It is immutable once enqueued.
type Command struct {
	// Self is the querying actor.
	Self Handle
	// Target is the actor the fan is centered around.
	Target Handle
	// Offset is added to the target position to form the ray origin.
	Offset geom.Vec3
	// LayerMask selects which collision layers block rays.
	LayerMask uint32
	// Params shape the fan.
	Params QueryParams
}

// Ray is one line cast: a half-line from Origin along Dir (unit length),
// evaluated up to Dist, filtered by LayerMask.
type Ray struct {
	Origin    geom.Vec3
	Dir       geom.Vec3
	Dist      float64
	LayerMask uint32
}

// Hit is the result of casting one ray. The zero value means the ray reached
// Dist without being blocked.
type Hit struct {
	// Point is the first blocked point along the ray, or the zero vector
	// if nothing blocked it.
	Point geom.Vec3
}

// Blocked reports whether the ray was blocked.
func (h Hit) Blocked() bool { return !h.Point.IsZero() }

// Caster evaluates a batch of rays in one call, writing exactly one hit per
// ray into hits. hits[i] must correspond to rays[i]; implementations must
// preserve index order and must not retain either slice.
type Caster interface {
	Cast(rays []Ray, hits []Hit)
}

// ActorData is the per-cycle snapshot entry for one actor.
type ActorData struct {
	Handle Handle
	Pos    geom.Vec3
}

// Snapshot resolves actor handles to positions. A snapshot is only valid for
// the consume cycle it was taken in.
type Snapshot interface {
	Lookup(h Handle) (geom.Vec3, bool)
}

// SnapshotProvider supplies one fresh snapshot per consume cycle.
type SnapshotProvider interface {
	Snapshot() Snapshot
}
