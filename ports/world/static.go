package world

import (
	"math"
	"sync"

	"github.com/codewandler/posts-go/core/geom"
	"github.com/codewandler/posts-go/core/posts"
)

// Sphere is a spherical collider.
type Sphere struct {
	Center geom.Vec3
	Radius float64
	Layer  uint32
}

// Box is an axis-aligned box collider.
type Box struct {
	Min, Max geom.Vec3
	Layer    uint32
}

// StaticWorld is an immutable-geometry caster: a flat list of sphere and box
// colliders with analytic ray intersection. Each ray reports the nearest
// intersection among colliders matching its layer mask, or a miss.
type StaticWorld struct {
	mu      sync.RWMutex
	spheres []Sphere
	boxes   []Box
}

// NewStaticWorld creates an empty StaticWorld.
func NewStaticWorld() *StaticWorld {
	return &StaticWorld{}
}

// AddSphere adds a sphere collider. A zero Layer defaults to LayerDefault.
func (w *StaticWorld) AddSphere(s Sphere) {
	if s.Layer == 0 {
		s.Layer = LayerDefault
	}
	w.mu.Lock()
	w.spheres = append(w.spheres, s)
	w.mu.Unlock()
}

// AddBox adds a box collider. A zero Layer defaults to LayerDefault.
func (w *StaticWorld) AddBox(b Box) {
	if b.Layer == 0 {
		b.Layer = LayerDefault
	}
	w.mu.Lock()
	w.boxes = append(w.boxes, b)
	w.mu.Unlock()
}

// Cast implements posts.Caster. hits[i] corresponds to rays[i]; a ray that
// reaches its full distance leaves the zero Hit.
func (w *StaticWorld) Cast(rays []posts.Ray, hits []posts.Hit) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for i, r := range rays {
		hits[i] = w.castOne(r)
	}
}

func (w *StaticWorld) castOne(r posts.Ray) posts.Hit {
	best := r.Dist
	found := false

	for _, s := range w.spheres {
		if s.Layer&r.LayerMask == 0 {
			continue
		}
		if t, ok := raySphere(r.Origin, r.Dir, s.Center, s.Radius); ok && t <= best {
			best = t
			found = true
		}
	}
	for _, b := range w.boxes {
		if b.Layer&r.LayerMask == 0 {
			continue
		}
		if t, ok := rayBox(r.Origin, r.Dir, b.Min, b.Max); ok && t <= best {
			best = t
			found = true
		}
	}

	if !found {
		return posts.Hit{}
	}
	return posts.Hit{Point: r.Origin.Add(r.Dir.Scale(best))}
}

// raySphere returns the distance to the first intersection of the ray with
// the sphere, solving the usual quadratic. Rays starting inside hit the exit
// point.
func raySphere(origin, dir, center geom.Vec3, radius float64) (float64, bool) {
	oc := origin.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// rayBox is the slab method against an axis-aligned box.
func rayBox(origin, dir, lo, hi geom.Vec3) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	slab := func(o, d, lo, hi float64) bool {
		if d == 0 {
			return o >= lo && o <= hi
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		return tmin <= tmax
	}

	if !slab(origin.X, dir.X, lo.X, hi.X) ||
		!slab(origin.Y, dir.Y, lo.Y, hi.Y) ||
		!slab(origin.Z, dir.Z, lo.Z, hi.Z) {
		return 0, false
	}

	t := tmin
	if t < 0 {
		t = tmax // origin inside the box: hit the exit face
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}
