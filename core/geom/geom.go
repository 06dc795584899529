// Package geom provides the minimal 3D vector math used by the post-query
// scheduler. Vectors are plain values; every operation returns a new vector.
// The vertical axis is Y.
package geom

import "math"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns the unit vector pointing in the direction of v.
// The zero vector normalizes to the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// RotateY rotates v about the vertical axis by rad radians.
func (v Vec3) RotateY(rad float64) Vec3 {
	sin, cos := math.Sincos(rad)
	return Vec3{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

func (v Vec3) IsZero() bool {
	return v == Vec3{}
}

// AngleBetween returns the unsigned angle between a and b in radians.
func AngleBetween(a, b Vec3) float64 {
	d := a.Length() * b.Length()
	if d == 0 {
		return 0
	}
	// Clamp against float drift before acos.
	c := a.Dot(b) / d
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
