package l1snapshot

import "math"

// EntityID is the opaque reference the simulation uses for a ball. The
// engine never interprets it beyond equality and ordering.
type EntityID uint64

// Vec2 is a 2-D position or extent in world units.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Entity is one ball as read from the simulation this tick.
type Entity struct {
	ID       EntityID
	Position Vec2
	Radius   float64 // must be > 0 to take part in contact tests
	Category int     // material/colour index, >= 0
}

// Valid reports whether the entity can take part in contact tests.
// NaN radii are rejected along with non-positive ones.
func (e Entity) Valid() bool {
	return e.Radius > 0
}

// Area returns the disc area, or 0 for an invalid entity.
func (e Entity) Area() float64 {
	if !e.Valid() {
		return 0
	}
	return math.Pi * e.Radius * e.Radius
}

// Min returns the lower-left corner of the entity's disc extent.
// Invalid entities collapse to their centre.
func (e Entity) Min() Vec2 {
	if !e.Valid() {
		return e.Position
	}
	return e.Position.Sub(Vec2{X: e.Radius, Y: e.Radius})
}

// Max returns the upper-right corner of the entity's disc extent.
func (e Entity) Max() Vec2 {
	if !e.Valid() {
		return e.Position
	}
	return e.Position.Add(Vec2{X: e.Radius, Y: e.Radius})
}
