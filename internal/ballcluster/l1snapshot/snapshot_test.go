package l1snapshot

import (
	"math"
	"testing"
)

func ball(id uint64, x, y, r float64, cat int) Entity {
	return Entity{ID: EntityID(id), Position: Vec2{X: x, Y: y}, Radius: r, Category: cat}
}

func TestSnapshot_LoadSortsByID(t *testing.T) {
	in := []Entity{ball(3, 0, 0, 1, 0), ball(1, 5, 0, 2, 0), ball(2, 9, 0, 1, 1)}
	s := NewSnapshot(in)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i, want := range []EntityID{1, 2, 3} {
		if s.Entities[i].ID != want {
			t.Errorf("Entities[%d].ID = %d, want %d", i, s.Entities[i].ID, want)
		}
	}
	if s.MaxRadius != 2 {
		t.Errorf("MaxRadius = %f, want 2", s.MaxRadius)
	}
	if in[0].ID != 3 {
		t.Error("Load modified the caller's slice")
	}
}

func TestSnapshot_DuplicatesKeepFirst(t *testing.T) {
	s := NewSnapshot([]Entity{ball(1, 0, 0, 1, 0), ball(2, 1, 0, 1, 0), ball(1, 99, 99, 1, 0)})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", s.Duplicates)
	}
	if s.Entities[0].Position.X != 0 {
		t.Errorf("kept duplicate at x=%f, want first occurrence at x=0", s.Entities[0].Position.X)
	}
}

func TestSnapshot_InvalidRadius(t *testing.T) {
	s := NewSnapshot([]Entity{
		ball(1, 0, 0, 0, 0),
		ball(2, 0, 0, -3, 0),
		ball(3, 0, 0, math.NaN(), 0),
		ball(4, 0, 0, 1.5, 0),
	})

	if s.Invalid != 3 {
		t.Errorf("Invalid = %d, want 3", s.Invalid)
	}
	if s.MaxRadius != 1.5 {
		t.Errorf("MaxRadius = %f, want 1.5 (invalid radii ignored)", s.MaxRadius)
	}
}

func TestSnapshot_ReuseClearsState(t *testing.T) {
	s := NewSnapshot([]Entity{ball(1, 0, 0, 4, 0), ball(1, 0, 0, 4, 0), ball(2, 0, 0, 0, 0)})
	s.Load(nil)

	if s.Len() != 0 || s.MaxRadius != 0 || s.Invalid != 0 || s.Duplicates != 0 {
		t.Errorf("snapshot not reset: %+v", s)
	}
}

func TestEntity_Geometry(t *testing.T) {
	e := ball(1, 10, -4, 2, 0)

	if got, want := e.Area(), 4*math.Pi; math.Abs(got-want) > 1e-12 {
		t.Errorf("Area() = %f, want %f", got, want)
	}
	if got := e.Min(); got != (Vec2{X: 8, Y: -6}) {
		t.Errorf("Min() = %+v", got)
	}
	if got := e.Max(); got != (Vec2{X: 12, Y: -2}) {
		t.Errorf("Max() = %+v", got)
	}

	bad := ball(2, 3, 3, 0, 0)
	if bad.Area() != 0 {
		t.Errorf("invalid Area() = %f, want 0", bad.Area())
	}
	if bad.Min() != bad.Position || bad.Max() != bad.Position {
		t.Error("invalid entity extent should collapse to its centre")
	}
}

func TestVec2_Arithmetic(t *testing.T) {
	a, b := Vec2{X: 1, Y: 2}, Vec2{X: 3, Y: 5}
	if got := a.Add(b); got != (Vec2{X: 4, Y: 7}) {
		t.Errorf("Add = %+v", got)
	}
	if got := b.Sub(a); got != (Vec2{X: 2, Y: 3}) {
		t.Errorf("Sub = %+v", got)
	}
}
