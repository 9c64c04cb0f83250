package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
)

// wallThickness is the radius of the arena's static segments.
const wallThickness = 2.0

// density converts disc area to body mass.
const density = 0.01

// Ball describes one ball to place in the world.
type Ball struct {
	ID       ballcluster.EntityID `yaml:"id"`
	X        float64              `yaml:"x"`
	Y        float64              `yaml:"y"`
	VX       float64              `yaml:"vx,omitempty"`
	VY       float64              `yaml:"vy,omitempty"`
	Radius   float64              `yaml:"radius"`
	Category int                  `yaml:"category"`
}

type ball struct {
	body     *cp.Body
	shape    *cp.Shape
	radius   float64
	category int
	frozen   bool
	pin      cp.Vector
	born     float64
}

// World is a physics space of circular balls inside a rectangular arena.
// It is not safe for concurrent use.
type World struct {
	space      *cp.Space
	width      float64
	height     float64
	elasticity float64
	friction   float64
	elapsed    float64

	balls map[ballcluster.EntityID]*ball
	ids   []ballcluster.EntityID // sorted
}

// NewWorld creates an empty arena of the given size. Gravity acts along Y;
// negative values pull toward the floor at y=0.
func NewWorld(width, height, gravity, elasticity, friction float64) (*World, error) {
	if !(width > 0) || !(height > 0) {
		return nil, fmt.Errorf("arena must have positive size, got %fx%f", width, height)
	}

	space := cp.NewSpace()
	space.Iterations = 20
	space.SetGravity(cp.Vector{X: 0, Y: gravity})

	w := &World{
		space:      space,
		width:      width,
		height:     height,
		elasticity: elasticity,
		friction:   friction,
		balls:      make(map[ballcluster.EntityID]*ball),
	}
	w.addWalls()
	return w, nil
}

func (w *World) addWalls() {
	segments := []struct {
		a cp.Vector
		b cp.Vector
	}{
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: w.width, Y: 0}},               // floor
		{a: cp.Vector{X: 0, Y: w.height}, b: cp.Vector{X: w.width, Y: w.height}}, // ceiling
		{a: cp.Vector{X: 0, Y: 0}, b: cp.Vector{X: 0, Y: w.height}},              // left
		{a: cp.Vector{X: w.width, Y: 0}, b: cp.Vector{X: w.width, Y: w.height}},  // right
	}
	for _, seg := range segments {
		shape := cp.NewSegment(w.space.StaticBody, seg.a, seg.b, wallThickness)
		shape.SetFriction(w.friction)
		shape.SetElasticity(w.elasticity)
		w.space.AddShape(shape)
	}
}

// Size returns the arena width and height.
func (w *World) Size() (float64, float64) { return w.width, w.height }

// Len returns the number of live balls.
func (w *World) Len() int { return len(w.balls) }

// Spawn adds a ball. IDs must be unique among live balls and radii positive.
func (w *World) Spawn(b Ball) error {
	if _, exists := w.balls[b.ID]; exists {
		return fmt.Errorf("ball %d already exists", b.ID)
	}
	if !(b.Radius > 0) || math.IsInf(b.Radius, 0) {
		return fmt.Errorf("ball %d: radius must be positive, got %f", b.ID, b.Radius)
	}
	if b.Category < 0 {
		return fmt.Errorf("ball %d: category must be non-negative, got %d", b.ID, b.Category)
	}

	mass := density * math.Pi * b.Radius * b.Radius
	body := cp.NewBody(mass, cp.MomentForCircle(mass, 0, b.Radius, cp.Vector{}))
	body.SetPosition(cp.Vector{X: b.X, Y: b.Y})
	body.SetVelocityVector(cp.Vector{X: b.VX, Y: b.VY})

	shape := cp.NewCircle(body, b.Radius, cp.Vector{})
	shape.SetFriction(w.friction)
	shape.SetElasticity(w.elasticity)

	w.space.AddBody(body)
	w.space.AddShape(shape)

	w.balls[b.ID] = &ball{body: body, shape: shape, radius: b.Radius, category: b.Category, born: w.elapsed}
	i := sort.Search(len(w.ids), func(i int) bool { return w.ids[i] >= b.ID })
	w.ids = append(w.ids, 0)
	copy(w.ids[i+1:], w.ids[i:])
	w.ids[i] = b.ID

	tracef("spawned ball %d r=%.2f cat=%d at (%.1f, %.1f)", b.ID, b.Radius, b.Category, b.X, b.Y)
	return nil
}

// Despawn removes a ball and reports whether it existed.
func (w *World) Despawn(id ballcluster.EntityID) bool {
	b, ok := w.balls[id]
	if !ok {
		return false
	}
	w.space.RemoveShape(b.shape)
	w.space.RemoveBody(b.body)
	delete(w.balls, id)

	i := sort.Search(len(w.ids), func(i int) bool { return w.ids[i] >= id })
	w.ids = append(w.ids[:i], w.ids[i+1:]...)
	tracef("despawned ball %d", id)
	return true
}

// Step advances the physics by dt seconds. Frozen balls stay pinned where
// they were frozen.
func (w *World) Step(dt float64) {
	for _, id := range w.ids {
		if b := w.balls[id]; b.frozen {
			b.body.SetVelocityVector(cp.Vector{})
		}
	}
	w.space.Step(dt)
	w.elapsed += dt
	for _, id := range w.ids {
		if b := w.balls[id]; b.frozen {
			b.body.SetPosition(b.pin)
			b.body.SetVelocityVector(cp.Vector{})
		}
	}
}

// Snapshot returns the live balls as engine entities, ordered by ID.
func (w *World) Snapshot() []ballcluster.Entity {
	return w.AppendSnapshot(nil)
}

// AppendSnapshot appends the live balls to dst and returns it.
func (w *World) AppendSnapshot(dst []ballcluster.Entity) []ballcluster.Entity {
	for _, id := range w.ids {
		b := w.balls[id]
		p := b.body.Position()
		dst = append(dst, ballcluster.Entity{
			ID:       id,
			Position: ballcluster.Vec2{X: p.X, Y: p.Y},
			Radius:   b.radius,
			Category: b.category,
		})
	}
	return dst
}

// Position returns a ball's centre.
func (w *World) Position(id ballcluster.EntityID) (ballcluster.Vec2, bool) {
	b, ok := w.balls[id]
	if !ok {
		return ballcluster.Vec2{}, false
	}
	p := b.body.Position()
	return ballcluster.Vec2{X: p.X, Y: p.Y}, true
}

// Elapsed returns the physics time stepped so far.
func (w *World) Elapsed() float64 { return w.elapsed }

// Age returns how long a ball has been in the world.
func (w *World) Age(id ballcluster.EntityID) (float64, bool) {
	b, ok := w.balls[id]
	if !ok {
		return 0, false
	}
	return w.elapsed - b.born, true
}

// Frozen reports whether a ball is currently frozen.
func (w *World) Frozen(id ballcluster.EntityID) bool {
	b, ok := w.balls[id]
	return ok && b.frozen
}

// SetFrozen freezes or releases a ball. A frozen ball keeps its current
// position until released.
func (w *World) SetFrozen(id ballcluster.EntityID, frozen bool) bool {
	b, ok := w.balls[id]
	if !ok {
		return false
	}
	if frozen && !b.frozen {
		b.pin = b.body.Position()
		b.body.SetVelocityVector(cp.Vector{})
	}
	b.frozen = frozen
	return true
}
