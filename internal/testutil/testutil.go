// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common ball fixtures and assertions to reduce
// code duplication across the clustering, simulation and storage tests.
package testutil

import (
	"math"
	"math/rand"
	"testing"

	"github.com/banshee-data/ballcluster/internal/ballcluster/l1snapshot"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear fails the test if got and want differ by more than tol.
func AssertNear(t testing.TB, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("got %v, want %v (±%v)", got, want, tol)
	}
}

// Ball builds an entity.
func Ball(id uint64, x, y, radius float64, category int) l1snapshot.Entity {
	return l1snapshot.Entity{
		ID:       l1snapshot.EntityID(id),
		Position: l1snapshot.Vec2{X: x, Y: y},
		Radius:   radius,
		Category: category,
	}
}

// Row builds one ball per x coordinate along y, with consecutive IDs
// starting at firstID.
func Row(firstID uint64, y, radius float64, category int, xs ...float64) []l1snapshot.Entity {
	out := make([]l1snapshot.Entity, len(xs))
	for i, x := range xs {
		out[i] = Ball(firstID+uint64(i), x, y, radius, category)
	}
	return out
}

// RandomEntities scatters n balls uniformly over [0, extent)² with radii in
// [minR, maxR] and categories in [0, categories). IDs run from 1 to n.
func RandomEntities(rng *rand.Rand, n, categories int, extent, minR, maxR float64) []l1snapshot.Entity {
	out := make([]l1snapshot.Entity, n)
	for i := range out {
		r := minR + rng.Float64()*(maxR-minR)
		out[i] = Ball(uint64(i+1), rng.Float64()*extent, rng.Float64()*extent, r, rng.Intn(categories))
	}
	return out
}

// Shuffled returns a shuffled copy of entities.
func Shuffled(rng *rand.Rand, entities []l1snapshot.Entity) []l1snapshot.Entity {
	out := append([]l1snapshot.Entity(nil), entities...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
