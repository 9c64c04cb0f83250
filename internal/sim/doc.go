// Package sim is the physics collaborator that feeds the clustering
// engine: a Chipmunk2D space of circular balls in a walled arena, the
// scenarios that populate it, and the enable rule that freezes balls
// belonging to clusters that are too small.
//
// The engine never imports this package. The runner reads a snapshot from
// the World after each physics step, hands it to a ballcluster.Clusterer,
// and applies the published result back to the World.
package sim
