package sim

import "github.com/banshee-data/ballcluster/internal/ballcluster"

// EnableRule decides which clusters are active. Balls in clusters with
// fewer than MinMembers members are frozen until their cluster grows.
// Balls younger than GraceSecs are never frozen, so freshly spawned balls
// get time to find contacts before the rule applies to them.
type EnableRule struct {
	MinMembers int
	GraceSecs  float64
}

// Enabled reports whether a cluster passes the rule.
func (r EnableRule) Enabled(c ballcluster.Cluster) bool {
	return c.Size() >= r.MinMembers
}

// ApplyEnabled freezes every ball whose cluster fails rule and releases
// every ball whose cluster passes or that is still within its grace
// period. Balls absent from res are left alone. It returns the number of
// moving and frozen balls.
func (w *World) ApplyEnabled(res *ballcluster.Result, rule EnableRule) (enabled, frozen int) {
	res.Range(func(_ int, c ballcluster.Cluster) bool {
		on := rule.Enabled(c)
		for _, id := range c.Members {
			b, ok := w.balls[id]
			if !ok {
				continue
			}
			freeze := !on && w.elapsed-b.born >= rule.GraceSecs
			w.SetFrozen(id, freeze)
			if freeze {
				frozen++
			} else {
				enabled++
			}
		}
		return true
	})
	return enabled, frozen
}
