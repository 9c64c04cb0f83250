package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ballcluster/internal/ballcluster"
)

// ErrRunNotFound is returned when a run ID has no row.
var ErrRunNotFound = errors.New("run not found")

// Run describes one recorded simulation session.
type Run struct {
	RunID           string  `json:"run_id"`
	Label           string  `json:"label"`
	Version         string  `json:"version"`
	DetachThreshold float64 `json:"detach_threshold"`
	MinCellSize     float64 `json:"min_cell_size"`
	CreatedAt       int64   `json:"created_at"` // unix nanoseconds
}

// TickSummary is the per-tick summary row.
type TickSummary struct {
	Tick         uint64  `json:"tick"`
	SimTime      float64 `json:"sim_time"`
	EntityCount  int     `json:"entity_count"`
	ClusterCount int     `json:"cluster_count"`
	LargestSize  int     `json:"largest_size"`
}

// ClusterStore persists runs, tick summaries and cluster rows.
type ClusterStore struct {
	db *sql.DB
}

// NewClusterStore creates a store over a migrated database handle.
func NewClusterStore(db *sql.DB) *ClusterStore {
	return &ClusterStore{db: db}
}

// CreateRun inserts a new run and returns it with a fresh UUID.
func (s *ClusterStore) CreateRun(label, version string, cfg ballcluster.Config) (*Run, error) {
	run := &Run{
		RunID:           uuid.New().String(),
		Label:           label,
		Version:         version,
		DetachThreshold: cfg.DetachThreshold,
		MinCellSize:     cfg.MinCellSize,
		CreatedAt:       time.Now().UnixNano(),
	}
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO cluster_runs (run_id, label, version, detach_threshold, min_cell_size, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.RunID, run.Label, run.Version, run.DetachThreshold, run.MinCellSize, run.CreatedAt)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// GetRun returns a run by ID.
func (s *ClusterStore) GetRun(runID string) (*Run, error) {
	var r Run
	err := s.db.QueryRow(`
		SELECT run_id, label, version, detach_threshold, min_cell_size, created_at
		FROM cluster_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Label, &r.Version, &r.DetachThreshold, &r.MinCellSize, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}

// RecordTick stores a published result under runID. Recording the same
// tick twice replaces the earlier rows.
func (s *ClusterStore) RecordTick(runID string, res *ballcluster.Result) error {
	largest := 0
	if i := res.Largest(); i >= 0 {
		largest = res.At(i).Size()
	}

	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM cluster_ticks WHERE run_id = ? AND tick = ?`, runID, res.Tick); err != nil {
			return fmt.Errorf("clear tick: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO cluster_ticks (run_id, tick, sim_time, entity_count, cluster_count, largest_size)
			VALUES (?, ?, ?, ?, ?, ?)`,
			runID, res.Tick, res.Time, res.EntityCount(), res.Len(), largest); err != nil {
			return fmt.Errorf("insert tick: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO cluster_tick_clusters (
				run_id, tick, position, cluster_id, category, member_count, members,
				min_x, min_y, max_x, max_y, centroid_x, centroid_y, total_area
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare cluster insert: %w", err)
		}
		defer stmt.Close()

		var insertErr error
		res.Range(func(i int, c ballcluster.Cluster) bool {
			_, insertErr = stmt.Exec(
				runID, res.Tick, i, uint64(c.ClusterID), c.Category, c.Size(), encodeMembers(c.Members),
				c.BoundingMin.X, c.BoundingMin.Y, c.BoundingMax.X, c.BoundingMax.Y,
				c.Centroid.X, c.Centroid.Y, c.TotalArea)
			return insertErr == nil
		})
		if insertErr != nil {
			return fmt.Errorf("insert cluster: %w", insertErr)
		}
		return tx.Commit()
	})
}

// ListTicks returns the tick summaries of a run in tick order.
func (s *ClusterStore) ListTicks(runID string) ([]TickSummary, error) {
	rows, err := s.db.Query(`
		SELECT tick, sim_time, entity_count, cluster_count, largest_size
		FROM cluster_ticks WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ticks: %w", err)
	}
	defer rows.Close()

	var out []TickSummary
	for rows.Next() {
		var ts TickSummary
		if err := rows.Scan(&ts.Tick, &ts.SimTime, &ts.EntityCount, &ts.ClusterCount, &ts.LargestSize); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// GetTickClusters returns the clusters recorded for one tick, in their
// published order.
func (s *ClusterStore) GetTickClusters(runID string, tick uint64) ([]ballcluster.Cluster, error) {
	rows, err := s.db.Query(`
		SELECT cluster_id, category, members, min_x, min_y, max_x, max_y,
		       centroid_x, centroid_y, total_area
		FROM cluster_tick_clusters
		WHERE run_id = ? AND tick = ?
		ORDER BY position`, runID, tick)
	if err != nil {
		return nil, fmt.Errorf("query clusters: %w", err)
	}
	defer rows.Close()

	var out []ballcluster.Cluster
	for rows.Next() {
		var (
			c       ballcluster.Cluster
			id      uint64
			members string
		)
		if err := rows.Scan(&id, &c.Category, &members,
			&c.BoundingMin.X, &c.BoundingMin.Y, &c.BoundingMax.X, &c.BoundingMax.Y,
			&c.Centroid.X, &c.Centroid.Y, &c.TotalArea); err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		c.ClusterID = ballcluster.ClusterID(id)
		if c.Members, err = decodeMembers(members); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and, through cascading keys, all its ticks.
func (s *ClusterStore) DeleteRun(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM cluster_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

func encodeMembers(ids []ballcluster.EntityID) string {
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return b.String()
}

func decodeMembers(s string) ([]ballcluster.EntityID, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]ballcluster.EntityID, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode members %q: %w", s, err)
		}
		ids[i] = ballcluster.EntityID(v)
	}
	return ids, nil
}
