package store

import (
	"context"
	"fmt"
	"time"
)

// WriteRun inserts a run record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a duplicate ID is
// silently ignored.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, config_path, search_hash, started_at, elapsed_ms, nodes, stop_reason, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.ConfigPath,
		run.SearchHash,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Elapsed.Milliseconds(),
		run.Nodes,
		run.StopReason,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteCompositions records the compositions a run found, in one
// transaction. Compositions already archived by an earlier run are not
// duplicated; only the link to this run is added.
//
// Note: The run must already exist (foreign key constraint).
func (s *Store) WriteCompositions(ctx context.Context, runID string, comps []Composition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write compositions: %w", err)
	}
	defer tx.Rollback()

	insertComp, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO compositions
		(id, stage, part_head, methods, length, call_string)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write compositions: %w", err)
	}
	defer insertComp.Close()

	insertResult, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO run_results
		(run_id, composition_id, rank, score, avg_score, method_counts, music_counts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write compositions: %w", err)
	}
	defer insertResult.Close()

	for _, c := range comps {
		methods, err := marshalStrings(c.Methods)
		if err != nil {
			return fmt.Errorf("write composition %s: %w", c.ID, err)
		}
		methodCounts, err := marshalInts(c.MethodCounts)
		if err != nil {
			return fmt.Errorf("write composition %s: %w", c.ID, err)
		}
		musicCounts, err := marshalInts(c.MusicCounts)
		if err != nil {
			return fmt.Errorf("write composition %s: %w", c.ID, err)
		}

		if _, err := insertComp.ExecContext(ctx, c.ID, c.Stage, c.PartHead, methods, c.Length, c.CallString); err != nil {
			return fmt.Errorf("write composition %s: %w", c.ID, err)
		}
		if _, err := insertResult.ExecContext(ctx, runID, c.ID, c.Rank, c.Score, c.AvgScore, methodCounts, musicCounts); err != nil {
			return fmt.Errorf("write composition %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write compositions: %w", err)
	}
	return nil
}
