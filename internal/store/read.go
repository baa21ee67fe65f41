package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ListRuns returns every archived run, oldest first. With a non-empty
// searchHash only runs of that search are returned.
// Results are ordered deterministically: ORDER BY id COLLATE BINARY.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ListRuns(ctx context.Context, searchHash string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, config_path, search_hash, started_at, elapsed_ms, nodes, stop_reason, engine_version
		FROM runs
		WHERE ? = '' OR search_hash = ?
		ORDER BY id COLLATE BINARY ASC
	`, searchHash, searchHash)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, config_path, search_hash, started_at, elapsed_ms, nodes, stop_reason, engine_version
		FROM runs
		WHERE id = ?
	`, id)
	return scanRun(row)
}

// ListCompositions returns the compositions a run found, best first.
// Results are ordered deterministically: ORDER BY rank ASC, id COLLATE BINARY.
//
// Returns an empty slice (not nil) if the run found nothing.
func (s *Store) ListCompositions(ctx context.Context, runID string) ([]Composition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.stage, c.part_head, c.methods, c.length, c.call_string,
		       r.rank, r.score, r.avg_score, r.method_counts, r.music_counts
		FROM run_results r
		JOIN compositions c ON c.id = r.composition_id
		WHERE r.run_id = ?
		ORDER BY r.rank ASC, c.id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query compositions: %w", err)
	}
	defer rows.Close()

	comps := []Composition{}
	for rows.Next() {
		var (
			c                                  Composition
			methods, methodCounts, musicCounts string
		)
		if err := rows.Scan(&c.ID, &c.Stage, &c.PartHead, &methods, &c.Length, &c.CallString,
			&c.Rank, &c.Score, &c.AvgScore, &methodCounts, &musicCounts); err != nil {
			return nil, fmt.Errorf("scan composition: %w", err)
		}
		if c.Methods, err = unmarshalStrings(methods); err != nil {
			return nil, err
		}
		if c.MethodCounts, err = unmarshalInts(methodCounts); err != nil {
			return nil, err
		}
		if c.MusicCounts, err = unmarshalInts(musicCounts); err != nil {
			return nil, err
		}
		comps = append(comps, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compositions: %w", err)
	}
	return comps, nil
}

// CountFinds returns how many archived runs found a composition.
func (s *Store) CountFinds(ctx context.Context, compositionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM run_results WHERE composition_id = ?
	`, compositionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count finds: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run       Run
		startedAt string
		elapsedMS int64
	)
	err := sc.Scan(&run.ID, &run.ConfigPath, &run.SearchHash, &startedAt, &elapsedMS,
		&run.Nodes, &run.StopReason, &run.EngineVersion)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedAt, err)
	}
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	return run, nil
}
