package store

import (
	"context"

	"github.com/roach88/ringer/internal/engine"
	"github.com/roach88/ringer/internal/graph"
)

// WriteResult archives a finished search: the run, with its statistics
// taken from res, and every composition res kept, ranked from 1.
func (s *Store) WriteResult(ctx context.Context, run Run, g *graph.Graph, res *engine.Result) error {
	run.Elapsed = res.Stats.Elapsed
	run.Nodes = res.Stats.Nodes
	run.StopReason = res.Stats.StopReason
	if err := s.WriteRun(ctx, run); err != nil {
		return err
	}
	return s.WriteCompositions(ctx, run.ID, fromResult(g, res))
}

func fromResult(g *graph.Graph, res *engine.Result) []Composition {
	titles := make([]string, len(g.Methods))
	for i, m := range g.Methods {
		titles[i] = m.Title
	}
	comps := make([]Composition, len(res.Compositions))
	for i := range res.Compositions {
		c := &res.Compositions[i]
		comps[i] = Composition{
			ID:           c.ID,
			Stage:        int(g.Stage),
			PartHead:     c.PartHead.String(),
			Methods:      titles,
			Length:       c.Length,
			CallString:   c.CallString,
			Rank:         i + 1,
			Score:        c.Score,
			AvgScore:     c.AvgScore,
			MethodCounts: c.MethodCounts,
			MusicCounts:  c.MusicCounts,
		}
	}
	return comps
}
