package engine

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/ringer/internal/falseness"
	"github.com/roach88/ringer/internal/graph"
	"github.com/roach88/ringer/internal/score"
)

const (
	// DefaultNumComps is the number of compositions kept when the search
	// parameters do not say.
	DefaultNumComps = 30

	// DefaultQueueLimit caps the frontier so memory use stays bounded.
	DefaultQueueLimit = 10_000_000

	// DefaultProgressInterval is the number of expansions between progress
	// log lines.
	DefaultProgressInterval = 1_000_000

	// slack absorbs rounding in bounds, so a node is never pruned by a
	// threshold it could tie.
	slack = 1e-9
)

// Engine searches one chunk graph. It holds no per-run state, so Run may
// be called more than once.
type Engine struct {
	graph    *graph.Graph
	numComps int
	workers  int

	maxNodes int64
	maxTime  time.Duration
	maxQueue int

	progressEvery int64
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of search workers.
//
// Default: runtime.NumCPU()
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithNodeLimit stops the search after n expansions. Zero is unlimited.
func WithNodeLimit(n int64) Option {
	return func(e *Engine) {
		e.maxNodes = n
	}
}

// WithTimeLimit stops the search after d of wall-clock time. Zero is
// unlimited.
func WithTimeLimit(d time.Duration) Option {
	return func(e *Engine) {
		e.maxTime = d
	}
}

// WithQueueLimit stops the search when more than n nodes are waiting in
// the frontier. Zero is unlimited.
//
// Default: 10,000,000 nodes (DefaultQueueLimit)
func WithQueueLimit(n int) Option {
	return func(e *Engine) {
		e.maxQueue = n
	}
}

// WithProgressInterval logs progress every n expansions. Zero disables
// progress lines.
func WithProgressInterval(n int64) Option {
	return func(e *Engine) {
		e.progressEvery = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics updated by the search.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock sets the wall clock used for the time limit and elapsed time.
// Used for testing.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine for g. The number of compositions kept is taken
// from g.Spec.NumComps.
func New(g *graph.Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:         g,
		numComps:      g.Spec.NumComps,
		workers:       runtime.NumCPU(),
		maxQueue:      DefaultQueueLimit,
		progressEvery: DefaultProgressInterval,
		logger:        slog.Default(),
		now:           time.Now,
	}
	if e.numComps <= 0 {
		e.numComps = DefaultNumComps
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Stats describes a finished search.
type Stats struct {
	// Nodes is the number of nodes expanded.
	Nodes int64
	// Found counts every composition that passed all checks, including
	// those that did not rank among the best.
	Found   int64
	Elapsed time.Duration
	// StopReason is "exhausted", "cancelled" or the name of the budget
	// that stopped the search.
	StopReason string
}

// Result is the outcome of a search.
type Result struct {
	// Compositions holds the best compositions, best first.
	Compositions []Composition
	Stats        Stats
}

// Run searches until the frontier is exhausted, a budget is reached or ctx
// is cancelled.
//
// The result is returned in every case but a fatal error. A budget stop
// returns a *BudgetExceededError and a cancellation returns ctx.Err(),
// both alongside the compositions found so far.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	g := e.graph
	s := &search{
		e:        e,
		g:        g,
		frontier: newFrontier(),
		results:  newResults(e.numComps),
		budget:   newBudget(e.maxNodes, e.maxTime, e.maxQueue, e.now),
	}

	e.logger.Info("search starting",
		"chunks", len(g.Chunks),
		"starts", len(g.Starts),
		"parts", g.Parts(),
		"part_length_min", g.PartLength.Min,
		"part_length_max", g.PartLength.Max,
		"workers", e.workers,
		"node_limit", e.maxNodes,
		"time_limit", e.maxTime,
		"queue_limit", e.maxQueue,
	)

	if err := ctx.Err(); err != nil {
		s.stop(err)
	} else if err := s.seed(); err != nil {
		return nil, err
	}

	eg, egctx := errgroup.WithContext(ctx)
	go func() {
		<-egctx.Done()
		if err := ctx.Err(); err != nil {
			s.stop(err)
		}
		s.frontier.Close()
	}()
	for i := 0; i < e.workers; i++ {
		eg.Go(func() error { return s.work(egctx) })
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	stopErr := s.stopped()
	if stopErr == nil {
		stopErr = ctx.Err()
	}
	res := &Result{
		Compositions: s.results.snapshot(),
		Stats: Stats{
			Nodes:      s.budget.Nodes(),
			Found:      s.found.Load(),
			Elapsed:    s.budget.Elapsed(),
			StopReason: stopReason(stopErr),
		},
	}
	e.metrics.Duration.Observe(res.Stats.Elapsed.Seconds())

	attrs := []any{
		"nodes", res.Stats.Nodes,
		"found", res.Stats.Found,
		"kept", len(res.Compositions),
		"elapsed", res.Stats.Elapsed.Round(time.Millisecond),
	}
	if stopErr != nil {
		e.logger.Warn("search stopped", append(attrs, "reason", res.Stats.StopReason)...)
	} else {
		e.logger.Info("search complete", attrs...)
	}
	return res, stopErr
}

func stopReason(err error) string {
	var be *BudgetExceededError
	switch {
	case err == nil:
		return "exhausted"
	case errors.As(err, &be):
		return string(be.Budget)
	default:
		return "cancelled"
	}
}

// search is the state of one Run.
type search struct {
	e        *Engine
	g        *graph.Graph
	frontier *frontier
	results  *results
	budget   *budget
	found    atomic.Int64

	mu      sync.Mutex
	stopErr error
}

// stop records the first reason the search must end and closes the
// frontier.
func (s *search) stop(err error) {
	s.mu.Lock()
	if s.stopErr == nil {
		s.stopErr = err
	}
	s.mu.Unlock()
	s.frontier.Close()
}

func (s *search) stopped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopErr
}

// seed pushes a node for every start chunk.
func (s *search) seed() error {
	g := s.g
	root := &node{
		chunk:       -1,
		counts:      make([]int, len(g.Methods)),
		unreachable: falseness.NewBitset(len(g.Chunks)),
	}
	children, err := s.expand(root, g.Starts)
	if err != nil {
		return err
	}
	s.frontier.Push(children...)
	return nil
}

func (s *search) work(ctx context.Context) error {
	for {
		n, ok := s.frontier.Pop()
		if !ok {
			return nil
		}
		err := s.step(ctx, n)
		s.frontier.Done()
		if err != nil {
			return err
		}
	}
}

func (s *search) step(ctx context.Context, n *node) error {
	if err := ctx.Err(); err != nil {
		s.stop(err)
		return nil
	}
	m := s.e.metrics
	if n.bound+slack < s.results.threshold() {
		m.Pruned.WithLabelValues(pruneBound).Inc()
		return nil
	}
	expanded, err := s.budget.Expand()
	if err != nil {
		s.stop(err)
		return nil
	}
	m.Expanded.Inc()

	children, err := s.expand(n, s.g.Chunks[n.chunk].Links)
	if err != nil {
		return err
	}
	queued := s.frontier.Push(children...)
	if queued < 0 {
		return nil
	}
	m.Frontier.Set(float64(queued))
	if err := s.budget.CheckQueue(queued); err != nil {
		s.stop(err)
	}

	if every := s.e.progressEvery; every > 0 && expanded%every == 0 {
		s.progress(expanded, queued)
	}
	return nil
}

func (s *search) progress(expanded int64, queued int) {
	attrs := []any{
		"nodes", expanded,
		"frontier", queued,
		"found", s.found.Load(),
		"elapsed", s.budget.Elapsed().Round(time.Millisecond),
	}
	if best, ok := s.results.best(); ok {
		attrs = append(attrs, "best", best, "threshold", s.results.threshold())
	}
	s.e.logger.Info("search progress", attrs...)
}

// expand follows every link out of n and returns the children worth
// queueing. Compositions completed along the way go straight into the
// result set.
func (s *search) expand(n *node, links []graph.Link) ([]*node, error) {
	var children []*node
	for _, l := range links {
		child, err := s.follow(n, l)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	return children, nil
}

// follow applies one link to p. It returns the child node, or nil when
// the link completes a part or the child is pruned.
func (s *search) follow(p *node, l graph.Link) (*node, error) {
	g := s.g
	m := s.e.metrics

	if l.To == graph.Terminal {
		var sc [2]float64
		for q := range sc {
			sc[q] = p.score[q] + l.Weight
		}
		return nil, s.complete(&step{link: l, prev: p.path}, p.length, sc, p.counts, p.rot+l.Rot)
	}

	c := &g.Chunks[l.To]
	if g.Falseness.IsFalse(p.unreachable, l.To) {
		m.Pruned.WithLabelValues(pruneFalse).Inc()
		return nil, nil
	}
	if p.length+c.DistToEnd > g.PartLength.Max {
		m.Pruned.WithLabelValues(pruneLength).Inc()
		return nil, nil
	}

	counts := make([]int, len(p.counts))
	copy(counts, p.counts)
	counts[c.Method] += c.Len * g.Parts()
	if counts[c.Method] > g.Score.MethodRange(c.Method).Max {
		m.Pruned.WithLabelValues(pruneMethodCount).Inc()
		return nil, nil
	}

	length := p.length + c.Len
	var sc [2]float64
	for q := range sc {
		sc[q] = p.score[q] + l.Weight + c.Score[q][p.length%2]
	}
	path := &step{link: l, prev: p.path}
	if c.End {
		return nil, s.complete(path, length, sc, counts, p.rot+l.Rot+c.EndRot)
	}

	unreachable := p.unreachable.Clone()
	g.Falseness.Mark(unreachable, l.To)
	child := &node{
		chunk:       l.To,
		rot:         p.rot + l.Rot,
		length:      length,
		score:       sc,
		counts:      counts,
		unreachable: unreachable,
		path:        path,
	}
	minRows := max(0, g.PartLength.Min-length, c.DistToEnd-c.Len)
	maxRows := g.PartLength.Max - length
	finish := g.FinishBound(l.To, minRows, maxRows)
	if math.IsInf(finish, -1) {
		m.Pruned.WithLabelValues(pruneLength).Inc()
		return nil, nil
	}
	child.bound = min(
		score.Bound(child.best(), g.MaxRate, minRows, maxRows, g.MaxLinkWeight),
		child.best()+finish,
	)
	if child.bound+slack < s.results.threshold() {
		m.Pruned.WithLabelValues(pruneBound).Inc()
		return nil, nil
	}
	return child, nil
}

// complete checks a finished first part and offers it to the result set.
func (s *search) complete(path *step, length int, sc [2]float64, counts []int, final int) error {
	g := s.g
	m := s.e.metrics

	if !g.PartLength.Contains(length) {
		m.Pruned.WithLabelValues(pruneLength).Inc()
		return nil
	}
	if !g.Course.Parts.IsGenerator(final) {
		m.Pruned.WithLabelValues(pruneRejected).Inc()
		return nil
	}
	if g.Score.CheckMethodCounts(counts) >= 0 {
		m.Pruned.WithLabelValues(pruneMethodCount).Inc()
		return nil
	}
	total := sc[length%2]
	if total+slack < s.results.threshold() && !g.Score.StrokeSensitive() {
		m.Pruned.WithLabelValues(pruneBound).Inc()
		return nil
	}

	comp, ok, err := compose(g, path.links(), length, total, counts)
	if err != nil {
		return err
	}
	if !ok {
		m.Pruned.WithLabelValues(pruneRejected).Inc()
		return nil
	}
	s.found.Add(1)
	m.Compositions.Inc()
	if s.results.insert(comp) {
		s.e.logger.Debug("composition found",
			"score", comp.Score,
			"length", comp.Length,
			"calls", comp.CallString,
		)
	}
	return nil
}
