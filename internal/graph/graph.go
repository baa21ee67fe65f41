// Package graph builds the chunk graph searched by the engine.
//
// A chunk is an indivisible run of rows: one method, from a lead location
// (or a start index) up to the next lead location, inside one course. The
// graph holds every chunk reachable from rounds, the links between them
// (plain, call and splice transitions) and the chunks that end a part.
// Chunks are identified by a canonical course head, so rows that differ
// only by a part head map to the same chunk and the search only has to
// compose one part.
package graph

import (
	"fmt"
	"math"

	"github.com/roach88/ringer/internal/call"
	"github.com/roach88/ringer/internal/course"
	"github.com/roach88/ringer/internal/falseness"
	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/method"
	"github.com/roach88/ringer/internal/row"
	"github.com/roach88/ringer/internal/score"
)

// DefaultSizeLimit is the largest number of chunks Build will create.
const DefaultSizeLimit = 100000

// Terminal is the target of a link whose next row closes the part.
const Terminal = -1

// Options configures Build.
type Options struct {
	// SizeLimit caps the number of chunks. Zero means DefaultSizeLimit.
	SizeLimit int
}

// Link is a transition out of a chunk, or into a start chunk.
type Link struct {
	// To is the index of the next chunk, or Terminal.
	To int
	// Rot is added to the part-head power tracked by the search. For a
	// Terminal link it is the power of the part head reached.
	Rot int
	// Call is the index into the call table, or -1 for a plain lead.
	Call int
	// Splice is true when the method changes.
	Splice bool
	// Weight is the call and splice weight over every part.
	Weight float64
	// Position is the calling position of the call, if any.
	Position string
}

// IsCall reports whether the link makes a call.
func (l Link) IsCall() bool { return l.Call >= 0 }

// Chunk is one block of rows in the first part of a composition.
type Chunk struct {
	Method int
	// Head is the canonical course head (lead head when leadwise).
	Head row.Row
	// Index is the position of the first row in the plain course (or lead).
	Index int
	Len   int
	// End is true for chunks that finish a part after their last row.
	End bool
	// EndRot is the power of the part head reached after an end chunk.
	EndRot int

	Rows  []row.Row
	Score score.Table
	// Ceiling bounds Score whatever stroke each part starts at.
	Ceiling float64
	Links   []Link
	// DistToEnd is the fewest rows, this chunk's included, needed to
	// finish the part from the start of this chunk.
	DistToEnd int
	// FinishCost is the least reduced cost of finishing the part after
	// this chunk, ignoring length and falseness. +Inf if it cannot finish.
	FinishCost float64
}

// Graph is the immutable context shared by every search worker.
type Graph struct {
	Spec      *ir.SearchSpec
	Stage     row.Stage
	Methods   []*method.Method
	Calls     *call.Table
	Course    *course.Model
	Score     *score.Aggregator
	Falseness *falseness.Table

	Chunks []Chunk
	Starts []Link

	// PartLength is the allowed number of rows in one part.
	PartLength ir.Length
	// MaxRate bounds the score any remaining row can add, links included.
	MaxRate float64
	// MaxLinkWeight is the largest weight of any single link.
	MaxLinkWeight float64

	finishRate  float64
	runLength   int
	freeRun     []int
	runCost     float64
	closeCredit float64
}

// Parts returns the number of parts.
func (g *Graph) Parts() int { return g.Course.Parts.Size() }

// LeadIndex returns the index within the lead of chunk ci's first row.
func (g *Graph) LeadIndex(ci int) int {
	c := &g.Chunks[ci]
	return c.Index % g.Methods[c.Method].LeadLen()
}

// Build expands the methods and calls in spec and explores every chunk
// reachable from rounds that can still come round within the length
// limit.
func Build(spec *ir.SearchSpec, opts Options) (*Graph, error) {
	if opts.SizeLimit <= 0 {
		opts.SizeLimit = DefaultSizeLimit
	}

	methods, err := expandMethods(spec)
	if err != nil {
		return nil, err
	}
	stage := methods[0].Stage()

	calls, err := call.BuildTable(spec.Calls, spec.BaseCalls, spec.BobWeight, spec.SingleWeight, methods)
	if err != nil {
		return nil, err
	}
	model, err := course.Build(spec, stage)
	if err != nil {
		return nil, err
	}
	agg, err := score.New(spec, stage, model.Parts)
	if err != nil {
		return nil, err
	}

	n := model.Parts.Size()
	partLen := ir.Length{Min: (spec.Length.Min + n - 1) / n, Max: spec.Length.Max / n}
	if spec.Length.Max <= 0 || partLen.Min > partLen.Max {
		return nil, ir.NewConfigError("length", fmt.Sprintf("%d..%d", spec.Length.Min, spec.Length.Max),
			fmt.Sprintf("no length in range is a multiple of the %d parts", n))
	}

	g := &Graph{
		Spec:       spec,
		Stage:      stage,
		Methods:    methods,
		Calls:      calls,
		Course:     model,
		Score:      agg,
		PartLength: partLen,
	}
	b := newBuilder(g, opts.SizeLimit)
	if err := b.explore(); err != nil {
		return nil, err
	}
	if err := b.finish(); err != nil {
		return nil, err
	}
	return g, nil
}

func expandMethods(spec *ir.SearchSpec) ([]*method.Method, error) {
	if len(spec.Methods) == 0 {
		return nil, ir.NewConfigError("methods", "", "at least one method is required")
	}
	methods := make([]*method.Method, len(spec.Methods))
	shorthands := make(map[string]string)
	for i, ms := range spec.Methods {
		m, err := method.Expand(ms)
		if err != nil {
			return nil, err
		}
		if m.Stage() != row.Stage(spec.Methods[0].Stage) {
			return nil, ir.NewConfigError(fmt.Sprintf("methods[%d].stage", i), fmt.Sprint(ms.Stage),
				fmt.Sprintf("every method must have stage %d", spec.Methods[0].Stage))
		}
		if other, ok := shorthands[m.Shorthand]; ok && len(spec.Methods) > 1 {
			return nil, ir.NewConfigError(fmt.Sprintf("methods[%d].shorthand", i), m.Shorthand,
				fmt.Sprintf("shorthand is already used by %q", other))
		}
		shorthands[m.Shorthand] = m.Title
		methods[i] = m
	}
	return methods, nil
}

// frame is the table of rows a chunk indexes into: the plain course when
// tracking coursewise, one lead when tracking leadwise.
type frame struct {
	rows  []row.Row
	inv   []row.Row
	wrap  row.Row
	leads int
}

func newFrame(m *method.Method, leadwise bool) frame {
	f := frame{rows: m.PlainCourse(), wrap: row.Rounds(m.Stage()), leads: m.LeadsPerCourse()}
	if leadwise {
		f = frame{rows: m.Lead(), wrap: m.LeadHead(), leads: 1}
	}
	f.inv = make([]row.Row, len(f.rows))
	for i, r := range f.rows {
		f.inv[i] = r.Inv()
	}
	return f
}

// at returns row j of the frame started from head.
func (f *frame) at(head row.Row, j int) row.Row {
	if j >= len(f.rows) {
		return row.Mul(row.Mul(head, f.wrap), f.rows[j-len(f.rows)])
	}
	return row.Mul(head, f.rows[j])
}

type builder struct {
	g      *Graph
	frames []frame
	limit  int

	startIdx [][]int
	endIdx   []map[int]bool

	chunks     []Chunk
	prefixEnds [][]int
	index      map[string]int
	queue      []int
}

func newBuilder(g *Graph, limit int) *builder {
	b := &builder{g: g, limit: limit, index: make(map[string]int)}
	spec := g.Spec

	starts := spec.StartIndices
	if len(starts) == 0 {
		starts = []int{0}
	}
	if spec.SnapStart {
		starts = append(append([]int(nil), starts...), 2)
	}

	for _, m := range g.Methods {
		b.frames = append(b.frames, newFrame(m, g.Course.Leadwise))
		L := m.LeadLen()

		seen := make(map[int]bool)
		var idx []int
		for _, s := range starts {
			s = ((s % L) + L) % L
			if !seen[s] {
				seen[s] = true
				idx = append(idx, s)
			}
		}
		b.startIdx = append(b.startIdx, idx)

		var ends map[int]bool
		if spec.EndIndices != nil {
			ends = make(map[int]bool)
			for _, e := range spec.EndIndices {
				ends[((e%L)+L)%L] = true
			}
		}
		b.endIdx = append(b.endIdx, ends)
	}
	return b
}

func (b *builder) endAllowed(mi, leadIdx int) bool {
	return b.endIdx[mi] == nil || b.endIdx[mi][leadIdx]
}

// locate finds the chunk position of a row r rung at offset within a lead
// of method mi: the lowest lead of the frame whose course head is allowed,
// canonicalized under the part group.
func (b *builder) locate(mi int, r row.Row, offset int) (head row.Row, idx, rot int, ok bool) {
	f := &b.frames[mi]
	L := b.g.Methods[mi].LeadLen()
	for k := 0; k < f.leads; k++ {
		idx = k*L + offset
		ch := row.Mul(r, f.inv[idx])
		if b.g.Course.Allows(mi, ch) {
			head, rot = b.g.Course.Parts.Canonical(ch)
			return head, idx, rot, true
		}
	}
	return nil, 0, 0, false
}

func (b *builder) add(c Chunk) (int, error) {
	if len(b.chunks) >= b.limit {
		return 0, ir.NewGraphSizeLimit(b.limit)
	}
	b.chunks = append(b.chunks, c)
	b.prefixEnds = append(b.prefixEnds, nil)
	return len(b.chunks) - 1, nil
}

func chunkKey(mi int, head row.Row, idx, endLen int) string {
	return fmt.Sprintf("%d/%s/%d/%d", mi, head.Key(), idx, endLen)
}

// intern returns the chunk starting at idx from head, creating it and the
// end chunks that are prefixes of it on first use.
func (b *builder) intern(mi int, head row.Row, idx int) (int, error) {
	key := chunkKey(mi, head, idx, 0)
	if id, ok := b.index[key]; ok {
		return id, nil
	}

	m := b.g.Methods[mi]
	f := &b.frames[mi]
	L := m.LeadLen()
	n := m.NextLabelled(idx % L)
	rows := make([]row.Row, n)
	for i := range rows {
		rows[i] = f.at(head, idx+i)
	}

	id, err := b.add(Chunk{Method: mi, Head: head, Index: idx, Len: n, Rows: rows})
	if err != nil {
		return 0, err
	}
	b.index[key] = id
	b.queue = append(b.queue, id)

	for k := 1; k < n; k++ {
		if !b.endAllowed(mi, (idx+k)%L) {
			continue
		}
		p, ok := b.g.Course.Parts.IndexOf(rows[k])
		if !ok {
			continue
		}
		eid, err := b.add(Chunk{
			Method: mi, Head: head, Index: idx, Len: k,
			End: true, EndRot: p, Rows: rows[:k:k],
		})
		if err != nil {
			return 0, err
		}
		b.index[chunkKey(mi, head, idx, k)] = eid
		b.prefixEnds[id] = append(b.prefixEnds[id], eid)
	}
	return id, nil
}

// linkTo appends links from the row after to the chunk of method mi that
// starts at offset within the lead, and to the end chunks that are its
// prefixes.
func (b *builder) linkTo(links []Link, mi int, after row.Row, offset int, proto Link) ([]Link, error) {
	head, idx, rot, ok := b.locate(mi, after, offset)
	if !ok {
		return links, nil
	}
	to, err := b.intern(mi, head, idx)
	if err != nil {
		return nil, err
	}
	proto.Rot = rot
	proto.To = to
	links = append(links, proto)
	for _, e := range b.prefixEnds[to] {
		proto.To = e
		links = append(links, proto)
	}
	return links, nil
}

func (b *builder) explore() error {
	g := b.g
	rounds := row.Rounds(g.Stage)
	for mi := range g.Methods {
		for _, s := range b.startIdx[mi] {
			var err error
			g.Starts, err = b.linkTo(g.Starts, mi, rounds, s, Link{Call: -1})
			if err != nil {
				return err
			}
		}
	}
	if len(g.Starts) == 0 {
		return ir.NewConfigError("course_heads", fmt.Sprint(g.Spec.CourseHeads),
			"no allowed course head lets the composition start from rounds")
	}

	for len(b.queue) > 0 {
		id := b.queue[0]
		b.queue = b.queue[1:]
		links, err := b.successors(id)
		if err != nil {
			return err
		}
		b.chunks[id].Links = links
	}
	return nil
}

type transition struct {
	after row.Row
	call  int
}

func (b *builder) successors(id int) ([]Link, error) {
	g := b.g
	c := b.chunks[id]
	m := g.Methods[c.Method]
	f := &b.frames[c.Method]

	end := c.Index + c.Len
	leadIdx := end % m.LeadLen()
	labels := m.Labels(leadIdx)
	last := c.Rows[c.Len-1]

	available := g.Calls.AtLabels(c.Method, labels)
	transitions := []transition{{after: f.at(c.Head, end), call: -1}}
	for _, ci := range available {
		transitions = append(transitions, transition{after: row.Mul(last, g.Calls.Call(ci).Change.Perm()), call: ci})
	}

	var (
		links []Link
		err   error
	)
	for _, t := range transitions {
		var (
			weight   float64
			position string
		)
		if t.call >= 0 {
			cl := g.Calls.Call(t.call)
			weight = cl.Weight
			position = cl.Position(t.after, g.Course.Observe)
		}

		if p, ok := g.Course.Parts.IndexOf(t.after); ok && b.endAllowed(c.Method, leadIdx) {
			links = append(links, Link{
				To: Terminal, Rot: p, Call: t.call,
				Weight: g.Score.Link(weight, false), Position: position,
			})
		}

		plain := Link{Call: t.call, Weight: g.Score.Link(weight, false), Position: position}
		if links, err = b.linkTo(links, c.Method, t.after, leadIdx, plain); err != nil {
			return nil, err
		}

		if !b.spliceAllowed(t.call, len(available) > 0) {
			continue
		}
		spliced := Link{Call: t.call, Splice: true, Weight: g.Score.Link(weight, true), Position: position}
		for mi, other := range g.Methods {
			if mi == c.Method {
				continue
			}
			seen := make(map[int]bool)
			for _, l := range labels {
				for _, j := range other.LabelIndices(l) {
					if seen[j] {
						continue
					}
					seen[j] = true
					if links, err = b.linkTo(links, mi, t.after, j, spliced); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	return links, nil
}

func (b *builder) spliceAllowed(callIdx int, callsHere bool) bool {
	switch b.g.Spec.SpliceStyle {
	case ir.SpliceCallLocations:
		return callsHere
	case ir.SpliceCalls:
		return callIdx >= 0
	default:
		return true
	}
}

// finish drops chunks that are self-false or cannot be part of a
// composition within the length limit, then computes falseness, scores and
// the search bound.
func (b *builder) finish() error {
	g := b.g
	n := len(b.chunks)
	parts := g.Course.Parts

	keys := make([][]string, n)
	dead := make([]bool, n)
	for i, c := range b.chunks {
		keys[i] = make([]string, len(c.Rows))
		for j, r := range c.Rows {
			canon, _ := parts.Canonical(r)
			keys[i][j] = canon.Key()
		}
		dead[i] = !g.Spec.AllowFalse && falseness.SelfFalse(keys[i])
	}

	from := make([]int, n)
	for i := range from {
		from[i] = unreachable
	}
	for _, l := range g.Starts {
		if !dead[l.To] {
			from[l.To] = 0
		}
	}
	shortest(from, unreachable, func(u int, visit func(v, cost int)) {
		c := &b.chunks[u]
		if dead[u] || c.End {
			return
		}
		for _, l := range c.Links {
			if l.To != Terminal && !dead[l.To] {
				visit(l.To, c.Len)
			}
		}
	})

	preds := make([][]int, n)
	to := make([]int, n)
	for u, c := range b.chunks {
		to[u] = unreachable
		if dead[u] {
			continue
		}
		if c.End {
			to[u] = c.Len
		}
		for _, l := range c.Links {
			if l.To == Terminal {
				to[u] = c.Len
			} else if !dead[l.To] {
				preds[l.To] = append(preds[l.To], u)
			}
		}
	}
	shortest(to, unreachable, func(v int, visit func(u, cost int)) {
		for _, u := range preds[v] {
			visit(u, b.chunks[u].Len)
		}
	})

	remap := make([]int, n)
	kept := 0
	for i := range b.chunks {
		remap[i] = -1
		if dead[i] || from[i] == unreachable || to[i] == unreachable || from[i]+to[i] > g.PartLength.Max {
			continue
		}
		remap[i] = kept
		kept++
	}

	retarget := func(links []Link) []Link {
		var out []Link
		for _, l := range links {
			if l.To != Terminal {
				if remap[l.To] < 0 {
					continue
				}
				l.To = remap[l.To]
			}
			out = append(out, l)
		}
		return out
	}

	g.Chunks = make([]Chunk, 0, kept)
	keptKeys := make([][]string, 0, kept)
	for i, c := range b.chunks {
		if remap[i] < 0 {
			continue
		}
		c.Links = retarget(c.Links)
		c.DistToEnd = to[i]
		c.Score = g.Score.Block(c.Head, c.Rows)
		c.Ceiling = g.Score.Ceiling(c.Head, c.Rows)
		g.Chunks = append(g.Chunks, c)
		keptKeys = append(keptKeys, keys[i])
	}
	g.Starts = retarget(g.Starts)
	if len(g.Starts) == 0 {
		return ir.NewConfigError("length", fmt.Sprintf("%d..%d", g.Spec.Length.Min, g.Spec.Length.Max),
			"no composition can come round within the maximum length")
	}
	g.Falseness = falseness.Build(keptKeys, g.Spec.AllowFalse)

	g.MaxRate = math.Inf(-1)
	g.MaxLinkWeight = math.Inf(-1)
	minLen := math.MaxInt
	for i := range g.Chunks {
		c := &g.Chunks[i]
		g.MaxRate = math.Max(g.MaxRate, score.Rate(c.Ceiling, c.Len))
		minLen = min(minLen, c.Len)
		for _, l := range c.Links {
			g.MaxLinkWeight = math.Max(g.MaxLinkWeight, l.Weight)
		}
	}
	if math.IsInf(g.MaxLinkWeight, -1) {
		g.MaxLinkWeight = 0
	}
	g.MaxRate += math.Max(0, g.MaxLinkWeight) / float64(minLen)
	g.computeFinish()
	return nil
}
