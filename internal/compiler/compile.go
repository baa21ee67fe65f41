// Package compiler turns a TOML search configuration into an ir.SearchSpec.
//
// Compilation runs in three steps:
//
//  1. Decode the TOML document with go-toml.
//  2. Check its shape against the embedded CUE schema (schema.cue), which
//     also supplies every default.
//  3. Normalize the unified value: expand length presets, look method
//     titles up in the built-in library, load the music file and convert
//     enums.
//
// Every failure is an ir.SetupError, so callers can tell a bad
// configuration apart from an I/O failure.
package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"github.com/pelletier/go-toml/v2"

	"github.com/roach88/ringer/internal/ir"
	"github.com/roach88/ringer/internal/method/library"
)

// CompileFile reads and compiles the configuration at path. A music_file
// is resolved relative to the configuration's directory.
func CompileFile(path string) (*ir.SearchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Compile(data, filepath.Dir(path))
}

// Compile compiles a TOML configuration. dir is the directory a relative
// music_file is resolved against.
func Compile(data []byte, dir string) (*ir.SearchSpec, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, tomlConfigError(err, "")
	}

	s, err := newSchema()
	if err != nil {
		return nil, err
	}
	v, err := s.check(defConfig, doc, "")
	if err != nil {
		return nil, err
	}

	lib, err := library.Default()
	if err != nil {
		return nil, err
	}
	c := &compiler{schema: s, lib: lib, dir: dir}
	spec, err := c.compile(v)
	if err != nil {
		return nil, err
	}
	if errs := Validate(spec); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return spec, nil
}

// tomlConfigError reports a TOML syntax error with its position.
func tomlConfigError(err error, file string) error {
	ce := ir.NewConfigError("", "", err.Error())
	var de *toml.DecodeError
	if errors.As(err, &de) {
		line, col := de.Position()
		ce.Details = map[string]string{
			"line":   fmt.Sprint(line),
			"column": fmt.Sprint(col),
		}
		if file != "" {
			ce.Details["file"] = file
		}
	}
	return ce
}

type compiler struct {
	schema *schema
	lib    *library.Library
	dir    string
}

func (c *compiler) compile(v cue.Value) (*ir.SearchSpec, error) {
	spec := &ir.SearchSpec{}
	var err error

	if spec.Length, err = parseLength(field(v, "length")); err != nil {
		return nil, err
	}
	spec.NumComps = intField(v, "num_comps")
	spec.AllowFalse = boolField(v, "allow_false")

	if spec.Methods, err = c.parseMethods(v); err != nil {
		return nil, err
	}
	if spec.SpliceStyle, err = ir.ParseSpliceStyle(stringField(v, "splice_style")); err != nil {
		return nil, err
	}
	spec.SpliceWeight = floatField(v, "splice_weight")
	spec.MethodCount = ir.OpenRange()
	if f, ok := lookup(v, "method_count"); ok {
		spec.MethodCount = parseRange(f)
	}

	if spec.BaseCalls, err = ir.ParseBaseCalls(stringField(v, "base_calls")); err != nil {
		return nil, err
	}
	spec.BobWeight = floatField(v, "bob_weight")
	spec.SingleWeight = floatField(v, "single_weight")
	if spec.Calls, err = parseCalls(v); err != nil {
		return nil, err
	}

	if f, ok := lookup(v, "music_file"); ok {
		name, _ := f.String()
		music, err := c.loadMusicFile(name)
		if err != nil {
			return nil, err
		}
		spec.Music = append(spec.Music, music...)
	}
	if f, ok := lookup(v, "music"); ok {
		music, err := parseMusicList(f)
		if err != nil {
			return nil, err
		}
		spec.Music = append(spec.Music, music...)
	}
	if spec.StartStroke, err = ir.ParseStroke(stringField(v, "start_stroke")); err != nil {
		return nil, err
	}

	spec.PartHead = stringField(v, "part_head")
	spec.CourseHeads = stringsField(v, "course_heads")
	spec.SplitTenors = boolField(v, "split_tenors")
	if spec.CourseHeadWeights, err = parseCourseHeadWeights(v); err != nil {
		return nil, err
	}
	spec.HandbellCoursingWeight = floatField(v, "handbell_coursing_weight")
	if f, ok := lookup(v, "leadwise"); ok {
		b, _ := f.Bool()
		spec.Leadwise = &b
	}

	spec.SnapStart = boolField(v, "snap_start")
	spec.StartIndices = []int{0}
	if f, ok := lookup(v, "start_indices"); ok {
		spec.StartIndices = intsOf(f)
	}
	if f, ok := lookup(v, "end_indices"); ok {
		spec.EndIndices = intsOf(f)
	}
	return spec, nil
}

func parseLength(v cue.Value) (ir.Length, error) {
	if n, err := v.Int64(); err == nil {
		return ir.ExactLength(int(n)), nil
	}
	if name, err := v.String(); err == nil {
		l, ok := ir.LengthPresets[name]
		if !ok {
			return ir.Length{}, ir.NewConfigError("length", name, "unknown length preset")
		}
		return l, nil
	}
	return ir.Length{Min: intField(v, "min"), Max: intField(v, "max")}, nil
}

func parseCalls(v cue.Value) ([]ir.CallSpec, error) {
	f, ok := lookup(v, "calls")
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, cueConfigError(err, "")
	}
	var calls []ir.CallSpec
	for iter.Next() {
		cv := iter.Value()
		call := ir.CallSpec{
			Symbol:        stringField(cv, "symbol"),
			DebugSymbol:   stringField(cv, "debug_symbol"),
			PlaceNotation: stringField(cv, "place_notation"),
			LeadLocation:  stringField(cv, "lead_location"),
			Weight:        floatField(cv, "weight"),
		}
		if pv, ok := lookup(cv, "calling_positions"); ok {
			call.CallingPositions = stringOrList(pv, splitPositions)
		}
		calls = append(calls, call)
	}
	return calls, nil
}

// splitPositions reads a string of calling positions as one position per
// character, e.g. "LIBFVMWH".
func splitPositions(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// parseRange reads a {min, max} table. A missing max is unbounded.
func parseRange(v cue.Value) ir.Range {
	r := ir.OpenRange()
	if f, ok := lookup(v, "min"); ok {
		n, _ := f.Int64()
		r.Min = int(n)
	}
	if f, ok := lookup(v, "max"); ok {
		n, _ := f.Int64()
		r.Max = int(n)
	}
	return r
}

// lookup returns the named field with its default resolved, and whether
// the configuration (or a schema default) set it.
func lookup(v cue.Value, name string) (cue.Value, bool) {
	f := v.LookupPath(cue.MakePath(cue.Str(name)))
	if !f.Exists() {
		return f, false
	}
	f, _ = f.Default()
	return f, true
}

func field(v cue.Value, name string) cue.Value {
	f, _ := lookup(v, name)
	return f
}

// The scalar readers below return the zero value for an unset field. The
// schema has already checked every type.

func stringField(v cue.Value, name string) string {
	s, _ := field(v, name).String()
	return s
}

func intField(v cue.Value, name string) int {
	n, _ := field(v, name).Int64()
	return int(n)
}

func floatField(v cue.Value, name string) float64 {
	f, _ := field(v, name).Float64()
	return f
}

func boolField(v cue.Value, name string) bool {
	b, _ := field(v, name).Bool()
	return b
}

func stringsField(v cue.Value, name string) []string {
	f, ok := lookup(v, name)
	if !ok {
		return nil
	}
	var out []string
	iter, err := f.List()
	if err != nil {
		return nil
	}
	for iter.Next() {
		s, _ := iter.Value().String()
		out = append(out, s)
	}
	return out
}

func intsOf(v cue.Value) []int {
	out := []int{}
	iter, err := v.List()
	if err != nil {
		return out
	}
	for iter.Next() {
		n, _ := iter.Value().Int64()
		out = append(out, int(n))
	}
	return out
}

// stringOrList reads a field that is either one string, expanded by one,
// or a list of strings.
func stringOrList(v cue.Value, one func(string) []string) []string {
	if s, err := v.String(); err == nil {
		return one(s)
	}
	var out []string
	iter, err := v.List()
	if err != nil {
		return nil
	}
	for iter.Next() {
		s, _ := iter.Value().String()
		out = append(out, s)
	}
	return out
}

func single(s string) []string { return []string{s} }

// intOrList reads a field that is either one int or a list of ints.
func intOrList(v cue.Value) []int {
	if n, err := v.Int64(); err == nil {
		return []int{int(n)}
	}
	return intsOf(v)
}

