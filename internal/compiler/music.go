package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/ringer/internal/ir"
)

// loadMusicFile reads a music definition file, TOML or (by extension) YAML,
// holding a `music` list. A YAML file may also be a bare list.
func (c *compiler) loadMusicFile(name string) ([]ir.MusicSpec, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(c.dir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ir.NewConfigError("music_file", name, err.Error())
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, ir.NewConfigError("music_file", name, err.Error())
		}
		if list, ok := doc.([]any); ok {
			doc = map[string]any{"music": list}
		}
	default:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, tomlConfigError(err, name)
		}
		doc = m
	}

	v, err := c.schema.check(defMusicFile, doc, name)
	if err != nil {
		return nil, err
	}
	return parseMusicList(field(v, "music"))
}

func parseMusicList(v cue.Value) ([]ir.MusicSpec, error) {
	iter, err := v.List()
	if err != nil {
		return nil, cueConfigError(err, "")
	}
	var out []ir.MusicSpec
	for iter.Next() {
		ms, err := parseMusic(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, ms)
	}
	return out, nil
}

func parseMusic(v cue.Value) (ir.MusicSpec, error) {
	ms := ir.MusicSpec{
		Name:     stringField(v, "name"),
		Internal: boolField(v, "internal"),
		Weight:   floatField(v, "weight"),
	}
	if f, ok := lookup(v, "pattern"); ok {
		ms.Patterns = append(ms.Patterns, stringOrList(f, single)...)
	}
	ms.Patterns = append(ms.Patterns, stringsField(v, "patterns")...)
	if f, ok := lookup(v, "run_length"); ok {
		ms.RunLengths = append(ms.RunLengths, intOrList(f)...)
	}
	if f, ok := lookup(v, "run_lengths"); ok {
		ms.RunLengths = append(ms.RunLengths, intsOf(f)...)
	}
	if f, ok := lookup(v, "count"); ok {
		r := parseRange(f)
		ms.Count = &r
	}
	if f, ok := lookup(v, "count_each"); ok {
		r := parseRange(f)
		ms.CountEach = &r
	}

	var err error
	if ms.Stroke, err = ir.ParseStrokeSet(stringField(v, "stroke")); err != nil {
		return ir.MusicSpec{}, err
	}
	return ms, nil
}

func parseCourseHeadWeights(v cue.Value) ([]ir.CourseHeadWeight, error) {
	f, ok := lookup(v, "ch_weights")
	if !ok {
		return nil, nil
	}
	iter, err := f.List()
	if err != nil {
		return nil, cueConfigError(err, "")
	}
	var out []ir.CourseHeadWeight
	for i := 0; iter.Next(); i++ {
		wv := iter.Value()
		w := ir.CourseHeadWeight{Weight: floatField(wv, "weight")}
		if pv, ok := lookup(wv, "pattern"); ok {
			w.Patterns = append(w.Patterns, stringOrList(pv, single)...)
		}
		w.Patterns = append(w.Patterns, stringsField(wv, "patterns")...)
		if len(w.Patterns) == 0 {
			return nil, ir.NewConfigError(fmt.Sprintf("ch_weights[%d]", i), "", "pattern or patterns is required")
		}
		out = append(out, w)
	}
	return out, nil
}
