package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/ringer/internal/ir"
)

// parseMethods reads either `method` (one method) or `methods` (a list).
// Each entry is a library title or an inline table.
func (c *compiler) parseMethods(v cue.Value) ([]ir.MethodSpec, error) {
	one, hasOne := lookup(v, "method")
	list, hasList := lookup(v, "methods")
	switch {
	case hasOne && hasList:
		return nil, ir.NewConfigError("methods", "", "set either method or methods, not both")
	case hasOne:
		ms, err := c.parseMethod(one, "method")
		if err != nil {
			return nil, err
		}
		return []ir.MethodSpec{ms}, nil
	case !hasList:
		return nil, ir.NewConfigError("methods", "", "at least one method is required")
	}

	iter, err := list.List()
	if err != nil {
		return nil, cueConfigError(err, "")
	}
	var methods []ir.MethodSpec
	for i := 0; iter.Next(); i++ {
		ms, err := c.parseMethod(iter.Value(), fmt.Sprintf("methods[%d]", i))
		if err != nil {
			return nil, err
		}
		methods = append(methods, ms)
	}
	if len(methods) == 0 {
		return nil, ir.NewConfigError("methods", "", "at least one method is required")
	}
	return methods, nil
}

func (c *compiler) parseMethod(v cue.Value, path string) (ir.MethodSpec, error) {
	if title, err := v.String(); err == nil {
		return c.lookupTitle(title, path)
	}

	title := stringField(v, "title")
	if title == "" {
		title = stringField(v, "name")
	}

	var ms ir.MethodSpec
	if _, ok := lookup(v, "place_notation"); ok {
		ms = ir.MethodSpec{
			Title:         title,
			PlaceNotation: stringField(v, "place_notation"),
			Stage:         intField(v, "stage"),
		}
		if ms.Stage == 0 {
			return ir.MethodSpec{}, ir.NewConfigError(path+".stage", "", "stage is required with place_notation")
		}
	} else {
		if title == "" {
			return ir.MethodSpec{}, ir.NewConfigError(path, "", "a method needs a title or place_notation")
		}
		var err error
		if ms, err = c.lookupTitle(title, path+".title"); err != nil {
			return ir.MethodSpec{}, err
		}
		if stage := intField(v, "stage"); stage != 0 && stage != ms.Stage {
			return ir.MethodSpec{}, ir.NewConfigError(path+".stage", fmt.Sprint(stage),
				fmt.Sprintf("%s has stage %d", ms.Title, ms.Stage))
		}
	}
	if ms.Title == "" {
		ms.Title = ms.PlaceNotation
	}

	ms.Shorthand = stringField(v, "shorthand")
	if lv, ok := lookup(v, "lead_locations"); ok {
		iter, err := lv.Fields()
		if err != nil {
			return ir.MethodSpec{}, cueConfigError(err, "")
		}
		ms.LeadLocations = make(map[string][]int)
		for iter.Next() {
			ms.LeadLocations[iter.Label()] = intOrList(iter.Value())
		}
	}
	ms.CourseHeads = stringsField(v, "course_heads")
	if rv, ok := lookup(v, "count_range"); ok {
		r := parseRange(rv)
		ms.CountRange = &r
	}
	return ms, nil
}

func (c *compiler) lookupTitle(title, path string) (ir.MethodSpec, error) {
	ms, ok := c.lib.Lookup(title)
	if !ok {
		return ir.MethodSpec{}, ir.NewConfigError(path, title,
			"method is not in the library; give its place_notation and stage")
	}
	return ms, nil
}
