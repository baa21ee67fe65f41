package compiler

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/ringer/internal/ir"
)

//go:embed schema.cue
var schemaCUE []byte

// Schema definitions checked by Compile.
const (
	defConfig    = "#Config"
	defMusicFile = "#MusicFile"
)

// schema is the compiled schema.cue. A cue.Context is not safe for
// concurrent use, so every Compile call builds its own.
type schema struct {
	ctx *cue.Context
	v   cue.Value
}

func newSchema() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}
	return &schema{ctx: ctx, v: v}, nil
}

// check unifies a decoded document with the named definition and returns
// the result with every default filled in. file names the source in error
// details and may be empty.
func (s *schema) check(def string, doc any, file string) (cue.Value, error) {
	v := s.ctx.Encode(doc)
	if err := v.Err(); err != nil {
		return cue.Value{}, cueConfigError(err, file)
	}
	u := s.v.LookupPath(cue.ParsePath(def)).Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, cueConfigError(err, file)
	}
	return u, nil
}

// cueConfigError reports the first CUE error as a config error naming the
// offending field.
func cueConfigError(err error, file string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return ir.NewConfigError("", "", err.Error())
	}
	first := errs[0]
	format, args := first.Msg()
	ce := ir.NewConfigError(fieldPath(first.Path()), "", fmt.Sprintf(format, args...))
	if file != "" || len(errs) > 1 {
		ce.Details = map[string]string{}
		if file != "" {
			ce.Details["file"] = file
		}
		if len(errs) > 1 {
			ce.Details["errors"] = strconv.Itoa(len(errs))
		}
	}
	return ce
}

// fieldPath renders a CUE error path in the config spelling, e.g.
// "methods[1].stage". Definition names are dropped.
func fieldPath(path []string) string {
	var sb strings.Builder
	for _, sel := range path {
		if strings.HasPrefix(sel, "#") {
			continue
		}
		if _, err := strconv.Atoi(sel); err == nil {
			fmt.Fprintf(&sb, "[%s]", sel)
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(sel)
	}
	return sb.String()
}
