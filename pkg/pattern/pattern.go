// Package pattern matches snapshot names against the filters used by sync,
// list and retention rules.
//
// A pattern is a glob (`zreplica_*_weekly`) unless it starts with "re:", in
// which case the rest is a regular expression that must match at the start
// of the name (`re:zreplica_.*_hourly`).
package pattern

import (
	"regexp"
	"strings"

	globlib "github.com/pachyderm/ohmyglob"

	"github.com/arthur-debert/zreplica/pkg/errors"
)

// RegexPrefix selects regular expression syntax.
const RegexPrefix = "re:"

// Pattern is a compiled name filter.
type Pattern struct {
	expr  string
	match func(string) bool
}

// Compile parses expr. An empty expression matches every name.
func Compile(expr string) (*Pattern, error) {
	if expr == "" {
		return &Pattern{match: func(string) bool { return true }}, nil
	}

	if rest, ok := strings.CutPrefix(expr, RegexPrefix); ok {
		re, err := regexp.Compile(`^(?:` + rest + `)`)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid regular expression '%s'", rest).
				WithDetail("pattern", expr)
		}
		return &Pattern{expr: expr, match: re.MatchString}, nil
	}

	g, err := globlib.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid glob '%s'", expr).
			WithDetail("pattern", expr)
	}
	return &Pattern{expr: expr, match: g.Match}, nil
}

// MustCompile is like Compile but panics on an invalid expression.
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches.
func (p *Pattern) Match(name string) bool {
	return p.match(name)
}

func (p *Pattern) String() string {
	return p.expr
}
