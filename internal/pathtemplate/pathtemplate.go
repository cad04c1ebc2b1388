// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package pathtemplate compiles and evaluates the URL path templates used by
// the Vertex AI HTTP bindings, e.g.
//
//	/v1/{parent=projects/*/locations/*}/datasets
//	/v1/{name=projects/*/locations/*/operations/*}:cancel
//
// A template is a sequence of literal segments and named variables. A
// variable binds a request field path to a resource-name pattern built from
// literal segments, "*" (exactly one segment) and "**" (the remainder of the
// path). Matching and instantiation are pure string operations.
package pathtemplate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-a2a/aiplatform/internal/pool"
)

// ErrMismatch is the sentinel wrapped by Instantiate when a supplied value
// does not satisfy the variable's pattern, or a variable has no value at
// all. Callers trying an ordered template list treat it as "no match, try
// the next one".
var ErrMismatch = fmt.Errorf("path template mismatch")

type part struct {
	literal  string
	varIndex int // -1 for literals
}

// Template is a compiled path template. Compile once, use concurrently.
type Template struct {
	raw   string
	parts []part
	verb  string // trailing ":verb", including the colon, or ""

	vars        []string         // field paths, in template order
	varPatterns []*regexp.Regexp // full-match pattern per variable
	re          *regexp.Regexp   // full-path reverse match
}

// MustParse is Parse for template literals known at compile time.
func MustParse(raw string) *Template {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse compiles raw into a Template.
func Parse(raw string) (*Template, error) {
	t := &Template{raw: raw}

	body := raw
	// A verb suffix can only follow the final '}' or final literal segment.
	if i := strings.LastIndexByte(raw, ':'); i > strings.LastIndexByte(raw, '}') && i > strings.LastIndexByte(raw, '/') {
		body, t.verb = raw[:i], raw[i:]
	}

	var reb strings.Builder
	reb.WriteString("^")
	for len(body) > 0 {
		open := strings.IndexByte(body, '{')
		if open < 0 {
			t.parts = append(t.parts, part{literal: body, varIndex: -1})
			reb.WriteString(regexp.QuoteMeta(body))
			break
		}
		if open > 0 {
			lit := body[:open]
			t.parts = append(t.parts, part{literal: lit, varIndex: -1})
			reb.WriteString(regexp.QuoteMeta(lit))
		}
		closing := strings.IndexByte(body[open:], '}')
		if closing < 0 {
			return nil, fmt.Errorf("pathtemplate: unterminated variable in %q", raw)
		}
		closing += open

		field, pattern, ok := strings.Cut(body[open+1:closing], "=")
		if !ok {
			pattern = "*"
		}
		if field == "" {
			return nil, fmt.Errorf("pathtemplate: empty variable name in %q", raw)
		}
		patternRe, err := compilePattern(pattern)
		if err != nil {
			return nil, fmt.Errorf("pathtemplate: %q: %w", raw, err)
		}

		idx := len(t.vars)
		t.parts = append(t.parts, part{varIndex: idx})
		t.vars = append(t.vars, field)
		t.varPatterns = append(t.varPatterns, regexp.MustCompile("^"+patternRe+"$"))
		fmt.Fprintf(&reb, "(?P<v%d>%s)", idx, patternRe)

		body = body[closing+1:]
	}
	reb.WriteString(regexp.QuoteMeta(t.verb))
	reb.WriteString("$")

	re, err := regexp.Compile(reb.String())
	if err != nil {
		return nil, fmt.Errorf("pathtemplate: %q: %w", raw, err)
	}
	t.re = re
	return t, nil
}

// compilePattern translates a resource-name pattern into a regexp fragment.
func compilePattern(pattern string) (string, error) {
	segs := strings.Split(pattern, "/")
	var b strings.Builder
	for i, seg := range segs {
		if i > 0 {
			b.WriteString("/")
		}
		switch seg {
		case "*":
			b.WriteString("[^/]+")
		case "**":
			if i != len(segs)-1 {
				return "", fmt.Errorf("%q: ** must be the final segment", pattern)
			}
			b.WriteString(".*")
		case "":
			return "", fmt.Errorf("%q: empty segment", pattern)
		default:
			b.WriteString(regexp.QuoteMeta(seg))
		}
	}
	return b.String(), nil
}

// String returns the template source text.
func (t *Template) String() string { return t.raw }

// Vars returns the request field paths bound by the template, in order.
func (t *Template) Vars() []string { return t.vars }

// Instantiate replaces every variable with its value from vars, validating
// each value against the variable's pattern. A missing or non-conforming
// value returns an error wrapping [ErrMismatch].
func (t *Template) Instantiate(vars map[string]string) (string, error) {
	b := pool.String.Get()
	b.Reset()
	defer pool.String.Put(b)
	for _, p := range t.parts {
		if p.varIndex < 0 {
			b.WriteString(p.literal)
			continue
		}
		field := t.vars[p.varIndex]
		v, ok := vars[field]
		if !ok || v == "" {
			return "", fmt.Errorf("%w: no value for {%s} in %q", ErrMismatch, field, t.raw)
		}
		if !t.varPatterns[p.varIndex].MatchString(v) {
			return "", fmt.Errorf("%w: %q does not match {%s} in %q", ErrMismatch, v, field, t.raw)
		}
		b.WriteString(v)
	}
	b.WriteString(t.verb)
	return b.String(), nil
}

// Match reverse-matches a concrete path against the template, reporting the
// captured variable values.
func (t *Template) Match(path string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	vars := make(map[string]string, len(t.vars))
	for i, field := range t.vars {
		vars[field] = m[t.re.SubexpIndex(fmt.Sprintf("v%d", i))]
	}
	return vars, true
}
