package urls

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// converters maps a parameter converter name to the expression it matches.
// A parameter without an explicit converter uses "str".
var converters = map[string]string{
	"str":  `[^/]+`,
	"int":  `[0-9]+`,
	"slug": `[-a-zA-Z0-9_]+`,
	"uuid": `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`,
	"path": `.+`,
}

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segment struct {
	literal   string
	param     string
	converter string
}

func (s segment) isParam() bool {
	return s.param != ""
}

// pattern is a compiled path template such as "registration/account-confirm-email/<str:key>/".
type pattern struct {
	raw      string
	segments []segment
	params   []string
	regex    *regexp.Regexp
	checks   map[string]*regexp.Regexp
}

func compilePattern(raw string) (*pattern, error) {
	if strings.HasPrefix(raw, "/") {
		return nil, fmt.Errorf("pattern must not start with '/'")
	}

	p := &pattern{
		raw:    raw,
		checks: make(map[string]*regexp.Regexp),
	}

	var expr strings.Builder
	expr.WriteByte('^')

	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '<')
		if closeIdx := strings.IndexByte(rest, '>'); closeIdx != -1 && (open == -1 || closeIdx < open) {
			return nil, fmt.Errorf("unexpected '>' at %q", rest)
		}
		if open == -1 {
			p.segments = append(p.segments, segment{literal: rest})
			expr.WriteString(regexp.QuoteMeta(rest))
			break
		}
		if open > 0 {
			p.segments = append(p.segments, segment{literal: rest[:open]})
			expr.WriteString(regexp.QuoteMeta(rest[:open]))
		}

		end := strings.IndexByte(rest[open:], '>')
		if end == -1 {
			return nil, fmt.Errorf("unclosed parameter in %q", rest[open:])
		}
		body := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		conv, name := "str", body
		if idx := strings.IndexByte(body, ':'); idx != -1 {
			conv, name = body[:idx], body[idx+1:]
		}
		if !identifierRegex.MatchString(name) {
			return nil, fmt.Errorf("invalid parameter name %q", name)
		}
		convExpr, ok := converters[conv]
		if !ok {
			return nil, fmt.Errorf("unknown converter %q for parameter %q", conv, name)
		}
		if _, dup := p.checks[name]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", name)
		}

		p.segments = append(p.segments, segment{param: name, converter: conv})
		p.params = append(p.params, name)
		p.checks[name] = regexp.MustCompile(`^(?:` + convExpr + `)$`)
		fmt.Fprintf(&expr, "(?P<%s>%s)", name, convExpr)
	}

	expr.WriteByte('$')

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", raw, err)
	}
	p.regex = re

	return p, nil
}

// match reports whether path fully matches the pattern and returns the
// captured parameters.
func (p *pattern) match(path string) (map[string]string, bool) {
	if len(p.params) == 0 {
		return map[string]string{}, path == p.raw
	}

	sub := p.regex.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}

	params := make(map[string]string, len(p.params))
	for i, name := range p.regex.SubexpNames() {
		if name != "" {
			params[name] = sub[i]
		}
	}
	return params, true
}

// build renders the pattern with params. The set of params must be exactly
// the pattern's parameters and every value must satisfy its converter.
func (p *pattern) build(params map[string]string) (string, error) {
	if len(params) != len(p.params) {
		return "", fmt.Errorf("expected parameters %v, got %d", p.params, len(params))
	}

	var buf strings.Builder
	for _, seg := range p.segments {
		if !seg.isParam() {
			buf.WriteString(seg.literal)
			continue
		}
		val, ok := params[seg.param]
		if !ok {
			return "", fmt.Errorf("missing required parameter: %s", seg.param)
		}
		if !p.checks[seg.param].MatchString(val) {
			return "", fmt.Errorf("parameter %s=%q does not match converter %s", seg.param, val, seg.converter)
		}
		if seg.converter == "path" {
			buf.WriteString(val)
		} else {
			buf.WriteString(url.PathEscape(val))
		}
	}

	return buf.String(), nil
}
