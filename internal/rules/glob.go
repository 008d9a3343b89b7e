package rules

import (
	"regexp"
	"strings"
	"sync"
)

// ExpandBraces expands a single level of {a,b,c} alternatives in a glob
// pattern. Nested braces expand recursively; a pattern without braces
// expands to itself. An unclosed brace is treated literally.
func ExpandBraces(pattern string) []string {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return []string{pattern}
	}

	depth := 0
	closing := -1
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				closing = i
			}
		}
		if closing >= 0 {
			break
		}
	}
	if closing < 0 {
		return []string{pattern}
	}

	prefix := pattern[:open]
	suffix := pattern[closing+1:]
	var out []string
	for _, alt := range splitAlternatives(pattern[open+1 : closing]) {
		for _, expanded := range ExpandBraces(prefix + alt + suffix) {
			out = append(out, expanded)
		}
	}
	return out
}

// splitAlternatives splits on commas at brace depth zero so nested groups
// stay intact.
func splitAlternatives(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// CompiledPattern is one glob pattern ready for matching. Wildcard patterns
// compile to anchored regexps; wildcard-free patterns are kept as literal
// alternatives and match a filename either exactly or by extension, so
// "{jpg,png}" matches "photo.png" without requiring authors to write
// "*.{jpg,png}".
type CompiledPattern struct {
	source   string
	regexps  []*regexp.Regexp
	literals []string
}

// Matches reports whether the filename satisfies the pattern. Matching is
// case-insensitive and always covers the full filename.
func (p *CompiledPattern) Matches(filename string) bool {
	for _, re := range p.regexps {
		if re.MatchString(filename) {
			return true
		}
	}
	if len(p.literals) > 0 {
		lower := strings.ToLower(filename)
		for _, lit := range p.literals {
			if lower == lit || strings.HasSuffix(lower, "."+lit) {
				return true
			}
		}
	}
	return false
}

// GlobMatcher compiles and caches glob patterns. Safe for concurrent use.
type GlobMatcher struct {
	mu    sync.Mutex
	cache map[string]*CompiledPattern
}

func NewGlobMatcher() *GlobMatcher {
	return &GlobMatcher{cache: make(map[string]*CompiledPattern)}
}

// ClearCache drops every compiled pattern.
func (m *GlobMatcher) ClearCache() {
	m.mu.Lock()
	m.cache = make(map[string]*CompiledPattern)
	m.mu.Unlock()
}

// Compile returns the compiled form of pattern, reusing a cached compile
// when one exists.
func (m *GlobMatcher) Compile(pattern string) (*CompiledPattern, error) {
	m.mu.Lock()
	if p, ok := m.cache[pattern]; ok {
		m.mu.Unlock()
		return p, nil
	}
	m.mu.Unlock()

	p, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[pattern] = p
	m.mu.Unlock()
	return p, nil
}

// Match compiles pattern (cached) and tests filename against it.
func (m *GlobMatcher) Match(pattern, filename string) (bool, error) {
	p, err := m.Compile(pattern)
	if err != nil {
		return false, err
	}
	return p.Matches(filename), nil
}

func compilePattern(pattern string) (*CompiledPattern, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, &GlobError{Pattern: pattern, Reason: "pattern is empty"}
	}

	p := &CompiledPattern{source: pattern}
	for _, alt := range ExpandBraces(pattern) {
		if !strings.ContainsAny(alt, "*?") {
			p.literals = append(p.literals, strings.ToLower(alt))
			continue
		}
		re, err := globToRegexp(alt)
		if err != nil {
			return nil, &GlobError{Pattern: pattern, Reason: err.Error()}
		}
		p.regexps = append(p.regexps, re)
	}
	return p, nil
}

// globToRegexp translates one brace-free glob into an anchored
// case-insensitive regexp. "*" matches any run of characters, "?" exactly
// one; everything else is literal.
func globToRegexp(glob string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
