package config

import (
	"path"
	"strings"

	mapset "github.com/deckarep/golang-set"
)

// NameFilter decides which variables are kept. A name passes when it matches
// the include list (or the list is empty) and does not match the exclude list.
type NameFilter struct {
	include matcher
	exclude matcher
}

type matcher struct {
	exact    mapset.Set
	patterns []string
}

func newMatcher(entries []string) matcher {
	m := matcher{exact: mapset.NewSet()}
	for _, e := range entries {
		if strings.ContainsAny(e, `*?[\`) {
			m.patterns = append(m.patterns, e)
		} else {
			m.exact.Add(e)
		}
	}
	return m
}

func (m matcher) empty() bool {
	return m.exact.Cardinality() == 0 && len(m.patterns) == 0
}

func (m matcher) match(name string) bool {
	if m.exact.Contains(name) {
		return true
	}
	for _, p := range m.patterns {
		if ok, _ := path.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Filter returns the name filter described by the include and exclude lists.
func (c *Config) Filter() *NameFilter {
	return &NameFilter{
		include: newMatcher(c.Include),
		exclude: newMatcher(c.Exclude),
	}
}

// Allows reports whether name passes the filter.
func (f *NameFilter) Allows(name string) bool {
	if f == nil {
		return true
	}
	if !f.include.empty() && !f.include.match(name) {
		return false
	}
	return !f.exclude.match(name)
}
