package proxy

import (
	"strings"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Matcher reports whether a remote host matches a compiled routing target.
type Matcher interface {
	Match(host string) bool
}

// GeositeLookup resolves a geosite tag into the set of domain-suffix
// entries a configured geosite database groups under that tag. Routing
// depends on this only through the interface, so internal/geosite never
// needs to be imported by internal/proxy directly.
type GeositeLookup func(tag string) ([]string, error)

type exactMatcher struct{ host string }

func (m exactMatcher) Match(host string) bool { return strings.EqualFold(m.host, host) }

type substringMatcher struct{ substr string }

func (m substringMatcher) Match(host string) bool {
	return strings.Contains(strings.ToLower(host), strings.ToLower(m.substr))
}

type suffixMatcher struct{ suffix string }

func (m suffixMatcher) Match(host string) bool {
	host = strings.ToLower(host)
	suffix := strings.ToLower(m.suffix)
	return host == suffix || strings.HasSuffix(host, "."+suffix)
}

// anyMatcher matches if any of its members match; used for geosite targets,
// which expand into a set of domain-suffix entries.
type anyMatcher struct{ members []Matcher }

func (m anyMatcher) Match(host string) bool {
	for _, sub := range m.members {
		if sub.Match(host) {
			return true
		}
	}
	return false
}

// CompileMatcher parses one target of the form "f:<exact>",
// "s:<substring>", "d:<domain-suffix>", or "geosite:<tag>" into a Matcher.
// geosite targets are expanded eagerly via lookup at compile time, so a
// rule's matcher never needs to consult the geosite store again at
// request time.
func CompileMatcher(target string, lookup GeositeLookup) (Matcher, error) {
	switch {
	case strings.HasPrefix(target, "f:"):
		return exactMatcher{host: strings.TrimPrefix(target, "f:")}, nil
	case strings.HasPrefix(target, "s:"):
		return substringMatcher{substr: strings.TrimPrefix(target, "s:")}, nil
	case strings.HasPrefix(target, "d:"):
		return suffixMatcher{suffix: strings.TrimPrefix(target, "d:")}, nil
	case strings.HasPrefix(target, "geosite:"):
		tag := strings.TrimPrefix(target, "geosite:")
		if lookup == nil {
			return nil, kerrors.New(kerrors.Parse, "proxy: target %q needs a geosite database, none configured", target)
		}
		entries, err := lookup(tag)
		if err != nil {
			return nil, kerrors.Wrap(err, "proxy: resolving geosite tag %q", tag)
		}
		members := make([]Matcher, 0, len(entries))
		for _, e := range entries {
			members = append(members, suffixMatcher{suffix: e})
		}
		return anyMatcher{members: members}, nil
	default:
		return nil, kerrors.New(kerrors.Parse, "proxy: unrecognized target spec %q", target)
	}
}

// CompileMatchers ORs several target specs into one Matcher, used when a
// rule names more than one target.
func CompileMatchers(targets []string, lookup GeositeLookup) (Matcher, error) {
	members := make([]Matcher, 0, len(targets))
	for _, t := range targets {
		m, err := CompileMatcher(t, lookup)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return anyMatcher{members: members}, nil
}
