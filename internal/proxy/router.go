package proxy

import "github.com/kerneld-io/kerneld/internal/kerrors"

// Router holds the compiled routing table and resolves a source/remote pair
// to an egress id.
type Router struct {
	rules []Rule
}

// NewRouter builds a router from an already-compiled rule set, in config
// order; order matters because route resolves to the first matching (or,
// failing that, first source-containing) rule.
func NewRouter(rules []Rule) *Router {
	return &Router{rules: rules}
}

// Route returns the egress id to use for a request arriving on sourceID
// bound for remote: the first rule whose source-ids contains sourceID and
// whose matcher accepts remote is used; if no rule matches, the first rule
// with a containing source-ids is used as a fallback; otherwise routing
// fails.
func (r *Router) Route(sourceID string, remote NetLocation) (string, error) {
	var fallback *Rule
	for i := range r.rules {
		rule := &r.rules[i]
		if !rule.hasSource(sourceID) {
			continue
		}
		if fallback == nil {
			fallback = rule
		}
		if rule.Matcher.Match(remote.Host) {
			return rule.Dest, nil
		}
	}
	if fallback != nil {
		return fallback.Dest, nil
	}
	return "", kerrors.New(kerrors.NotFound, "proxy: no routing rule for source %q to %s", sourceID, remote.Address())
}
