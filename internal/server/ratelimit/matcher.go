package ratelimit

import "strings"

// unlimited is returned for probe endpoints.
var unlimited = Rule{Path: "*"}

// MatchRule returns the rule for a request, or nil to use the default limit.
// Exact paths win over prefixes; health and metrics probes are never limited.
func MatchRule(path, method string, rules []Rule) *Rule {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		return &unlimited
	}

	for i := range rules {
		if rules[i].Method == method && rules[i].Path == path {
			return &rules[i]
		}
	}

	var best *Rule
	for i := range rules {
		r := &rules[i]
		if r.Method != method || !strings.HasSuffix(r.Path, "/") || !strings.HasPrefix(path, r.Path) {
			continue
		}
		if best == nil || len(r.Path) > len(best.Path) {
			best = r
		}
	}
	return best
}
