package router

import (
	"log/slog"
	"net/http"
)

// compiledRule pairs a rule with its ready-to-serve handler.
type compiledRule struct {
	rule    Rule
	handler http.Handler
}

// Router dispatches each request to the first matching rule's handler, or
// to the relay when nothing matches. It is immutable after construction and
// safe for concurrent use.
type Router struct {
	rules  []compiledRule
	relay  http.Handler
	logger *slog.Logger
}

// New compiles a rule table against the relay and bridge handlers. Static
// rules get a file server rooted at the rule's directory with the rule's
// path prefix stripped.
func New(rules []Rule, relay, bridge http.Handler) *Router {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		var handler http.Handler
		switch rule.Target {
		case TargetRelay:
			handler = relay
		case TargetBridge:
			handler = bridge
		case TargetStatic:
			handler = http.StripPrefix(rule.Path, http.FileServer(http.Dir(rule.Dir)))
		}
		compiled = append(compiled, compiledRule{rule: rule, handler: handler})
	}

	return &Router{
		rules:  compiled,
		relay:  relay,
		logger: slog.Default().With("component", "router"),
	}
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, c := range rt.rules {
		if c.rule.matches(r.URL.Path) {
			rt.logger.Debug("route matched",
				"path", r.URL.Path,
				"rule", c.rule.Path,
				"target", c.rule.Target.String(),
			)
			c.handler.ServeHTTP(w, r)
			return
		}
	}
	rt.relay.ServeHTTP(w, r)
}
