package router

import "path/filepath"

// Target identifies which handler a rule routes to.
type Target int

const (
	// TargetRelay forwards the request to the upstream over HTTPS.
	TargetRelay Target = iota

	// TargetBridge upgrades the connection and bridges it to the upstream
	// WebSocket endpoint.
	TargetBridge

	// TargetStatic serves the request from a local directory.
	TargetStatic
)

func (t Target) String() string {
	switch t {
	case TargetRelay:
		return "relay"
	case TargetBridge:
		return "bridge"
	case TargetStatic:
		return "static"
	default:
		return "unknown"
	}
}

// Rule maps one path pattern to a target. Rules are evaluated in order;
// the first match wins, so more specific rules precede the prefixes that
// contain them.
type Rule struct {
	// Path is the pattern. For exact rules it must equal the request path;
	// otherwise it matches the path itself and any sub-path below it.
	Path string

	// Exact restricts the rule to a literal path match.
	Exact bool

	// Target selects the handler.
	Target Target

	// Dir is the local directory root for TargetStatic rules.
	Dir string
}

// matches reports whether the request path falls under the rule.
func (r Rule) matches(path string) bool {
	if path == r.Path {
		return true
	}
	if r.Exact {
		return false
	}
	return len(path) > len(r.Path) && path[:len(r.Path)] == r.Path && path[len(r.Path)] == '/'
}

// LayoutConfig selects and parameterizes a rule table.
type LayoutConfig struct {
	// GridLayout selects the path layout: false for the application layout
	// (static under /app), true for the grid layout (/ws, /api, named
	// static subtrees).
	GridLayout bool

	// Transparent disables all local static serving, forwarding those
	// paths to the upstream instead.
	Transparent bool

	// SourceData is the local directory holding application static assets.
	SourceData string

	// Help is the local directory holding help assets.
	Help string
}

// Layout builds the rule table for the configuration. The final catch-all
// relay is implicit: paths matching no rule go to the relay.
func Layout(cfg LayoutConfig) []Rule {
	var rules []Rule
	if cfg.GridLayout {
		rules = gridLayout(cfg)
	} else {
		rules = appLayout(cfg)
	}

	if cfg.Transparent {
		for i := range rules {
			if rules[i].Target == TargetStatic {
				rules[i].Target = TargetRelay
				rules[i].Dir = ""
			}
		}
	}
	return rules
}

// appLayout is the default layout: the application lives under /app.
// The four literal help sub-paths are dynamic endpoints served by the
// backend and must bypass static help serving.
func appLayout(cfg LayoutConfig) []Rule {
	return []Rule{
		{Path: "/app/help/search", Exact: true, Target: TargetRelay},
		{Path: "/app/help/searchprogress", Exact: true, Target: TargetRelay},
		{Path: "/app/help/context/node-view", Exact: true, Target: TargetRelay},
		{Path: "/app/help/context/node-wizard", Exact: true, Target: TargetRelay},
		{Path: "/app/static", Target: TargetStatic, Dir: cfg.SourceData},
		{Path: "/app/help", Target: TargetStatic, Dir: cfg.Help},
		{Path: "/app/eventsSocket", Exact: true, Target: TargetBridge},
	}
}

// gridLayout is the alternative layout with root-level endpoints and named
// static subtrees under the sourcedata directory.
func gridLayout(cfg LayoutConfig) []Rule {
	rules := []Rule{
		{Path: "/ws", Exact: true, Target: TargetBridge},
		{Path: "/api", Target: TargetRelay},
	}
	for _, name := range []string{"fonts", "vendor", "images", "scripts", "styles", "localization"} {
		rules = append(rules, Rule{
			Path:   "/" + name,
			Target: TargetStatic,
			Dir:    filepath.Join(cfg.SourceData, name),
		})
	}
	rules = append(rules, Rule{Path: "/help", Target: TargetStatic, Dir: cfg.Help})
	return rules
}
