package switchboard

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Route describes how one script name is dispatched.
type Route struct {
	Name     string
	Handler  string
	Function string
	// Context flags are set in the request context before the handler runs.
	Context []string
	// Allow, when non-empty, lists the only accepted HTTP methods.
	Allow []string
	// Deny lists methods that are always rejected.
	Deny []string
}

// Permits reports whether the route accepts method.
func (r Route) Permits(method string) bool {
	method = strings.ToUpper(strings.TrimSpace(method))
	if slices.Contains(r.Deny, method) {
		return false
	}
	if len(r.Allow) == 0 {
		return true
	}
	return slices.Contains(r.Allow, method)
}

// HasContext reports whether flag is set for the route.
func (r Route) HasContext(flag string) bool {
	return slices.Contains(r.Context, flag)
}

// Table maps route names to routes.
type Table map[string]Route

var postOnly = []string{"POST"}

func ui(module, function string, context ...string) Route {
	return Route{Handler: "Foswiki::UI::" + module, Function: function, Context: context}
}

func (r Route) allow(methods ...string) Route {
	r.Allow = methods
	return r
}

func (r Route) deny(methods ...string) Route {
	r.Deny = methods
	return r
}

// presets is copied by Default; callers never see it directly.
var presets = map[string]Route{
	"attach":       ui("Attach", "attach", "attach"),
	"changes":      ui("Changes", "changes", "changes"),
	"compare":      {Handler: "Foswiki::Contrib::CompareRevisionsAddOn::Compare", Function: "compare", Context: []string{"comparing"}},
	"configure":    {Handler: "Foswiki::Configure::JsonRpc", Function: "dispatch", Context: []string{"configure", "jsonrpc"}},
	"edit":         ui("Edit", "edit", "edit"),
	"jsonrpc":      {Handler: "Foswiki::Contrib::JsonRpcContrib", Function: "dispatch", Context: []string{"jsonrpc"}},
	"login":        {Handler: "Foswiki::LoginManager", Function: "login", Context: []string{"login", "logon"}},
	"logon":        {Handler: "Foswiki::LoginManager", Function: "login", Context: []string{"logon"}},
	"manage":       ui("Manage", "manage", "manage").allow(postOnly...),
	"oops":         ui("Oops", "oops_cgi", "oops"),
	"preview":      ui("Preview", "preview", "preview"),
	"previewauth":  ui("Preview", "preview", "preview"),
	"rdiff":        ui("RDiff", "diff", "diff"),
	"rdiffauth":    ui("RDiff", "diff", "diff"),
	"register":     ui("Register", "register_cgi", "register").allow(postOnly...),
	"rename":       ui("Rename", "rename", "rename").allow(postOnly...),
	"resetpasswd":  ui("Passwords", "resetPassword", "resetpasswd").allow(postOnly...),
	"rest":         ui("Rest", "rest", "rest"),
	"restauth":     ui("Rest", "rest", "rest"),
	"save":         ui("Save", "save", "save").allow(postOnly...),
	"search":       ui("Search", "search", "search"),
	"statistics":   ui("Statistics", "statistics", "statistics"),
	"upload":       ui("Upload", "upload", "upload").allow(postOnly...),
	"view":         ui("View", "view", "view").deny("PUT", "DELETE"),
	"viewauth":     ui("View", "view", "view").deny("PUT", "DELETE"),
	"viewfile":     ui("Viewfile", "viewfile", "viewfile"),
	"viewfileauth": ui("Viewfile", "viewfile", "viewfile"),
}

// Default returns a fresh copy of the preset routes.
func Default() Table {
	t := make(Table, len(presets))
	for name, r := range presets {
		r.Name = name
		r.Context = slices.Clone(r.Context)
		r.Allow = slices.Clone(r.Allow)
		r.Deny = slices.Clone(r.Deny)
		t[name] = r
	}
	return t
}

// Names returns the route names in sorted order.
func (t Table) Names() []string {
	return slices.Sorted(maps.Keys(t))
}

// Lookup returns the route registered under name.
func (t Table) Lookup(name string) (Route, bool) {
	r, ok := t[name]
	return r, ok
}

// Validate checks that every route names a handler and a function and that
// no method is both allowed and denied.
func (t Table) Validate() error {
	for _, name := range t.Names() {
		r := t[name]
		if r.Handler == "" || r.Function == "" {
			return fmt.Errorf("route %s: handler and function are required", name)
		}
		for _, m := range r.Allow {
			if slices.Contains(r.Deny, m) {
				return fmt.Errorf("route %s: method %s both allowed and denied", name, m)
			}
		}
	}
	return nil
}
