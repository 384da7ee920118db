package switchboard

import "testing"

func TestDefaultRoutes(t *testing.T) {
	table := Default()
	if err := table.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, name := range []string{"view", "edit", "save", "attach", "upload", "rest", "jsonrpc", "login",
		"register", "manage", "oops", "preview", "rdiff", "rename", "resetpasswd", "search",
		"changes", "statistics", "viewfile", "compare", "configure"} {
		r, ok := table.Lookup(name)
		if !ok {
			t.Fatalf("route %s missing", name)
		}
		if r.Name != name {
			t.Fatalf("route %s carries name %q", name, r.Name)
		}
	}
	names := table.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestRoutePermits(t *testing.T) {
	table := Default()
	cases := []struct {
		route  string
		method string
		want   bool
	}{
		{"save", "POST", true},
		{"save", "get", false},
		{"view", "GET", true},
		{"view", " delete ", false},
		{"search", "PATCH", true},
	}
	for _, tc := range cases {
		r, _ := table.Lookup(tc.route)
		if got := r.Permits(tc.method); got != tc.want {
			t.Errorf("%s.Permits(%q) = %v, want %v", tc.route, tc.method, got, tc.want)
		}
	}
}

func TestDefaultReturnsCopies(t *testing.T) {
	first := Default()
	r := first["view"]
	r.Context[0] = "mutated"
	first["view"] = r
	delete(first, "edit")

	second := Default()
	if !second["view"].HasContext("view") {
		t.Fatal("mutating one table leaked into the presets")
	}
	if _, ok := second.Lookup("edit"); !ok {
		t.Fatal("deleting from one table leaked into the presets")
	}
}

func TestValidateRejectsConflicts(t *testing.T) {
	table := Table{"bad": {Name: "bad", Handler: "H", Function: "f", Allow: []string{"POST"}, Deny: []string{"POST"}}}
	if err := table.Validate(); err == nil {
		t.Fatal("expected conflict error")
	}
	table = Table{"empty": {Name: "empty"}}
	if err := table.Validate(); err == nil {
		t.Fatal("expected missing handler error")
	}
}
