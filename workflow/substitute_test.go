package workflow

import "testing"

func TestSubstituteIndexed(t *testing.T) {
	cases := []struct {
		name    string
		tpl     string
		indexed []string
		want    string
	}{
		{"single", "echo ${1}", []string{"hi"}, "echo hi"},
		{"two-in-order", "${1} then ${2}", []string{"a", "b"}, "a then b"},
		{"out-of-range-deletes", "x ${5} y", []string{"a"}, "x  y"},
		{"not-a-token", "price is $100", nil, "price is $100"},
		{"digits-but-not-closed", "${2x}", []string{"a", "b"}, "${2x}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Substitute(tc.tpl, tc.indexed)
			if got != tc.want {
				t.Errorf("Substitute(%q, %v) = %q, want %q", tc.tpl, tc.indexed, got, tc.want)
			}
		})
	}
}

func TestSubstituteNamedScopesOverride(t *testing.T) {
	loop := mapScope{"i": "loop-val"}
	accum := mapScope{"i": "accum-val", "s": "accum-only"}
	vars := mapScope{"i": "var-val"}

	got := Substitute("${i} / ${s} / ${undeclared}", nil, loop, accum, vars)
	want := "var-val / accum-only / ${undeclared}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNamedScopesReadsExecutionContext(t *testing.T) {
	ec := NewExecutionContext(nil, nil)
	ec.SetAccumulator("log", "line1\nline2")
	ec.SetVariable("status", "ready")

	scopes := NamedScopes(ec, map[string]string{"i": "3"}, []string{"log"}, []string{"status"})
	got := Substitute("${i} ${log} ${status}", nil, scopes...)
	want := "3 line1\nline2 ready"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSanitizeShell(t *testing.T) {
	cases := []struct{ in, want string }{
		{`it's "quoted"; rm`, `it\'s \"quoted\"\; rm`},
		{"${evil}", `\${evil}`},
		{"line1\nline2", "line1\nline2"},
	}
	for _, tc := range cases {
		if got := SanitizeShell(tc.in); got != tc.want {
			t.Errorf("SanitizeShell(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizePrompt(t *testing.T) {
	if got := SanitizePrompt("${reenter} but not $plain"); got != `\${reenter} but not $plain` {
		t.Errorf("got %q", got)
	}
}
