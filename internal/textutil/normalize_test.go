package textutil_test

import (
	"testing"

	"idlens/internal/textutil"
)

func TestCollapseWhitespace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"   ", ""},
		{"DOE  JOHN", "DOE JOHN"},
		{"\tDOE JOHN\n", "DOE JOHN"},
		{"one two", "one two"},
	}
	for _, tc := range cases {
		if got := textutil.CollapseWhitespace(tc.in); got != tc.want {
			t.Errorf("CollapseWhitespace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"JOHN  QUINCY DOE", "John Quincy Doe"},
		{"doe", "Doe"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := textutil.NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeField(t *testing.T) {
	if got := textutil.NormalizeField(" d123-456\t78 "); got != "D123-456 78" {
		t.Fatalf("NormalizeField = %q", got)
	}
}
