package parser

import "testing"

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2020-05-17", "2020-05-17"},
		{"2020-05", "2020-05-01"},
		{"2020", "2020-01-01"},
		{"Jan 2020", "2020-01-01"},
		{"January 2020", "2020-01-01"},
		{"Dec 2022", "2022-12-01"},
		{"sep 2021", "2021-09-01"},
		{"05/2020", "2020-05-01"},
		{"Present", ""},
		{"current", ""},
		{"", ""},
		{"  ", ""},
		{"garbage", ""},
		{"2020-13", ""},
		{"Foo 2020", ""},
	}

	for _, tc := range cases {
		if got := NormalizeDate(tc.in); got != tc.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace(" a \n b\t\tc  "); got != "a b c" {
		t.Errorf("collapseWhitespace = %q", got)
	}
}
