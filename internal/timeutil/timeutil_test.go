package timeutil

import "testing"

func TestParseMinSec(t *testing.T) {
	cases := []struct {
		in      string
		seconds int
		ok      bool
	}{
		{"12:34", 754, true},
		{"0:00", 0, true},
		{"45:00", 2700, true},
		{"107:59", 6479, true},
		{"12:61", 0, false},
		{"HT", 0, false},
		{"", 0, false},
		{"12:3", 0, false},
		{"-1:00", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseMinSec(c.in)
		if ok != c.ok || got != c.seconds {
			t.Errorf("ParseMinSec(%q) = (%d,%v), want (%d,%v)", c.in, got, ok, c.seconds, c.ok)
		}
	}
}

func TestFormatMinSec(t *testing.T) {
	cases := map[int]string{
		0:    "0:00",
		754:  "12:34",
		2700: "45:00",
		2761: "46:01",
		-5:   "0:00",
	}
	for in, want := range cases {
		if got := FormatMinSec(in); got != want {
			t.Errorf("FormatMinSec(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatRoundTrips(t *testing.T) {
	for _, secs := range []int{0, 59, 60, 754, 5400} {
		parsed, ok := ParseMinSec(FormatMinSec(secs))
		if !ok || parsed != secs {
			t.Errorf("round trip failed for %d: got (%d,%v)", secs, parsed, ok)
		}
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1:  "1st",
		2:  "2nd",
		3:  "3rd",
		4:  "4th",
		9:  "9th",
		11: "11th",
		12: "12th",
		13: "13th",
		21: "21st",
		22: "22nd",
		23: "23rd",
	}
	for in, want := range cases {
		if got := Ordinal(in); got != want {
			t.Errorf("Ordinal(%d) = %q, want %q", in, got, want)
		}
	}
}
