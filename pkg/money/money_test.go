package money

import "testing"

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"50.00":  5000,
		"50":     5000,
		" 0.5 ":  50,
		"120.99": 12099,
		"0":      0,
		"-3.10":  -310,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		if err != nil {
			t.Fatalf("ParseCents(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseCents(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseCentsRejectsBadInput(t *testing.T) {
	for _, in := range []string{"", "abc", "1.005", "1e30"} {
		if _, err := ParseCents(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestFormatCents(t *testing.T) {
	if got := FormatCents(5000); got != "50.00" {
		t.Fatalf("expected 50.00, got %s", got)
	}
	if got := FormatCents(7); got != "0.07" {
		t.Fatalf("expected 0.07, got %s", got)
	}
}

func TestApplyPercent(t *testing.T) {
	if got := ApplyPercent(15000, 10); got != 13500 {
		t.Fatalf("expected 13500, got %d", got)
	}
	if got := ApplyPercent(999, 15); got != 849 {
		t.Fatalf("expected 849, got %d", got)
	}
	if got := ApplyPercent(1000, 0); got != 1000 {
		t.Fatalf("expected unchanged amount, got %d", got)
	}
	if got := ApplyPercent(1000, 100); got != 0 {
		t.Fatalf("expected zero, got %d", got)
	}
}
