package normalize

import "testing"

func TestName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Asset 1", "asset 1"},
		{" A  b ", "a b"},
		{"\tPayments API\n", "payments api"},
		{"MIXED   Case\tName", "mixed case name"},
	}
	for _, tc := range cases {
		if got := Name(tc.in); got != tc.want {
			t.Fatalf("Name(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNameIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " A  b ", "already normal", "Tabs\t\tand  spaces"}
	for _, in := range inputs {
		once := Name(in)
		if twice := Name(once); twice != once {
			t.Fatalf("Name not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNames(t *testing.T) {
	t.Parallel()

	got := Names([]string{"A", "  ", "b ", ""})
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("Names returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names returned %v, want %v", got, want)
		}
	}
}

func TestEqualNames(t *testing.T) {
	t.Parallel()

	if !EqualNames("Asset  1", " asset 1 ") {
		t.Fatal("expected names to compare equal")
	}
	if EqualNames("asset 1", "asset 2") {
		t.Fatal("expected names to compare unequal")
	}
}
