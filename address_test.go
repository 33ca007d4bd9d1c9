package score

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestAddressKey(t *testing.T) {
	tests := []struct {
		addr Address
		want string
	}{
		{SystemAddress("r1"), "r1"},
		{StaffAddress("r1", 2), "r1/2"},
		{MeasureAddress("r1", 0, 7), "r1/0.7"},
		{EntryAddress("r1", 0, 2, 0, 1, 3), "r1/0.2.0.1.3"},
		{NoteAddress("r1", 0, 2, 0, 1, 3, -4), "r1/0.2.0.1.3@-4"},
	}
	for _, tt := range tests {
		if got := tt.addr.Key(); got != tt.want {
			t.Errorf("Key() = %q, want %q", got, tt.want)
		}
	}
}

func TestAddressChildAndParent(t *testing.T) {
	a := SystemAddress("r").Child(1).Child(2).Child(0).Child(3).Child(4).Child(-2)
	want := NoteAddress("r", 1, 2, 0, 3, 4, -2)
	if a != want {
		t.Fatalf("Child chain = %v, want %v", a, want)
	}

	if got := a.Parent(); got != EntryAddress("r", 1, 2, 0, 3, 4) {
		t.Errorf("Parent() = %v", got)
	}
	if got := a.Ancestor(LevelMeasure); got != MeasureAddress("r", 1, 2) {
		t.Errorf("Ancestor(measure) = %v", got)
	}
	if got := a.Ancestor(LevelSystem); got != SystemAddress("r") {
		t.Errorf("Ancestor(system) = %v", got)
	}
	if got := SystemAddress("r").Parent(); got != SystemAddress("r") {
		t.Errorf("system Parent() = %v, want itself", got)
	}
	if a.Ordinal() != -2 || a.Parent().Ordinal() != 4 {
		t.Errorf("Ordinal() = %d, parent %d", a.Ordinal(), a.Parent().Ordinal())
	}
}

func TestAddressChildOfNoteFaults(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrInternal) {
			t.Errorf("recovered %v, want ErrInternal", r)
		}
	}()
	NoteAddress("r", 0, 0, 0, 0, 0, 1).Child(0)
}

func TestAddressAsMapKey(t *testing.T) {
	seen := map[Address]bool{}
	seen[EntryAddress("r", 0, 1, 0, 0, 2)] = true
	if !seen[MeasureAddress("r", 0, 1).Child(0).Child(0).Child(2)] {
		t.Error("equal addresses should find the same map entry")
	}
	if seen[EntryAddress("other", 0, 1, 0, 0, 2)] {
		t.Error("addresses under different roots should differ")
	}
}

func TestAddressHash(t *testing.T) {
	a := NoteAddress("r", 0, 1, 0, 0, 2, 5)
	b := EntryAddress("r", 0, 1, 0, 0, 2).Child(5)
	if a.Hash() != b.Hash() {
		t.Error("equal addresses should hash equally")
	}
	if a.Hash() == a.Parent().Hash() {
		t.Error("a note and its entry should not share a hash")
	}
}

func TestParseAddressMalformed(t *testing.T) {
	for _, key := range []string{"", "r/", "r/a", "r/0.-1", "r/0.0.0.0.0.0", "r/0.0@3", "r/0.0.0.0.0@x"} {
		if _, err := ParseAddress(key); !errors.Is(err, ErrMalformedAddress) {
			t.Errorf("ParseAddress(%q) error = %v, want ErrMalformedAddress", key, err)
		}
	}
}

func TestParseAddressRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		root := rapid.StringMatching(`[a-z0-9-]{1,8}`).Draw(t, "root")
		a := SystemAddress(root)
		for range rapid.IntRange(0, int(LevelEntry)).Draw(t, "depth") {
			a = a.Child(rapid.IntRange(0, 50).Draw(t, "ordinal"))
		}
		if a.Level == LevelEntry && rapid.Bool().Draw(t, "note") {
			a = a.Child(rapid.IntRange(-20, 20).Draw(t, "position"))
		}

		got, err := ParseAddress(a.Key())
		if err != nil {
			t.Fatalf("ParseAddress(%q): %v", a.Key(), err)
		}
		if got != a {
			t.Fatalf("ParseAddress(%q) = %v, want %v", a.Key(), got, a)
		}
	})
}
